//go:build integration

package series

import (
	"context"
	"testing"
	"time"

	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/muhammadchandra19/price-rollup/pkg/migration"
	"github.com/muhammadchandra19/price-rollup/pkg/postgresql"
	"github.com/stretchr/testify/suite"
)

type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgresql.TestContainer
	repo      *Repository
}

func TestRepositoryIntegration(t *testing.T) {
	suite.Run(t, new(RepositoryIntegrationSuite))
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgresql.NewTestContainer(s.ctx, nil)
	s.Require().NoError(err)
	s.container = container

	runner := migration.NewRunner(container.Client, logger.NewNop(), Migrations(), migration.Config{})
	s.Require().NoError(runner.MigrateUp(s.ctx, 0))

	s.repo = NewRepository(container.Client, logger.NewNop(), 5*time.Second)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		s.Require().NoError(s.container.Close(s.ctx))
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	s.Require().NoError(s.container.TruncateTables(s.ctx, "series_samples", "series_definitions"))
}

func (s *RepositoryIntegrationSuite) TestEnsureIsIdempotent() {
	defs := series.NewKeys(series.DefaultPrefix).Definitions()

	created, err := s.repo.Ensure(s.ctx, defs)
	s.Require().NoError(err)
	s.Len(created, len(defs))

	created, err = s.repo.Ensure(s.ctx, defs)
	s.Require().NoError(err)
	s.Empty(created)
}

func (s *RepositoryIntegrationSuite) TestAppendLastWriteWins() {
	_, err := s.repo.Ensure(s.ctx, []series.Definition{{Name: "btc:price:minute", Retention: 2 * time.Hour}})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Append(s.ctx, "btc:price:minute", series.Sample{Timestamp: 60_000, Value: 100}))
	s.Require().NoError(s.repo.Append(s.ctx, "btc:price:minute", series.Sample{Timestamp: 60_000, Value: 105}))

	samples, err := s.repo.LastN(s.ctx, "btc:price:minute", 5)
	s.Require().NoError(err)
	s.Equal([]series.Sample{{Timestamp: 60_000, Value: 105}}, samples)
}

func (s *RepositoryIntegrationSuite) TestRetentionAndLastN() {
	_, err := s.repo.Ensure(s.ctx, []series.Definition{{Name: "btc:price:minute", Retention: 2 * time.Hour}})
	s.Require().NoError(err)

	const minute = int64(60_000)
	for i := int64(0); i < 180; i++ {
		s.Require().NoError(s.repo.Append(s.ctx, "btc:price:minute", series.Sample{Timestamp: i * minute, Value: float64(i)}))
	}

	all, err := s.repo.LastN(s.ctx, "btc:price:minute", 500)
	s.Require().NoError(err)
	s.Len(all, 121)
	s.Equal(59*minute, all[0].Timestamp)

	last, err := s.repo.LastN(s.ctx, "btc:price:minute", 5)
	s.Require().NoError(err)
	s.Require().Len(last, 5)
	s.Equal(175*minute, last[0].Timestamp)
	s.Equal(179*minute, last[4].Timestamp)
}

func (s *RepositoryIntegrationSuite) TestPurge() {
	_, err := s.repo.Ensure(s.ctx, series.NewKeys(series.DefaultPrefix).Definitions())
	s.Require().NoError(err)
	_, err = s.repo.Ensure(s.ctx, []series.Definition{{Name: "eth:price:minute", Retention: time.Hour}})
	s.Require().NoError(err)

	deleted, err := s.repo.Purge(s.ctx, series.DefaultPrefix+":")
	s.Require().NoError(err)
	s.Equal(int64(10), deleted)

	created, err := s.repo.Ensure(s.ctx, []series.Definition{{Name: "eth:price:minute", Retention: time.Hour}})
	s.Require().NoError(err)
	s.Empty(created)
}
