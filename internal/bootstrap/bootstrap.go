package bootstrap

import (
	"github.com/muhammadchandra19/price-rollup/internal/config"
	"github.com/muhammadchandra19/price-rollup/internal/domain/price"
	"github.com/muhammadchandra19/price-rollup/internal/domain/rollup"
	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	"github.com/muhammadchandra19/price-rollup/internal/observability"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
)

// Bootstrap wires the collector process.
type Bootstrap struct {
	Config     *config.Config
	Logger     logger.Interface
	Metrics    *observability.Metrics
	Repository Repository
	Usecase    Usecase

	Source    price.Source
	Publisher rollup.Publisher
}

// BootstrapConfig is the config for the bootstrap.
type BootstrapConfig struct {
	Config  *config.Config
	Logger  logger.Interface
	Metrics *observability.Metrics
	Series  series.Repository
	Source  price.Source
	// Publisher is optional.
	Publisher rollup.Publisher
}

// Init initializes the bootstrap.
func (b *Bootstrap) Init(config BootstrapConfig) Bootstrap {
	b.Config = config.Config
	b.Logger = config.Logger
	b.Metrics = config.Metrics
	b.Source = config.Source
	b.Publisher = config.Publisher

	b.registerRepository(config.Series)
	b.registerUsecase()

	return *b
}
