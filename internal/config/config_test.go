package config

import (
	"path/filepath"
	"testing"
	"time"

	pkgErrors "github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "btc:price", cfg.Store.Prefix)
	assert.False(t, cfg.Store.ResetOnStart)
	assert.Equal(t, 5*time.Second, cfg.Store.OpTimeout)
	assert.Equal(t, logger.InfoLevel, cfg.App.Log.Level)
	assert.Equal(t, []string{"stdout"}, cfg.App.Log.Outputs)
	assert.Equal(t, []string{"localhost:6379"}, cfg.Redis.Addrs)
	assert.Equal(t, -1, cfg.Redis.MaxRetries)
	assert.Equal(t, "https://pro-api.coinmarketcap.com", cfg.Price.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Price.Timeout)
	assert.Equal(t, time.Minute, cfg.Collector.Interval)
	assert.True(t, cfg.Collector.Align)
	assert.True(t, cfg.Collector.CollectOnStart)
	assert.False(t, cfg.RollupKafka.Enabled)
	assert.Equal(t, "btc:price:minute", cfg.Keys().Base())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_LOG_OUTPUTS", "stdout,/tmp/collector.log")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("STORE_PREFIX", "eth:price")
	t.Setenv("STORE_RESET_ON_START", "true")
	t.Setenv("PRICE_API_KEY", "secret")
	t.Setenv("PRICE_SYMBOL", "ETH")
	t.Setenv("ROLLUP_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, logger.DebugLevel, cfg.App.Log.Level)
	assert.Equal(t, []string{"stdout", "/tmp/collector.log"}, cfg.App.Log.Outputs)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.True(t, cfg.Store.ResetOnStart)
	assert.Equal(t, "secret", cfg.Price.APIKey)
	assert.Equal(t, "ETH", cfg.Price.Symbol)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.RollupKafka.Brokers)
	assert.Equal(t, "eth:price:5min:max", cfg.Keys().Max("5min"))
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")

	cfg, err := Load(noEnvFile(t))
	assert.Nil(t, cfg)
	assert.True(t, pkgErrors.ErrorCodeEquals(err, pkgErrors.GeneralBadRequestError.String()))
}
