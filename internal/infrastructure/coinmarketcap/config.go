package coinmarketcap

import (
	"time"

	"github.com/muhammadchandra19/price-rollup/pkg/errors"
)

// Config is the quotes endpoint configuration.
type Config struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"BASE_URL" envDefault:"https://pro-api.coinmarketcap.com"`
	Symbol  string        `env:"SYMBOL" envDefault:"BTC"`
	Convert string        `env:"CONVERT" envDefault:"USD"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Validate checks the fields a request cannot be built without.
func (c Config) Validate() error {
	switch {
	case c.APIKey == "":
		return errors.NewErrorDetails("api key is required", errors.GeneralBadRequestError.String(), "api_key")
	case c.BaseURL == "":
		return errors.NewErrorDetails("base url is required", errors.GeneralBadRequestError.String(), "base_url")
	case c.Symbol == "":
		return errors.NewErrorDetails("symbol is required", errors.GeneralBadRequestError.String(), "symbol")
	case c.Convert == "":
		return errors.NewErrorDetails("convert currency is required", errors.GeneralBadRequestError.String(), "convert")
	case c.Timeout <= 0:
		return errors.NewErrorDetails("timeout must be positive", errors.GeneralBadRequestError.String(), "timeout")
	}
	return nil
}
