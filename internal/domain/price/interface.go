package price

import (
	"context"
	"time"
)

//go:generate mockgen -source=interface.go -destination=mock/interface_mock.go -package=mock

// Quote is one observed price of Symbol expressed in Currency.
type Quote struct {
	Symbol    string
	Currency  string
	Price     float64
	FetchedAt time.Time
}

// Source fetches the latest price. Failures carry the UpstreamError code.
type Source interface {
	Latest(ctx context.Context) (Quote, error)
}
