package series

import "context"

//go:generate mockgen -source=interface.go -destination=mock/interface_mock.go -package=mock

// Store appends to and reads from named series. Implementations fail with
// StoreWriteError or StoreReadError details naming the series.
type Store interface {
	// Append writes sample to the named series, replacing any sample with the same timestamp.
	Append(ctx context.Context, name string, sample Sample) error
	// LastN returns up to n of the most recent samples, oldest first.
	LastN(ctx context.Context, name string, n int) ([]Sample, error)
}

// Admin manages series lifecycle.
type Admin interface {
	// Ensure creates the series in defs that do not exist yet and returns their names.
	Ensure(ctx context.Context, defs []Definition) ([]string, error)
	// Purge deletes every series whose name starts with prefix.
	Purge(ctx context.Context, prefix string) (int64, error)
	Ping(ctx context.Context) error
}

// Repository is a series backend.
type Repository interface {
	Store
	Admin
}
