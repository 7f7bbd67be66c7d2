package bootstrap

import (
	"github.com/muhammadchandra19/price-rollup/internal/usecase/collector"
	rollupUc "github.com/muhammadchandra19/price-rollup/internal/usecase/rollup"
)

// Usecase holds the collector's usecases.
type Usecase struct {
	Engine    *rollupUc.Engine
	Collector *collector.Collector
}

func (b *Bootstrap) registerUsecase() {
	keys := b.Config.Keys()

	engineOpts := []rollupUc.Option{rollupUc.WithMetrics(b.Metrics)}
	if b.Publisher != nil {
		engineOpts = append(engineOpts, rollupUc.WithPublisher(b.Publisher))
	}
	b.Usecase.Engine = rollupUc.NewEngine(b.Repository.Series, keys, b.Logger, engineOpts...)

	b.Usecase.Collector = collector.NewCollector(
		b.Source,
		b.Repository.Series,
		b.Usecase.Engine,
		keys,
		b.Logger,
		collector.WithMetrics(b.Metrics),
		collector.WithOptions(b.Config.Collector),
	)
}
