package rollup

import (
	"context"
	"encoding/json"
	"time"

	"github.com/muhammadchandra19/price-rollup/internal/domain/rollup"
	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
)

// Config is the rollup event topic configuration.
type Config struct {
	Enabled      bool          `env:"ENABLED" envDefault:"false"`
	Brokers      []string      `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic        string        `env:"TOPIC" envDefault:"price-rollups"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"5s"`
}

// Writer is the part of kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON payload of one persisted rollup.
type Event struct {
	ID         string  `json:"id"`
	Metric     string  `json:"metric"`
	Resolution string  `json:"resolution"`
	Timestamp  int64   `json:"timestamp"`
	Close      float64 `json:"close"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// Publisher writes rollup events keyed by resolution.
type Publisher struct {
	writer Writer
	metric string
	logger logger.Interface
}

// NewPublisher creates a Kafka publisher for rollups of metric.
func NewPublisher(config Config, metric string, logger logger.Interface) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: config.WriteTimeout,
	}
	return NewPublisherWithWriter(writer, metric, logger)
}

// NewPublisherWithWriter creates a publisher on an existing writer.
func NewPublisherWithWriter(writer Writer, metric string, logger logger.Interface) *Publisher {
	return &Publisher{
		writer: writer,
		metric: metric,
		logger: logger,
	}
}

var _ rollup.Publisher = (*Publisher)(nil)

// Publish sends r as an Event.
func (p *Publisher) Publish(ctx context.Context, r rollup.Rollup) error {
	event := NewEvent(p.metric, r)

	value, err := json.Marshal(event)
	if err != nil {
		return errors.TracerFromError(err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Resolution),
		Value: value,
		Time:  time.UnixMilli(event.Timestamp),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, err,
			logger.Field{Key: "event_id", Value: event.ID},
			logger.Field{Key: "resolution", Value: event.Resolution},
		)
		return errors.NewTracer("failed to publish rollup event").Wrap(err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NewEvent builds the payload of r with a fresh id.
func NewEvent(metric string, r rollup.Rollup) Event {
	return Event{
		ID:         ulid.Make().String(),
		Metric:     metric,
		Resolution: r.Resolution.String(),
		Timestamp:  r.Timestamp,
		Close:      r.Close,
		Min:        r.Min,
		Max:        r.Max,
	}
}
