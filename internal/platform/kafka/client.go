package kafka

import (
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// WriterConfig describes a traced producer.
type WriterConfig struct {
	Broker       string
	Topic        string
	ClientID     string
	BatchTimeout time.Duration
	BatchSize    int
}

// NewConsumer creates a traced consumer for topic in group.
func NewConsumer(broker, topic, groupID string) (Consumer, error) {
	baseReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: groupID,
	})
	return otelkafka.NewReader(baseReader)
}

// NewProducer creates a producer that injects trace context into message headers.
// A nil tp falls back to the global TracerProvider.
func NewProducer(cfg WriterConfig, tp trace.TracerProvider) (Producer, error) {
	baseWriter := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Broker),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: cfg.BatchTimeout,
		BatchSize:    cfg.BatchSize,
	}

	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(cfg.Topic),
				attribute.String("messaging.kafka.client_id", cfg.ClientID),
			},
		),
	)
}
