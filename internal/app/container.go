package app

import (
	"context"
	"fmt"
	"io"

	"github.com/SofiaPH25/Quick-Shop/internal/config"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/kafka"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/observability"
	"github.com/SofiaPH25/Quick-Shop/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Container holds expensive-to-create singleton resources and dependencies
type Container struct {
	config          *config.Config
	logger          *zap.Logger
	tracer          observability.Tracer
	meter           metric.Meter
	store           store.Store
	messageConsumer kafka.Consumer
	messageProducer kafka.Producer
	closers         []io.Closer
	otelShutdown    observability.ShutdownFunc
}

// NewContainer loads configuration from the environment and initializes all
// infrastructure components.
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewContainerWithConfig(ctx, cfg)
}

// NewContainerWithConfig initializes all infrastructure components from cfg.
func NewContainerWithConfig(ctx context.Context, cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	container := &Container{
		config: cfg,
		logger: zap.NewNop(),
	}

	if err := container.setupObservability(ctx); err != nil {
		return nil, err
	}

	if err := container.setupStore(ctx); err != nil {
		container.Shutdown(ctx)
		return nil, err
	}

	if cfg.KafkaEnabled() {
		if err := container.setupKafka(); err != nil {
			container.Shutdown(ctx)
			return nil, err
		}
	}

	return container, nil
}

// setupObservability configures OpenTelemetry logging, tracing and metrics, then builds
// the logger on top of the log bridge.
func (c *Container) setupObservability(ctx context.Context) error {
	var errs []error

	logShutdown, err := observability.SetupLoggingSDK(ctx, c.config)
	if err != nil {
		errs = append(errs, fmt.Errorf("OpenTelemetry logging: %w", err))
	}

	_, traceShutdown, err := observability.SetupTracingSDK(ctx, c.config)
	if err != nil {
		errs = append(errs, fmt.Errorf("OpenTelemetry tracing: %w", err))
	}

	metricShutdown, err := observability.SetupMetricsSDK(ctx, c.config)
	if err != nil {
		errs = append(errs, fmt.Errorf("OpenTelemetry metrics: %w", err))
	}

	c.otelShutdown = observability.JoinShutdown(metricShutdown, traceShutdown, logShutdown)

	c.logger = observability.NewLogger(config.ServiceName, zapcore.InfoLevel)
	c.logger.Info("Logger initialized with OpenTelemetry bridge",
		zap.Bool("otlp_export", c.config.OtelEnabled()),
	)
	for _, e := range errs {
		// Export problems must not keep the shop from starting.
		c.logger.Error("Failed to setup OpenTelemetry", zap.Error(e))
	}

	c.tracer = otel.Tracer(config.ServiceName)
	c.meter = otel.Meter(config.ServiceName)
	return nil
}

func (c *Container) setupStore(ctx context.Context) error {
	switch c.config.StoreBackend {
	case config.StoreMemory:
		c.store = store.NewMemoryStore()
	case config.StoreFile:
		fs, err := store.NewFileStore(c.config.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open file store: %w", err)
		}
		c.store = fs
	case config.StoreRedis:
		rs, err := store.OpenRedisStore(ctx, c.config.RedisURL, store.DefaultRedisNamespace)
		if err != nil {
			return fmt.Errorf("failed to open redis store: %w", err)
		}
		c.store = rs
		c.closers = append(c.closers, rs)
	default:
		return fmt.Errorf("unknown store backend %q", c.config.StoreBackend)
	}

	c.logger.Info("🗄️ Store ready", zap.String("backend", c.config.StoreBackend))
	return nil
}

// setupKafka creates the traced stock-adjustment reader and order-confirmation writer.
func (c *Container) setupKafka() error {
	consumer, err := kafka.NewConsumer(c.config.KafkaBroker, config.StockAdjustedTopic, config.GroupID)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer: %w", err)
	}
	c.messageConsumer = consumer

	producer, err := kafka.NewProducer(kafka.WriterConfig{
		Broker:       c.config.KafkaBroker,
		Topic:        config.OrderConfirmedTopic,
		ClientID:     config.ServiceName,
		BatchTimeout: config.BatchTimeout,
		BatchSize:    config.BatchSize,
	}, otel.GetTracerProvider())
	if err != nil {
		return fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	c.messageProducer = producer
	return nil
}

// AddCloser registers a resource to be closed on Shutdown.
func (c *Container) AddCloser(closer io.Closer) {
	if closer != nil {
		c.closers = append(c.closers, closer)
	}
}

// Shutdown gracefully shuts down all infrastructure components
func (c *Container) Shutdown(ctx context.Context) {
	c.logger.Info("Shutting down infrastructure...")

	if c.messageConsumer != nil {
		if err := c.messageConsumer.Close(); err != nil {
			c.logger.Error("Failed to close message consumer", zap.Error(err))
		}
	}

	if c.messageProducer != nil {
		if err := c.messageProducer.Close(); err != nil {
			c.logger.Error("Failed to close message producer", zap.Error(err))
		}
	}

	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			c.logger.Error("Failed to close resource", zap.Error(err))
		}
	}

	c.logger.Info("Infrastructure shutdown complete")
	_ = c.logger.Sync()

	if c.otelShutdown != nil {
		if err := c.otelShutdown(ctx); err != nil {
			fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
		}
	}
}

// Getters for accessing infrastructure components
func (c *Container) Config() *config.Config          { return c.config }
func (c *Container) Logger() *zap.Logger             { return c.logger }
func (c *Container) Tracer() observability.Tracer    { return c.tracer }
func (c *Container) Meter() metric.Meter             { return c.meter }
func (c *Container) Store() store.Store              { return c.store }
func (c *Container) MessageConsumer() kafka.Consumer { return c.messageConsumer }
func (c *Container) MessageProducer() kafka.Producer { return c.messageProducer }
