package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	ServiceName    = "quickshop-core"
	ServiceVersion = "0.1.0"
)

const (
	StockAdjustedTopic  = "StockAdjusted"
	OrderConfirmedTopic = "OrderConfirmed"
	GroupID             = "quickshop-core-group"
	BatchTimeout        = 10 * time.Millisecond
	BatchSize           = 100
	OrderQueue          = "orders"
)

const (
	LogsPath      = "/otlp/v1/logs"
	TracesPath    = "/otlp/v1/traces"
	MetricsPath   = "/otlp/v1/metrics"
	ExportTimeout = 30 * time.Second
	MaxQueueSize  = 2048
)

// OTLP log transports.
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

const (
	defaultDataDir            = "./data"
	defaultPaymentFailureRate = 0.1
	defaultPaymentLatency     = 1500 * time.Millisecond
	defaultPaymentTimeout     = 5 * time.Second
	defaultNotifyTimeout      = 3 * time.Second
	defaultCartEventCapacity  = 32
)

type Config struct {
	StoreBackend string
	DataDir      string
	RedisURL     string
	CatalogFile  string

	KafkaBroker string
	RabbitMQURI string

	PaymentAuthorizerURL string
	PaymentFailureRate   float64
	PaymentLatency       time.Duration
	PaymentTimeout       time.Duration
	NotifyTimeout        time.Duration

	LegacyStockCommit bool
	CartEventCapacity int

	OtelEndpoint     string
	OtelAuthHeader   string
	OtelLogsProtocol string
}

// OtelEnabled reports whether OTLP exporters should be installed.
func (c *Config) OtelEnabled() bool { return c.OtelEndpoint != "" }

// KafkaEnabled reports whether a Kafka broker is configured.
func (c *Config) KafkaEnabled() bool { return c.KafkaBroker != "" }

func LoadConfig() (*Config, error) {
	config := &Config{
		StoreBackend:         envOr("SHOP_STORE_BACKEND", StoreFile),
		DataDir:              envOr("SHOP_DATA_DIR", defaultDataDir),
		RedisURL:             os.Getenv("REDIS_URL"),
		CatalogFile:          os.Getenv("SHOP_CATALOG_FILE"),
		KafkaBroker:          os.Getenv("KAFKA_BROKER"),
		RabbitMQURI:          os.Getenv("RABBITMQ_URI"),
		PaymentAuthorizerURL: os.Getenv("PAYMENT_AUTHORIZER_URL"),
		OtelEndpoint:         os.Getenv("OTEL_ENDPOINT"),
		OtelAuthHeader:       os.Getenv("OTEL_AUTH_HEADER"),
		OtelLogsProtocol:     envOr("OTEL_LOGS_PROTOCOL", ProtocolHTTP),
	}

	var err error
	if config.PaymentFailureRate, err = floatEnv("PAYMENT_FAILURE_RATE", defaultPaymentFailureRate); err != nil {
		return nil, err
	}
	if config.PaymentLatency, err = durationEnv("PAYMENT_SIMULATED_LATENCY", defaultPaymentLatency); err != nil {
		return nil, err
	}
	if config.PaymentTimeout, err = durationEnv("PAYMENT_TIMEOUT", defaultPaymentTimeout); err != nil {
		return nil, err
	}
	if config.NotifyTimeout, err = durationEnv("NOTIFY_TIMEOUT", defaultNotifyTimeout); err != nil {
		return nil, err
	}
	if config.LegacyStockCommit, err = boolEnv("CHECKOUT_LEGACY_STOCK_COMMIT", false); err != nil {
		return nil, err
	}
	if config.CartEventCapacity, err = intEnv("CART_EVENT_CAPACITY", defaultCartEventCapacity); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreFile:
		if c.DataDir == "" {
			return fmt.Errorf("SHOP_DATA_DIR is required for the file store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL environment variable is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown SHOP_STORE_BACKEND %q", c.StoreBackend)
	}

	if c.PaymentFailureRate < 0 || c.PaymentFailureRate > 1 {
		return fmt.Errorf("PAYMENT_FAILURE_RATE must be within [0,1], got %v", c.PaymentFailureRate)
	}
	if c.PaymentLatency < 0 {
		return fmt.Errorf("PAYMENT_SIMULATED_LATENCY must not be negative")
	}
	if c.PaymentTimeout <= 0 {
		return fmt.Errorf("PAYMENT_TIMEOUT must be positive")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive")
	}
	switch c.OtelLogsProtocol {
	case "", ProtocolHTTP, ProtocolGRPC:
	default:
		return fmt.Errorf("unknown OTEL_LOGS_PROTOCOL %q", c.OtelLogsProtocol)
	}
	if c.CartEventCapacity < 1 {
		return fmt.Errorf("CART_EVENT_CAPACITY must be at least 1")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
