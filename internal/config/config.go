package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Event bus backends.
const (
	BusEventBridge = "eventbridge"
	BusRedis       = "redis"
	BusTemporal    = "temporal"
)

type Config struct {
	ServiceName    string
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	CORSOrigins    []string

	EventBusBackend string
	EventSource     string
	EventDetailType string

	// EventBridge. Static credentials are optional; without them the default
	// AWS credential chain is used.
	AWSRegion           string
	EventBusName        string
	EventBridgeEndpoint string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string

	RedisURL    string
	RedisStream string
	// RedisStreamMaxLen caps the stream approximately; 0 leaves it unbounded.
	RedisStreamMaxLen int64

	TemporalAddress   string
	TemporalTaskQueue string

	PublishTimeout time.Duration
	StoreTimeout   time.Duration
}

func Load() (*Config, error) {
	publishTimeout, err := getDuration("PUBLISH_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	storeTimeout, err := getDuration("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	redisMaxLen, err := getInt64("REDIS_STREAM_MAXLEN", 100000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServiceName:         getEnv("SERVICE_NAME", "deploy-api"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		HTTPListenAddr:      getEnv("HTTP_LISTEN_ADDR", ":8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CORSOrigins:         splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
		EventBusBackend:     strings.ToLower(getEnv("EVENT_BUS_BACKEND", BusEventBridge)),
		EventSource:         getEnv("EVENT_SOURCE", "training-platform.backend"),
		EventDetailType:     getEnv("EVENT_DETAIL_TYPE", "deploy-request"),
		AWSRegion:           getEnv("AWS_REGION", "eu-central-1"),
		EventBusName:        getEnv("EVENT_BUS_NAME", ""),
		EventBridgeEndpoint: getEnv("EVENTBRIDGE_ENDPOINT", ""),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisStream:         getEnv("REDIS_STREAM", "deploy-requests"),
		RedisStreamMaxLen:   redisMaxLen,
		TemporalAddress:     getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalTaskQueue:   getEnv("TEMPORAL_TASK_QUEUE", "deployments"),
		PublishTimeout:      publishTimeout,
		StoreTimeout:        storeTimeout,
	}

	return cfg, nil
}

// Validate checks that everything the selected event bus backend needs is set.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.HTTPListenAddr == "" {
		missing = append(missing, "HTTP_LISTEN_ADDR")
	}

	switch c.EventBusBackend {
	case BusEventBridge:
		if c.EventBusName == "" {
			missing = append(missing, "EVENT_BUS_NAME")
		}
		if c.AWSRegion == "" {
			missing = append(missing, "AWS_REGION")
		}
		if (c.AWSAccessKeyID == "") != (c.AWSSecretAccessKey == "") {
			return fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must both be set")
		}
	case BusRedis:
		if c.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
		if c.RedisStream == "" {
			missing = append(missing, "REDIS_STREAM")
		}
	case BusTemporal:
		if c.TemporalAddress == "" {
			missing = append(missing, "TEMPORAL_ADDRESS")
		}
		if c.TemporalTaskQueue == "" {
			missing = append(missing, "TEMPORAL_TASK_QUEUE")
		}
	default:
		return fmt.Errorf("unknown EVENT_BUS_BACKEND %q (want %s, %s or %s)", c.EventBusBackend, BusEventBridge, BusRedis, BusTemporal)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.RedisStreamMaxLen < 0 {
		return fmt.Errorf("REDIS_STREAM_MAXLEN must not be negative")
	}
	if c.PublishTimeout <= 0 || c.StoreTimeout <= 0 {
		return fmt.Errorf("PUBLISH_TIMEOUT and STORE_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
