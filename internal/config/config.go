package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backing store selection for the ledger and pending queue.
const (
	BackendRedis = "redis"
	BackendAWS   = "aws"
)

type Config struct {
	Port string

	// Store backing: redis (default) or aws.
	StoreBackend string
	RedisAddr    string

	// AWS backing (required when StoreBackend == aws).
	LedgerTable     string
	PendingQueueURL string

	// Payment processor URLs.
	DefaultProcessorURL  string
	FallbackProcessorURL string

	// Upstream call budget, strictly enforced per call.
	ProcessorTimeout time.Duration

	// Health monitor.
	HealthCheckInterval time.Duration
	MaxResponseTimeMs   int

	// Ingestion and dispatch.
	QueueCapacity  int
	WorkerCount    int
	MaxConcurrency int

	// Pending retry sweeper.
	SweepInterval  time.Duration
	SweepBatchSize int

	// CloudWatch namespace for settlement counters; empty disables publishing.
	MetricsNamespace string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "9999"),
		StoreBackend:         getEnv("STORE_BACKEND", BackendRedis),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		LedgerTable:          os.Getenv("LEDGER_TABLE"),
		PendingQueueURL:      os.Getenv("PENDING_QUEUE_URL"),
		DefaultProcessorURL:  getEnv("PROCESSOR_DEFAULT_URL", "http://payment-processor-default:8080"),
		FallbackProcessorURL: getEnv("PROCESSOR_FALLBACK_URL", "http://payment-processor-fallback:8080"),
		ProcessorTimeout:     getDurationEnv("PROCESSOR_TIMEOUT", 5*time.Second),
		HealthCheckInterval:  getDurationEnv("HEALTH_CHECK_INTERVAL", 5*time.Second),
		MaxResponseTimeMs:    getIntEnv("MAX_RESPONSE_TIME_MS", 100),
		QueueCapacity:        getIntEnv("QUEUE_CAPACITY", 100000),
		WorkerCount:          getIntEnv("WORKER_COUNT", 4),
		MaxConcurrency:       getIntEnv("MAX_CONCURRENCY", 20),
		SweepInterval:        getDurationEnv("SWEEP_INTERVAL", 10*time.Millisecond),
		SweepBatchSize:       getIntEnv("SWEEP_BATCH_SIZE", 20),
		MetricsNamespace:     os.Getenv("METRICS_NAMESPACE"),
	}

	if cfg.DefaultProcessorURL == "" || cfg.FallbackProcessorURL == "" {
		return nil, fmt.Errorf("both processor URLs must be configured")
	}
	switch cfg.StoreBackend {
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR must be set for the redis backend")
		}
	case BackendAWS:
		if cfg.LedgerTable == "" || cfg.PendingQueueURL == "" {
			return nil, fmt.Errorf("LEDGER_TABLE and PENDING_QUEUE_URL must be set for the aws backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
