package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	LockLocal = "local"
	LockMongo = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                  string
	HTTPAddr             string
	StorageDriver        string
	MongoURI             string
	MongoDB              string
	KafkaBrokers         []string
	KafkaTopicPrefix     string
	KafkaConsumerGroup   string
	AuditConsumerEnabled bool
	IdempotencyTTL       time.Duration
	OutboxPollInterval   time.Duration
	RetryBackoff         []time.Duration
	RoomLockMode         string
	RoomLockTTL          time.Duration
	RejectPastCheckIn    bool
	DefaultCurrency      string
	RoomsFixtures        string
	CORSAllowOrigins     []string
	ShutdownTimeout      time.Duration
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "resort"),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "resortbook-audit"),
		RoomLockMode:       strings.ToLower(getEnv("ROOM_LOCK_MODE", LockLocal)),
		DefaultCurrency:    strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
		RoomsFixtures:      getEnv("ROOMS_FIXTURES", ""),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		CORSAllowOrigins:   splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
	}

	var err error
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.RoomLockTTL, err = parseDurationEnv("ROOM_LOCK_TTL", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RetryBackoff, err = parseDurationList("RETRY_BACKOFF", "1s,5s,30s"); err != nil {
		return Config{}, err
	}
	if cfg.RejectPastCheckIn, err = parseBoolEnv("BOOKING_REJECT_PAST_CHECKIN", false); err != nil {
		return Config{}, err
	}
	if cfg.AuditConsumerEnabled, err = parseBoolEnv("AUDIT_CONSUMER_ENABLED", false); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for STORAGE_DRIVER=%s", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.RoomLockMode {
	case LockLocal:
	case LockMongo:
		if c.StorageDriver != StorageMongo {
			return fmt.Errorf("ROOM_LOCK_MODE=mongo requires STORAGE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unknown ROOM_LOCK_MODE %q", c.RoomLockMode)
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("invalid DEFAULT_CURRENCY %q", c.DefaultCurrency)
	}
	if c.AuditConsumerEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("AUDIT_CONSUMER_ENABLED requires KAFKA_BROKERS")
	}
	if len(c.KafkaBrokers) > 0 && c.StorageDriver != StorageMongo {
		return fmt.Errorf("KAFKA_BROKERS requires STORAGE_DRIVER=mongo for the outbox")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseDurationList(key, def string) ([]time.Duration, error) {
	var out []time.Duration
	for _, raw := range splitList(getEnv(key, def)) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s component %q: %w", key, raw, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
