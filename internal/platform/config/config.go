package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"commitgood/internal/rates"
	"commitgood/pkg/domain"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	LogLevel      string
	StoreBackend  string
	DatabaseURL   string
	AdminAPIToken string

	Owner        common.Address
	Deployer     common.Address
	DonationMode string
	InitialRates map[rates.Category]*big.Int

	ExecuteTimeout       time.Duration
	RecentEventsCapacity int

	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

// RateLimitConfig bounds mutating calls per caller. Counters use Redis when
// it is configured.
type RateLimitConfig struct {
	Disabled          bool
	RequestsPerWindow int
	Window            time.Duration
}

// RedisConfig configures live event fan-out. An empty URL disables it.
type RedisConfig struct {
	URL           string
	ChannelPrefix string
	PoolSize      int
	MinIdleConns  int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// KafkaConfig configures the outbox relay. It only runs with the postgres
// backend and a non-empty broker list.
type KafkaConfig struct {
	Brokers            []string
	Topic              string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

// Indexer captures configuration of the log indexer process.
type Indexer struct {
	Addr          string
	LogLevel      string
	DatabaseURL   string
	ConsumerGroup string
	Kafka         KafkaConfig
}

// IndexerFromEnv builds an Indexer config. DATABASE_URL and KAFKA_BROKERS are
// required.
func IndexerFromEnv() (Indexer, error) {
	cfg := Indexer{
		Addr:          getEnv("INDEXER_ADDR", ":9091"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "commitgood-indexer"),
		Kafka: KafkaConfig{
			Brokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "commitgood.events"),
		},
	}
	if cfg.DatabaseURL == "" {
		return Indexer{}, fmt.Errorf("DATABASE_URL is required")
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return Indexer{}, fmt.Errorf("KAFKA_BROKERS is required")
	}
	return cfg, nil
}

// defaultOwner is a development-only owner; set OWNER_ADDRESS in any shared environment.
const defaultOwner = "0x00000000000000000000000000000000000000a1"

var rateEnv = map[rates.Category]string{
	rates.CategoryDelivery:    "INITIAL_RATE_DELIVERY",
	rates.CategoryVolunteer:   "INITIAL_RATE_VOLUNTEER",
	rates.CategoryFundRaising: "INITIAL_RATE_FUNDRAISING",
	rates.CategoryInKind:      "INITIAL_RATE_INKIND",
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:          getEnv("ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AdminAPIToken: os.Getenv("ADMIN_API_TOKEN"),
		DonationMode:  getEnv("DONATION_MODE", "mint"),
		InitialRates:  make(map[rates.Category]*big.Int),
		Redis: RedisConfig{
			URL:           os.Getenv("REDIS_URL"),
			ChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "commitgood"),
			PoolSize:      10,
			MinIdleConns:  2,
			DialTimeout:   5 * time.Second,
			ReadTimeout:   3 * time.Second,
			WriteTimeout:  3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:           getEnv("KAFKA_TOPIC", "commitgood.events"),
			OutboxBatchSize: 500,
		},
	}

	if cfg.StoreBackend != StoreMemory && cfg.StoreBackend != StorePostgres {
		return Server{}, fmt.Errorf("STORE_BACKEND must be %q or %q", StoreMemory, StorePostgres)
	}
	if cfg.StoreBackend == StorePostgres && cfg.DatabaseURL == "" {
		return Server{}, fmt.Errorf("DATABASE_URL is required with the postgres backend")
	}

	var err error
	if cfg.Owner, err = domain.ParseAddress(getEnv("OWNER_ADDRESS", defaultOwner)); err != nil {
		return Server{}, fmt.Errorf("OWNER_ADDRESS: %w", err)
	}
	cfg.Deployer = cfg.Owner
	if v := os.Getenv("DEPLOYER_ADDRESS"); v != "" {
		if cfg.Deployer, err = domain.ParseAddress(v); err != nil {
			return Server{}, fmt.Errorf("DEPLOYER_ADDRESS: %w", err)
		}
	}

	for category, key := range rateEnv {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		rate, err := domain.ParseRate(v)
		if err != nil {
			return Server{}, fmt.Errorf("%s: %w", key, err)
		}
		cfg.InitialRates[category] = rate
	}

	if cfg.ExecuteTimeout, err = getDuration("EXECUTE_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Kafka.OutboxPollInterval, err = getDuration("OUTBOX_POLL_INTERVAL", time.Second); err != nil {
		return Server{}, err
	}
	if cfg.RecentEventsCapacity, err = getInt("RECENT_EVENTS_CAPACITY", 10000); err != nil {
		return Server{}, err
	}
	cfg.RateLimit.Disabled = strings.EqualFold(os.Getenv("RATE_LIMIT_DISABLED"), "true")
	if cfg.RateLimit.RequestsPerWindow, err = getInt("RATE_LIMIT_REQUESTS", 120); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.Window, err = getDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return Server{}, err
	}
	cfg.Kafka.Brokers = parseBrokers(os.Getenv("KAFKA_BROKERS"))
	return cfg, nil
}

func parseBrokers(v string) []string {
	var brokers []string
	for _, b := range strings.Split(v, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
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
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}
