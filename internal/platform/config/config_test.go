package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commitgood/internal/rates"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, common.HexToAddress(defaultOwner), cfg.Owner)
	assert.Equal(t, cfg.Owner, cfg.Deployer)
	assert.Equal(t, 5*time.Second, cfg.ExecuteTimeout)
	assert.Empty(t, cfg.InitialRates)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerWindow)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/commitgood")
	t.Setenv("OWNER_ADDRESS", "0x00000000000000000000000000000000000000b1")
	t.Setenv("DEPLOYER_ADDRESS", "0x00000000000000000000000000000000000000b2")
	t.Setenv("INITIAL_RATE_VOLUNTEER", "-4")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("EXECUTE_TIMEOUT", "2s")
	t.Setenv("RATE_LIMIT_DISABLED", "TRUE")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.StoreBackend)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000b2"), cfg.Deployer)
	assert.Equal(t, int64(-4), cfg.InitialRates[rates.CategoryVolunteer].Int64())
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2*time.Second, cfg.ExecuteTimeout)
	assert.True(t, cfg.RateLimit.Disabled)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"unknown backend":       {"STORE_BACKEND", "sqlite"},
		"postgres without url":  {"STORE_BACKEND", "postgres"},
		"malformed owner":       {"OWNER_ADDRESS", "not-an-address"},
		"non-integer rate":      {"INITIAL_RATE_DELIVERY", "1.5"},
		"non-positive timeout":  {"EXECUTE_TIMEOUT", "0s"},
		"malformed capacity":    {"RECENT_EVENTS_CAPACITY", "lots"},
		"zero rate limit":       {"RATE_LIMIT_REQUESTS", "0"},
		"malformed rate window": {"RATE_LIMIT_WINDOW", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestIndexerFromEnv(t *testing.T) {
	t.Run("requires database and brokers", func(t *testing.T) {
		_, err := IndexerFromEnv()
		assert.ErrorContains(t, err, "DATABASE_URL")

		t.Setenv("DATABASE_URL", "postgres://localhost/commitgood")
		_, err = IndexerFromEnv()
		assert.ErrorContains(t, err, "KAFKA_BROKERS")
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/commitgood")
		t.Setenv("KAFKA_BROKERS", "a:9092")

		cfg, err := IndexerFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":9091", cfg.Addr)
		assert.Equal(t, "commitgood-indexer", cfg.ConsumerGroup)
		assert.Equal(t, "commitgood.events", cfg.Kafka.Topic)
		assert.Equal(t, []string{"a:9092"}, cfg.Kafka.Brokers)
	})
}
