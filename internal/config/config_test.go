package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainscope/evm-token-indexer/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("TOKEN_INDEXER_DATABASE_HOST", "localhost")
	t.Setenv("TOKEN_INDEXER_DATABASE_DBNAME", "indexer")
	t.Setenv("TOKEN_INDEXER_ETHEREUM_RPC_URL", "https://eth.example.org")
}

func TestLoadIndexerConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.LoadIndexerConfig("", t.TempDir())
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, "ethereum", cfg.Ethereum.Network)
	assert.Equal(t, uint64(100), cfg.Ethereum.BatchSize)
	assert.Equal(t, 12*time.Second, cfg.Ethereum.PollInterval)
	assert.Equal(t, uint64(12), cfg.Ethereum.Confirmations)
	assert.Equal(t, 5*time.Second, cfg.Enrichment.CallTimeout)
	assert.Equal(t, 8, cfg.Enrichment.MaxConcurrentReads)
	assert.False(t, cfg.NATS.Enabled)
	assert.Equal(t, "TRANSFERS", cfg.NATS.StreamName)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadIndexerConfig_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_INDEXER_ETHEREUM_BATCH_SIZE", "250")
	t.Setenv("TOKEN_INDEXER_ETHEREUM_START_BLOCK", "18000000")
	t.Setenv("TOKEN_INDEXER_ENRICHMENT_CALL_TIMEOUT", "2s")
	t.Setenv("TOKEN_INDEXER_DEBUG", "true")

	cfg, err := config.LoadIndexerConfig("", t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, uint64(250), cfg.Ethereum.BatchSize)
	assert.Equal(t, uint64(18000000), cfg.Ethereum.StartBlock)
	assert.Equal(t, 2*time.Second, cfg.Enrichment.CallTimeout)
}

func TestLoadIndexerConfig_MissingDatabaseHost(t *testing.T) {
	t.Setenv("TOKEN_INDEXER_DATABASE_HOST", "")
	t.Setenv("TOKEN_INDEXER_DATABASE_DBNAME", "indexer")
	t.Setenv("TOKEN_INDEXER_ETHEREUM_RPC_URL", "https://eth.example.org")

	_, err := config.LoadIndexerConfig("", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host")
}

func TestLoadIndexerConfig_MissingRPCURL(t *testing.T) {
	t.Setenv("TOKEN_INDEXER_DATABASE_HOST", "localhost")
	t.Setenv("TOKEN_INDEXER_DATABASE_DBNAME", "indexer")
	t.Setenv("TOKEN_INDEXER_ETHEREUM_RPC_URL", "")

	_, err := config.LoadIndexerConfig("", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ethereum.rpc_url")
}

func TestLoadIndexerConfig_NATSEnabledRequiresURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_INDEXER_NATS_ENABLED", "true")

	_, err := config.LoadIndexerConfig("", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nats.url")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "indexer",
		Password: "secret",
		DBName:   "tokens",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=indexer password=secret dbname=tokens sslmode=require",
		cfg.DSN())
}
