package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		InputPath:       "villas.json",
		Collection:      "villas",
		Store:           StoreMemory,
		MaxBatchSize:    DefaultBatchSize,
		DuplicatePolicy: DuplicatesReject,
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("IMPORT_FILE", "/data/villas.json")
	t.Setenv("IMPORT_COLLECTION", "homes")
	t.Setenv("IMPORT_STORE", "mongo")
	t.Setenv("IMPORT_BATCH_SIZE", "25")
	t.Setenv("IMPORT_DRY_RUN", "true")
	t.Setenv("IMPORT_BATCH_TIMEOUT", "15s")
	t.Setenv("IMPORT_DUPLICATES", "last-wins")

	cfg := Load()

	assert.Equal(t, "/data/villas.json", cfg.InputPath)
	assert.Equal(t, "homes", cfg.Collection)
	assert.Equal(t, StoreMongo, cfg.Store)
	assert.Equal(t, 25, cfg.MaxBatchSize)
	assert.True(t, cfg.DryRun)
	assert.False(t, cfg.ContinueOnBatchError)
	assert.Equal(t, 15*time.Second, cfg.BatchTimeout)
	assert.Equal(t, DuplicatesLastWins, cfg.DuplicatePolicy)
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	t.Setenv("IMPORT_BATCH_SIZE", "lots")
	t.Setenv("IMPORT_DRY_RUN", "maybe")

	cfg := Load()

	assert.Equal(t, DefaultBatchSize, cfg.MaxBatchSize)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, "villas", cfg.Collection)
}

func TestValidateClampsToStoreLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Store = "DynamoDB"
	cfg.MaxBatchSize = 400

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
	assert.Equal(t, StoreDynamoDB, cfg.Store)
	assert.Equal(t, 100, cfg.MaxBatchSize)
}

func TestValidateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty path", func(c *Config) { c.InputPath = " " }},
		{"empty collection", func(c *Config) { c.Collection = "" }},
		{"nested collection", func(c *Config) { c.Collection = "a/b" }},
		{"unknown store", func(c *Config) { c.Store = "couchdb" }},
		{"unknown policy", func(c *Config) { c.DuplicatePolicy = "first-wins" }},
		{"zero batch size", func(c *Config) { c.MaxBatchSize = 0 }},
		{"negative timeout", func(c *Config) { c.BatchTimeout = -time.Second }},
		{"firestore without project", func(c *Config) { c.Store = StoreFirestore }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			_, err := cfg.Validate()
			assert.Error(t, err)
		})
	}
}

func TestValidateFirestoreDryRunNeedsNoProject(t *testing.T) {
	cfg := validConfig()
	cfg.Store = StoreFirestore
	cfg.DryRun = true

	_, err := cfg.Validate()
	assert.NoError(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5432", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "listings", PostgresSSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=listings sslmode=disable", cfg.DSN())
}
