package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curateml/curate/pkg/curerrors"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("quickstart")

	assert.Equal(t, "quickstart", cfg.Dataset.Name)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.True(t, cfg.Store.AutoPersist)
	assert.Equal(t, "ground_truth", cfg.Ingest.LabelField)
	assert.True(t, cfg.Ingest.ExpandSchema)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Store.Backend = "redis" },
			wantErr: "unknown store backend",
		},
		{
			name: "mongo requires uri",
			mutate: func(c *Config) {
				c.Store.Backend = BackendMongo
				c.Store.Mongo.URI = ""
			},
			wantErr: "store.mongo.uri is required",
		},
		{
			name: "mongo requires database",
			mutate: func(c *Config) {
				c.Store.Backend = BackendMongo
				c.Store.Mongo.Database = ""
			},
			wantErr: "store.mongo.database is required",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "unknown log level",
		},
		{
			name:    "unknown log encoding",
			mutate:  func(c *Config) { c.Logging.Encoding = "xml" },
			wantErr: "unknown log encoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("test")
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("CURATE_TEST_URI", "mongodb://db:27017")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset:
  name: quickstart
store:
  backend: mongo
  mongo:
    uri: ${CURATE_TEST_URI}
    database: curate
logging:
  level: debug
  encoding: console
`), 0o644))

	cfg := NewConfig("")
	require.NoError(t, Load(path, cfg))

	assert.Equal(t, "quickstart", cfg.Dataset.Name)
	assert.Equal(t, "mongodb://db:27017", cfg.Store.Mongo.URI)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &Config{})
	require.Error(t, err)
	assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := NewConfig("roundtrip")
	cfg.Ingest.Tags = []string{"train"}
	require.NoError(t, Save(path, cfg))

	loaded := &Config{}
	require.NoError(t, Load(path, loaded))
	assert.Equal(t, cfg, loaded)
}
