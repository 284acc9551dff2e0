// Package config provides the unified configuration system for Curate.
// It defines a single Config structure covering the dataset, its backing
// store, ingest behavior, and logging.
//
// Example usage:
//
//	cfg := config.NewConfig("quickstart")
//	cfg.Store.Backend = "mongo"
//	cfg.Store.Mongo.URI = "mongodb://localhost:27017"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration for a Curate run.
type Config struct {
	// Dataset settings identify and shape the target collection
	Dataset DatasetConfig `yaml:"dataset" json:"dataset"`

	// Store settings select and configure the sample store
	Store StoreConfig `yaml:"store" json:"store"`

	// Ingest settings control batch ingestion behavior
	Ingest IngestConfig `yaml:"ingest" json:"ingest"`

	// Logging settings configure structured log output
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DatasetConfig identifies the target dataset.
type DatasetConfig struct {
	// Name of the dataset; empty gets a timestamp-based default
	Name string `yaml:"name" json:"name"`
}

// Store backends.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// StoreConfig selects and configures the sample store.
type StoreConfig struct {
	// Backend selects the store implementation: "memory" or "mongo"
	Backend string `yaml:"backend" json:"backend"`

	// AutoPersist controls whether bound sample writes persist immediately
	AutoPersist bool `yaml:"auto_persist" json:"auto_persist"`

	// Mongo holds backend-specific settings when Backend is "mongo"
	Mongo MongoConfig `yaml:"mongo" json:"mongo"`
}

// MongoConfig contains MongoDB connection settings.
type MongoConfig struct {
	// URI is the MongoDB connection string
	URI string `yaml:"uri" json:"uri"`
	// Database holds the dataset's collections
	Database string `yaml:"database" json:"database"`
	// Collection stores the samples; empty defaults to the dataset name
	Collection string `yaml:"collection" json:"collection"`
	// ConnectTimeout bounds the initial connection attempt
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
}

// IngestConfig controls batch ingestion behavior.
type IngestConfig struct {
	// LabelField is the field labeled ingests write to
	LabelField string `yaml:"label_field" json:"label_field"`
	// ExpandSchema lets ingested records introduce new schema fields.
	// When false, a record with an unknown field fails the batch
	ExpandSchema bool `yaml:"expand_schema" json:"expand_schema"`
	// Tags are attached to every ingested sample
	Tags []string `yaml:"tags" json:"tags"`
	// ComputeMetadata builds image metadata for parsers that support it
	ComputeMetadata bool `yaml:"compute_metadata" json:"compute_metadata"`
	// Recursive scans image directories recursively
	Recursive bool `yaml:"recursive" json:"recursive"`
}

// LoggingConfig configures structured log output.
type LoggingConfig struct {
	// Level is the minimum level to emit: debug, info, warn, error
	Level string `yaml:"level" json:"level"`
	// Encoding selects the output format: json or console
	Encoding string `yaml:"encoding" json:"encoding"`
	// Development enables colored, stack-traced development output
	Development bool `yaml:"development" json:"development"`
}

// NewConfig returns a Config with sensible defaults for the given dataset
// name.
func NewConfig(name string) *Config {
	return &Config{
		Dataset: DatasetConfig{Name: name},
		Store: StoreConfig{
			Backend:     BackendMemory,
			AutoPersist: true,
			Mongo: MongoConfig{
				URI:            "mongodb://localhost:27017",
				Database:       "curate",
				ConnectTimeout: 10 * time.Second,
			},
		},
		Ingest: IngestConfig{
			LabelField:   "ground_truth",
			ExpandSchema: true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendMongo:
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri is required for the mongo backend")
		}
		if c.Store.Mongo.Database == "" {
			return fmt.Errorf("store.mongo.database is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	switch c.Logging.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log encoding %q", c.Logging.Encoding)
	}

	return nil
}
