// Package curate provides dataset curation primitives for labeled images:
// named sample collections with dynamically typed schemas, a stateful
// parser protocol for adapting external record shapes, and pluggable
// sample stores.
//
// # Architecture
//
// Curate is organized around three cooperating pieces:
//
// 1. Dynamic Schema: each dataset carries an ordered registry of typed
// field descriptors. Fields are created on first write by inferring a kind
// from the value, and every subsequent write is validated against the
// descriptor.
//
// 2. Parser Protocol: external record shapes (paths, tuples, manifests,
// multi-task blobs, existing samples) are adapted through a single-record
// cursor interface with static capability flags, so ingestion never
// depends on a concrete input format.
//
// 3. Sample Stores: samples persist through a small store interface with
// in-memory and MongoDB implementations, both upserting by filepath and
// assigning ObjectID-style sample IDs.
//
// # Quick Start
//
// Ingest a directory of classified images:
//
//	import (
//	    "context"
//	    "github.com/curateml/curate/pkg/dataset"
//	    "github.com/curateml/curate/pkg/parser"
//	    "github.com/curateml/curate/pkg/store"
//	)
//
//	d := dataset.New("quickstart", store.NewMemoryStore())
//
//	src := dataset.FromTuples(tuples)
//	p := parser.NewClassificationParser([]string{"cat", "dog"})
//
//	ids, err := d.AddLabeledImages(context.Background(), src, p,
//	    dataset.AddLabeledImagesOptions{})
//
// # Key Packages
//
//	pkg/schema    - Dynamic field schema with kind inference and validation
//	pkg/sample    - Samples, builtin fields, and image metadata
//	pkg/label     - Closed union of label types and attribute coercion
//	pkg/parser    - Stateful sample-parser protocol and its variants
//	pkg/dataset   - Named collections and batch ingestion
//	pkg/store     - In-memory and MongoDB sample stores
//	pkg/curerrors - Structured error handling
//	pkg/logger    - Structured logging
//	pkg/metrics   - Ingest metrics collection
//
// # Configuration
//
// Curate uses a unified YAML configuration with environment variable
// substitution via ${VAR_NAME} syntax:
//
//	type Config struct {
//	    Dataset DatasetConfig // Name of the target collection
//	    Store   StoreConfig   // Backend selection, Mongo settings
//	    Ingest  IngestConfig  // Label field, tags, metadata
//	    Logging LoggingConfig // Level, encoding
//	}
package curate
