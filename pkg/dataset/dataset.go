// Package dataset ties the schema registry, the sample store, and the
// parser protocol together into named collections with batch ingestion.
package dataset

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/metrics"
	"github.com/curateml/curate/pkg/sample"
	"github.com/curateml/curate/pkg/schema"
	"github.com/curateml/curate/pkg/store"
)

// Dataset is a named, homogeneous collection of samples sharing one
// dynamic schema and one backing store.
//
// Datasets are not safe for concurrent use; callers that share one across
// goroutines serialize access themselves.
type Dataset struct {
	name   string
	schema *schema.Schema
	store  store.Store
	logger *zap.Logger
}

// Option configures a Dataset.
type Option func(*Dataset)

// WithLogger sets the dataset's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dataset) { d.logger = logger }
}

// DefaultName returns a timestamp-based dataset name.
func DefaultName() string {
	return time.Now().Format("2006.01.02.15.04.05")
}

// New creates a dataset backed by the given store. An empty name gets a
// timestamp-based default.
func New(name string, st store.Store, opts ...Option) *Dataset {
	if name == "" {
		name = DefaultName()
	}
	d := &Dataset{
		name:  name,
		store: st,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.logger = d.logger.With(zap.String("dataset", name))
	d.schema = schema.New(d.logger)
	return d
}

// Name returns the dataset's name.
func (d *Dataset) Name() string { return d.name }

// Schema returns the dataset's dynamic field schema.
func (d *Dataset) Schema() *schema.Schema { return d.schema }

// Store returns the dataset's backing store.
func (d *Dataset) Store() store.Store { return d.store }

// Count returns the number of samples in the dataset.
func (d *Dataset) Count(ctx context.Context) (int64, error) {
	return d.store.Count(ctx)
}

// Sample fetches a sample by ID and binds it to the dataset.
func (d *Dataset) Sample(ctx context.Context, id string) (*sample.Sample, error) {
	s, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Bind(d.schema, d.store)
	return s, nil
}

// Samples returns all samples bound to the dataset, in insertion order.
func (d *Dataset) Samples(ctx context.Context) ([]*sample.Sample, error) {
	list, err := d.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		s.Bind(d.schema, d.store)
	}
	return list, nil
}

// Delete removes a sample by ID.
func (d *Dataset) Delete(ctx context.Context, id string) error {
	return d.store.Delete(ctx, id)
}

// Add adopts a sample into the dataset: staged dynamic fields expand the
// schema and are validated against it, the sample is persisted, and from
// then on writes to it go through the dataset's schema and store.
func (d *Dataset) Add(ctx context.Context, s *sample.Sample) (string, error) {
	return d.add(ctx, s, true)
}

// add adopts a sample with an explicit schema-expansion policy. When
// expandSchema is false, a staged field the schema does not already have
// aborts the adoption.
func (d *Dataset) add(ctx context.Context, s *sample.Sample, expandSchema bool) (string, error) {
	if err := d.adoptFields(s, expandSchema); err != nil {
		return "", err
	}

	id, err := d.store.CreateOrUpdate(ctx, s)
	if err != nil {
		return "", err
	}
	s.Bind(d.schema, d.store)

	metrics.SchemaFields.WithLabelValues(d.name).Set(float64(d.schema.Len()))
	return id, nil
}

// adoptFields validates a sample's staged dynamic fields against the
// schema. Missing fields are created from inferred kinds when expansion is
// allowed, and fail the adoption otherwise.
func (d *Dataset) adoptFields(s *sample.Sample, expandSchema bool) error {
	for _, name := range s.FieldNames() {
		value, err := s.Get(name)
		if err != nil {
			return err
		}
		if value == nil {
			continue
		}

		if !d.schema.HasField(name) {
			if !expandSchema {
				return curerrors.Newf(curerrors.ErrorTypeUnknownField,
					"field %q is not in the schema and schema expansion is disabled", name)
			}
			kind, embedded, err := schema.InferKind(value)
			if err != nil {
				return err
			}
			var opts []schema.FieldOption
			if kind == schema.KindEmbedded {
				opts = append(opts, schema.WithEmbedded(embedded))
			}
			if err := d.schema.AddField(name, kind, opts...); err != nil {
				return err
			}
			metrics.FieldsCreated.WithLabelValues(d.name, string(kind)).Inc()
		}

		desc, _ := d.schema.Field(name)
		if err := schema.ValidateValue(desc, value); err != nil {
			return err
		}
	}
	return nil
}
