// Package sample defines the canonical record of the ingestion core: one
// media reference plus a set of dynamic, schema-governed fields.
//
// A sample starts life unbound, with writes staged locally. When a dataset
// adopts the sample it binds it to the collection schema and its backing
// store; from then on every write is validated against the field's declared
// kind and may be persisted, controlled by an explicit persist flag rather
// than an ambient autosave.
package sample

import (
	"path/filepath"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/schema"
)

// Reserved top-level attribute names that may not be used as dynamic fields.
var reservedNames = map[string]bool{
	"id":       true,
	"filepath": true,
	"tags":     true,
	"metadata": true,
}

// IsReservedName reports whether name collides with a built-in sample
// attribute or uses the reserved prefix.
func IsReservedName(name string) bool {
	if name == "" || name[0] == schema.ReservedPrefix {
		return true
	}
	return reservedNames[name]
}

// Backend persists bound samples. Store implementations satisfy it; the
// AutoPersist policy decides whether a successful write on an
// already-persisted sample saves implicitly when the caller does not say.
type Backend interface {
	// SaveSample writes the sample's current state to the store.
	SaveSample(s *Sample) error

	// AutoPersist reports the store's default persist-on-mutate policy.
	AutoPersist() bool
}

// Sample is one record within a collection: a unique media filepath, tags,
// optional media metadata, and the dynamic fields declared by the
// collection's schema.
type Sample struct {
	id       string
	filepath string
	tags     []string
	metadata *ImageMetadata

	fields map[string]interface{}
	order  []string

	schema  *schema.Schema
	backend Backend
}

// Option configures a new sample.
type Option func(*Sample)

// WithTags attaches tags to the sample.
func WithTags(tags ...string) Option {
	return func(s *Sample) { s.tags = append(s.tags, tags...) }
}

// WithMetadata attaches media metadata to the sample.
func WithMetadata(md *ImageMetadata) Option {
	return func(s *Sample) { s.metadata = md }
}

// New creates an unbound sample for the media at the given filepath.
func New(path string, opts ...Option) *Sample {
	s := &Sample{
		filepath: path,
		fields:   make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the store-assigned identifier, empty until first persisted.
func (s *Sample) ID() string { return s.id }

// SetID records the store-assigned identifier. Reserved for store
// implementations.
func (s *Sample) SetID(id string) { s.id = id }

// Filepath returns the path to the media on disk, unique within the
// sample's collection.
func (s *Sample) Filepath() string { return s.filepath }

// Filename returns the final path component of the filepath.
func (s *Sample) Filename() string { return filepath.Base(s.filepath) }

// Tags returns the sample's tags in order.
func (s *Sample) Tags() []string { return s.tags }

// Metadata returns the sample's media metadata, or nil.
func (s *Sample) Metadata() *ImageMetadata { return s.metadata }

// SetMetadata replaces the sample's media metadata.
func (s *Sample) SetMetadata(md *ImageMetadata) { s.metadata = md }

// Bind attaches the sample to its collection's schema and backing store.
// Datasets call this when adopting a sample; from then on writes are
// validated against the schema.
func (s *Sample) Bind(sc *schema.Schema, backend Backend) {
	s.schema = sc
	s.backend = backend
}

// Bound reports whether the sample belongs to a collection.
func (s *Sample) Bound() bool { return s.schema != nil }

// FieldNames returns the dynamic field names in write order.
func (s *Sample) FieldNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns the value of the named field. Built-in attributes (id,
// filepath, tags, metadata) are addressable by name; a dynamic field that is
// not in the schema (or not staged, for unbound samples) fails with an
// unknown_field error. A declared but unset field returns nil.
func (s *Sample) Get(name string) (interface{}, error) {
	switch name {
	case "id":
		return s.id, nil
	case "filepath":
		return s.filepath, nil
	case "tags":
		return s.tags, nil
	case "metadata":
		return s.metadata, nil
	}

	if s.schema != nil {
		if !s.schema.HasField(name) {
			return nil, curerrors.Newf(curerrors.ErrorTypeUnknownField,
				"sample has no field %q", name)
		}
		return s.fields[name], nil
	}

	value, ok := s.fields[name]
	if !ok {
		return nil, curerrors.Newf(curerrors.ErrorTypeUnknownField,
			"sample has no field %q", name)
	}
	return value, nil
}

// SetOptions control a field write.
type SetOptions struct {
	// Create authorizes creating the field in the collection schema, with
	// its kind inferred from the value, when the field does not exist.
	Create bool

	// Persist overrides the store's persist-on-mutate policy for this
	// write. Nil defers to the policy; persistence only applies to samples
	// that have already been persisted once.
	Persist *bool
}

// Set writes a field value. Reserved names always fail with a reserved_name
// error. On a bound sample the write is validated against the field's
// declared kind (failing with a validation error and leaving the sample
// unmodified), unknown fields fail with an unknown_field error unless
// Create authorizes schema expansion, and a successful write on an
// already-persisted sample is saved per the persist policy. On an unbound
// sample the write is staged without validation; the adopting dataset
// validates staged fields against the collection schema.
func (s *Sample) Set(name string, value interface{}, opts SetOptions) error {
	if IsReservedName(name) {
		return curerrors.Newf(curerrors.ErrorTypeReservedName,
			"invalid field name %q: reserved", name)
	}

	if s.schema == nil {
		s.write(name, value)
		return nil
	}

	desc, ok := s.schema.Field(name)
	if !ok {
		if !opts.Create {
			return curerrors.Newf(curerrors.ErrorTypeUnknownField,
				"sample has no field %q; authorize creation to add it", name)
		}

		kind, embedded, err := schema.InferKind(value)
		if err != nil {
			return err
		}

		var fieldOpts []schema.FieldOption
		if kind == schema.KindEmbedded {
			fieldOpts = append(fieldOpts, schema.WithEmbedded(embedded))
		}
		if err := s.schema.AddField(name, kind, fieldOpts...); err != nil {
			return err
		}
		desc, _ = s.schema.Field(name)
	}

	if err := schema.ValidateValue(desc, value); err != nil {
		return err
	}

	s.write(name, value)

	return s.maybePersist(opts.Persist)
}

// write records a field value, tracking first-write order.
func (s *Sample) write(name string, value interface{}) {
	if _, ok := s.fields[name]; !ok {
		s.order = append(s.order, name)
	}
	s.fields[name] = value
}

// maybePersist saves the sample after a mutation when it is already
// persisted and the effective policy says to.
func (s *Sample) maybePersist(override *bool) error {
	if s.backend == nil || s.id == "" {
		return nil
	}

	persist := s.backend.AutoPersist()
	if override != nil {
		persist = *override
	}
	if !persist {
		return nil
	}
	return s.backend.SaveSample(s)
}
