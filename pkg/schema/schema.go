// Package schema provides the dynamic field schema shared by every sample in
// a collection. A Schema is an ordered registry of typed field descriptors
// that can grow at runtime, either through explicit AddField calls or through
// type inference when a sample write is authorized to create its field.
//
// A Schema never shrinks and a descriptor's kind is immutable for the life of
// the collection. The Schema itself performs no locking: per the concurrency
// contract of the ingestion core, callers distributing work across workers
// must externally serialize schema-mutating operations.
package schema

import (
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/curateml/curate/pkg/curerrors"
)

// ReservedPrefix is the field-name prefix reserved for internal attributes.
// Field names starting with it are rejected.
const ReservedPrefix = '_'

// FieldDescriptor describes one named, typed field of a collection schema.
type FieldDescriptor struct {
	// Name is the field identifier, unique within its schema.
	Name string `json:"name"`

	// Kind is the declared type tag. Immutable once the descriptor exists.
	Kind FieldKind `json:"kind"`

	// ElemKind optionally declares the element kind for KindList fields.
	ElemKind FieldKind `json:"elem_kind,omitempty"`

	// Embedded carries the document type tag for KindEmbedded fields.
	Embedded EmbeddedType `json:"embedded,omitempty"`
}

// FieldOption configures an optional property of a new field descriptor.
type FieldOption func(*FieldDescriptor)

// WithElemKind declares the element kind of a list field.
func WithElemKind(elem FieldKind) FieldOption {
	return func(d *FieldDescriptor) { d.ElemKind = elem }
}

// WithEmbedded declares the document type of an embedded field.
func WithEmbedded(t EmbeddedType) FieldOption {
	return func(d *FieldDescriptor) { d.Embedded = t }
}

// Schema is the ordered mapping of field name to descriptor governing which
// named, typed fields a sample may hold. Insertion order is preserved and
// semantically meaningful (display, export).
type Schema struct {
	fields []*FieldDescriptor
	index  map[string]int
	logger *zap.Logger
}

// New creates an empty schema. A nil logger disables mutation logging.
func New(logger *zap.Logger) *Schema {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Schema{
		index:  make(map[string]int),
		logger: logger,
	}
}

// Len returns the number of registered fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// HasField reports whether a field with the given name is registered.
func (s *Schema) HasField(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Field returns the descriptor for the given name.
func (s *Schema) Field(name string) (*FieldDescriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.fields[i], true
}

// AddField appends a new field descriptor, preserving insertion order.
// It fails with a duplicate_field error if the name is already registered,
// with an invalid_kind error if the kind tag is not recognized, and with a
// reserved_name error if the name starts with the reserved prefix.
func (s *Schema) AddField(name string, kind FieldKind, opts ...FieldOption) error {
	if name == "" || name[0] == ReservedPrefix {
		return curerrors.Newf(curerrors.ErrorTypeReservedName,
			"invalid field name %q: names cannot be empty or start with %q",
			name, string(ReservedPrefix))
	}

	if !kind.Valid() {
		return curerrors.Newf(curerrors.ErrorTypeInvalidKind,
			"invalid field kind %q", string(kind)).
			WithDetail("field", name)
	}

	if s.HasField(name) {
		return curerrors.Newf(curerrors.ErrorTypeDuplicateField,
			"field %q already exists", name)
	}

	desc := &FieldDescriptor{Name: name, Kind: kind}
	for _, opt := range opts {
		opt(desc)
	}

	s.index[name] = len(s.fields)
	s.fields = append(s.fields, desc)

	s.logger.Info("field added",
		zap.String("field", name),
		zap.String("kind", string(kind)),
		zap.String("embedded", string(desc.Embedded)))

	return nil
}

// EnsureField creates the field if it does not exist and is a no-op if it
// already exists with a compatible kind. Two descriptors are compatible when
// their kinds match and, for embedded fields, the existing document type is
// the requested type or a subtype of it. An existing field with an
// incompatible kind fails with a duplicate_field error.
//
// The ingestion pipeline uses this to pre-create a label field before the
// first record is processed, so the field exists even when every record in
// the batch turns out to be unlabeled.
func (s *Schema) EnsureField(name string, kind FieldKind, opts ...FieldOption) error {
	existing, ok := s.Field(name)
	if !ok {
		return s.AddField(name, kind, opts...)
	}

	requested := &FieldDescriptor{Name: name, Kind: kind}
	for _, opt := range opts {
		opt(requested)
	}

	if existing.Kind != kind {
		return curerrors.Newf(curerrors.ErrorTypeDuplicateField,
			"field %q already exists with kind %q, requested %q",
			name, string(existing.Kind), string(kind))
	}

	if kind == KindEmbedded && requested.Embedded != EmbeddedAny &&
		!existing.Embedded.IsA(requested.Embedded) {
		return curerrors.Newf(curerrors.ErrorTypeDuplicateField,
			"field %q already exists with embedded type %q, requested %q",
			name, string(existing.Embedded), string(requested.Embedded))
	}

	return nil
}

// Fields returns the ordered descriptors. The returned slice is a copy; the
// descriptors themselves are shared and must not be mutated.
func (s *Schema) Fields() []*FieldDescriptor {
	out := make([]*FieldDescriptor, len(s.fields))
	copy(out, s.fields)
	return out
}

// FieldsOfKind returns the ordered descriptors whose kind matches the given
// filter.
func (s *Schema) FieldsOfKind(kind FieldKind) []*FieldDescriptor {
	var out []*FieldDescriptor
	for _, d := range s.fields {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// EmbeddedFields returns the ordered embedded-field descriptors whose
// document type is the filter type or a subtype of it. EmbeddedAny matches
// every embedded field.
func (s *Schema) EmbeddedFields(filter EmbeddedType) []*FieldDescriptor {
	var out []*FieldDescriptor
	for _, d := range s.fields {
		if d.Kind == KindEmbedded && d.Embedded.IsA(filter) {
			out = append(out, d)
		}
	}
	return out
}

// ExportJSON serializes the ordered descriptors for display or export.
func (s *Schema) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s.fields, "", "  ")
	if err != nil {
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeInternal,
			"failed to marshal schema")
	}
	return data, nil
}
