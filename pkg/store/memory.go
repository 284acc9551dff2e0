package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/sample"
)

// MemoryStore keeps a collection's samples in memory. It is the store used
// by tests and by embedded, non-durable datasets. Identifiers are ObjectID
// hex strings, matching the Mongo-backed store.
//
// MemoryStore is not safe for concurrent use; the ingestion core is
// single-threaded and callers running parallel workers must serialize store
// access externally.
type MemoryStore struct {
	samples     map[string]*sample.Sample
	byPath      map[string]string
	order       []string
	autoPersist bool
	logger      *zap.Logger
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithAutoPersist sets the store's persist-on-mutate policy. The in-memory
// store defaults to true, mirroring the durable store.
func WithAutoPersist(on bool) MemoryOption {
	return func(m *MemoryStore) { m.autoPersist = on }
}

// WithLogger attaches a logger for store operations.
func WithLogger(logger *zap.Logger) MemoryOption {
	return func(m *MemoryStore) { m.logger = logger }
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		samples:     make(map[string]*sample.Sample),
		byPath:      make(map[string]string),
		autoPersist: true,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateOrUpdate implements Store.
func (m *MemoryStore) CreateOrUpdate(_ context.Context, s *sample.Sample) (string, error) {
	if id, ok := m.byPath[s.Filepath()]; ok {
		s.SetID(id)
		m.samples[id] = s
		m.logger.Debug("sample updated",
			zap.String("id", id), zap.String("filepath", s.Filepath()))
		return id, nil
	}

	id := primitive.NewObjectID().Hex()
	s.SetID(id)
	m.samples[id] = s
	m.byPath[s.Filepath()] = id
	m.order = append(m.order, id)

	m.logger.Debug("sample created",
		zap.String("id", id), zap.String("filepath", s.Filepath()))
	return id, nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*sample.Sample, error) {
	s, ok := m.samples[id]
	if !ok {
		return nil, curerrors.Newf(curerrors.ErrorTypeNotFound,
			"sample %q not found", id)
	}
	return s, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context) ([]*sample.Sample, error) {
	out := make([]*sample.Sample, 0, len(m.order))
	for _, id := range m.order {
		if s, ok := m.samples[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	s, ok := m.samples[id]
	if !ok {
		return curerrors.Newf(curerrors.ErrorTypeNotFound,
			"sample %q not found", id)
	}

	delete(m.samples, id)
	delete(m.byPath, s.Filepath())
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Count implements Store.
func (m *MemoryStore) Count(context.Context) (int64, error) {
	return int64(len(m.samples)), nil
}

// Close implements Store.
func (m *MemoryStore) Close(context.Context) error { return nil }

// SaveSample implements sample.Backend. For an in-memory store the sample
// pointer is the stored state, so a save only has to verify the sample is
// known.
func (m *MemoryStore) SaveSample(s *sample.Sample) error {
	if _, ok := m.samples[s.ID()]; !ok {
		return curerrors.Newf(curerrors.ErrorTypeNotFound,
			"sample %q not found", s.ID())
	}
	return nil
}

// AutoPersist implements sample.Backend.
func (m *MemoryStore) AutoPersist() bool { return m.autoPersist }
