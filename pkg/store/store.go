// Package store provides the persistence collaborators for sample
// collections: the Store contract (create-or-update keyed by the unique
// sample filepath) and two implementations, an in-memory store for embedded
// use and tests and a MongoDB-backed store for durable collections.
package store

import (
	"context"

	"github.com/curateml/curate/pkg/sample"
)

// Store persists the samples of one collection. A filepath uniqueness
// constraint is enforced: creating a sample whose filepath already exists
// updates the existing record instead.
//
// Store embeds sample.Backend so bound samples can save themselves on
// mutation per the store's persist policy.
type Store interface {
	sample.Backend

	// CreateOrUpdate persists the sample and returns its identifier. A new
	// sample whose filepath matches an existing record updates that record
	// and returns its existing identifier. The sample's ID is set as a
	// side effect.
	CreateOrUpdate(ctx context.Context, s *sample.Sample) (string, error)

	// Get returns the sample with the given identifier, failing with a
	// not_found error if it does not exist.
	Get(ctx context.Context, id string) (*sample.Sample, error)

	// List returns all samples in insertion order.
	List(ctx context.Context) ([]*sample.Sample, error)

	// Delete removes the sample with the given identifier.
	Delete(ctx context.Context, id string) error

	// Count returns the number of persisted samples.
	Count(ctx context.Context) (int64, error)

	// Close releases the store's resources.
	Close(ctx context.Context) error
}
