package parser

import (
	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/media"
	"github.com/curateml/curate/pkg/sample"
)

// tupleParser is the shared base of the labeled tuple variants. Records are
// Tuple values; the image half resolves through the shared cache, the
// target half is interpreted by each variant.
type tupleParser struct {
	cursor
	cache imageCache
}

func (p *tupleParser) init() {
	p.onClear(p.cache.reset)
}

// HasImagePath reports that tuple variants produce image paths.
func (p *tupleParser) HasImagePath() bool { return true }

// HasImageMetadata reports that tuple variants never produce metadata.
func (p *tupleParser) HasImageMetadata() bool { return false }

// Image returns the current tuple's image, memoized until the next clear.
func (p *tupleParser) Image() (media.Image, error) {
	t, err := p.tuple()
	if err != nil {
		return nil, err
	}
	return p.cache.image(t.Image.Resolve)
}

// ImagePath returns the current tuple's path. Tuples carrying an in-memory
// image fail with a not_a_path error.
func (p *tupleParser) ImagePath() (string, error) {
	t, err := p.tuple()
	if err != nil {
		return "", err
	}
	path, ok := t.Image.Path()
	if !ok {
		return "", curerrors.New(curerrors.ErrorTypeNotAPath,
			"current record holds an in-memory image, not a path")
	}
	return path, nil
}

// ImageMetadata always fails; tuple variants do not declare the metadata
// capability.
func (p *tupleParser) ImageMetadata() (*sample.ImageMetadata, error) {
	return nil, errUnsupported("image metadata")
}

// tuple returns the current record coerced to a Tuple. Bare image records
// are accepted as unlabeled tuples.
func (p *tupleParser) tuple() (Tuple, error) {
	record, err := p.current()
	if err != nil {
		return Tuple{}, err
	}
	switch v := record.(type) {
	case Tuple:
		return v, nil
	case *Tuple:
		return *v, nil
	}
	ref, err := asRef(record)
	if err != nil {
		return Tuple{}, curerrors.Newf(curerrors.ErrorTypeData,
			"record is not a labeled image tuple: got %T", record)
	}
	return Tuple{Image: ref}, nil
}
