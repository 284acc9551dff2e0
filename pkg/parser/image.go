package parser

import (
	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/media"
	"github.com/curateml/curate/pkg/sample"
)

// ImageParser parses raw image records: a media.Ref, a path string, or an
// in-memory image. It yields paths but never metadata.
type ImageParser struct {
	cursor
	cache imageCache
}

var _ UnlabeledImageParser = (*ImageParser)(nil)

// NewImageParser returns a parser for unlabeled image records.
func NewImageParser() *ImageParser {
	p := &ImageParser{}
	p.onClear(p.cache.reset)
	return p
}

// HasImagePath reports that this variant produces image paths.
func (p *ImageParser) HasImagePath() bool { return true }

// HasImageMetadata reports that this variant never produces metadata.
func (p *ImageParser) HasImageMetadata() bool { return false }

// Image returns the current record's image, decoding it from disk when the
// record is a path. The decoded image is memoized until the next clear.
func (p *ImageParser) Image() (media.Image, error) {
	ref, err := p.ref()
	if err != nil {
		return nil, err
	}
	return p.cache.image(ref.Resolve)
}

// ImagePath returns the current record's path. Records carrying an
// in-memory image fail with a not_a_path error.
func (p *ImageParser) ImagePath() (string, error) {
	ref, err := p.ref()
	if err != nil {
		return "", err
	}
	path, ok := ref.Path()
	if !ok {
		return "", curerrors.New(curerrors.ErrorTypeNotAPath,
			"current record holds an in-memory image, not a path")
	}
	return path, nil
}

// ImageMetadata always fails; this variant does not declare the metadata
// capability.
func (p *ImageParser) ImageMetadata() (*sample.ImageMetadata, error) {
	return nil, errUnsupported("image metadata")
}

func (p *ImageParser) ref() (media.Ref, error) {
	record, err := p.current()
	if err != nil {
		return media.Ref{}, err
	}
	return asRef(record)
}

// asRef coerces a record's image member into a media.Ref.
func asRef(record interface{}) (media.Ref, error) {
	switch v := record.(type) {
	case media.Ref:
		return v, nil
	case string:
		return media.FromPath(v), nil
	case media.Image:
		return media.FromImage(v), nil
	}
	return media.Ref{}, curerrors.Newf(curerrors.ErrorTypeData,
		"record is not an image reference: got %T", record)
}
