package parser

import (
	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/label"
	"github.com/curateml/curate/pkg/media"
	"github.com/curateml/curate/pkg/sample"
	"github.com/curateml/curate/pkg/schema"
)

// StoreImageParser parses already-materialized samples, typically when
// copying records between datasets. It yields both paths and metadata.
type StoreImageParser struct {
	cursor

	// ComputeMetadata builds metadata from the image file when the sample
	// does not carry any.
	ComputeMetadata bool
}

var _ UnlabeledImageParser = (*StoreImageParser)(nil)

// NewStoreImageParser returns a parser over existing samples.
func NewStoreImageParser(computeMetadata bool) *StoreImageParser {
	return &StoreImageParser{ComputeMetadata: computeMetadata}
}

// HasImagePath reports that samples always carry a path.
func (p *StoreImageParser) HasImagePath() bool { return true }

// HasImageMetadata reports that this variant produces metadata.
func (p *StoreImageParser) HasImageMetadata() bool { return true }

// Image decodes the current sample's image from disk.
func (p *StoreImageParser) Image() (media.Image, error) {
	s, err := p.sample()
	if err != nil {
		return nil, err
	}
	return media.Decode(s.Filepath())
}

// ImagePath returns the current sample's filepath.
func (p *StoreImageParser) ImagePath() (string, error) {
	s, err := p.sample()
	if err != nil {
		return "", err
	}
	return s.Filepath(), nil
}

// ImageMetadata returns the sample's metadata, computing it from the image
// file when absent and ComputeMetadata is set.
func (p *StoreImageParser) ImageMetadata() (*sample.ImageMetadata, error) {
	s, err := p.sample()
	if err != nil {
		return nil, err
	}
	if md := s.Metadata(); md != nil {
		return md, nil
	}
	if !p.ComputeMetadata {
		return nil, nil
	}
	return sample.BuildMetadata(s.Filepath())
}

func (p *StoreImageParser) sample() (*sample.Sample, error) {
	record, err := p.current()
	if err != nil {
		return nil, err
	}
	s, ok := record.(*sample.Sample)
	if !ok {
		return nil, curerrors.Newf(curerrors.ErrorTypeData,
			"record is not a sample: got %T", record)
	}
	return s, nil
}

// StoreLabeledImageParser parses existing samples together with one label
// field or a set of them.
type StoreLabeledImageParser struct {
	StoreImageParser

	// LabelField is the single field to extract. Ignored when LabelFields
	// is set.
	LabelField string

	// LabelFields maps source field names on the sample to output field
	// names; when set the parser yields a per-record field mapping.
	LabelFields map[string]string
}

var _ LabeledImageParser = (*StoreLabeledImageParser)(nil)

// NewStoreLabeledImageParser returns a parser extracting a single label
// field from existing samples.
func NewStoreLabeledImageParser(labelField string, computeMetadata bool) *StoreLabeledImageParser {
	return &StoreLabeledImageParser{
		StoreImageParser: StoreImageParser{ComputeMetadata: computeMetadata},
		LabelField:       labelField,
	}
}

// NewStoreMultiLabelImageParser returns a parser extracting several label
// fields from existing samples, renaming them per the given mapping.
func NewStoreMultiLabelImageParser(labelFields map[string]string, computeMetadata bool) *StoreLabeledImageParser {
	return &StoreLabeledImageParser{
		StoreImageParser: StoreImageParser{ComputeMetadata: computeMetadata},
		LabelFields:      labelFields,
	}
}

// Label extracts the configured label field or fields from the current
// sample. Absent values mark the record unlabeled; values that are not
// labels fail with a validation error.
func (p *StoreLabeledImageParser) Label() (ParsedLabel, error) {
	s, err := p.sample()
	if err != nil {
		return ParsedLabel{}, err
	}

	if p.LabelFields == nil {
		l, err := fieldLabel(s, p.LabelField)
		if err != nil {
			return ParsedLabel{}, err
		}
		return ParsedLabel{Single: l}, nil
	}

	fields := make(map[string]label.Label, len(p.LabelFields))
	for src, dst := range p.LabelFields {
		l, err := fieldLabel(s, src)
		if err != nil {
			return ParsedLabel{}, err
		}
		if l != nil {
			fields[dst] = l
		}
	}
	return ParsedLabel{Fields: fields}, nil
}

// LabelType reports the generic label type for the single-field form; the
// multi-field form yields a per-record mapping instead.
func (p *StoreLabeledImageParser) LabelType() (schema.EmbeddedType, bool) {
	if p.LabelFields != nil {
		return "", false
	}
	return label.TypeLabel, true
}

func fieldLabel(s *sample.Sample, field string) (label.Label, error) {
	value, err := s.Get(field)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	l, ok := value.(label.Label)
	if !ok {
		return nil, curerrors.Newf(curerrors.ErrorTypeValidation,
			"field %q does not hold a label: got %T", field, value)
	}
	return l, nil
}
