package parser

import (
	"os"
	"strings"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/label"
	"github.com/curateml/curate/pkg/schema"
)

// ImageLabelsConfig configures how an ImageLabelsParser handles the
// multi-task blob carried by each record.
type ImageLabelsConfig struct {
	// Expand unpacks the blob into per-task label fields instead of
	// keeping it as a single ImageLabels value.
	Expand bool

	// ExpandOptions controls the expansion when Expand is set.
	ExpandOptions label.ExpandOptions
}

// ImageLabelsParser parses (image, labels) tuples whose target is a
// structured multi-task blob: a RawImageLabels value, its mapping form, its
// JSON text, or the path to a JSON file holding one.
type ImageLabelsParser struct {
	tupleParser

	cfg ImageLabelsConfig
}

var _ LabeledImageParser = (*ImageLabelsParser)(nil)

// NewImageLabelsParser returns an image-labels tuple parser.
func NewImageLabelsParser(cfg ImageLabelsConfig) *ImageLabelsParser {
	p := &ImageLabelsParser{cfg: cfg}
	p.init()
	return p
}

// Label parses the current tuple's blob, either wrapping it whole or
// expanding it into per-task fields depending on configuration.
func (p *ImageLabelsParser) Label() (ParsedLabel, error) {
	t, err := p.tuple()
	if err != nil {
		return ParsedLabel{}, err
	}
	if t.Target == nil {
		return ParsedLabel{}, nil
	}

	raw, err := asRawImageLabels(t.Target)
	if err != nil {
		return ParsedLabel{}, err
	}

	il := &label.ImageLabels{Labels: raw}
	if !p.cfg.Expand {
		return ParsedLabel{Single: il}, nil
	}
	return ParsedLabel{Fields: il.Expand(p.cfg.ExpandOptions)}, nil
}

// LabelType reports the static ImageLabels type when the blob is kept
// whole; expansion yields a per-record mapping instead.
func (p *ImageLabelsParser) LabelType() (schema.EmbeddedType, bool) {
	if p.cfg.Expand {
		return "", false
	}
	return label.TypeImageLabels, true
}

// asRawImageLabels coerces a label payload into its structured blob form.
func asRawImageLabels(target interface{}) (*label.RawImageLabels, error) {
	switch v := target.(type) {
	case *label.RawImageLabels:
		return v, nil
	case label.RawImageLabels:
		return &v, nil
	case *label.ImageLabels:
		return v.Labels, nil
	case map[string]interface{}:
		return label.RawImageLabelsFromMap(v)
	case string:
		raw := []byte(v)
		if !strings.HasPrefix(strings.TrimSpace(v), "{") {
			var err error
			raw, err = os.ReadFile(v)
			if err != nil {
				return nil, curerrors.Wrap(err, curerrors.ErrorTypeFile,
					"failed to read image labels file")
			}
		}
		return label.ParseRawImageLabels(raw)
	}
	return nil, curerrors.Newf(curerrors.ErrorTypeData,
		"unsupported image labels target: got %T", target)
}
