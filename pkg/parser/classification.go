package parser

import (
	"github.com/curateml/curate/pkg/label"
	"github.com/curateml/curate/pkg/schema"
)

// ClassificationParser parses (image, target) tuples whose target is a
// class id into an optional class list, an already-resolved label string,
// or nil for unlabeled records.
type ClassificationParser struct {
	tupleParser

	classes []string
}

var _ LabeledImageParser = (*ClassificationParser)(nil)

// NewClassificationParser returns a classification tuple parser. classes
// may be nil, in which case integer targets resolve to their string form.
func NewClassificationParser(classes []string) *ClassificationParser {
	p := &ClassificationParser{classes: classes}
	p.init()
	return p
}

// Label resolves the current tuple's target into a Classification. Class
// lookup failures of any sort fall back to the target's string form.
func (p *ClassificationParser) Label() (ParsedLabel, error) {
	t, err := p.tuple()
	if err != nil {
		return ParsedLabel{}, err
	}
	if t.Target == nil {
		return ParsedLabel{}, nil
	}
	return ParsedLabel{
		Single: &label.Classification{Label: resolveClass(t.Target, p.classes)},
	}, nil
}

// LabelType reports the static Classification label type.
func (p *ClassificationParser) LabelType() (schema.EmbeddedType, bool) {
	return label.TypeClassification, true
}
