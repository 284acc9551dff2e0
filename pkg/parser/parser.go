// Package parser provides the stateful sample-parser protocol that adapts
// external record shapes into canonical path/metadata/label values.
//
// A parser is a single-record cursor: position it on a record with
// WithRecord, read the accessors, then reposition or clear. WithRecord
// always clears first, so no memoized state from a previous record can leak
// into the next one. Accessors called while the parser is not positioned
// fail with a no_current_record error, and accessors gated by a capability
// the parser does not declare fail with an unsupported_capability error.
//
// The protocol is a flat capability interface implemented by independent
// variant structs; shared behavior (the cursor, the memoized decoded image)
// lives in small composable helpers rather than an inheritance chain.
package parser

import (
	"fmt"
	"strconv"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/label"
	"github.com/curateml/curate/pkg/media"
	"github.com/curateml/curate/pkg/sample"
	"github.com/curateml/curate/pkg/schema"
)

// SampleParser is the base protocol shared by every parser variant.
// Capability flags are static per variant, not per record.
type SampleParser interface {
	// WithRecord positions the parser on a record, clearing any previous
	// record and memoized state first.
	WithRecord(record interface{})

	// ClearRecord drops the current record and any memoized derived
	// values. Idempotent.
	ClearRecord()

	// HasImagePath reports whether this variant produces image paths.
	HasImagePath() bool

	// HasImageMetadata reports whether this variant produces image
	// metadata.
	HasImageMetadata() bool
}

// UnlabeledImageParser parses records that reference an image without
// labels.
type UnlabeledImageParser interface {
	SampleParser

	// Image returns the decoded image for the current record.
	Image() (media.Image, error)

	// ImagePath returns the image path for the current record. Only valid
	// when HasImagePath is true; fails with a not_a_path error when the
	// current record carries an in-memory image instead of a path.
	ImagePath() (string, error)

	// ImageMetadata returns metadata for the current record's image. Only
	// valid when HasImageMetadata is true.
	ImageMetadata() (*sample.ImageMetadata, error)
}

// LabeledImageParser parses records carrying an image plus a label payload.
type LabeledImageParser interface {
	UnlabeledImageParser

	// Label returns the parsed label for the current record.
	Label() (ParsedLabel, error)

	// LabelType returns the single static label type this variant
	// produces, or false when it produces a per-record mapping of fields
	// to labels.
	LabelType() (schema.EmbeddedType, bool)
}

// ParsedLabel is the result of parsing one record's label payload: a single
// label, a mapping of field names to labels, or nothing (unlabeled record).
type ParsedLabel struct {
	// Single is the parsed label when the parser produces one label.
	Single label.Label

	// Fields maps field names to labels when the parser fans a record out
	// into multiple fields.
	Fields map[string]label.Label
}

// IsZero reports whether the record was unlabeled.
func (p ParsedLabel) IsZero() bool {
	return p.Single == nil && p.Fields == nil
}

// Tuple is the (image-or-path, label-payload) record shape consumed by the
// labeled tuple parsers.
type Tuple struct {
	// Image references the record's image by path or in memory.
	Image media.Ref

	// Target is the label payload; nil marks an unlabeled record.
	Target interface{}
}

// cursor holds the parser's single piece of mutable state: the current
// record. Clear hooks let variants drop memoized values alongside it.
type cursor struct {
	record     interface{}
	positioned bool
	clearHooks []func()
}

// WithRecord implements the positioning half of the protocol.
func (c *cursor) WithRecord(record interface{}) {
	c.ClearRecord()
	c.record = record
	c.positioned = true
}

// ClearRecord implements the clearing half of the protocol.
func (c *cursor) ClearRecord() {
	c.record = nil
	c.positioned = false
	for _, hook := range c.clearHooks {
		hook()
	}
}

// onClear registers a hook invoked on every clear.
func (c *cursor) onClear(hook func()) {
	c.clearHooks = append(c.clearHooks, hook)
}

// current returns the current record, failing when the parser is idle.
func (c *cursor) current() (interface{}, error) {
	if !c.positioned {
		return nil, curerrors.New(curerrors.ErrorTypeNoCurrentRecord,
			"no current record: call WithRecord before reading accessors")
	}
	return c.record, nil
}

// imageCache memoizes the decoded image for the current record, so a record
// whose accessors need pixels more than once (image plus a coordinate
// transform) decodes at most once.
type imageCache struct {
	img media.Image
}

// image returns the cached image, resolving it on first use.
func (ic *imageCache) image(resolve func() (media.Image, error)) (media.Image, error) {
	if ic.img != nil {
		return ic.img, nil
	}
	img, err := resolve()
	if err != nil {
		return nil, err
	}
	ic.img = img
	return img, nil
}

// reset drops the cached image.
func (ic *imageCache) reset() {
	ic.img = nil
}

// errUnsupported builds the gated-accessor failure for a variant lacking a
// capability.
func errUnsupported(capability string) error {
	return curerrors.Newf(curerrors.ErrorTypeUnsupportedCapability,
		"this parser does not provide %s", capability)
}

// resolveClass maps a class target to its label string through an optional
// class list. Lookup failure of any sort (nil table, out-of-range index,
// non-integer target) falls back to the target's string form rather than
// failing.
func resolveClass(target interface{}, classes []string) string {
	if idx, ok := asInt(target); ok {
		if idx >= 0 && idx < len(classes) {
			return classes[idx]
		}
		return strconv.Itoa(idx)
	}
	if s, ok := target.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", target)
}

// asInt widens any integer type (JSON decoding included, where numbers
// arrive as float64 with integral values) to int.
func asInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	case float32:
		if v == float32(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}
