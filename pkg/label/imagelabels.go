package label

import (
	"github.com/goccy/go-json"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/schema"
)

// RawImageLabels is the multitask annotation blob for one image: frame-level
// attributes plus detected objects. It is the interchange shape accepted by
// the image-labels parser, whether supplied as a JSON string, a decoded
// mapping, or an already-built instance.
type RawImageLabels struct {
	// Attributes are frame-level attributes (scene labels, weather, ...).
	Attributes []RawAttribute `json:"attributes,omitempty"`

	// Objects are the detected objects with optional per-object attributes.
	Objects []RawObject `json:"objects,omitempty"`
}

// RawAttribute is one named frame- or object-level attribute.
type RawAttribute struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// RawObject is one detected object in a multitask blob. The bounding box is
// in relative [0, 1] coordinates.
type RawObject struct {
	Label       string         `json:"label"`
	BoundingBox [4]float64     `json:"bounding_box"`
	Confidence  *float64       `json:"confidence,omitempty"`
	Attributes  []RawAttribute `json:"attributes,omitempty"`
}

// ImageLabels wraps a multitask annotation blob as a storable label. The
// blob stays opaque until expanded into single-task labels.
type ImageLabels struct {
	Labels *RawImageLabels `json:"labels" bson:"labels"`
}

// EmbeddedType implements schema.EmbeddedDocument.
func (*ImageLabels) EmbeddedType() schema.EmbeddedType { return TypeImageLabels }

func (*ImageLabels) isLabel() {}

// ParseRawImageLabels decodes a multitask blob from its JSON string form.
func ParseRawImageLabels(data []byte) (*RawImageLabels, error) {
	var raw RawImageLabels
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeData,
			"failed to decode image labels")
	}
	return &raw, nil
}

// RawImageLabelsFromMap decodes a multitask blob from its mapping form by
// round-tripping through JSON.
func RawImageLabelsFromMap(m map[string]interface{}) (*RawImageLabels, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeData,
			"failed to encode image labels mapping")
	}
	return ParseRawImageLabels(data)
}

// ExpandOptions control how a multitask blob is expanded into a mapping of
// field name to single-task label.
type ExpandOptions struct {
	// Prefix is prepended to each expanded field name. Ignored for names
	// remapped through Rename.
	Prefix string

	// Rename maps attribute/object-group names to target field names. When
	// non-nil, names missing from the table are dropped entirely.
	Rename map[string]string

	// Multilabel folds all frame attributes into one Classifications field
	// instead of one Classification field per attribute.
	Multilabel bool

	// SkipNonCategorical drops frame attributes with non-string values
	// rather than casting them to their string form.
	SkipNonCategorical bool
}

// Field-group names used when expanding a multitask blob.
const (
	attributesGroup = "attributes"
	detectionsGroup = "detections"
)

// Expand converts the blob into a mapping of field name to single-task
// label. Frame attributes expand into classification fields (or a single
// multilabel field) and objects expand into one detections field. An empty
// blob expands into an empty mapping.
func (il *ImageLabels) Expand(opts ExpandOptions) map[string]Label {
	out := make(map[string]Label)
	if il == nil || il.Labels == nil {
		return out
	}

	if opts.Multilabel {
		il.expandMultilabel(opts, out)
	} else {
		il.expandPerAttribute(opts, out)
	}

	if len(il.Labels.Objects) > 0 {
		if name, ok := targetName(detectionsGroup, opts); ok {
			out[name] = &Detections{Detections: expandObjects(il.Labels.Objects)}
		}
	}

	return out
}

// expandPerAttribute emits one Classification field per frame attribute.
func (il *ImageLabels) expandPerAttribute(opts ExpandOptions, out map[string]Label) {
	for _, attr := range il.Labels.Attributes {
		name, ok := targetName(attr.Name, opts)
		if !ok {
			continue
		}

		value, ok := categoricalValue(attr.Value, opts.SkipNonCategorical)
		if !ok {
			continue
		}

		out[name] = &Classification{Label: value}
	}
}

// expandMultilabel folds all frame attributes into a single Classifications
// field.
func (il *ImageLabels) expandMultilabel(opts ExpandOptions, out map[string]Label) {
	name, ok := targetName(attributesGroup, opts)
	if !ok {
		return
	}

	var classifications []*Classification
	for _, attr := range il.Labels.Attributes {
		value, ok := categoricalValue(attr.Value, opts.SkipNonCategorical)
		if !ok {
			continue
		}
		classifications = append(classifications, &Classification{Label: value})
	}

	if classifications != nil {
		out[name] = &Classifications{Classifications: classifications}
	}
}

// expandObjects converts raw objects into detections, coercing each object
// attribute into its typed variant.
func expandObjects(objects []RawObject) []*Detection {
	detections := make([]*Detection, 0, len(objects))
	for _, obj := range objects {
		det := &Detection{
			Label:       obj.Label,
			BoundingBox: obj.BoundingBox,
			Confidence:  obj.Confidence,
		}

		if len(obj.Attributes) > 0 {
			det.Attributes = make(map[string]Attribute, len(obj.Attributes))
			for _, attr := range obj.Attributes {
				det.Attributes[attr.Name] = CoerceAttribute(attr.Value)
			}
		}

		detections = append(detections, det)
	}
	return detections
}

// targetName resolves an attribute/group name to its expanded field name.
// With a rename table, unmapped names are dropped; otherwise the prefix is
// applied.
func targetName(name string, opts ExpandOptions) (string, bool) {
	if opts.Rename != nil {
		target, ok := opts.Rename[name]
		return target, ok
	}
	return opts.Prefix + name, true
}

// categoricalValue resolves a frame-attribute value to a label string.
// Non-string values are either dropped or cast, per the skip flag.
func categoricalValue(value interface{}, skipNonCategorical bool) (string, bool) {
	if s, ok := value.(string); ok {
		return s, true
	}
	if skipNonCategorical {
		return "", false
	}
	return StringValue(value), true
}
