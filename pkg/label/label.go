// Package label defines the closed set of canonical label variants that
// parsers produce and samples store: single-label classification, multilabel
// classification, object detections, typed detection attributes, and the
// opaque multitask image-labels blob.
//
// Every variant is an embedded document registered with the schema package,
// so label-valued fields participate in embedded-type filtering: filtering a
// schema by the generic "label" type matches every variant.
package label

import (
	"github.com/curateml/curate/pkg/schema"
)

// Embedded type tags for the label variants. TypeLabel is the common parent;
// filtering a schema by TypeLabel matches every label field.
const (
	TypeLabel           schema.EmbeddedType = "label"
	TypeClassification  schema.EmbeddedType = "classification"
	TypeClassifications schema.EmbeddedType = "classifications"
	TypeDetections      schema.EmbeddedType = "detections"
	TypeImageLabels     schema.EmbeddedType = "image_labels"
)

func init() {
	schema.RegisterEmbeddedType(TypeLabel, schema.EmbeddedAny)
	schema.RegisterEmbeddedType(TypeClassification, TypeLabel)
	schema.RegisterEmbeddedType(TypeClassifications, TypeLabel)
	schema.RegisterEmbeddedType(TypeDetections, TypeLabel)
	schema.RegisterEmbeddedType(TypeImageLabels, TypeLabel)
}

// Label is the tagged union of canonical label variants. The set is closed:
// only types in this package implement it.
type Label interface {
	schema.EmbeddedDocument
	isLabel()
}

// Classification is a single class label for an image.
type Classification struct {
	// Label is the class label string.
	Label string `json:"label" bson:"label"`
}

// EmbeddedType implements schema.EmbeddedDocument.
func (*Classification) EmbeddedType() schema.EmbeddedType { return TypeClassification }

func (*Classification) isLabel() {}

// Classifications holds multiple class labels for a single field, used when
// multitask frame attributes are folded into one multilabel field.
type Classifications struct {
	Classifications []*Classification `json:"classifications" bson:"classifications"`
}

// EmbeddedType implements schema.EmbeddedDocument.
func (*Classifications) EmbeddedType() schema.EmbeddedType { return TypeClassifications }

func (*Classifications) isLabel() {}

// Detection is one detected object. The bounding box is always stored in
// relative [0, 1] coordinates as [top-left-x, top-left-y, width, height];
// converting from absolute pixel coordinates is the parser's job.
type Detection struct {
	// Label is the object class label.
	Label string `json:"label" bson:"label"`

	// BoundingBox is [x, y, w, h], all in [0, 1].
	BoundingBox [4]float64 `json:"bounding_box" bson:"bounding_box"`

	// Confidence is an optional detection confidence.
	Confidence *float64 `json:"confidence,omitempty" bson:"confidence,omitempty"`

	// Attributes holds optional typed attributes by name.
	Attributes map[string]Attribute `json:"attributes,omitempty" bson:"attributes,omitempty"`
}

// Detections is the set of detected objects for one image.
type Detections struct {
	Detections []*Detection `json:"detections" bson:"detections"`
}

// EmbeddedType implements schema.EmbeddedDocument.
func (*Detections) EmbeddedType() schema.EmbeddedType { return TypeDetections }

func (*Detections) isLabel() {}
