package parser

import (
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/label"
	"github.com/curateml/curate/pkg/media"
	"github.com/curateml/curate/pkg/schema"
)

// DetectionConfig configures how a DetectionParser reads per-object dicts.
// Zero-value keys fall back to the conventional names; a Confidence or
// Attributes key left empty disables that extraction entirely.
type DetectionConfig struct {
	// LabelKey is the per-object key holding the class target.
	// Defaults to "label".
	LabelKey string

	// BoundingBoxKey is the per-object key holding the [x, y, w, h] box.
	// Defaults to "bounding_box".
	BoundingBoxKey string

	// ConfidenceKey is the per-object key holding the optional confidence.
	// Empty disables confidence extraction.
	ConfidenceKey string

	// AttributesKey is the per-object key holding the optional attributes
	// dict. Empty disables attribute extraction.
	AttributesKey string

	// Classes optionally maps integer class targets to label strings.
	Classes []string

	// Absolute declares that incoming boxes arrive in absolute pixels and
	// must be normalized against the record's image dimensions. By default
	// boxes are already expressed in relative [0, 1] coordinates.
	Absolute bool
}

// DetectionParser parses (image, objects) tuples whose target is a list of
// per-object dicts, a JSON string of one, or a path to a JSON file holding
// one, into a Detections label with all boxes in relative coordinates.
type DetectionParser struct {
	tupleParser

	cfg DetectionConfig
}

var _ LabeledImageParser = (*DetectionParser)(nil)

// NewDetectionParser returns a detection tuple parser.
func NewDetectionParser(cfg DetectionConfig) *DetectionParser {
	if cfg.LabelKey == "" {
		cfg.LabelKey = "label"
	}
	if cfg.BoundingBoxKey == "" {
		cfg.BoundingBoxKey = "bounding_box"
	}
	p := &DetectionParser{cfg: cfg}
	p.init()
	return p
}

// Label parses the current tuple's target into Detections. When the parser
// is configured for absolute coordinates, the record's image is decoded to
// obtain the dimensions; a missing image is fatal in that mode.
func (p *DetectionParser) Label() (ParsedLabel, error) {
	t, err := p.tuple()
	if err != nil {
		return ParsedLabel{}, err
	}
	if t.Target == nil {
		return ParsedLabel{}, nil
	}

	objects, err := p.objects(t.Target)
	if err != nil {
		return ParsedLabel{}, err
	}

	var width, height float64
	if p.cfg.Absolute {
		img, err := p.Image()
		if err != nil {
			return ParsedLabel{}, curerrors.Wrap(err, curerrors.ErrorTypeData,
				"cannot normalize absolute bounding boxes without the image")
		}
		h, w := media.Dimensions(img)
		width, height = float64(w), float64(h)
	}

	dets := &label.Detections{}
	for _, obj := range objects {
		det, err := p.detection(obj, width, height)
		if err != nil {
			return ParsedLabel{}, err
		}
		dets.Detections = append(dets.Detections, det)
	}
	return ParsedLabel{Single: dets}, nil
}

// LabelType reports the static Detections label type.
func (p *DetectionParser) LabelType() (schema.EmbeddedType, bool) {
	return label.TypeDetections, true
}

// objects coerces the target into its list-of-dicts form, decoding JSON
// text or reading a JSON file when the target is a string.
func (p *DetectionParser) objects(target interface{}) ([]map[string]interface{}, error) {
	switch v := target.(type) {
	case []map[string]interface{}:
		return v, nil
	case []interface{}:
		objects := make([]map[string]interface{}, 0, len(v))
		for _, elem := range v {
			obj, ok := elem.(map[string]interface{})
			if !ok {
				return nil, curerrors.Newf(curerrors.ErrorTypeData,
					"detection target element is not an object: got %T", elem)
			}
			objects = append(objects, obj)
		}
		return objects, nil
	case string:
		raw := []byte(v)
		if !strings.HasPrefix(strings.TrimSpace(v), "[") {
			var err error
			raw, err = os.ReadFile(v)
			if err != nil {
				return nil, curerrors.Wrap(err, curerrors.ErrorTypeFile,
					"failed to read detection target file")
			}
		}
		var objects []map[string]interface{}
		if err := json.Unmarshal(raw, &objects); err != nil {
			return nil, curerrors.Wrap(err, curerrors.ErrorTypeData,
				"failed to decode detection target JSON")
		}
		return objects, nil
	}
	return nil, curerrors.Newf(curerrors.ErrorTypeData,
		"unsupported detection target: got %T", target)
}

// detection converts one per-object dict into a Detection. width and height
// are only consulted in absolute-coordinate mode.
func (p *DetectionParser) detection(obj map[string]interface{}, width, height float64) (*label.Detection, error) {
	box, err := asBox(obj[p.cfg.BoundingBoxKey])
	if err != nil {
		return nil, err
	}
	if p.cfg.Absolute {
		box[0] /= width
		box[1] /= height
		box[2] /= width
		box[3] /= height
	}

	det := &label.Detection{
		Label:       resolveClass(obj[p.cfg.LabelKey], p.cfg.Classes),
		BoundingBox: box,
	}

	if p.cfg.ConfidenceKey != "" {
		if raw, ok := obj[p.cfg.ConfidenceKey]; ok && raw != nil {
			conf, ok := asFloat(raw)
			if !ok {
				return nil, curerrors.Newf(curerrors.ErrorTypeData,
					"confidence is not numeric: got %T", raw)
			}
			det.Confidence = &conf
		}
	}

	if p.cfg.AttributesKey != "" {
		if raw, ok := obj[p.cfg.AttributesKey]; ok && raw != nil {
			attrs, ok := raw.(map[string]interface{})
			if !ok {
				return nil, curerrors.Newf(curerrors.ErrorTypeData,
					"attributes is not an object: got %T", raw)
			}
			det.Attributes = make(map[string]label.Attribute, len(attrs))
			for name, value := range attrs {
				det.Attributes[name] = label.CoerceAttribute(value)
			}
		}
	}
	return det, nil
}

// asBox coerces a bounding box value into its [x, y, w, h] form.
func asBox(value interface{}) ([4]float64, error) {
	var box [4]float64
	switch v := value.(type) {
	case [4]float64:
		return v, nil
	case []float64:
		if len(v) != 4 {
			return box, curerrors.Newf(curerrors.ErrorTypeData,
				"bounding box must have 4 elements, got %d", len(v))
		}
		copy(box[:], v)
		return box, nil
	case []interface{}:
		if len(v) != 4 {
			return box, curerrors.Newf(curerrors.ErrorTypeData,
				"bounding box must have 4 elements, got %d", len(v))
		}
		for i, elem := range v {
			f, ok := asFloat(elem)
			if !ok {
				return box, curerrors.Newf(curerrors.ErrorTypeData,
					"bounding box element is not numeric: got %T", elem)
			}
			box[i] = f
		}
		return box, nil
	}
	return box, curerrors.Newf(curerrors.ErrorTypeData,
		"unsupported bounding box value: got %T", value)
}

// asFloat widens any numeric type to float64.
func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}
