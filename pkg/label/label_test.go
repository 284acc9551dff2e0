package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curateml/curate/pkg/schema"
)

func TestEmbeddedTypeHierarchy(t *testing.T) {
	assert.True(t, TypeClassification.IsA(TypeLabel))
	assert.True(t, TypeClassifications.IsA(TypeLabel))
	assert.True(t, TypeDetections.IsA(TypeLabel))
	assert.True(t, TypeImageLabels.IsA(TypeLabel))
	assert.False(t, TypeLabel.IsA(TypeClassification))
}

func TestLabelsAreEmbeddedDocuments(t *testing.T) {
	var labels = []Label{
		&Classification{Label: "cat"},
		&Classifications{},
		&Detections{},
		&ImageLabels{},
	}

	for _, l := range labels {
		var doc schema.EmbeddedDocument = l
		assert.NotEqual(t, schema.EmbeddedAny, doc.EmbeddedType())
	}
}

func TestCoerceAttribute(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  Attribute
	}{
		{"string", "red", &CategoricalAttribute{Val: "red"}},
		{"bool", true, &BooleanAttribute{Val: true}},
		{"float", 3.5, &NumericAttribute{Val: 3.5}},
		{"int", 7, &NumericAttribute{Val: 7}},
		{"uint", uint8(2), &NumericAttribute{Val: 2}},
		{"nested list", []interface{}{1, 2}, &OpaqueAttribute{Val: []interface{}{1, 2}}},
		{"nil", nil, &OpaqueAttribute{Val: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceAttribute(tt.value))
		})
	}
}

func TestParseRawImageLabels(t *testing.T) {
	data := []byte(`{
		"attributes": [
			{"name": "scene", "value": "beach"},
			{"name": "temperature", "value": 31.5}
		],
		"objects": [
			{
				"label": "person",
				"bounding_box": [0.1, 0.2, 0.3, 0.4],
				"confidence": 0.9,
				"attributes": [{"name": "occluded", "value": false}]
			}
		]
	}`)

	raw, err := ParseRawImageLabels(data)
	require.NoError(t, err)
	require.Len(t, raw.Attributes, 2)
	require.Len(t, raw.Objects, 1)
	assert.Equal(t, "person", raw.Objects[0].Label)
	assert.Equal(t, [4]float64{0.1, 0.2, 0.3, 0.4}, raw.Objects[0].BoundingBox)
	require.NotNil(t, raw.Objects[0].Confidence)
	assert.Equal(t, 0.9, *raw.Objects[0].Confidence)
}

func TestParseRawImageLabelsInvalid(t *testing.T) {
	_, err := ParseRawImageLabels([]byte(`{"attributes": "nope"`))
	assert.Error(t, err)
}

func TestRawImageLabelsFromMap(t *testing.T) {
	raw, err := RawImageLabelsFromMap(map[string]interface{}{
		"attributes": []interface{}{
			map[string]interface{}{"name": "scene", "value": "city"},
		},
	})
	require.NoError(t, err)
	require.Len(t, raw.Attributes, 1)
	assert.Equal(t, "scene", raw.Attributes[0].Name)
}

func testBlob() *ImageLabels {
	conf := 0.8
	return &ImageLabels{Labels: &RawImageLabels{
		Attributes: []RawAttribute{
			{Name: "scene", Value: "beach"},
			{Name: "temperature", Value: 31.5},
		},
		Objects: []RawObject{
			{
				Label:       "person",
				BoundingBox: [4]float64{0.1, 0.2, 0.3, 0.4},
				Confidence:  &conf,
				Attributes:  []RawAttribute{{Name: "occluded", Value: false}},
			},
		},
	}}
}

func TestExpandPerAttribute(t *testing.T) {
	out := testBlob().Expand(ExpandOptions{})

	require.Len(t, out, 3)
	assert.Equal(t, &Classification{Label: "beach"}, out["scene"])
	// non-categorical values are cast to strings by default
	assert.Equal(t, &Classification{Label: "31.5"}, out["temperature"])

	dets, ok := out["detections"].(*Detections)
	require.True(t, ok)
	require.Len(t, dets.Detections, 1)
	assert.Equal(t, "person", dets.Detections[0].Label)
	assert.Equal(t, &BooleanAttribute{Val: false}, dets.Detections[0].Attributes["occluded"])
}

func TestExpandSkipNonCategorical(t *testing.T) {
	out := testBlob().Expand(ExpandOptions{SkipNonCategorical: true})

	assert.Contains(t, out, "scene")
	assert.NotContains(t, out, "temperature")
}

func TestExpandPrefix(t *testing.T) {
	out := testBlob().Expand(ExpandOptions{Prefix: "gt_"})

	assert.Contains(t, out, "gt_scene")
	assert.Contains(t, out, "gt_detections")
	assert.NotContains(t, out, "scene")
}

func TestExpandRenameDropsUnmapped(t *testing.T) {
	out := testBlob().Expand(ExpandOptions{
		Rename: map[string]string{"scene": "environment"},
	})

	require.Len(t, out, 1)
	assert.Equal(t, &Classification{Label: "beach"}, out["environment"])
}

func TestExpandMultilabel(t *testing.T) {
	out := testBlob().Expand(ExpandOptions{Multilabel: true, Prefix: "gt_"})

	multi, ok := out["gt_attributes"].(*Classifications)
	require.True(t, ok)
	require.Len(t, multi.Classifications, 2)
	assert.Equal(t, "beach", multi.Classifications[0].Label)
	assert.Equal(t, "31.5", multi.Classifications[1].Label)
}

func TestExpandEmpty(t *testing.T) {
	assert.Empty(t, (&ImageLabels{}).Expand(ExpandOptions{}))

	var nilLabels *ImageLabels
	assert.Empty(t, nilLabels.Expand(ExpandOptions{}))
}
