package parser

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/label"
	"github.com/curateml/curate/pkg/media"
	"github.com/curateml/curate/pkg/sample"
)

// writeTestPNG writes a width x height PNG and returns its path.
func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))))
	return path
}

func TestCursorDiscipline(t *testing.T) {
	p := NewImageParser()

	_, err := p.ImagePath()
	assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeNoCurrentRecord))

	p.WithRecord("/images/001.png")
	path, err := p.ImagePath()
	require.NoError(t, err)
	assert.Equal(t, "/images/001.png", path)

	p.ClearRecord()
	_, err = p.ImagePath()
	assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeNoCurrentRecord))

	// Clearing twice is harmless.
	p.ClearRecord()
}

func TestImageParserCapabilities(t *testing.T) {
	p := NewImageParser()
	assert.True(t, p.HasImagePath())
	assert.False(t, p.HasImageMetadata())

	p.WithRecord("/images/001.png")
	_, err := p.ImageMetadata()
	assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeUnsupportedCapability))
}

func TestImageParserInMemoryRecord(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	p := NewImageParser()
	p.WithRecord(media.FromImage(img))

	got, err := p.Image()
	require.NoError(t, err)
	assert.Equal(t, media.Image(img), got)

	_, err = p.ImagePath()
	assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeNotAPath))
}

func TestImageParserDecodesAndMemoizes(t *testing.T) {
	path := writeTestPNG(t, 8, 6)

	p := NewImageParser()
	p.WithRecord(path)

	first, err := p.Image()
	require.NoError(t, err)
	second, err := p.Image()
	require.NoError(t, err)
	assert.Same(t, first, second)

	h, w := media.Dimensions(first)
	assert.Equal(t, 6, h)
	assert.Equal(t, 8, w)
}

func TestWithRecordDropsMemoizedImage(t *testing.T) {
	a := image.NewRGBA(image.Rect(0, 0, 2, 2))
	b := image.NewRGBA(image.Rect(0, 0, 3, 3))

	p := NewImageParser()
	p.WithRecord(media.FromImage(a))
	got, err := p.Image()
	require.NoError(t, err)
	assert.Equal(t, media.Image(a), got)

	p.WithRecord(media.FromImage(b))
	got, err = p.Image()
	require.NoError(t, err)
	assert.Equal(t, media.Image(b), got)
}

func TestClassificationParserTargets(t *testing.T) {
	tests := []struct {
		name    string
		classes []string
		target  interface{}
		want    string
	}{
		{"class id", []string{"cat", "dog"}, 1, "dog"},
		{"out of range falls back to string form", []string{"cat", "dog"}, 5, "5"},
		{"nil class table falls back to string form", nil, 3, "3"},
		{"label string passes through", []string{"cat", "dog"}, "bird", "bird"},
		{"json-decoded id", []string{"cat", "dog"}, float64(0), "cat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewClassificationParser(tt.classes)
			p.WithRecord(Tuple{Image: media.FromPath("/images/001.png"), Target: tt.target})

			parsed, err := p.Label()
			require.NoError(t, err)
			require.NotNil(t, parsed.Single)
			cls, ok := parsed.Single.(*label.Classification)
			require.True(t, ok)
			assert.Equal(t, tt.want, cls.Label)
		})
	}
}

func TestClassificationParserUnlabeledRecord(t *testing.T) {
	p := NewClassificationParser([]string{"cat"})
	p.WithRecord(Tuple{Image: media.FromPath("/images/001.png")})

	parsed, err := p.Label()
	require.NoError(t, err)
	assert.True(t, parsed.IsZero())
}

func TestClassificationParserLabelType(t *testing.T) {
	p := NewClassificationParser(nil)
	typ, ok := p.LabelType()
	assert.True(t, ok)
	assert.Equal(t, label.TypeClassification, typ)
}

func TestTupleParserBareImageRecord(t *testing.T) {
	p := NewClassificationParser(nil)
	p.WithRecord("/images/001.png")

	path, err := p.ImagePath()
	require.NoError(t, err)
	assert.Equal(t, "/images/001.png", path)

	parsed, err := p.Label()
	require.NoError(t, err)
	assert.True(t, parsed.IsZero())
}

func TestDetectionParserNormalizesAbsoluteBoxes(t *testing.T) {
	path := writeTestPNG(t, 200, 100)

	p := NewDetectionParser(DetectionConfig{Absolute: true})
	p.WithRecord(Tuple{
		Image: media.FromPath(path),
		Target: []map[string]interface{}{
			{"label": "cat", "bounding_box": []float64{20, 10, 40, 20}},
		},
	})

	parsed, err := p.Label()
	require.NoError(t, err)
	dets, ok := parsed.Single.(*label.Detections)
	require.True(t, ok)
	require.Len(t, dets.Detections, 1)

	assert.Equal(t, "cat", dets.Detections[0].Label)
	assert.Equal(t, [4]float64{0.1, 0.1, 0.2, 0.2}, dets.Detections[0].BoundingBox)
}

func TestDetectionParserRelativeBoxesPassThrough(t *testing.T) {
	// Relative boxes never need the image, so a missing file is fine.
	p := NewDetectionParser(DetectionConfig{})
	p.WithRecord(Tuple{
		Image: media.FromPath("/no/such/image.png"),
		Target: []map[string]interface{}{
			{"label": "dog", "bounding_box": []float64{0.25, 0.5, 0.1, 0.2}},
		},
	})

	parsed, err := p.Label()
	require.NoError(t, err)
	dets := parsed.Single.(*label.Detections)
	require.Len(t, dets.Detections, 1)
	assert.Equal(t, [4]float64{0.25, 0.5, 0.1, 0.2}, dets.Detections[0].BoundingBox)
}

func TestDetectionParserMissingImageIsFatalWhenAbsolute(t *testing.T) {
	p := NewDetectionParser(DetectionConfig{Absolute: true})
	p.WithRecord(Tuple{
		Image: media.FromPath("/no/such/image.png"),
		Target: []map[string]interface{}{
			{"label": "dog", "bounding_box": []float64{1, 2, 3, 4}},
		},
	})

	_, err := p.Label()
	assert.Error(t, err)
}

func TestDetectionParserCustomKeysAndExtras(t *testing.T) {
	p := NewDetectionParser(DetectionConfig{
		LabelKey:       "class",
		BoundingBoxKey: "bbox",
		ConfidenceKey:  "score",
		AttributesKey:  "attrs",
		Classes:        []string{"cat", "dog"},
	})
	p.WithRecord(Tuple{
		Image: media.FromPath("/images/001.png"),
		Target: []map[string]interface{}{
			{
				"class": 1,
				"bbox":  []interface{}{0.1, 0.2, 0.3, 0.4},
				"score": 0.9,
				"attrs": map[string]interface{}{
					"occluded": true,
					"pose":     "frontal",
					"age":      42,
				},
			},
		},
	})

	parsed, err := p.Label()
	require.NoError(t, err)
	det := parsed.Single.(*label.Detections).Detections[0]

	assert.Equal(t, "dog", det.Label)
	assert.Equal(t, [4]float64{0.1, 0.2, 0.3, 0.4}, det.BoundingBox)
	require.NotNil(t, det.Confidence)
	assert.Equal(t, 0.9, *det.Confidence)

	require.Len(t, det.Attributes, 3)
	assert.IsType(t, &label.BooleanAttribute{}, det.Attributes["occluded"])
	assert.IsType(t, &label.CategoricalAttribute{}, det.Attributes["pose"])
	assert.IsType(t, &label.NumericAttribute{}, det.Attributes["age"])
}

func TestDetectionParserJSONTarget(t *testing.T) {
	target := `[{"label": "cat", "bounding_box": [0.1, 0.1, 0.2, 0.2]}]`

	p := NewDetectionParser(DetectionConfig{})
	p.WithRecord(Tuple{Image: media.FromPath("/images/001.png"), Target: target})

	parsed, err := p.Label()
	require.NoError(t, err)
	dets := parsed.Single.(*label.Detections)
	require.Len(t, dets.Detections, 1)
	assert.Equal(t, "cat", dets.Detections[0].Label)
}

func TestDetectionParserJSONFileTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objects.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"label": 0, "bounding_box": [0.1, 0.1, 0.2, 0.2]}]`), 0o644))

	p := NewDetectionParser(DetectionConfig{
		Classes: []string{"cat"},
	})
	p.WithRecord(Tuple{Image: media.FromPath("/images/001.png"), Target: path})

	parsed, err := p.Label()
	require.NoError(t, err)
	assert.Equal(t, "cat", parsed.Single.(*label.Detections).Detections[0].Label)
}

func TestDetectionParserLabelType(t *testing.T) {
	p := NewDetectionParser(DetectionConfig{})
	typ, ok := p.LabelType()
	assert.True(t, ok)
	assert.Equal(t, label.TypeDetections, typ)
}

func TestImageLabelsParserWholeBlob(t *testing.T) {
	target := map[string]interface{}{
		"attributes": []interface{}{
			map[string]interface{}{"name": "weather", "value": "sunny"},
		},
	}

	p := NewImageLabelsParser(ImageLabelsConfig{})
	p.WithRecord(Tuple{Image: media.FromPath("/images/001.png"), Target: target})

	parsed, err := p.Label()
	require.NoError(t, err)
	il, ok := parsed.Single.(*label.ImageLabels)
	require.True(t, ok)
	require.Len(t, il.Labels.Attributes, 1)
	assert.Equal(t, "weather", il.Labels.Attributes[0].Name)

	typ, single := p.LabelType()
	assert.True(t, single)
	assert.Equal(t, label.TypeImageLabels, typ)
}

func TestImageLabelsParserExpanded(t *testing.T) {
	target := `{
		"attributes": [{"name": "weather", "value": "sunny"}],
		"objects": [{"label": "cat", "bounding_box": [0.1, 0.1, 0.2, 0.2]}]
	}`

	p := NewImageLabelsParser(ImageLabelsConfig{
		Expand:        true,
		ExpandOptions: label.ExpandOptions{Prefix: "gt_"},
	})
	p.WithRecord(Tuple{Image: media.FromPath("/images/001.png"), Target: target})

	parsed, err := p.Label()
	require.NoError(t, err)
	require.NotNil(t, parsed.Fields)

	cls, ok := parsed.Fields["gt_weather"].(*label.Classification)
	require.True(t, ok)
	assert.Equal(t, "sunny", cls.Label)

	dets, ok := parsed.Fields["gt_detections"].(*label.Detections)
	require.True(t, ok)
	assert.Len(t, dets.Detections, 1)

	_, single := p.LabelType()
	assert.False(t, single)
}

func TestStoreImageParserMetadata(t *testing.T) {
	path := writeTestPNG(t, 200, 100)

	t.Run("carried metadata wins", func(t *testing.T) {
		md := &sample.ImageMetadata{Width: 1, Height: 2}
		s := sample.New(path, sample.WithMetadata(md))

		p := NewStoreImageParser(true)
		p.WithRecord(s)

		got, err := p.ImageMetadata()
		require.NoError(t, err)
		assert.Same(t, md, got)
	})

	t.Run("computed when absent", func(t *testing.T) {
		p := NewStoreImageParser(true)
		p.WithRecord(sample.New(path))

		got, err := p.ImageMetadata()
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 200, got.Width)
		assert.Equal(t, 100, got.Height)
	})

	t.Run("nil when absent and not computing", func(t *testing.T) {
		p := NewStoreImageParser(false)
		p.WithRecord(sample.New(path))

		got, err := p.ImageMetadata()
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestStoreLabeledImageParserSingleField(t *testing.T) {
	s := sample.New("/images/001.png")
	require.NoError(t, s.Set("ground_truth", &label.Classification{Label: "cat"}, sample.SetOptions{}))

	p := NewStoreLabeledImageParser("ground_truth", false)
	p.WithRecord(s)

	parsed, err := p.Label()
	require.NoError(t, err)
	assert.Equal(t, "cat", parsed.Single.(*label.Classification).Label)

	typ, single := p.LabelType()
	assert.True(t, single)
	assert.Equal(t, label.TypeLabel, typ)
}

func TestStoreLabeledImageParserMultiField(t *testing.T) {
	s := sample.New("/images/001.png")
	require.NoError(t, s.Set("weather", &label.Classification{Label: "sunny"}, sample.SetOptions{}))
	require.NoError(t, s.Set("objects", &label.Detections{}, sample.SetOptions{}))

	p := NewStoreMultiLabelImageParser(map[string]string{
		"weather": "gt_weather",
		"objects": "gt_objects",
	}, false)
	p.WithRecord(s)

	parsed, err := p.Label()
	require.NoError(t, err)
	require.Len(t, parsed.Fields, 2)
	assert.Equal(t, "sunny", parsed.Fields["gt_weather"].(*label.Classification).Label)

	_, single := p.LabelType()
	assert.False(t, single)
}

func TestStoreLabeledImageParserNonLabelField(t *testing.T) {
	s := sample.New("/images/001.png")
	require.NoError(t, s.Set("count", 3, sample.SetOptions{}))

	p := NewStoreLabeledImageParser("count", false)
	p.WithRecord(s)

	_, err := p.Label()
	assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeValidation))
}
