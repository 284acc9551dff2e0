package sample

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/schema"
)

// recordingBackend counts saves and controls the autosave policy.
type recordingBackend struct {
	saves       int
	autoPersist bool
}

func (b *recordingBackend) SaveSample(*Sample) error { b.saves++; return nil }
func (b *recordingBackend) AutoPersist() bool        { return b.autoPersist }

func boundSample(t *testing.T) (*Sample, *schema.Schema, *recordingBackend) {
	t.Helper()

	sc := schema.New(nil)
	backend := &recordingBackend{autoPersist: true}
	s := New("/data/img001.png", WithTags("train"))
	s.Bind(sc, backend)
	return s, sc, backend
}

func TestFilename(t *testing.T) {
	s := New("/data/images/img001.png")
	assert.Equal(t, "img001.png", s.Filename())
}

func TestGetBuiltins(t *testing.T) {
	s := New("/data/img001.png", WithTags("train", "v1"))

	fp, err := s.Get("filepath")
	require.NoError(t, err)
	assert.Equal(t, "/data/img001.png", fp)

	tags, err := s.Get("tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"train", "v1"}, tags)

	md, err := s.Get("metadata")
	require.NoError(t, err)
	assert.Nil(t, md)
}

func TestSetReservedNames(t *testing.T) {
	s, _, _ := boundSample(t)

	for _, name := range []string{"_private", "_", "id", "filepath", "tags", "metadata", ""} {
		err := s.Set(name, "x", SetOptions{Create: true})
		require.Error(t, err, name)
		assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeReservedName), name)
	}
}

func TestSetUnknownFieldWithoutCreate(t *testing.T) {
	s, _, _ := boundSample(t)

	err := s.Set("caption", "a bird", SetOptions{})
	require.Error(t, err)
	assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeUnknownField))
}

func TestSetCreateInfersKind(t *testing.T) {
	s, sc, _ := boundSample(t)

	require.NoError(t, s.Set("caption", "a bird", SetOptions{Create: true}))

	desc, ok := sc.Field("caption")
	require.True(t, ok)
	assert.Equal(t, schema.KindString, desc.Kind)

	got, err := s.Get("caption")
	require.NoError(t, err)
	assert.Equal(t, "a bird", got)
}

func TestSetCreateEmbedded(t *testing.T) {
	s, sc, _ := boundSample(t)

	md := &ImageMetadata{Width: 10, Height: 20}
	require.NoError(t, s.Set("thumb_info", md, SetOptions{Create: true}))

	desc, ok := sc.Field("thumb_info")
	require.True(t, ok)
	assert.Equal(t, schema.KindEmbedded, desc.Kind)
	assert.Equal(t, TypeMetadata, desc.Embedded)
}

func TestSetCreateUninferable(t *testing.T) {
	s, sc, _ := boundSample(t)

	err := s.Set("weird", 3.5, SetOptions{Create: true})
	require.Error(t, err)
	assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeUninferableType))
	assert.False(t, sc.HasField("weird"))
}

func TestSetValidationLeavesSampleUnmodified(t *testing.T) {
	s, sc, _ := boundSample(t)
	require.NoError(t, sc.AddField("count", schema.KindInt))
	require.NoError(t, s.Set("count", 3, SetOptions{}))

	err := s.Set("count", "five", SetOptions{})
	require.Error(t, err)
	assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeValidation))

	got, err := s.Get("count")
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestInferKindRoundTripThroughSet(t *testing.T) {
	values := map[string]interface{}{
		"flag":    true,
		"count":   7,
		"caption": "a bird",
		"scores":  []interface{}{1, 2},
		"extras":  map[string]interface{}{"k": "v"},
	}

	s, _, _ := boundSample(t)
	for name, value := range values {
		require.NoError(t, s.Set(name, value, SetOptions{Create: true}), name)
		got, err := s.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, value, got, name)
	}
}

func TestPersistPolicy(t *testing.T) {
	s, sc, backend := boundSample(t)
	require.NoError(t, sc.AddField("count", schema.KindInt))

	// unpersisted samples never autosave
	require.NoError(t, s.Set("count", 1, SetOptions{}))
	assert.Equal(t, 0, backend.saves)

	// persisted samples save per the store policy
	s.SetID("abc123")
	require.NoError(t, s.Set("count", 2, SetOptions{}))
	assert.Equal(t, 1, backend.saves)

	// explicit override disables the side effect
	off := false
	require.NoError(t, s.Set("count", 3, SetOptions{Persist: &off}))
	assert.Equal(t, 1, backend.saves)

	// explicit override forces a save when the policy is off
	backend.autoPersist = false
	on := true
	require.NoError(t, s.Set("count", 4, SetOptions{Persist: &on}))
	assert.Equal(t, 2, backend.saves)
}

func TestUnboundSetStagesWithoutValidation(t *testing.T) {
	s := New("/data/img.png")

	require.NoError(t, s.Set("caption", "a bird", SetOptions{}))
	got, err := s.Get("caption")
	require.NoError(t, err)
	assert.Equal(t, "a bird", got)

	_, err = s.Get("missing")
	require.Error(t, err)
	assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeUnknownField))

	assert.Equal(t, []string{"caption"}, s.FieldNames())
}

func TestBuildMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 200, 100))))
	require.NoError(t, f.Close())

	md, err := BuildMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, 200, md.Width)
	assert.Equal(t, 100, md.Height)
	assert.Equal(t, "image/png", md.MimeType)
	assert.Positive(t, md.SizeBytes)
}

func TestBuildMetadataMissingFile(t *testing.T) {
	_, err := BuildMetadata(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, curerrors.IsType(err, curerrors.ErrorTypeFile))
}
