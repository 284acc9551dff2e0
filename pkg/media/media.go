// Package media provides the image collaborator for the ingestion core:
// decoding images from disk, reading pixel dimensions, and the Ref tagged
// union that resolves the "image or path" record shape exactly once at the
// parsing boundary.
package media

import (
	"image"
	"image/color"
	"os"

	// Registered codecs for image.Decode / image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/curateml/curate/pkg/curerrors"
)

// Image is a decoded pixel array.
type Image = image.Image

// Ref is a tagged union referencing an image either by its path on disk or
// as an already-decoded in-memory image. The zero Ref is empty and resolves
// to an error.
type Ref struct {
	path string
	img  Image
}

// FromPath returns a Ref for an image on disk.
func FromPath(path string) Ref {
	return Ref{path: path}
}

// FromImage returns a Ref for an in-memory image.
func FromImage(img Image) Ref {
	return Ref{img: img}
}

// IsPath reports whether the Ref carries a file path.
func (r Ref) IsPath() bool {
	return r.path != ""
}

// IsZero reports whether the Ref references nothing.
func (r Ref) IsZero() bool {
	return r.path == "" && r.img == nil
}

// Path returns the file path, or false if the Ref carries an in-memory
// image.
func (r Ref) Path() (string, bool) {
	return r.path, r.path != ""
}

// Resolve returns the decoded image, reading it from disk when the Ref
// carries a path.
func (r Ref) Resolve() (Image, error) {
	if r.img != nil {
		return r.img, nil
	}
	if r.path == "" {
		return nil, curerrors.New(curerrors.ErrorTypeData,
			"empty media reference")
	}
	return Decode(r.path)
}

// Decode reads and decodes the image at the given path.
func Decode(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeFile,
			"failed to open image").WithDetail("path", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeData,
			"failed to decode image").WithDetail("path", path)
	}
	return img, nil
}

// Dimensions returns the height and width of a decoded image in pixels.
func Dimensions(img Image) (height, width int) {
	bounds := img.Bounds()
	return bounds.Dy(), bounds.Dx()
}

// Info describes an image header without its pixels.
type Info struct {
	Height   int
	Width    int
	Channels int
}

// DecodeConfig reads the dimensions and channel count of the image at the
// given path without decoding its pixels.
func DecodeConfig(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, curerrors.Wrap(err, curerrors.ErrorTypeFile,
			"failed to open image").WithDetail("path", path)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, curerrors.Wrap(err, curerrors.ErrorTypeData,
			"failed to read image header").WithDetail("path", path)
	}
	return Info{
		Height:   cfg.Height,
		Width:    cfg.Width,
		Channels: channels(cfg.ColorModel),
	}, nil
}

// channels maps a color model to its channel count.
func channels(m color.Model) int {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return 1
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel,
		color.NRGBA64Model, color.NYCbCrAModel, color.CMYKModel:
		return 4
	default:
		return 3
	}
}
