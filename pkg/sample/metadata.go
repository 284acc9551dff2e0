package sample

import (
	"os"

	"github.com/gabriel-vasile/mimetype"

	"github.com/curateml/curate/pkg/curerrors"
	"github.com/curateml/curate/pkg/media"
	"github.com/curateml/curate/pkg/schema"
)

// TypeMetadata is the embedded type tag for image metadata documents.
const TypeMetadata schema.EmbeddedType = "metadata"

func init() {
	schema.RegisterEmbeddedType(TypeMetadata, schema.EmbeddedAny)
}

// ImageMetadata describes the media file behind a sample.
type ImageMetadata struct {
	// SizeBytes is the media file size on disk.
	SizeBytes int64 `json:"size_bytes" bson:"size_bytes"`

	// MimeType is the detected MIME type of the media file.
	MimeType string `json:"mime_type" bson:"mime_type"`

	// Width is the image width in pixels.
	Width int `json:"width" bson:"width"`

	// Height is the image height in pixels.
	Height int `json:"height" bson:"height"`

	// NumChannels is the number of color channels.
	NumChannels int `json:"num_channels" bson:"num_channels"`
}

// EmbeddedType implements schema.EmbeddedDocument.
func (*ImageMetadata) EmbeddedType() schema.EmbeddedType { return TypeMetadata }

// BuildMetadata computes metadata for the image at the given path. The image
// header is read for dimensions but the pixels are not decoded.
func BuildMetadata(path string) (*ImageMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeFile,
			"failed to stat media file").WithDetail("path", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, curerrors.Wrap(err, curerrors.ErrorTypeFile,
			"failed to detect media type").WithDetail("path", path)
	}

	header, err := media.DecodeConfig(path)
	if err != nil {
		return nil, err
	}

	return &ImageMetadata{
		SizeBytes:   info.Size(),
		MimeType:    mtype.String(),
		Width:       header.Width,
		Height:      header.Height,
		NumChannels: header.Channels,
	}, nil
}
