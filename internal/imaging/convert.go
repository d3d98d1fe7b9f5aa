// Package imaging implements the per-file preprocessing pipeline for
// wardrobe photos: format conversion, resize, background removal, color
// extraction, and the two compression targets (analysis and storage).
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUndecodable is returned when the input is not an image any decoder understands
var ErrUndecodable = errors.New("image could not be decoded")

// standardTypes pass through conversion untouched
var standardTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// Converted is the output of format conversion
type Converted struct {
	Data     []byte
	MimeType string
	Changed  bool
}

// DetectMimeType sniffs the content type from the leading bytes
func DetectMimeType(data []byte) string {
	return mimetype.Detect(data).String()
}

// Convert normalizes unsupported raster formats (webp, bmp, tiff) to PNG.
// On failure the original bytes are returned alongside the error so the
// caller can pass them through.
func Convert(data []byte, declared string) (Converted, error) {
	detected := DetectMimeType(data)
	if standardTypes[detected] {
		return Converted{Data: data, MimeType: detected}, nil
	}

	passthrough := Converted{Data: data, MimeType: declared}
	if passthrough.MimeType == "" {
		passthrough.MimeType = detected
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return passthrough, fmt.Errorf("convert %s: %w", detected, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return passthrough, fmt.Errorf("convert %s: encode png: %w", detected, err)
	}
	return Converted{Data: buf.Bytes(), MimeType: "image/png", Changed: true}, nil
}

// Decode decodes any supported format
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return img, nil
}

// EncodePNG losslessly encodes img
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
