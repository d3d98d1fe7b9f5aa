package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

const (
	// AnalysisMaxDimension keeps vision requests in the low-detail tier
	AnalysisMaxDimension = 512
	AnalysisJPEGQuality  = 60

	StorageMaxDimension = 800
	StorageJPEGQuality  = 80

	// PreviewMaxDimension sizes queue thumbnails
	PreviewMaxDimension = 160
)

// HasTransparency reports whether any pixel is not fully opaque
func HasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// flatten composites img over white, since JPEG has no alpha channel
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// CompressForAnalysis produces a small JPEG data URI for the vision service
func CompressForAnalysis(img image.Image) (string, error) {
	small := flatten(Resize(img, AnalysisMaxDimension))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: AnalysisJPEGQuality}); err != nil {
		return "", fmt.Errorf("compress for analysis: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// CompressForStorage produces the durable image. Transparent images keep
// their alpha as PNG; opaque images become JPEG.
func CompressForStorage(img image.Image) ([]byte, string, error) {
	resized := Resize(img, StorageMaxDimension)
	var buf bytes.Buffer
	if HasTransparency(resized) {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, resized); err != nil {
			return nil, "", fmt.Errorf("compress for storage: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
	if err := jpeg.Encode(&buf, flatten(resized), &jpeg.Options{Quality: StorageJPEGQuality}); err != nil {
		return nil, "", fmt.Errorf("compress for storage: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// Thumbnail produces the PNG preview shown for a queued file. Alpha is kept
// so a background-removed subject previews as cut out.
func Thumbnail(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Resize(img, PreviewMaxDimension)); err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
