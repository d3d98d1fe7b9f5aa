package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// MaxProcessingDimension bounds the longest side before background removal
const MaxProcessingDimension = 1024

// Resize downscales src so that neither side exceeds maxDim, keeping the
// aspect ratio. Images already within bounds are returned as is.
func Resize(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return src
	}

	nw, nh := maxDim, maxDim
	if w >= h {
		nh = h * maxDim / w
	} else {
		nw = w * maxDim / h
	}
	nw, nh = max(nw, 1), max(nh, 1)

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
