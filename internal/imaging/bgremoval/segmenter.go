package bgremoval

import (
	"errors"
	"image"
	"math"
)

// ErrNoSubject is returned when nothing but background remains
var ErrNoSubject = errors.New("no foreground subject found")

// BorderSegmenter treats colors seen along the image border as background
// and flood-fills inward from the edges, clearing every connected pixel
// within Tolerance of the estimated background color.
type BorderSegmenter struct {
	Tolerance       float64 // Euclidean RGB distance
	MinSubjectShare float64 // Fraction of pixels that must survive
}

// NewBorderSegmenter returns a segmenter tuned for product-style photos on plain backdrops
func NewBorderSegmenter() *BorderSegmenter {
	return &BorderSegmenter{Tolerance: 48, MinSubjectShare: 0.01}
}

// Segment implements Segmenter. img is modified in place.
func (s *BorderSegmenter) Segment(img *image.NRGBA, report func(percent int, stage string)) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, ErrNoSubject
	}

	report(15, "Analyzing edges")
	var sr, sg, sb, n float64
	forBorder(b, func(x, y int) {
		c := img.NRGBAAt(x, y)
		sr += float64(c.R)
		sg += float64(c.G)
		sb += float64(c.B)
		n++
	})
	bgR, bgG, bgB := sr/n, sg/n, sb/n

	similar := func(x, y int) bool {
		c := img.NRGBAAt(x, y)
		if c.A == 0 {
			return true
		}
		dr, dg, db := float64(c.R)-bgR, float64(c.G)-bgG, float64(c.B)-bgB
		return math.Sqrt(dr*dr+dg*dg+db*db) <= s.Tolerance
	}

	report(35, "Segmenting subject")
	visited := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))
	forBorder(b, func(x, y int) {
		i := (y-b.Min.Y)*w + (x - b.Min.X)
		if !visited[i] && similar(x, y) {
			visited[i] = true
			queue = append(queue, i)
		}
	})

	cleared := 0
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := b.Min.X+i%w, b.Min.Y+i/w
		off := img.PixOffset(x, y)
		img.Pix[off+3] = 0
		cleared++

		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < b.Min.X || nx >= b.Max.X || ny < b.Min.Y || ny >= b.Max.Y {
				continue
			}
			j := (ny-b.Min.Y)*w + (nx - b.Min.X)
			if visited[j] || !similar(nx, ny) {
				continue
			}
			visited[j] = true
			queue = append(queue, j)
		}
	}

	report(85, "Refining mask")
	if float64(w*h-cleared) < s.MinSubjectShare*float64(w*h) {
		return nil, ErrNoSubject
	}
	return img, nil
}

func forBorder(b image.Rectangle, fn func(x, y int)) {
	for x := b.Min.X; x < b.Max.X; x++ {
		fn(x, b.Min.Y)
		if b.Dy() > 1 {
			fn(x, b.Max.Y-1)
		}
	}
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		fn(b.Min.X, y)
		if b.Dx() > 1 {
			fn(b.Max.X-1, y)
		}
	}
}
