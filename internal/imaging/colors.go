package imaging

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/benvon/smart-wardrobe/internal/palette"
)

// ColorOptions tunes dominant color extraction
type ColorOptions struct {
	MaxColors      int
	MinShare       float64 // Fraction of counted pixels a color needs to be reported
	AlphaThreshold uint8   // Pixels below this alpha are background
	MaxSamples     int
}

// DefaultColorOptions returns the extraction defaults
func DefaultColorOptions() ColorOptions {
	return ColorOptions{
		MaxColors:      3,
		MinShare:       0.05,
		AlphaThreshold: 128,
		MaxSamples:     40000,
	}
}

// ExtractColors returns palette color names ranked by pixel share, most
// dominant first. Transparent pixels are ignored, so a background-removed
// image yields the colors of the subject only.
func ExtractColors(img image.Image, opts ColorOptions) []string {
	if opts.MaxColors <= 0 {
		opts.MaxColors = DefaultColorOptions().MaxColors
	}
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	step := 1
	if opts.MaxSamples > 0 {
		if pixels := b.Dx() * b.Dy(); pixels > opts.MaxSamples {
			step = int(math.Ceil(math.Sqrt(float64(pixels) / float64(opts.MaxSamples))))
		}
	}

	counts := make(map[string]int)
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A < opts.AlphaThreshold {
				continue
			}
			counts[palette.Nearest(c.R, c.G, c.B).Name]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	rank := make(map[string]int, len(palette.Named))
	for i, c := range palette.Named {
		rank[c.Name] = i
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return rank[names[i]] < rank[names[j]]
	})

	out := make([]string, 0, opts.MaxColors)
	for i, name := range names {
		if len(out) == opts.MaxColors {
			break
		}
		// The most dominant color is always reported
		if i > 0 && float64(counts[name])/float64(total) < opts.MinShare {
			break
		}
		out = append(out, name)
	}
	return out
}
