// Package palette maps raw pixels and free-form color names onto the fixed
// set of named colors used across the wardrobe.
package palette

import (
	"math"
	"strings"
)

// Color is a named reference color
type Color struct {
	Name    string
	R, G, B uint8
	Neutral bool // Neutrals pair with anything
}

// Named is the reference palette. Order matters only for ties in Nearest.
var Named = []Color{
	{Name: "black", R: 20, G: 20, B: 20, Neutral: true},
	{Name: "white", R: 245, G: 245, B: 245, Neutral: true},
	{Name: "gray", R: 128, G: 128, B: 128, Neutral: true},
	{Name: "charcoal", R: 60, G: 63, B: 68, Neutral: true},
	{Name: "navy", R: 25, G: 35, B: 80, Neutral: true},
	{Name: "beige", R: 222, G: 205, B: 170, Neutral: true},
	{Name: "cream", R: 250, G: 240, B: 215, Neutral: true},
	{Name: "brown", R: 110, G: 70, B: 40, Neutral: true},
	{Name: "khaki", R: 190, G: 175, B: 125, Neutral: true},
	{Name: "denim", R: 70, G: 100, B: 145, Neutral: true},
	{Name: "blue", R: 40, G: 90, B: 200},
	{Name: "light-blue", R: 150, G: 195, B: 230},
	{Name: "teal", R: 0, G: 128, B: 128},
	{Name: "green", R: 50, G: 150, B: 60},
	{Name: "olive", R: 110, G: 115, B: 45},
	{Name: "yellow", R: 240, G: 210, B: 50},
	{Name: "mustard", R: 200, G: 160, B: 40},
	{Name: "orange", R: 240, G: 130, B: 40},
	{Name: "red", R: 200, G: 30, B: 40},
	{Name: "burgundy", R: 115, G: 20, B: 40},
	{Name: "pink", R: 240, G: 160, B: 185},
	{Name: "purple", R: 110, G: 50, B: 150},
	{Name: "lavender", R: 190, G: 170, B: 220},
}

var byName = func() map[string]Color {
	m := make(map[string]Color, len(Named))
	for _, c := range Named {
		m[c.Name] = c
	}
	return m
}()

// aliases folds common synonyms returned by the analysis service onto palette names
var aliases = map[string]string{
	"grey":       "gray",
	"dark-gray":  "charcoal",
	"dark-grey":  "charcoal",
	"tan":        "khaki",
	"camel":      "beige",
	"ivory":      "cream",
	"off-white":  "cream",
	"maroon":     "burgundy",
	"wine":       "burgundy",
	"sky-blue":   "light-blue",
	"baby-blue":  "light-blue",
	"navy-blue":  "navy",
	"dark-blue":  "navy",
	"jeans":      "denim",
	"forest":     "green",
	"lime":       "green",
	"gold":       "mustard",
	"violet":     "purple",
	"lilac":      "lavender",
	"coral":      "orange",
	"rose":       "pink",
	"turquoise":  "teal",
	"chocolate":  "brown",
	"army-green": "olive",
}

// Normalize lower-cases a color name, joins words with '-', and resolves aliases
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.Join(strings.Fields(strings.ReplaceAll(n, "_", " ")), "-")
	if a, ok := aliases[n]; ok {
		return a
	}
	return n
}

// Lookup resolves a free-form color name against the palette
func Lookup(name string) (Color, bool) {
	c, ok := byName[Normalize(name)]
	return c, ok
}

// Nearest returns the palette color closest to the given pixel, using the
// "redmean" weighted Euclidean distance.
func Nearest(r, g, b uint8) Color {
	best := Named[0]
	bestDist := math.MaxFloat64
	for _, c := range Named {
		d := distance(r, g, b, c)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func distance(r, g, b uint8, c Color) float64 {
	rm := (float64(r) + float64(c.R)) / 2
	dr := float64(r) - float64(c.R)
	dg := float64(g) - float64(c.G)
	db := float64(b) - float64(c.B)
	return (2+rm/256)*dr*dr + 4*dg*dg + (2+(255-rm)/256)*db*db
}

// Hue returns the HSL hue of the color in degrees [0, 360)
func (c Color) Hue() float64 {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC
	if delta == 0 {
		return 0
	}
	var h float64
	switch maxC {
	case r:
		h = math.Mod((g-b)/delta, 6)
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h
}

// Harmony scores how well two named colors pair, from 0 (clash) to 1.
// Unknown names score a neutral 0.5.
func Harmony(a, b string) float64 {
	ca, okA := Lookup(a)
	cb, okB := Lookup(b)
	if !okA || !okB {
		return 0.5
	}
	if ca.Neutral && cb.Neutral {
		return 0.85
	}
	if ca.Neutral || cb.Neutral {
		return 0.9
	}
	if ca.Name == cb.Name {
		return 0.7
	}

	diff := math.Abs(ca.Hue() - cb.Hue())
	if diff > 180 {
		diff = 360 - diff
	}
	switch {
	case diff <= 40:
		return 0.8 // analogous
	case diff >= 150:
		return 0.75 // complementary
	case diff >= 105 && diff <= 135:
		return 0.6 // triadic
	default:
		return 0.3
	}
}
