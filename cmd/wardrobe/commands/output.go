package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/store"
)

// describeItem renders one wardrobe item on a single line
func describeItem(item models.ClothingItem) string {
	colors := "no colors"
	if len(item.Colors) > 0 {
		colors = strings.Join(item.Colors, "/")
	}
	s := fmt.Sprintf("%-10s %-36s %s", item.Category, item.ID, colors)
	if item.AIAnalysis != nil && item.AIAnalysis.Description != "" {
		s += "  " + item.AIAnalysis.Description
	}
	return s
}

// describeOutfit renders an outfit with its resolved items
func describeOutfit(st store.State, o models.Outfit) string {
	var parts []string
	for _, item := range st.ResolveOutfit(o) {
		color := item.DominantColor()
		if color == "" {
			color = "?"
		}
		parts = append(parts, fmt.Sprintf("%s %s", color, item.Category))
	}
	s := fmt.Sprintf("[%5.1f] %s (%s)", o.Score, strings.Join(parts, " + "), o.Source)
	if o.Reasoning != "" {
		s += "\n        " + o.Reasoning
	}
	return s
}

func printOutfits(w io.Writer, st store.State, outfits []models.Outfit) {
	for i, o := range outfits {
		fmt.Fprintf(w, "%2d. %s\n", i+1, describeOutfit(st, o))
	}
}

// describeMissing renders what the wardrobe still needs, in a stable order
func describeMissing(missing map[string]int) string {
	keys := make([]string, 0, len(missing))
	for k := range missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d more %s", missing[k], k))
	}
	return strings.Join(parts, ", ")
}

func describeWeather(w *models.WeatherData) string {
	return fmt.Sprintf("%s, %.1f°C (feels like %.1f°C), %d%% chance of rain, humidity %d%%, wind %.1f km/h",
		w.Condition, w.Temperature, w.FeelsLike, w.Precipitation, w.Humidity, w.WindSpeed)
}
