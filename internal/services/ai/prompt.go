package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/benvon/smart-wardrobe/internal/models"
)

const (
	// DefaultMaxWardrobeTokens bounds the wardrobe description sent for recommendation
	DefaultMaxWardrobeTokens = 6000
)

// estimateTokenCount provides a rough estimate of token count for a string
// This uses a simple heuristic: ~4 characters per token (common for English text)
func estimateTokenCount(text string) int {
	if len(text) == 0 {
		return 0
	}
	return len(text) / 4
}

func buildAnalysisPrompt(preferences map[models.StyleTag]int) string {
	prompt := `Analyze the clothing item in the image and classify it.

Respond with a JSON object in this format:
{
  "description": "short description of the garment",
  "suggestedCategory": "top" | "bottom" | "shoes" | "accessory" | "outerwear",
  "detectedColors": ["color", ...],
  "suggestedStyles": ["casual" | "formal" | "sporty" | "bohemian" | "minimalist", ...],
  "season": "spring" | "summer" | "fall" | "winter" | "all-season",
  "formality": "athletic" | "casual" | "smart-casual" | "business" | "formal",
  "occasion": ["work", ...],
  "occasionScores": {"work": 0-10, "casual": 0-10, "formal": 0-10, "date": 0-10, "party": 0-10, "athletic": 0-10, "outdoor": 0-10, "travel": 0-10},
  "confidence": 0.0-1.0,
  "reasoning": "why this category",
  "alternateCategory": optional second-best category,
  "alternateConfidence": optional 0.0-1.0
}

Guidelines:
- Dresses and jumpsuits are "top"
- Bags, belts, hats, jewelry and scarves are "accessory"
- Coats, jackets and blazers worn over a top are "outerwear"
- Name colors with common single words (navy, beige, olive), most dominant first
- Ignore any transparent or plain background

Return only valid JSON.`

	if len(preferences) > 0 {
		tags := make([]string, 0, len(preferences))
		for tag := range preferences {
			tags = append(tags, string(tag))
		}
		sort.Strings(tags)
		prompt += "\n\nUser style preferences (0-10):"
		for _, tag := range tags {
			prompt += fmt.Sprintf("\n- %s: %d", tag, preferences[models.StyleTag(tag)])
		}
	}
	return prompt
}

// describeWardrobe renders one line per item, stopping once the token budget is spent.
// Items are kept in wardrobe order.
func describeWardrobe(entries []models.WardrobeEntry, maxTokens int) (string, int) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxWardrobeTokens
	}
	var b strings.Builder
	tokens, included := 0, 0
	for _, e := range entries {
		line := fmt.Sprintf("- id=%s category=%s colors=%s", e.ID, e.Category, strings.Join(e.Colors, ","))
		if e.AIAnalysis != "" {
			line += " analysis=" + e.AIAnalysis
		}
		line += "\n"
		t := estimateTokenCount(line)
		if tokens+t > maxTokens {
			break
		}
		b.WriteString(line)
		tokens += t
		included++
	}
	return b.String(), included
}

func buildRecommendationPrompt(req *models.RecommendationRequest, maxTokens int) string {
	wardrobe, _ := describeWardrobe(req.Wardrobe, maxTokens)

	prompt := fmt.Sprintf(`Select %d outfits from the wardrobe below.

Wardrobe:
%s`, req.Count, wardrobe)

	if req.Weather != nil {
		prompt += fmt.Sprintf("\nWeather: %.0fC (feels like %.0fC), %s, %d%% chance of precipitation, %d%% humidity, wind %.0f km/h\n",
			req.Weather.Temperature, req.Weather.FeelsLike, req.Weather.Condition,
			req.Weather.Precipitation, req.Weather.Humidity, req.Weather.WindSpeed)
	}

	if len(req.Preferences) > 0 {
		tags := make([]string, 0, len(req.Preferences))
		for tag := range req.Preferences {
			tags = append(tags, string(tag))
		}
		sort.Strings(tags)
		prompt += "\nStyle preferences (0-10):"
		for _, tag := range tags {
			prompt += fmt.Sprintf(" %s=%d", tag, req.Preferences[models.StyleTag(tag)])
		}
		prompt += "\n"
	}

	if len(req.FavoriteColors) > 0 {
		prompt += "Favorite colors: " + strings.Join(req.FavoriteColors, ", ") + "\n"
	}

	if p := req.Profile; p != nil {
		if len(p.Occasions) > 0 {
			prompt += "Occasions: " + strings.Join(p.Occasions, ", ") + "\n"
		}
		if p.WeatherSensitivity != nil {
			if p.WeatherSensitivity.RunsCold {
				prompt += "The user runs cold.\n"
			}
			if p.WeatherSensitivity.RunsHot {
				prompt += "The user runs hot.\n"
			}
		}
		if p.ColorPreferences != nil && len(p.ColorPreferences.Avoid) > 0 {
			prompt += "Avoid colors: " + strings.Join(p.ColorPreferences.Avoid, ", ") + "\n"
		}
	}

	prompt += `
Respond with a JSON object in this format:
{
  "outfits": [{"itemIds": ["id", ...], "reasoning": "why it works", "score": 0-100}]
}

Guidelines:
- Every outfit needs one top, one bottom and one pair of shoes; outerwear and accessories are optional
- Use only ids from the wardrobe list
- Never repeat the same combination of items
- Dress for the weather when it is given

Return only valid JSON.`

	return prompt
}

// extractJSONObject trims any prose around the outermost JSON object
func extractJSONObject(raw string) string {
	if len(raw) > 0 && raw[0] == '{' {
		return raw
	}
	start := bytes.IndexByte([]byte(raw), '{')
	end := bytes.LastIndexByte([]byte(raw), '}')
	if start != -1 && end != -1 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func parseAnalysisResponse(content string) (*models.AIClothingAnalysis, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	var analysis models.AIClothingAnalysis
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &analysis); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponseShape, err)
	}
	if !analysis.SuggestedCategory.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidResponseShape, analysis.SuggestedCategory)
	}
	if analysis.AlternateCategory != nil && !analysis.AlternateCategory.Valid() {
		analysis.AlternateCategory = nil
		analysis.AlternateConfidence = nil
	}

	styles := analysis.SuggestedStyles[:0]
	for _, s := range analysis.SuggestedStyles {
		if s.Valid() {
			styles = append(styles, s)
		}
	}
	analysis.SuggestedStyles = styles

	scores := make(map[string]int, len(models.OccasionKeys))
	for _, key := range models.OccasionKeys {
		scores[key] = clampInt(analysis.OccasionScores[key], 0, 10)
	}
	analysis.OccasionScores = scores
	analysis.Confidence = clampFloat(analysis.Confidence, 0, 1)
	if analysis.Season == "" {
		analysis.Season = models.SeasonAll
	}
	return &analysis, nil
}

func parseRecommendationResponse(content string) ([]models.RecommendedOutfit, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	var resp struct {
		Outfits *[]models.RecommendedOutfit `json:"outfits"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponseShape, err)
	}
	if resp.Outfits == nil {
		return nil, fmt.Errorf("%w: missing outfits", ErrInvalidResponseShape)
	}
	outfits := *resp.Outfits
	for i := range outfits {
		outfits[i].Score = clampFloat(outfits[i].Score, 0, 100)
	}
	return outfits, nil
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
