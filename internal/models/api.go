package models

// AnalyzeClothingRequest is the body of POST /api/analyze-clothing
type AnalyzeClothingRequest struct {
	Image           string           `json:"image" validate:"required,datauri"`
	UserPreferences map[StyleTag]int `json:"userPreferences,omitempty" validate:"omitempty,dive,keys,style_tag,endkeys,min=0,max=10"`
}

// AnalyzeClothingResponse is the reply of the clothing analysis service
type AnalyzeClothingResponse struct {
	Success  bool                `json:"success"`
	Analysis *AIClothingAnalysis `json:"analysis,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// WardrobeEntry is the minimal description of one item sent for recommendation. No image bytes.
type WardrobeEntry struct {
	ID         string   `json:"id" validate:"required"`
	Category   Category `json:"category" validate:"required,category"`
	Colors     []string `json:"colors"`
	AIAnalysis string   `json:"aiAnalysis,omitempty"`
}

// RecommendationRequest is the body of POST /api/recommend-outfits
type RecommendationRequest struct {
	Wardrobe       []WardrobeEntry  `json:"wardrobe" validate:"required,min=1,dive"`
	Weather        *WeatherData     `json:"weather,omitempty"`
	Preferences    map[StyleTag]int `json:"preferences" validate:"required,dive,keys,style_tag,endkeys,min=0,max=10"`
	FavoriteColors []string         `json:"favoriteColors"`
	Count          int              `json:"count" validate:"min=1,max=20"`
	Profile        *UserProfile     `json:"profile,omitempty"`
}

// RecommendedOutfit is one outfit as returned by the recommendation service
type RecommendedOutfit struct {
	ItemIDs   []string `json:"itemIds"`
	Reasoning string   `json:"reasoning"`
	Score     float64  `json:"score"`
}

// RecommendationResponse is the reply of the outfit recommendation service.
// A nil Outfits slice after decoding means the field was absent.
type RecommendationResponse struct {
	Success bool                `json:"success"`
	Outfits []RecommendedOutfit `json:"outfits"`
	Error   string              `json:"error,omitempty"`
}

// WeatherResponse is the reply of GET /api/weather
type WeatherResponse struct {
	Success bool         `json:"success"`
	Weather *WeatherData `json:"weather,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// ErrorResponse mirrors the JSON error body written by the API server
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}
