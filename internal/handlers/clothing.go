package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/services/ai"
	"github.com/benvon/smart-wardrobe/internal/telemetry"
	"github.com/benvon/smart-wardrobe/internal/validation"
)

// AIHandler serves the clothing analysis and outfit recommendation endpoints
type AIHandler struct {
	provider ai.AIProvider
	logger   *zap.Logger
}

// NewAIHandler creates a handler. A nil provider makes both endpoints answer 503.
func NewAIHandler(provider ai.AIProvider, logger *zap.Logger) *AIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AIHandler{provider: provider, logger: logger}
}

// RegisterRoutes registers AI routes on the given router
// The router should already have the /api prefix
func (h *AIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/analyze-clothing", h.AnalyzeClothing).Methods("POST")
	r.HandleFunc("/recommend-outfits", h.RecommendOutfits).Methods("POST")
}

// AnalyzeClothing classifies one garment image
func (h *AIHandler) AnalyzeClothing(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeClothingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.provider == nil {
		respondServiceError(w, ai.ErrNotConfigured)
		return
	}

	ctx, span := telemetry.StartSpan(requestContext(w, r), "ai.analyze_clothing",
		attribute.Int("image.bytes", len(req.Image)),
	)
	analysis, err := h.provider.AnalyzeClothing(ctx, req.Image, req.UserPreferences)
	telemetry.EndSpan(span, err)
	if err != nil {
		h.logger.Warn("clothing_analysis_failed",
			zap.Int("status_code", ai.StatusCode(err)),
			zap.Error(err),
		)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.AnalyzeClothingResponse{
		Success:  true,
		Analysis: analysis,
	})
}

// RecommendOutfits builds outfits from a text description of the wardrobe
func (h *AIHandler) RecommendOutfits(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.provider == nil {
		respondServiceError(w, ai.ErrNotConfigured)
		return
	}

	for i := range req.Wardrobe {
		req.Wardrobe[i].AIAnalysis = validation.SanitizeText(req.Wardrobe[i].AIAnalysis)
		for j, c := range req.Wardrobe[i].Colors {
			req.Wardrobe[i].Colors[j] = validation.SanitizeText(c)
		}
	}
	for i, c := range req.FavoriteColors {
		req.FavoriteColors[i] = validation.SanitizeText(c)
	}

	ctx, span := telemetry.StartSpan(requestContext(w, r), "ai.recommend_outfits",
		attribute.Int("wardrobe.size", len(req.Wardrobe)),
		attribute.Int("outfits.requested", req.Count),
	)
	outfits, err := h.provider.RecommendOutfits(ctx, &req)
	telemetry.EndSpan(span, err)
	if err != nil {
		h.logger.Warn("outfit_recommendation_failed",
			zap.Int("status_code", ai.StatusCode(err)),
			zap.Int("wardrobe_size", len(req.Wardrobe)),
			zap.Error(err),
		)
		respondServiceError(w, err)
		return
	}
	if outfits == nil {
		outfits = []models.RecommendedOutfit{}
	}

	respondJSON(w, http.StatusOK, models.RecommendationResponse{
		Success: true,
		Outfits: outfits,
	})
}
