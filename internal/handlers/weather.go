package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/request"
	"github.com/benvon/smart-wardrobe/internal/services/weather"
)

// WeatherHandler serves current conditions
type WeatherHandler struct {
	provider weather.Provider
	logger   *zap.Logger
}

// NewWeatherHandler creates a new weather handler
func NewWeatherHandler(provider weather.Provider, logger *zap.Logger) *WeatherHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeatherHandler{provider: provider, logger: logger}
}

// RegisterRoutes registers weather routes on the given router
func (h *WeatherHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/weather", h.Current).Methods("GET")
}

// Current handles GET /api/weather?lat=..&lon=..
func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	lat, err := request.FloatQuery(r, "lat")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, models.WeatherResponse{Error: err.Error()})
		return
	}
	lon, err := request.FloatQuery(r, "lon")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, models.WeatherResponse{Error: err.Error()})
		return
	}
	if err := weather.ValidateCoordinates(lat, lon); err != nil {
		respondJSON(w, http.StatusBadRequest, models.WeatherResponse{Error: err.Error()})
		return
	}

	data, err := h.provider.Current(r.Context(), lat, lon)
	if err != nil {
		h.logger.Warn("weather_lookup_failed", zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, weather.ErrInvalidCoordinates) {
			status = http.StatusBadRequest
		}
		respondJSON(w, status, models.WeatherResponse{Error: "Weather service unavailable"})
		return
	}

	respondJSON(w, http.StatusOK, models.WeatherResponse{Success: true, Weather: data})
}
