package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/services/ai"
)

// respondJSON sends a JSON response. The wire shapes carry their own success flag.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage removes internal details from error messages
func sanitizeErrorMessage(message string) string {
	sanitized := message
	if len(sanitized) > 200 {
		sanitized = sanitized[:200] + "..."
	}
	return sanitized
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{
		Success: false,
		Error:   sanitizeErrorMessage(message),
	})
}

// respondServiceError maps an AI failure onto its HTTP status. Rate limits keep
// their status code and advertise when to retry.
func respondServiceError(w http.ResponseWriter, err error) {
	status := ai.StatusCode(err)
	resp := models.ErrorResponse{Success: false}

	var rlErr *ai.RateLimitError
	switch {
	case errors.As(err, &rlErr):
		secs := int(rlErr.RetryAfter.Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		resp.RetryAfter = secs
		resp.Error = "AI service is busy, retry later"
	case errors.Is(err, ai.ErrServerConfiguration):
		resp.Error = "Server configuration error"
	case errors.Is(err, ai.ErrNotConfigured):
		resp.Error = "AI service is not configured"
	case status == http.StatusBadGateway:
		resp.Error = "AI service returned an invalid response"
	default:
		resp.Error = "AI request failed"
	}

	respondJSON(w, status, resp)
}

// decodeJSON decodes the request body into dst, writing the error response itself
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// Check if error is due to request size limit
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// requestIDHeader correlates client calls with provider logs
const requestIDHeader = "X-Request-ID"

// requestContext tags the request context with the caller's request id, or a
// fresh one, and echoes it back
func requestContext(w http.ResponseWriter, r *http.Request) context.Context {
	id := r.Header.Get(requestIDHeader)
	if id == "" || len(id) > 64 {
		id = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, id)
	return ai.WithRequestID(r.Context(), id)
}
