package handlers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPIYAML []byte

// openAPIJSON converts the embedded document once, on first request
var openAPIJSON = sync.OnceValues(func() ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(openAPIYAML, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse openapi.yaml: %w", err)
	}
	return json.Marshal(doc)
})

// OpenAPIHandler serves the API description
type OpenAPIHandler struct{}

// NewOpenAPIHandler creates a handler for the embedded document
func NewOpenAPIHandler() *OpenAPIHandler {
	return &OpenAPIHandler{}
}

// RegisterRoutes registers the YAML and JSON renderings
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/openapi.json", h.ServeJSON).Methods("GET")
}

// ServeYAML serves the document as written
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	serveDocument(w, "application/x-yaml", openAPIYAML)
}

// ServeJSON serves the document converted to JSON
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := openAPIJSON()
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "OpenAPI document unavailable")
		return
	}
	serveDocument(w, "application/json", doc)
}

func serveDocument(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(body)
}
