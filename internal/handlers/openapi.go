package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// OpenAPIHandler serves the API description
type OpenAPIHandler struct {
	yamlDoc []byte
	jsonDoc []byte
}

// NewOpenAPIHandler creates a handler for the given YAML document.
// toJSON converts it once up front so malformed documents fail at startup.
func NewOpenAPIHandler(yamlDoc []byte, toJSON func() ([]byte, error)) (*OpenAPIHandler, error) {
	jsonDoc, err := toJSON()
	if err != nil {
		return nil, err
	}
	return &OpenAPIHandler{yamlDoc: yamlDoc, jsonDoc: jsonDoc}, nil
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/openapi.yaml", h.ServeYAML).Methods(http.MethodGet)
	r.HandleFunc("/openapi.json", h.ServeJSON).Methods(http.MethodGet)
}

// ServeYAML serves the OpenAPI spec in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(h.yamlDoc)
}

// ServeJSON serves the OpenAPI spec in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(h.jsonDoc)
}
