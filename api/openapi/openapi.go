// Package openapi embeds the API description served by the server.
package openapi

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Spec is the OpenAPI document in YAML form
//
//go:embed openapi.yaml
var Spec []byte

// JSON converts the embedded document to JSON
func JSON() ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(Spec, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI specification: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode OpenAPI specification: %w", err)
	}
	return data, nil
}
