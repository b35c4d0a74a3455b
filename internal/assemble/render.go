package assemble

import (
	"context"
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"
)

// JSON renders the document as indented JSON. Object keys are sorted, so
// identical documents render to identical bytes.
func (d *Document) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(d.T, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return append(b, '\n'), nil
}

// YAML renders the document as YAML with the same content as JSON.
func (d *Document) YAML() ([]byte, error) {
	j, err := json.Marshal(d.T)
	if err != nil {
		return nil, fmt.Errorf("render yaml: %w", err)
	}
	y, err := yaml.JSONToYAML(j)
	if err != nil {
		return nil, fmt.Errorf("render yaml: %w", err)
	}
	return y, nil
}

// Validate checks the document against the OpenAPI 3.0 rules kin-openapi
// enforces. Routes without any response fail this check.
func (d *Document) Validate(ctx context.Context) error {
	if err := d.T.Validate(ctx); err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	return nil
}
