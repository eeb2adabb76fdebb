package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openapiDocument []byte

// OpenAPI loads and validates the API description, stamping version into
// its info block.
func OpenAPI(ctx context.Context, version string) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(openapiDocument)
	if err != nil {
		return nil, fmt.Errorf("server: load openapi document: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("server: openapi document does not contain any paths")
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("server: validate openapi document: %w", err)
	}
	if version != "" && doc.Info != nil {
		doc.Info.Version = version
	}
	return doc, nil
}

func openapiJSON(ctx context.Context, version string) ([]byte, error) {
	doc, err := OpenAPI(ctx, version)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("server: encode openapi document: %w", err)
	}
	return out, nil
}
