// Package di provides dependency injection factories for creating application components.
package di

import (
	"enrichment_backend/internal/feature/enrichment/usecase"
	"enrichment_backend/internal/platform/externalapi/yahoo"
	infrahttp "enrichment_backend/internal/platform/http"
)

// NewProvider creates a fully configured Yahoo provider client with HTTP client.
func NewProvider() *yahoo.Client {
	cfg := yahoo.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return yahoo.NewClient(cfg, httpClient)
}

// NewClassifier wraps the provider with retry/backoff and outcome
// classification.
func NewClassifier() *usecase.Classifier {
	return usecase.NewClassifier(NewProvider())
}
