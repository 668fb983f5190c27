// Package dto defines the HTTP response shapes for the enrichment feature.
package dto

import "enrichment_backend/internal/feature/enrichment/usecase"

// StatsResponse is the admin observability payload: freshness counters over
// the latest versions plus the number of permanently quarantined symbols.
type StatsResponse struct {
	Freshness   *usecase.FreshnessStats `json:"freshness"`
	Quarantined int64                   `json:"quarantined_symbols"`
}
