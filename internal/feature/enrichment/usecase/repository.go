// Package usecase はティッカーエンリッチメントキャッシュのビジネスロジックを実装します。
package usecase

import (
	"context"
	"time"

	"enrichment_backend/internal/feature/enrichment/domain/entity"
)

// StalenessQuery parameterizes the selection of symbols needing refresh.
type StalenessQuery struct {
	// Window is the freshness window; records checked within it are not stale.
	Window time.Duration
	// GraceWindow is the short window in which a high-quality record
	// unconditionally excludes its symbol from selection.
	GraceWindow time.Duration
	// MinQuality is the quality threshold below which a record counts as stale.
	MinQuality float64
	// Limit caps the number of returned symbols.
	Limit int
}

// UpsertResult reports what a version-store upsert did.
type UpsertResult struct {
	// Changed is true when a new version row was created.
	Changed bool
	// Version is the resulting latest version for the symbol.
	Version int
}

// FreshnessStats aggregates observability counters over the latest version
// of every symbol in the store.
type FreshnessStats struct {
	TotalRecords      int64   `json:"total_records"`
	UniqueSymbols     int64   `json:"unique_symbols"`
	FreshToday        int64   `json:"fresh_today"`
	FreshWeek         int64   `json:"fresh_week"`
	SuccessfulFetches int64   `json:"successful_fetches"`
	HighQuality       int64   `json:"high_quality"`
	MediumQuality     int64   `json:"medium_quality"`
	AvgQualityScore   float64 `json:"avg_quality_score"`
}

// EnrichedRepository abstracts the append-only version store for enrichment
// data. Following Go convention: interfaces are defined by the consumer
// (usecase), not the provider (adapters).
//
// Upsert must run as a single atomic unit per symbol. Two concurrent upserts
// for the same symbol must never create two rows with the same version; the
// adapter guarantees this with a transaction plus the unique (symbol, version)
// constraint.
type EnrichedRepository interface {
	// GetLatest returns the highest version row for the symbol, or nil when
	// the symbol has never been enriched.
	GetLatest(ctx context.Context, symbol string) (*entity.EnrichedData, error)

	// GetVersion returns one explicit historical version, or nil when absent.
	GetVersion(ctx context.Context, symbol string, version int) (*entity.EnrichedData, error)

	// Upsert applies change detection and either touches last_checked_at on
	// the latest row (unchanged) or appends a new version row (changed/new).
	Upsert(ctx context.Context, record *entity.EnrichedData) (UpsertResult, error)

	// ListStale returns the symbols from the listing universe that need a
	// refresh, ordered lexicographically and capped at q.Limit. Symbols with
	// a 404_NOT_FOUND tag in any version are excluded permanently.
	ListStale(ctx context.Context, q StalenessQuery) ([]string, error)

	// CountQuarantined reports how many symbols are permanently excluded.
	CountQuarantined(ctx context.Context) (int64, error)

	// FreshnessStats aggregates counters for the admin/stats endpoint.
	FreshnessStats(ctx context.Context) (*FreshnessStats, error)
}

// ListingDirectory exposes the known-symbol universe maintained by the
// listing ingestion component.
type ListingDirectory interface {
	// FindExchange returns the exchange for a listed symbol, or "" when the
	// symbol is not in the directory.
	FindExchange(ctx context.Context, symbol string) (string, error)
}
