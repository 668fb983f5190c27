// Package entity defines the domain models for the enrichment feature.
package entity

import (
	"time"
)

// AssetType classifies what kind of tradable instrument a symbol is.
type AssetType string

// Supported asset classifications. OTHER is the fallback for anything
// the provider data cannot identify with confidence.
const (
	AssetTypeStock      AssetType = "STOCK"
	AssetTypeETF        AssetType = "ETF"
	AssetTypeMutualFund AssetType = "MUTUAL_FUND"
	AssetTypeREIT       AssetType = "REIT"
	AssetTypeTrust      AssetType = "TRUST"
	AssetTypeBond       AssetType = "BOND"
	AssetTypeWarrant    AssetType = "WARRANT"
	AssetTypeRights     AssetType = "RIGHTS"
	AssetTypePreferred  AssetType = "PREFERRED"
	AssetTypeUnit       AssetType = "UNIT"
	AssetTypeCrypto     AssetType = "CRYPTO"
	AssetTypeCommodity  AssetType = "COMMODITY"
	AssetTypeOther      AssetType = "OTHER"
)

// Fetch error tags persisted in fetch_errors. TagNotFound quarantines the
// symbol permanently once it appears in any version.
const (
	TagNotFound          = "404_NOT_FOUND"
	TagRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	TagEmptyInfo         = "EMPTY_INFO_RETURNED"
)

// Data source provenance values.
const (
	DataSourceBatch    = "background_batch"
	DataSourceFallback = "ondemand_fallback"
)

// EnrichedData is one immutable version row of a symbol's enrichment data.
// A new row is created only when the fingerprint of the enrichment fields
// changes; unchanged re-checks merely advance LastCheckedAt on the latest row.
type EnrichedData struct {
	ID      uint   `gorm:"primaryKey"`
	Symbol  string `gorm:"size:32;not null;uniqueIndex:idx_enriched_symbol_version,priority:1;index:idx_enriched_latest,priority:1"`
	Version int    `gorm:"not null;uniqueIndex:idx_enriched_symbol_version,priority:2;index:idx_enriched_latest,priority:2,sort:desc"`

	CompanyName     string    `gorm:"size:200"`
	Exchange        string    `gorm:"size:20"`
	AssetType       AssetType `gorm:"size:20;not null;default:OTHER;index"`
	AssetConfidence float64   `gorm:"not null;default:0"`
	Sector          string    `gorm:"size:100;index"`
	Industry        string    `gorm:"size:150"`
	SectorKey       string    `gorm:"size:50"`
	IndustryKey     string    `gorm:"size:50"`
	Country         string    `gorm:"size:100"`
	CountryCode     string    `gorm:"size:8"`
	Region          string    `gorm:"size:100;index"`
	MarketCap       *int64
	Currency        string `gorm:"size:10"`
	IsActive        bool   `gorm:"not null;default:true"`

	DataSource       string    `gorm:"size:50;not null"`
	DataQualityScore float64   `gorm:"not null;default:0"`
	FetchSuccess     bool      `gorm:"not null;default:false"`
	FetchErrors      ErrorTags `gorm:"type:text"`
	DataHash         string    `gorm:"size:64;index"`

	FirstLoadedAt time.Time `gorm:"not null"`
	LastUpdatedAt time.Time `gorm:"not null"`
	LastCheckedAt time.Time `gorm:"not null;index"`
	DataChangedAt time.Time `gorm:"not null"`
}

// TableName は元システムから引き継いだテーブル名を維持します。
func (EnrichedData) TableName() string { return "enriched_ticker_data" }

// Fields extracts the change-relevant enrichment fields from the row.
func (e *EnrichedData) Fields() EnrichmentFields {
	return EnrichmentFields{
		CompanyName:     e.CompanyName,
		Exchange:        e.Exchange,
		AssetType:       e.AssetType,
		AssetConfidence: e.AssetConfidence,
		Sector:          e.Sector,
		Industry:        e.Industry,
		SectorKey:       e.SectorKey,
		IndustryKey:     e.IndustryKey,
		Country:         e.Country,
		CountryCode:     e.CountryCode,
		Region:          e.Region,
		MarketCap:       e.MarketCap,
		Currency:        e.Currency,
		IsActive:        e.IsActive,
	}
}

// IsStale reports whether the row is older than the freshness window.
func (e *EnrichedData) IsStale(window time.Duration, now time.Time) bool {
	return e.LastCheckedAt.Before(now.Add(-window))
}

// IsQuarantined reports whether this version carries the permanent
// not-found tag.
func (e *EnrichedData) IsQuarantined() bool {
	return e.FetchErrors.Contains(TagNotFound)
}
