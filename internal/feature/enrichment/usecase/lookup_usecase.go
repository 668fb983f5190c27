package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"enrichment_backend/internal/feature/enrichment/domain/entity"
)

// TickerInfo is the flat record returned to read-path callers, suitable for
// direct serialization. FromDatabase distinguishes a cache hit from a live
// provider fallback.
type TickerInfo struct {
	Symbol          string    `json:"symbol"`
	CompanyName     string    `json:"company_name,omitempty"`
	Exchange        string    `json:"exchange,omitempty"`
	AssetType       string    `json:"asset_type,omitempty"`
	AssetConfidence float64   `json:"asset_confidence"`
	Sector          string    `json:"sector,omitempty"`
	Industry        string    `json:"industry,omitempty"`
	SectorKey       string    `json:"sector_key,omitempty"`
	IndustryKey     string    `json:"industry_key,omitempty"`
	Country         string    `json:"country,omitempty"`
	CountryCode     string    `json:"country_code,omitempty"`
	Region          string    `json:"region,omitempty"`
	MarketCap       *int64    `json:"market_cap,omitempty"`
	Currency        string    `json:"currency,omitempty"`
	IsActive        bool      `json:"is_active"`
	QualityScore    float64   `json:"data_quality_score"`
	DataSource      string    `json:"data_source"`
	Version         int       `json:"version"`
	CachedAt        time.Time `json:"cached_at"`
	Success         bool      `json:"success"`
	FromDatabase    bool      `json:"from_database"`
	Errors          []string  `json:"errors,omitempty"`
}

// LookupUsecase はコンシューマ向けのキャッシュファースト読み取りパスです。
// 新鮮なレコードがストアにあればそれを返し、なければその場で一度だけ
// fetch→classify→store を実行して結果を返します。
type LookupUsecase struct {
	repo     EnrichedRepository
	fetcher  OutcomeFetcher
	listings ListingDirectory
	window   time.Duration
	now      func() time.Time
}

// NewLookupUsecase creates a LookupUsecase with the default freshness window.
func NewLookupUsecase(repo EnrichedRepository, fetcher OutcomeFetcher, listings ListingDirectory) *LookupUsecase {
	return &LookupUsecase{
		repo:     repo,
		fetcher:  fetcher,
		listings: listings,
		window:   DefaultFreshnessWindow,
		now:      time.Now,
	}
}

// GetTickerInfo returns enrichment data for one symbol.
//
// Unless forceRefresh is set, a stored record that is present, fresh and
// successful is served directly. Otherwise a single synchronous refresh runs;
// its result is returned whether or not it succeeded (a failed fetch yields a
// response with Success=false and diagnostic tags rather than an error).
// Failed fallback fetches are not persisted so a provider outage cannot
// pollute the version history; successful ones are stored for future hits.
func (u *LookupUsecase) GetTickerInfo(ctx context.Context, symbol string, forceRefresh bool) (*TickerInfo, error) {
	symbol = strings.ToUpper(symbol)

	if !forceRefresh {
		latest, err := u.repo.GetLatest(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if latest != nil && latest.FetchSuccess && !latest.IsStale(u.window, u.now()) {
			slog.Debug("serving ticker from database", "symbol", symbol, "version", latest.Version)
			return recordToInfo(latest, true), nil
		}
	}

	slog.Info("fetching ticker via live fallback", "symbol", symbol, "force_refresh", forceRefresh)

	exchange, err := u.listings.FindExchange(ctx, symbol)
	if err != nil {
		slog.Warn("exchange lookup failed, using bare symbol", "symbol", symbol, "error", err)
		exchange = ""
	}

	outcome := u.fetcher.Fetch(ctx, symbol, exchange)
	record := BuildRecord(symbol, outcome, entity.DataSourceFallback, u.now())

	if outcome.Kind == OutcomeSuccess {
		result, err := u.repo.Upsert(ctx, record)
		if err != nil {
			// 保存失敗でも取得済みデータは呼び出し元に返します
			slog.Error("failed to store fallback data", "symbol", symbol, "error", err)
		} else {
			record.Version = result.Version
		}
	}

	info := recordToInfo(record, false)
	return info, nil
}

// GetVersion returns one explicit historical version, or nil when absent.
// Used by the audit/rollback read path.
func (u *LookupUsecase) GetVersion(ctx context.Context, symbol string, version int) (*TickerInfo, error) {
	record, err := u.repo.GetVersion(ctx, strings.ToUpper(symbol), version)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return recordToInfo(record, true), nil
}

func recordToInfo(e *entity.EnrichedData, fromDatabase bool) *TickerInfo {
	return &TickerInfo{
		Symbol:          e.Symbol,
		CompanyName:     e.CompanyName,
		Exchange:        e.Exchange,
		AssetType:       string(e.AssetType),
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
		QualityScore:    e.DataQualityScore,
		DataSource:      e.DataSource,
		Version:         e.Version,
		CachedAt:        e.LastUpdatedAt,
		Success:         e.FetchSuccess,
		FromDatabase:    fromDatabase,
		Errors:          e.FetchErrors,
	}
}
