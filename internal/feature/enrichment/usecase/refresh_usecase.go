package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"enrichment_backend/internal/feature/enrichment/domain/entity"
	"enrichment_backend/internal/shared/ratelimiter"
)

// Default cycle parameters, matching the production scheduler invocation.
const (
	DefaultBatchSize       = 25
	DefaultMaxBatches      = 8
	DefaultInterBatchDelay = 30 * time.Second
	DefaultFreshnessWindow = 7 * 24 * time.Hour
	DefaultGraceWindow     = 24 * time.Hour
)

// OutcomeFetcher fetches and classifies enrichment data for one symbol.
// Satisfied by *Classifier; faked in tests.
type OutcomeFetcher interface {
	Fetch(ctx context.Context, symbol, exchange string) Outcome
}

// CycleConfig configures one scheduler-triggered refresh cycle.
type CycleConfig struct {
	BatchSize       int
	MaxBatches      int
	InterBatchDelay time.Duration
	Window          time.Duration
	MinQuality      float64
}

// cycleAttemptAllowance is the per-request time reserved in Budget,
// matching the provider client's HTTP timeout.
const cycleAttemptAllowance = 10 * time.Second

// Budget はサイクル1回のワーストケース実行時間の上限を返します。
// 全バッチの全銘柄がバックオフの階段を使い切った場合でも完走できる長さで、
// 呼び出し側はこれをウォッチドッグタイムアウトとして安全に使えます。
func (c CycleConfig) Budget() time.Duration {
	c = withCycleDefaults(c)

	var backoff time.Duration
	for attempt := 0; attempt < classifierMaxAttempts; attempt++ {
		backoff += classifierBaseDelay << attempt
	}
	perSymbol := backoff + classifierMaxAttempts*cycleAttemptAllowance

	batches := time.Duration(c.MaxBatches)
	return batches*time.Duration(c.BatchSize)*perSymbol + (batches-1)*c.InterBatchDelay
}

// CycleStats is the aggregate counter contract returned to the scheduler.
type CycleStats struct {
	Processed   int `json:"processed"`
	Updated     int `json:"updated"`
	Errors      int `json:"errors"`
	HighQuality int `json:"high_quality"`
	Batches     int `json:"batches"`
}

// RefreshUsecase は外部プロバイダからエンリッチメントデータを取得し、
// バージョンストアに永続化するバッチ更新ユースケースです。
type RefreshUsecase struct {
	repo        EnrichedRepository
	fetcher     OutcomeFetcher
	listings    ListingDirectory
	rateLimiter ratelimiter.RateLimiterInterface
	sleep       func(time.Duration)
	now         func() time.Time
}

// NewRefreshUsecase creates a RefreshUsecase.
func NewRefreshUsecase(repo EnrichedRepository, fetcher OutcomeFetcher,
	listings ListingDirectory, rl ratelimiter.RateLimiterInterface) *RefreshUsecase {
	return &RefreshUsecase{
		repo:        repo,
		fetcher:     fetcher,
		listings:    listings,
		rateLimiter: rl,
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

// RunCycle runs up to cfg.MaxBatches staleness-selection batches, refreshing
// each candidate symbol. A batch yielding no candidates stops the cycle early,
// and no delay is slept after the final batch.
//
// Per-symbol failures are counted, never propagated: one bad symbol must not
// abort the batch, and a store failure for one symbol must not roll back
// symbols already committed (each upsert is its own transaction).
func (u *RefreshUsecase) RunCycle(ctx context.Context, cfg CycleConfig) (CycleStats, error) {
	cfg = withCycleDefaults(cfg)
	stats := CycleStats{}

	for batch := 0; batch < cfg.MaxBatches; batch++ {
		symbols, err := u.repo.ListStale(ctx, StalenessQuery{
			Window:      cfg.Window,
			GraceWindow: DefaultGraceWindow,
			MinQuality:  cfg.MinQuality,
			Limit:       cfg.BatchSize,
		})
		if err != nil {
			return stats, err
		}
		if len(symbols) == 0 {
			slog.Info("no stale symbols remaining, stopping cycle early", "batches", stats.Batches)
			break
		}

		stats.Batches++
		slog.Info("processing refresh batch",
			"batch", stats.Batches, "max_batches", cfg.MaxBatches, "symbols", len(symbols))

		for _, symbol := range symbols {
			stats.Processed++
			record, err := u.refreshOne(ctx, symbol)
			if err != nil {
				// 1銘柄の失敗で処理を止めず、カウントして次へ進みます
				slog.Error("failed to refresh symbol", "symbol", symbol, "error", err)
				stats.Errors++
				continue
			}
			stats.Updated++
			if record.DataQualityScore >= HighQualityThreshold {
				stats.HighQuality++
			}
		}

		// 最後のバッチの後には待機しません
		if batch < cfg.MaxBatches-1 {
			u.sleep(cfg.InterBatchDelay)
		}
	}

	slog.Info("refresh cycle complete",
		"processed", stats.Processed, "updated", stats.Updated,
		"errors", stats.Errors, "high_quality", stats.HighQuality)
	return stats, nil
}

// refreshOne runs one fetch → classify → score → upsert pipeline for a symbol.
// The provider call happens before (never inside) the store transaction.
func (u *RefreshUsecase) refreshOne(ctx context.Context, symbol string) (*entity.EnrichedData, error) {
	exchange, err := u.listings.FindExchange(ctx, symbol)
	if err != nil {
		slog.Warn("exchange lookup failed, using bare symbol", "symbol", symbol, "error", err)
		exchange = ""
	}

	u.rateLimiter.WaitIfNeeded()
	outcome := u.fetcher.Fetch(ctx, symbol, exchange)

	record := BuildRecord(symbol, outcome, entity.DataSourceBatch, u.now())
	if _, err := u.repo.Upsert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// BuildRecord converts a classified outcome into a candidate version row.
// Failed fetches still produce a row (with fetch_success=false and the error
// tags) so quarantine and failure-driven staleness can see them.
func BuildRecord(symbol string, outcome Outcome, source string, now time.Time) *entity.EnrichedData {
	record := &entity.EnrichedData{
		Symbol:        strings.ToUpper(symbol),
		AssetType:     entity.AssetTypeOther,
		DataSource:    source,
		FetchSuccess:  outcome.Kind == OutcomeSuccess,
		FetchErrors:   outcome.Tags,
		LastUpdatedAt: now,
		LastCheckedAt: now,
	}
	if outcome.Kind == OutcomeSuccess && outcome.Fields != nil {
		f := *outcome.Fields
		record.CompanyName = f.CompanyName
		record.Exchange = f.Exchange
		record.AssetType = f.AssetType
		record.AssetConfidence = f.AssetConfidence
		record.Sector = f.Sector
		record.Industry = f.Industry
		record.SectorKey = f.SectorKey
		record.IndustryKey = f.IndustryKey
		record.Country = f.Country
		record.CountryCode = f.CountryCode
		record.Region = f.Region
		record.MarketCap = f.MarketCap
		record.Currency = f.Currency
		record.IsActive = f.IsActive
		record.DataQualityScore = QualityScore(f)
	}
	return record
}

func withCycleDefaults(cfg CycleConfig) CycleConfig {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxBatches <= 0 {
		cfg.MaxBatches = DefaultMaxBatches
	}
	if cfg.InterBatchDelay <= 0 {
		cfg.InterBatchDelay = DefaultInterBatchDelay
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultFreshnessWindow
	}
	if cfg.MinQuality <= 0 {
		cfg.MinQuality = HighQualityThreshold
	}
	return cfg
}
