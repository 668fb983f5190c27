package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrichment_backend/internal/feature/enrichment/domain/entity"
)

// ErrStore はモックと期待値の間で共有されるセンチネルエラーです。
var ErrStore = errors.New("store error")

// mockEnrichedRepo はEnrichedRepositoryインターフェースのモック実装です。
type mockEnrichedRepo struct {
	GetLatestFunc      func(ctx context.Context, symbol string) (*entity.EnrichedData, error)
	GetVersionFunc     func(ctx context.Context, symbol string, version int) (*entity.EnrichedData, error)
	UpsertFunc         func(ctx context.Context, record *entity.EnrichedData) (UpsertResult, error)
	ListStaleFunc      func(ctx context.Context, q StalenessQuery) ([]string, error)
	UpsertCalls        int
	ListStaleCalls     int
	UpsertedRecords    []*entity.EnrichedData
	lastStalenessQuery StalenessQuery
}

func (m *mockEnrichedRepo) GetLatest(ctx context.Context, symbol string) (*entity.EnrichedData, error) {
	if m.GetLatestFunc != nil {
		return m.GetLatestFunc(ctx, symbol)
	}
	return nil, errors.New("GetLatestFunc is not implemented")
}

func (m *mockEnrichedRepo) GetVersion(ctx context.Context, symbol string, version int) (*entity.EnrichedData, error) {
	if m.GetVersionFunc != nil {
		return m.GetVersionFunc(ctx, symbol, version)
	}
	return nil, errors.New("GetVersionFunc is not implemented")
}

func (m *mockEnrichedRepo) Upsert(ctx context.Context, record *entity.EnrichedData) (UpsertResult, error) {
	m.UpsertCalls++
	m.UpsertedRecords = append(m.UpsertedRecords, record)
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, record)
	}
	return UpsertResult{Changed: true, Version: 1}, nil
}

func (m *mockEnrichedRepo) ListStale(ctx context.Context, q StalenessQuery) ([]string, error) {
	m.ListStaleCalls++
	m.lastStalenessQuery = q
	if m.ListStaleFunc != nil {
		return m.ListStaleFunc(ctx, q)
	}
	return nil, nil
}

func (m *mockEnrichedRepo) CountQuarantined(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockEnrichedRepo) FreshnessStats(ctx context.Context) (*FreshnessStats, error) {
	return &FreshnessStats{}, nil
}

// mockFetcher はOutcomeFetcherインターフェースのモック実装です。
type mockFetcher struct {
	FetchFunc func(ctx context.Context, symbol, exchange string) Outcome
	Calls     int
}

func (m *mockFetcher) Fetch(ctx context.Context, symbol, exchange string) Outcome {
	m.Calls++
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, symbol, exchange)
	}
	return Outcome{Kind: OutcomeError, Tags: entity.ErrorTags{"API_ERROR: FetchFunc is not implemented"}}
}

// mockDirectory はListingDirectoryインターフェースのモック実装です。
type mockDirectory struct {
	FindExchangeFunc func(ctx context.Context, symbol string) (string, error)
}

func (m *mockDirectory) FindExchange(ctx context.Context, symbol string) (string, error) {
	if m.FindExchangeFunc != nil {
		return m.FindExchangeFunc(ctx, symbol)
	}
	return "", nil
}

// noopLimiter は待機しないレートリミッタです。
type noopLimiter struct{ Calls int }

func (n *noopLimiter) WaitIfNeeded() { n.Calls++ }

func successOutcome() Outcome {
	return Outcome{
		Kind: OutcomeSuccess,
		Fields: &entity.EnrichmentFields{
			CompanyName:     "Royal Bank of Canada",
			Exchange:        "TSX",
			AssetType:       entity.AssetTypeStock,
			AssetConfidence: 0.9,
			Sector:          "Financial Services",
			Industry:        "Banks - Diversified",
			Country:         "Canada",
			MarketCap:       int64Ptr(180_000_000_000),
			Currency:        "CAD",
			IsActive:        true,
		},
	}
}

func newTestRefreshUsecase(repo EnrichedRepository, fetcher OutcomeFetcher,
	listings ListingDirectory, slept *[]time.Duration) *RefreshUsecase {
	fixed := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	return &RefreshUsecase{
		repo:        repo,
		fetcher:     fetcher,
		listings:    listings,
		rateLimiter: &noopLimiter{},
		sleep: func(d time.Duration) {
			*slept = append(*slept, d)
		},
		now: func() time.Time { return fixed },
	}
}

// TestRefreshUsecase_RunCycle_CountersAndEarlyStop は2バッチ処理後の
// 空バッチによる早期終了とカウンタの集計を検証します。
func TestRefreshUsecase_RunCycle_CountersAndEarlyStop(t *testing.T) {
	t.Parallel()

	batches := [][]string{
		{"AAA", "BBB"},
		{"CCC"},
		{},
	}
	repo := &mockEnrichedRepo{}
	repo.ListStaleFunc = func(ctx context.Context, q StalenessQuery) ([]string, error) {
		return batches[repo.ListStaleCalls-1], nil
	}
	fetcher := &mockFetcher{
		FetchFunc: func(ctx context.Context, symbol, exchange string) Outcome {
			return successOutcome()
		},
	}

	var slept []time.Duration
	uc := newTestRefreshUsecase(repo, fetcher, &mockDirectory{}, &slept)

	stats, err := uc.RunCycle(context.Background(), CycleConfig{})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 3, stats.Updated)
	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, 3, stats.HighQuality, "full fields score 1.0 and count as high quality")
	assert.Equal(t, 2, stats.Batches)
	assert.Equal(t, 3, repo.ListStaleCalls, "the empty third batch stops the cycle")
	assert.Equal(t, 3, fetcher.Calls)

	// 空バッチで終了した場合、その直前の2バッチの後にのみ待機します
	assert.Equal(t, []time.Duration{DefaultInterBatchDelay, DefaultInterBatchDelay}, slept)
}

// ゼロ値の設定は本番既定値で補完されてセレクタへ渡されます。
func TestRefreshUsecase_RunCycle_AppliesDefaults(t *testing.T) {
	t.Parallel()

	repo := &mockEnrichedRepo{
		ListStaleFunc: func(ctx context.Context, q StalenessQuery) ([]string, error) {
			return nil, nil
		},
	}

	var slept []time.Duration
	uc := newTestRefreshUsecase(repo, &mockFetcher{}, &mockDirectory{}, &slept)

	_, err := uc.RunCycle(context.Background(), CycleConfig{})
	require.NoError(t, err)

	q := repo.lastStalenessQuery
	assert.Equal(t, DefaultBatchSize, q.Limit)
	assert.Equal(t, DefaultFreshnessWindow, q.Window)
	assert.Equal(t, DefaultGraceWindow, q.GraceWindow)
	assert.Equal(t, HighQualityThreshold, q.MinQuality)
}

// 1銘柄の保存失敗はカウントされるだけで、バッチの残りは処理されます。
func TestRefreshUsecase_RunCycle_ErrorContainment(t *testing.T) {
	t.Parallel()

	batches := [][]string{
		{"AAA", "BAD", "CCC"},
		{},
	}
	repo := &mockEnrichedRepo{}
	repo.ListStaleFunc = func(ctx context.Context, q StalenessQuery) ([]string, error) {
		return batches[repo.ListStaleCalls-1], nil
	}
	repo.UpsertFunc = func(ctx context.Context, record *entity.EnrichedData) (UpsertResult, error) {
		if record.Symbol == "BAD" {
			return UpsertResult{}, ErrStore
		}
		return UpsertResult{Changed: true, Version: 1}, nil
	}
	fetcher := &mockFetcher{
		FetchFunc: func(ctx context.Context, symbol, exchange string) Outcome {
			return successOutcome()
		},
	}

	var slept []time.Duration
	uc := newTestRefreshUsecase(repo, fetcher, &mockDirectory{}, &slept)

	stats, err := uc.RunCycle(context.Background(), CycleConfig{})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Updated)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 3, repo.UpsertCalls, "all symbols are attempted")
}

// 取得失敗の結果もエラータグ付きのレコードとして保存されます。
func TestRefreshUsecase_RunCycle_PersistsFailedFetches(t *testing.T) {
	t.Parallel()

	batches := [][]string{{"GONE"}, {}}
	repo := &mockEnrichedRepo{}
	repo.ListStaleFunc = func(ctx context.Context, q StalenessQuery) ([]string, error) {
		return batches[repo.ListStaleCalls-1], nil
	}
	fetcher := &mockFetcher{
		FetchFunc: func(ctx context.Context, symbol, exchange string) Outcome {
			return Outcome{Kind: OutcomeNotFound, Tags: entity.ErrorTags{entity.TagNotFound}}
		},
	}

	var slept []time.Duration
	uc := newTestRefreshUsecase(repo, fetcher, &mockDirectory{}, &slept)

	stats, err := uc.RunCycle(context.Background(), CycleConfig{})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Updated, "the failure row itself is stored successfully")
	assert.Equal(t, 0, stats.HighQuality)
	require.Len(t, repo.UpsertedRecords, 1)

	record := repo.UpsertedRecords[0]
	assert.Equal(t, "GONE", record.Symbol)
	assert.False(t, record.FetchSuccess)
	assert.True(t, record.FetchErrors.Contains(entity.TagNotFound))
	assert.Equal(t, entity.DataSourceBatch, record.DataSource)
	assert.Equal(t, entity.AssetTypeOther, record.AssetType)
	assert.Zero(t, record.DataQualityScore)
}

// セレクタの失敗はサイクル全体のエラーとして伝播します。
func TestRefreshUsecase_RunCycle_SelectorErrorAborts(t *testing.T) {
	t.Parallel()

	repo := &mockEnrichedRepo{
		ListStaleFunc: func(ctx context.Context, q StalenessQuery) ([]string, error) {
			return nil, ErrStore
		},
	}

	var slept []time.Duration
	uc := newTestRefreshUsecase(repo, &mockFetcher{}, &mockDirectory{}, &slept)

	_, err := uc.RunCycle(context.Background(), CycleConfig{})
	assert.ErrorIs(t, err, ErrStore)
}

// 取引所の解決失敗はベアシンボルへのフォールバックであり、取得は続行されます。
func TestRefreshUsecase_RunCycle_ExchangeLookupFallback(t *testing.T) {
	t.Parallel()

	batches := [][]string{{"SHOP"}, {}}
	repo := &mockEnrichedRepo{}
	repo.ListStaleFunc = func(ctx context.Context, q StalenessQuery) ([]string, error) {
		return batches[repo.ListStaleCalls-1], nil
	}
	listings := &mockDirectory{
		FindExchangeFunc: func(ctx context.Context, symbol string) (string, error) {
			return "", ErrStore
		},
	}
	var gotExchange string
	fetcher := &mockFetcher{
		FetchFunc: func(ctx context.Context, symbol, exchange string) Outcome {
			gotExchange = exchange
			return successOutcome()
		},
	}

	var slept []time.Duration
	uc := newTestRefreshUsecase(repo, fetcher, listings, &slept)

	stats, err := uc.RunCycle(context.Background(), CycleConfig{})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, "", gotExchange)
}

func TestBuildRecord(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	t.Run("success copies fields and scores quality", func(t *testing.T) {
		t.Parallel()

		record := BuildRecord("shop", successOutcome(), entity.DataSourceBatch, now)

		assert.Equal(t, "SHOP", record.Symbol, "symbol is canonicalized to upper case")
		assert.True(t, record.FetchSuccess)
		assert.Equal(t, "Royal Bank of Canada", record.CompanyName)
		assert.Equal(t, entity.AssetTypeStock, record.AssetType)
		assert.InDelta(t, 1.0, record.DataQualityScore, 1e-9)
		assert.Equal(t, now, record.LastUpdatedAt)
		assert.Equal(t, now, record.LastCheckedAt)
	})

	t.Run("failure keeps defaults and tags", func(t *testing.T) {
		t.Parallel()

		outcome := Outcome{Kind: OutcomeError, Tags: entity.ErrorTags{entity.TagRateLimitExceeded}}
		record := BuildRecord("busy", outcome, entity.DataSourceFallback, now)

		assert.Equal(t, "BUSY", record.Symbol)
		assert.False(t, record.FetchSuccess)
		assert.Equal(t, entity.AssetTypeOther, record.AssetType)
		assert.True(t, record.FetchErrors.Contains(entity.TagRateLimitExceeded))
		assert.Equal(t, entity.DataSourceFallback, record.DataSource)
		assert.Zero(t, record.DataQualityScore)
	})
}

// TestCycleConfig_Budget はサイクルのワーストケース上限の導出を検証します。
// 全銘柄がバックオフ(10+20+40秒)とリクエスト枠(10秒×3回)を使い切り、
// バッチ間待機を全て消化した場合でも上限内に収まる必要があります。
func TestCycleConfig_Budget(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		// 8バッチ × 25銘柄 × (70s バックオフ + 30s リクエスト枠) + 7 × 30s
		want := 8*25*100*time.Second + 7*30*time.Second
		assert.Equal(t, want, CycleConfig{}.Budget())
	})

	t.Run("custom config scales the bound", func(t *testing.T) {
		t.Parallel()

		cfg := CycleConfig{BatchSize: 2, MaxBatches: 2, InterBatchDelay: 5 * time.Second}
		want := 2*2*100*time.Second + 5*time.Second
		assert.Equal(t, want, cfg.Budget())
	})
}
