// Package adapters はenrichmentフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"enrichment_backend/internal/feature/enrichment/domain/entity"
	"enrichment_backend/internal/feature/enrichment/usecase"
)

// enrichedGorm はEnrichedRepositoryインターフェースのGORM実装です。
// 書き込みは (symbol, version) のユニーク制約と楽観的リトライで直列化します。
// 呼び出し元が別プロセスでもDBレベルで重複バージョンは発生しません。
type enrichedGorm struct {
	db  *gorm.DB
	now func() time.Time
}

var _ usecase.EnrichedRepository = (*enrichedGorm)(nil)

// NewEnrichedRepository は指定されたDB接続でリポジトリの新しいインスタンスを生成します。
// gorm.Config の TranslateError が有効であることを前提とします（重複キー検出に使用）。
func NewEnrichedRepository(db *gorm.DB) *enrichedGorm {
	return &enrichedGorm{db: db, now: time.Now}
}

// GetLatest は銘柄の最新バージョン行を返します。未登録の場合は nil を返します。
func (r *enrichedGorm) GetLatest(ctx context.Context, symbol string) (*entity.EnrichedData, error) {
	var record entity.EnrichedData
	err := r.db.WithContext(ctx).
		Where("symbol = ?", strings.ToUpper(symbol)).
		Order("version DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetVersion は明示的なバージョン指定で履歴行を返します。存在しない場合は nil を返します。
func (r *enrichedGorm) GetVersion(ctx context.Context, symbol string, version int) (*entity.EnrichedData, error) {
	var record entity.EnrichedData
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND version = ?", strings.ToUpper(symbol), version).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert は変更検知付きのバージョン追記を1トランザクションで行います。
//
// ハッシュが最新バージョンと一致する場合は last_checked_at のみ更新し、
// 変更があった場合は version+1 の新しい行を追加します。first_loaded_at は
// 最初のバージョンから不変で引き継がれます。並行書き込みがユニーク制約に
// 衝突した場合は最新バージョンを取り直して一度だけ再試行します。
func (r *enrichedGorm) Upsert(ctx context.Context, record *entity.EnrichedData) (usecase.UpsertResult, error) {
	record.Symbol = strings.ToUpper(record.Symbol)
	record.DataHash = record.Fields().DataHash()

	var result usecase.UpsertResult
	for attempt := 0; ; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			now := r.now()

			var latest entity.EnrichedData
			err := tx.Where("symbol = ?", record.Symbol).Order("version DESC").First(&latest).Error
			switch {
			case err == nil:
				if latest.DataHash == record.DataHash {
					// 内容が同じ場合は新しい行を作らずタイムスタンプだけ進めます
					if err := tx.Model(&entity.EnrichedData{}).
						Where("symbol = ? AND version = ?", record.Symbol, latest.Version).
						UpdateColumn("last_checked_at", now).Error; err != nil {
						return err
					}
					result = usecase.UpsertResult{Changed: false, Version: latest.Version}
					return nil
				}
				record.Version = latest.Version + 1
				record.FirstLoadedAt = latest.FirstLoadedAt
			case errors.Is(err, gorm.ErrRecordNotFound):
				record.Version = 1
				record.FirstLoadedAt = now
			default:
				return err
			}

			record.ID = 0
			record.DataChangedAt = now
			record.LastUpdatedAt = now
			record.LastCheckedAt = now
			if err := tx.Create(record).Error; err != nil {
				return err
			}
			result = usecase.UpsertResult{Changed: true, Version: record.Version}
			return nil
		})
		if err == nil {
			return result, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt == 0 {
			continue
		}
		return usecase.UpsertResult{}, fmt.Errorf("upsert %s: %w", record.Symbol, err)
	}
}

// ListStale は再取得が必要な銘柄を辞書順で返します。
//
// 対象: エンリッチメント未登録、鮮度切れ、失敗（404除く）、品質しきい値未満。
// 除外: 猶予期間内の高品質レコードを持つ銘柄、および過去のどのバージョンかに
// 404_NOT_FOUND タグを持つ銘柄（恒久隔離）。
func (r *enrichedGorm) ListStale(ctx context.Context, q usecase.StalenessQuery) ([]string, error) {
	now := r.now()
	staleBefore := now.Add(-q.Window)
	graceAfter := now.Add(-q.GraceWindow)

	query := `
SELECT DISTINCT UPPER(l.symbol) AS symbol
FROM stocks_listing l
LEFT JOIN enriched_ticker_data e ON e.symbol = UPPER(l.symbol)
WHERE l.symbol IS NOT NULL
  AND LENGTH(l.symbol) BETWEEN 1 AND 32
  AND (
    e.symbol IS NULL
    OR e.last_checked_at < ?
    OR (e.fetch_success = ? AND (e.fetch_errors IS NULL OR e.fetch_errors NOT LIKE ?))
    OR e.data_quality_score < ?
  )
  AND NOT EXISTS (
    SELECT 1 FROM enriched_ticker_data e2
    WHERE e2.symbol = UPPER(l.symbol)
      AND e2.data_quality_score >= ?
      AND e2.last_checked_at >= ?
  )
  AND NOT EXISTS (
    SELECT 1 FROM enriched_ticker_data e3
    WHERE e3.symbol = UPPER(l.symbol)
      AND e3.fetch_errors LIKE ?
  )
ORDER BY symbol
LIMIT ?`

	quarantineLike := "%" + entity.TagNotFound + "%"
	var symbols []string
	err := r.db.WithContext(ctx).Raw(query,
		staleBefore, false, quarantineLike, q.MinQuality,
		q.MinQuality, graceAfter,
		quarantineLike, q.Limit,
	).Scan(&symbols).Error
	if err != nil {
		return nil, fmt.Errorf("list stale symbols: %w", err)
	}
	return symbols, nil
}

// CountQuarantined は恒久隔離された銘柄数を返します（可観測性用）。
func (r *enrichedGorm) CountQuarantined(ctx context.Context) (int64, error) {
	query := `
SELECT COUNT(DISTINCT UPPER(l.symbol))
FROM stocks_listing l
INNER JOIN enriched_ticker_data e ON e.symbol = UPPER(l.symbol)
WHERE e.fetch_errors LIKE ?`

	var count int64
	err := r.db.WithContext(ctx).
		Raw(query, "%"+entity.TagNotFound+"%").
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count quarantined symbols: %w", err)
	}
	return count, nil
}

// FreshnessStats は各銘柄の最新バージョンに対する集計カウンタを返します。
func (r *enrichedGorm) FreshnessStats(ctx context.Context) (*usecase.FreshnessStats, error) {
	now := r.now()

	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.EnrichedData{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count enriched records: %w", err)
	}

	query := `
SELECT
  COUNT(*) AS unique_symbols,
  SUM(CASE WHEN e.last_checked_at >= ? THEN 1 ELSE 0 END) AS fresh_today,
  SUM(CASE WHEN e.last_checked_at >= ? THEN 1 ELSE 0 END) AS fresh_week,
  SUM(CASE WHEN e.fetch_success THEN 1 ELSE 0 END) AS successful_fetches,
  SUM(CASE WHEN e.data_quality_score >= ? THEN 1 ELSE 0 END) AS high_quality,
  SUM(CASE WHEN e.data_quality_score >= ? THEN 1 ELSE 0 END) AS medium_quality,
  COALESCE(AVG(e.data_quality_score), 0) AS avg_quality_score
FROM enriched_ticker_data e
WHERE e.version = (
  SELECT MAX(version) FROM enriched_ticker_data e2 WHERE e2.symbol = e.symbol
)`

	var agg struct {
		UniqueSymbols     int64   `gorm:"column:unique_symbols"`
		FreshToday        int64   `gorm:"column:fresh_today"`
		FreshWeek         int64   `gorm:"column:fresh_week"`
		SuccessfulFetches int64   `gorm:"column:successful_fetches"`
		HighQuality       int64   `gorm:"column:high_quality"`
		MediumQuality     int64   `gorm:"column:medium_quality"`
		AvgQualityScore   float64 `gorm:"column:avg_quality_score"`
	}
	err := r.db.WithContext(ctx).Raw(query,
		now.Add(-24*time.Hour), now.Add(-7*24*time.Hour),
		usecase.HighQualityThreshold, usecase.MediumQualityThreshold,
	).Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate freshness stats: %w", err)
	}

	return &usecase.FreshnessStats{
		TotalRecords:      total,
		UniqueSymbols:     agg.UniqueSymbols,
		FreshToday:        agg.FreshToday,
		FreshWeek:         agg.FreshWeek,
		SuccessfulFetches: agg.SuccessfulFetches,
		HighQuality:       agg.HighQuality,
		MediumQuality:     agg.MediumQuality,
		AvgQualityScore:   agg.AvgQualityScore,
	}, nil
}
