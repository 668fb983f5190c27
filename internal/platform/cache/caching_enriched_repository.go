package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"enrichment_backend/internal/feature/enrichment/domain/entity"
	"enrichment_backend/internal/feature/enrichment/usecase"
)

// CachingEnrichedRepository は EnrichedRepository の最新バージョン参照を
// Redisキャッシュでデコレートします。読み取りパスのホットパスである
// GetLatest のみキャッシュし、書き込み（Upsert）でキーを無効化します。
type CachingEnrichedRepository struct {
	inner     usecase.EnrichedRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.EnrichedRepository = (*CachingEnrichedRepository)(nil)

// DefaultTTL は最新バージョンキャッシュの既定の保持時間です。
// 鮮度ウィンドウ（7日）に比べ十分短く、書き込み無効化の取りこぼしがあっても
// すぐに追いつきます。
const DefaultTTL = 5 * time.Minute

// NewCachingEnrichedRepository は EnrichedRepository を Redis キャッシュでデコレートします。
// ttl=0 の場合は DefaultTTL にフォールバックします。namespace が空なら "tickers" を使います。
func NewCachingEnrichedRepository(rdb *redis.Client, ttl time.Duration, inner usecase.EnrichedRepository, namespace string) *CachingEnrichedRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = "tickers"
	}
	return &CachingEnrichedRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// GetLatest はキャッシュヒット時はRedisから、ミス時はストアから最新バージョンを返します。
func (c *CachingEnrichedRepository) GetLatest(ctx context.Context, symbol string) (*entity.EnrichedData, error) {
	// Redis 未設定なら素通し
	if c.rdb == nil {
		return c.inner.GetLatest(ctx, symbol)
	}

	key := c.cacheKey(symbol)

	// 1) キャッシュヒット確認
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.EnrichedData
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// 壊れていたら落とす
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) DB へフォールバック
	out, err := c.inner.GetLatest(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if out == nil {
		// 未登録の銘柄はキャッシュしません（ネガティブキャッシュなし）
		return nil, nil
	}

	// 3) キャッシュ保存（ベストエフォート）
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// Upsert は本体ストアへ書き込んだ後、該当銘柄のキャッシュを無効化します。
// 無変更（タイムスタンプのみ更新）の場合もキャッシュの last_checked_at が
// 古くなるため、常に無効化します。
func (c *CachingEnrichedRepository) Upsert(ctx context.Context, record *entity.EnrichedData) (usecase.UpsertResult, error) {
	result, err := c.inner.Upsert(ctx, record)
	if err != nil {
		return result, err
	}
	if c.rdb != nil {
		_ = c.rdb.Del(ctx, c.cacheKey(record.Symbol)).Err() // 失敗しても本処理は成功させる
	}
	return result, nil
}

// GetVersion は履歴参照のためキャッシュを経由しません。
func (c *CachingEnrichedRepository) GetVersion(ctx context.Context, symbol string, version int) (*entity.EnrichedData, error) {
	return c.inner.GetVersion(ctx, symbol, version)
}

// ListStale は常にストアへ委譲します。
func (c *CachingEnrichedRepository) ListStale(ctx context.Context, q usecase.StalenessQuery) ([]string, error) {
	return c.inner.ListStale(ctx, q)
}

// CountQuarantined は常にストアへ委譲します。
func (c *CachingEnrichedRepository) CountQuarantined(ctx context.Context) (int64, error) {
	return c.inner.CountQuarantined(ctx)
}

// FreshnessStats は常にストアへ委譲します。
func (c *CachingEnrichedRepository) FreshnessStats(ctx context.Context) (*usecase.FreshnessStats, error) {
	return c.inner.FreshnessStats(ctx)
}

// ---- 補助 ----

func (c *CachingEnrichedRepository) cacheKey(symbol string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(strings.ToUpper(symbol)))
}

func safe(s string) string {
	// Redis キーに使いづらい記号の簡易エスケープ
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
