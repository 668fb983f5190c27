package main

import (
	"context"
	"log"
	"time"

	"enrichment_backend/internal/app/di"
	enrichmentadapters "enrichment_backend/internal/feature/enrichment/adapters"
	enrichmentusecase "enrichment_backend/internal/feature/enrichment/usecase"
	symbollistadapters "enrichment_backend/internal/feature/symbollist/adapters"
	platformdb "enrichment_backend/internal/platform/db"
	"enrichment_backend/internal/shared/ratelimiter"
)

// スケジューラ（cron等）から起動されるバッチ更新コマンド。
// 8バッチ×25銘柄を上限に、古い・欠損のある銘柄から順に再取得します。
func main() {
	db := platformdb.OpenDB()

	enrichedRepo := enrichmentadapters.NewEnrichedRepository(db)
	listingRepo := symbollistadapters.NewListingRepository(db)
	classifier := di.NewClassifier()

	// プロバイダ保護のための事前制限（バックオフとは別枠）
	rl := ratelimiter.NewRateLimiter(60, time.Minute)

	uc := enrichmentusecase.NewRefreshUsecase(enrichedRepo, classifier, listingRepo, rl)

	// サイクル設定から導出したワーストケース上限。最悪でも途中の銘柄が
	// コンテキストエラーで失敗することはありません。
	cfg := enrichmentusecase.CycleConfig{}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Budget())
	defer cancel()

	stats, err := uc.RunCycle(ctx, cfg)
	if err != nil {
		log.Fatal("refresh cycle failed:", err)
	}
	log.Printf("refresh ok: processed=%d updated=%d errors=%d high_quality=%d batches=%d",
		stats.Processed, stats.Updated, stats.Errors, stats.HighQuality, stats.Batches)
}
