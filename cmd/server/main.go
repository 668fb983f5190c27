package main

import (
	"log"
	"os"

	redisv9 "github.com/redis/go-redis/v9"

	"enrichment_backend/internal/app/di"
	"enrichment_backend/internal/app/router"
	enrichmentadapters "enrichment_backend/internal/feature/enrichment/adapters"
	enrichmenthandler "enrichment_backend/internal/feature/enrichment/transport/handler"
	enrichmentusecase "enrichment_backend/internal/feature/enrichment/usecase"
	symbollistadapters "enrichment_backend/internal/feature/symbollist/adapters"
	symbollisthandler "enrichment_backend/internal/feature/symbollist/transport/handler"
	symbollistusecase "enrichment_backend/internal/feature/symbollist/usecase"
	"enrichment_backend/internal/platform/cache"
	platformdb "enrichment_backend/internal/platform/db"
	platformredis "enrichment_backend/internal/platform/redis"
)

func main() {
	// db
	db := platformdb.OpenDB()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Repository
	enrichedRepo := enrichmentadapters.NewEnrichedRepository(db)
	listingRepo := symbollistadapters.NewListingRepository(db)

	// Redisキャッシュでラップ（最新バージョンの読み取りのみ）
	cachedRepo := cache.NewCachingEnrichedRepository(rdb, cache.DefaultTTL, enrichedRepo, "tickers")

	// Usecase
	classifier := di.NewClassifier()
	lookupUC := enrichmentusecase.NewLookupUsecase(cachedRepo, classifier, listingRepo)
	listingUC := symbollistusecase.NewListingUsecase(listingRepo)

	// Handler
	enrichmentH := enrichmenthandler.NewEnrichmentHandler(lookupUC, cachedRepo)
	listingH := symbollisthandler.NewListingHandler(listingUC)

	// ルータ生成
	router := router.NewRouter(enrichmentH, listingH)

	// JWT_SECRETチェック（開発中の注意喚起）
	if os.Getenv("JWT_SECRET") == "" {
		log.Println("[WARN] JWT_SECRET is not set. Set a strong secret in production.")
	}

	if err := router.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
