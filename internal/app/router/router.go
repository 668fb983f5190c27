package router

import (
	"github.com/gin-gonic/gin"

	enrichmenthandler "enrichment_backend/internal/feature/enrichment/transport/handler"
	listinghandler "enrichment_backend/internal/feature/symbollist/transport/handler"
	"enrichment_backend/internal/platform/http/handler"
	jwtmw "enrichment_backend/internal/platform/jwt"
)

// NewRouter はAPIサーバのルーティングを構築します。
func NewRouter(enrichment *enrichmenthandler.EnrichmentHandler,
	listing *listinghandler.ListingHandler) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	// 読み取りパス: キャッシュファーストのティッカー情報
	r.GET("/tickers/:symbol", enrichment.GetTicker)
	// 監査用: 明示的なバージョン参照
	r.GET("/tickers/:symbol/versions/:version", enrichment.GetTickerVersion)
	// 上場銘柄ディレクトリ
	r.GET("/listings", listing.List)

	// 認証必須の管理ルート
	admin := r.Group("/admin")
	admin.Use(jwtmw.AuthRequired())
	{
		admin.GET("/stats", enrichment.Stats)
	}

	return r
}
