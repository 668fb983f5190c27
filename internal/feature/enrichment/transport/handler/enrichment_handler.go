package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"enrichment_backend/internal/feature/enrichment/transport/http/dto"
	"enrichment_backend/internal/feature/enrichment/usecase"
)

// TickerReader はティッカー情報の読み取りユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type TickerReader interface {
	GetTickerInfo(ctx context.Context, symbol string, forceRefresh bool) (*usecase.TickerInfo, error)
	GetVersion(ctx context.Context, symbol string, version int) (*usecase.TickerInfo, error)
}

// StatsProvider exposes the observability counters of the version store.
type StatsProvider interface {
	FreshnessStats(ctx context.Context) (*usecase.FreshnessStats, error)
	CountQuarantined(ctx context.Context) (int64, error)
}

// EnrichmentHandler はエンリッチメントデータに関するHTTPリクエストを処理します。
type EnrichmentHandler struct {
	reader TickerReader
	stats  StatsProvider
}

// NewEnrichmentHandler は新しい EnrichmentHandler を作成します。
func NewEnrichmentHandler(reader TickerReader, stats StatsProvider) *EnrichmentHandler {
	return &EnrichmentHandler{reader: reader, stats: stats}
}

// GetTicker は単一銘柄のエンリッチメントデータを取得するAPIです。
// キャッシュが新鮮であればDBから返し、そうでなければその場で一度だけ
// プロバイダを呼び出します。取得失敗時も success=false のレスポンスを返します。
// クエリパラメータ force_refresh=true でキャッシュをバイパスできます。
func (h *EnrichmentHandler) GetTicker(c *gin.Context) {
	symbol := c.Param("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	force := c.Query("force_refresh") == "true"

	info, err := h.reader.GetTickerInfo(c.Request.Context(), symbol, force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetTickerVersion は明示的なバージョン指定で履歴行を取得するAPIです。
// 監査・ロールバック用の読み取りパスで、存在しない場合は404を返します。
func (h *EnrichmentHandler) GetTickerVersion(c *gin.Context) {
	symbol := c.Param("symbol")
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version must be a positive integer"})
		return
	}

	info, err := h.reader.GetVersion(c.Request.Context(), symbol, version)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if info == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "version not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Stats は鮮度統計と隔離銘柄数を返す管理者向けAPIです。
func (h *EnrichmentHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	freshness, err := h.stats.FreshnessStats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	quarantined, err := h.stats.CountQuarantined(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{Freshness: freshness, Quarantined: quarantined})
}
