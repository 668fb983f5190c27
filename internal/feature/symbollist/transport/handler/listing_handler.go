package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"enrichment_backend/internal/feature/symbollist/domain/entity"
	"enrichment_backend/internal/feature/symbollist/transport/http/dto"
)

// ListingUsecase は上場銘柄ディレクトリに関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type ListingUsecase interface {
	ListActiveListings(ctx context.Context) ([]entity.Listing, error)
}

// ListingHandler は上場銘柄ディレクトリに関するHTTPリクエストを処理します。
type ListingHandler struct {
	uc ListingUsecase
}

// NewListingHandler は新しい ListingHandler を作成します。
func NewListingHandler(uc ListingUsecase) *ListingHandler {
	return &ListingHandler{uc: uc}
}

// List は有効な上場銘柄の一覧を取得するAPIです。
// Usecaseでエラーが発生した場合は500 Internal Server Errorを返します。
func (h *ListingHandler) List(c *gin.Context) {
	listings, err := h.uc.ListActiveListings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]dto.ListingItem, 0, len(listings))
	for _, l := range listings {
		out = append(out, dto.ListingItem{Symbol: l.Symbol, Name: l.Name, Exchange: l.Exchange})
	}
	c.JSON(http.StatusOK, out)
}
