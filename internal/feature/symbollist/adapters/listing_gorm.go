// Package adapters はsymbollistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	enrichmentusecase "enrichment_backend/internal/feature/enrichment/usecase"
	"enrichment_backend/internal/feature/symbollist/domain/entity"
	"enrichment_backend/internal/feature/symbollist/usecase"
)

// listingGorm はListingRepositoryインターフェースのGORM実装です。
// enrichment側のListingDirectoryも同じ実装で満たします。
type listingGorm struct {
	db *gorm.DB
}

var (
	_ usecase.ListingRepository          = (*listingGorm)(nil)
	_ enrichmentusecase.ListingDirectory = (*listingGorm)(nil)
)

// NewListingRepository は指定されたDB接続でlistingGormリポジトリの新しいインスタンスを生成します。
func NewListingRepository(db *gorm.DB) *listingGorm {
	return &listingGorm{db: db}
}

// ListActive はsymbol順にすべてのアクティブな上場銘柄を返します。
func (r *listingGorm) ListActive(ctx context.Context) ([]entity.Listing, error) {
	var listings []entity.Listing
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("symbol ASC").
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// FindExchange は銘柄の取引所コードを返します。
// ディレクトリに存在しない銘柄の場合は空文字列を返します（エラーにはしません）。
func (r *listingGorm) FindExchange(ctx context.Context, symbol string) (string, error) {
	var listing entity.Listing
	err := r.db.WithContext(ctx).
		Where("UPPER(symbol) = ?", strings.ToUpper(symbol)).
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return listing.Exchange, nil
}
