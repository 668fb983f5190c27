// Package usecase implements the business logic for listing-related operations.
package usecase

import (
	"context"

	"enrichment_backend/internal/feature/symbollist/domain/entity"
)

// ListingRepository abstracts the persistence layer for the symbol directory.
// Following Go convention: interfaces are defined by the consumer (usecase),
// not the provider (adapters).
type ListingRepository interface {
	ListActive(ctx context.Context) ([]entity.Listing, error)
	FindExchange(ctx context.Context, symbol string) (string, error)
}

// ListingUsecase provides business logic for symbol directory operations.
type ListingUsecase struct {
	repo ListingRepository
}

// NewListingUsecase creates a new ListingUsecase with the given repository.
func NewListingUsecase(r ListingRepository) *ListingUsecase {
	return &ListingUsecase{repo: r}
}

// ListActiveListings returns all active listings from the repository.
func (u *ListingUsecase) ListActiveListings(ctx context.Context) ([]entity.Listing, error) {
	return u.repo.ListActive(ctx)
}
