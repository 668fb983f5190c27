// Package dto defines the HTTP response shapes for the symbollist feature.
package dto

// ListingItem is one entry of the listing directory response.
type ListingItem struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}
