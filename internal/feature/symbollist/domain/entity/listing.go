// Package entity defines the domain models for the symbollist feature.
package entity

import "time"

// Listing represents one row of the raw symbol directory populated by the
// exchange listing ingestion job. It is the known-symbol universe that the
// staleness selector draws candidates from, and the source of the exchange
// used for provider-symbol normalization.
type Listing struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:32;not null;uniqueIndex"`
	Name      string    `gorm:"size:255"`
	Exchange  string    `gorm:"size:20;not null;index"`
	IsActive  bool      `gorm:"not null;default:true"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName は元システムから引き継いだテーブル名を維持します。
func (Listing) TableName() string { return "stocks_listing" }
