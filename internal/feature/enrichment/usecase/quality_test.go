package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"enrichment_backend/internal/feature/enrichment/domain/entity"
)

func int64Ptr(v int64) *int64 { return &v }

// TestQualityScore は各フィールドの重み付けとスコアの境界を検証します。
func TestQualityScore(t *testing.T) {
	t.Parallel()

	full := entity.EnrichmentFields{
		CompanyName:     "Royal Bank of Canada",
		Exchange:        "TSX",
		AssetType:       entity.AssetTypeStock,
		AssetConfidence: 0.9,
		Sector:          "Financial Services",
		Industry:        "Banks - Diversified",
		Country:         "Canada",
		MarketCap:       int64Ptr(180_000_000_000),
		Currency:        "CAD",
	}

	tests := []struct {
		name   string
		fields entity.EnrichmentFields
		want   float64
	}{
		{
			name:   "empty fields score zero",
			fields: entity.EnrichmentFields{},
			want:   0,
		},
		{
			name:   "all fields with high confidence score one",
			fields: full,
			want:   1.0,
		},
		{
			name: "company name only",
			fields: entity.EnrichmentFields{
				CompanyName: "Mystery Corp",
			},
			want: 0.1,
		},
		{
			name: "OTHER asset type earns no classification weight",
			fields: entity.EnrichmentFields{
				CompanyName: "Mystery Corp",
				AssetType:   entity.AssetTypeOther,
			},
			want: 0.1,
		},
		{
			name: "classified asset type earns its weight",
			fields: entity.EnrichmentFields{
				CompanyName: "Mystery Corp",
				AssetType:   entity.AssetTypeETF,
			},
			want: 0.3,
		},
		{
			name: "confidence at the threshold earns no bonus",
			fields: func() entity.EnrichmentFields {
				f := full
				f.AssetConfidence = 0.8
				return f
			}(),
			want: 0.9,
		},
		{
			name: "missing market cap drops its weight",
			fields: func() entity.EnrichmentFields {
				f := full
				f.MarketCap = nil
				return f
			}(),
			want: 0.9,
		},
		{
			name: "sector and industry weigh 1.5 each",
			fields: entity.EnrichmentFields{
				Sector:   "Technology",
				Industry: "Semiconductors",
			},
			want: 0.3,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := QualityScore(tt.fields)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

// しきい値はスコア計算と独立した定数であることを固定します。
func TestQualityThresholds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.8, HighQualityThreshold)
	assert.Equal(t, 0.6, MediumQualityThreshold)
	assert.Greater(t, HighQualityThreshold, MediumQualityThreshold)
}
