package usecase

import "enrichment_backend/internal/feature/enrichment/domain/entity"

const (
	// HighQualityThreshold 以上のスコアを持つレコードは「高品質」と見なされ、
	// 鮮度の猶予期間内であれば再取得の対象から外れます。
	HighQualityThreshold = 0.8

	// MediumQualityThreshold is the lower bound for "medium quality" in the
	// freshness statistics.
	MediumQualityThreshold = 0.6

	// highConfidenceBonus threshold for the asset classification bonus.
	highConfidence = 0.8

	qualityMaxScore = 10.0
)

// QualityScore computes the data completeness score in [0, 1] for a set of
// enrichment fields. Fixed weights are assigned to the presence of each field,
// with a bonus when the asset classification confidence is high. The function
// is pure; it is the single scoring implementation shared by the batch
// refresher and the lookup fallback so the two paths cannot drift.
func QualityScore(f entity.EnrichmentFields) float64 {
	score := 0.0

	if f.CompanyName != "" {
		score += 1.0
	}
	if f.AssetType != "" && f.AssetType != entity.AssetTypeOther {
		score += 2.0
	}
	if f.Sector != "" {
		score += 1.5
	}
	if f.Industry != "" {
		score += 1.5
	}
	if f.Country != "" {
		score += 1.0
	}
	if f.MarketCap != nil {
		score += 1.0
	}
	if f.Currency != "" {
		score += 0.5
	}
	if f.Exchange != "" {
		score += 0.5
	}
	if f.AssetConfidence > highConfidence {
		score += 1.0
	}

	s := score / qualityMaxScore
	if s > 1.0 {
		s = 1.0
	}
	return s
}
