package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// EnrichmentFields はプロバイダから取得した銘柄の属性情報です。
// キャッシュの変更検知はこの構造体のうち9つのフィールドに対して行われます。
type EnrichmentFields struct {
	CompanyName     string
	Exchange        string
	AssetType       AssetType
	AssetConfidence float64
	Sector          string
	Industry        string
	SectorKey       string
	IndustryKey     string
	Country         string
	CountryCode     string
	Region          string
	MarketCap       *int64
	Currency        string
	IsActive        bool
}

// DataHash returns a deterministic SHA-256 hex digest over the subset of
// fields that drive cache-freshness decisions: asset type, sector, industry,
// country, region, market cap, currency, active flag and company name.
// Timestamps, version, quality score and fetch metadata are excluded, so two
// rows with the same hash are semantically identical for caching purposes.
// Keys are sorted before hashing, making the result field-order independent.
func (f EnrichmentFields) DataHash() string {
	kv := map[string]string{
		"asset_type":   string(f.AssetType),
		"sector":       f.Sector,
		"industry":     f.Industry,
		"country":      f.Country,
		"region":       f.Region,
		"market_cap":   marketCapString(f.MarketCap),
		"currency":     f.Currency,
		"is_active":    strconv.FormatBool(f.IsActive),
		"company_name": f.CompanyName,
	}

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s;", k, kv[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// 欠損（nil）と 0 を区別するため、nil は空文字列で表現します。
func marketCapString(mc *int64) string {
	if mc == nil {
		return ""
	}
	return strconv.FormatInt(*mc, 10)
}

var keyPattern = regexp.MustCompile(`[^a-zA-Z0-9]`)

// NormalizeKey derives a lookup key from a sector or industry name,
// e.g. "Real Estate" -> "real_estate". Empty input yields an empty key.
func NormalizeKey(name string) string {
	if name == "" {
		return ""
	}
	return keyPattern.ReplaceAllString(strings.ToLower(name), "_")
}
