package yahoo

import (
	"strings"

	"enrichment_backend/internal/feature/enrichment/domain/entity"
	"enrichment_backend/internal/platform/externalapi/yahoo/dto"
)

// 取引所コードからプロバイダ用サフィックスへのマッピング（カナダ市場）。
var exchangeSuffixes = map[string]string{
	"TSX":  ".TO",
	"TSXV": ".V",
	"CSE":  ".CN",
}

// FormatSymbol appends the provider-specific exchange suffix to a directory
// symbol. Unknown exchanges (including CBOE and US listings) pass through
// unchanged, as does a symbol with no directory entry.
func FormatSymbol(symbol, exchange string) string {
	if suffix, ok := exchangeSuffixes[strings.ToUpper(exchange)]; ok {
		return symbol + suffix
	}
	return symbol
}

// buildFields はプロバイダのペイロードをドメインのエンリッチメント属性に変換します。
func buildFields(symbol string, r dto.QuoteSummaryResult) entity.EnrichmentFields {
	price := r.Price

	companyName := price.LongName
	if companyName == "" {
		companyName = price.ShortName
	}
	currency := price.Currency
	if currency == "" {
		currency = "USD"
	}

	var sector, industry, country string
	if r.AssetProfile != nil {
		sector = r.AssetProfile.Sector
		industry = r.AssetProfile.Industry
		country = r.AssetProfile.Country
	}
	if country == "" {
		country = inferCountry(symbol)
	}
	countryCode, region := locateCountry(country)

	assetType, confidence := classifyAsset(price.QuoteType, companyName, industry, symbol)

	var marketCap *int64
	if price.MarketCap != nil && price.MarketCap.Raw > 0 {
		mc := price.MarketCap.Raw
		marketCap = &mc
	}

	return entity.EnrichmentFields{
		CompanyName:     companyName,
		Exchange:        price.ExchangeName,
		AssetType:       assetType,
		AssetConfidence: confidence,
		Sector:          sector,
		Industry:        industry,
		SectorKey:       entity.NormalizeKey(sector),
		IndustryKey:     entity.NormalizeKey(industry),
		Country:         country,
		CountryCode:     countryCode,
		Region:          region,
		MarketCap:       marketCap,
		Currency:        currency,
		IsActive:        true, // データが取得できた銘柄は取引中とみなします
	}
}

// classifyAsset は quoteType・名称・シンボルのパターンから資産区分を推定します。
func classifyAsset(quoteType, companyName, industry, symbol string) (entity.AssetType, float64) {
	qt := strings.ToUpper(quoteType)
	name := strings.ToUpper(companyName)

	switch {
	case qt == "ETF" || strings.Contains(name, "ETF"):
		return entity.AssetTypeETF, 0.95
	case qt == "MUTUALFUND" || strings.Contains(name, "MUTUAL FUND"):
		return entity.AssetTypeMutualFund, 0.95
	case qt == "CRYPTOCURRENCY":
		return entity.AssetTypeCrypto, 0.95
	case qt == "EQUITY" || qt == "STOCK":
		switch {
		case strings.Contains(name, "REIT") || strings.EqualFold(industry, "REIT"):
			return entity.AssetTypeREIT, 0.9
		case strings.Contains(name, "PREFERRED") || strings.Contains(symbol, ".PR"):
			return entity.AssetTypePreferred, 0.9
		default:
			return entity.AssetTypeStock, 0.8
		}
	case strings.HasSuffix(symbol, ".WT") || strings.HasSuffix(symbol, ".W"):
		return entity.AssetTypeWarrant, 0.85
	case strings.HasSuffix(symbol, ".TO"):
		// サフィックスのみからの推定（カナダ株）
		return entity.AssetTypeStock, 0.7
	default:
		return entity.AssetTypeOther, 0.3
	}
}

// inferCountry infers the listing country from the provider-symbol suffix
// when the profile carries no country.
func inferCountry(symbol string) string {
	switch {
	case strings.HasSuffix(symbol, ".TO"), strings.HasSuffix(symbol, ".V"), strings.HasSuffix(symbol, ".CN"):
		return "Canada"
	case strings.HasSuffix(symbol, ".L"), strings.HasSuffix(symbol, ".LSE"):
		return "United Kingdom"
	case strings.HasSuffix(symbol, ".DE"), strings.HasSuffix(symbol, ".F"):
		return "Germany"
	default:
		return "United States"
	}
}

var countryLocations = map[string]struct {
	code   string
	region string
}{
	"Canada":         {"CA", "North America"},
	"United States":  {"US", "North America"},
	"United Kingdom": {"GB", "Europe"},
	"Germany":        {"DE", "Europe"},
	"France":         {"FR", "Europe"},
	"Italy":          {"IT", "Europe"},
	"Spain":          {"ES", "Europe"},
	"Japan":          {"JP", "Asia"},
	"China":          {"CN", "Asia"},
	"Australia":      {"AU", "Oceania"},
}

func locateCountry(country string) (code, region string) {
	if loc, ok := countryLocations[country]; ok {
		return loc.code, loc.region
	}
	return "US", "North America"
}
