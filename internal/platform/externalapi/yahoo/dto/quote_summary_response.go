// Package dto はYahoo Finance互換APIのレスポンス構造を定義します。
package dto

// QuoteSummaryResponse is the envelope of the quoteSummary endpoint.
type QuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []QuoteSummaryResult `json:"result"`
		Error  *APIError            `json:"error"`
	} `json:"quoteSummary"`
}

// QuoteSummaryResult holds the requested modules for one symbol.
type QuoteSummaryResult struct {
	AssetProfile *AssetProfile `json:"assetProfile"`
	Price        *Price        `json:"price"`
}

// AssetProfile carries company, sector and geography attributes.
type AssetProfile struct {
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	Country  string `json:"country"`
}

// Price carries identification, market cap and currency attributes.
type Price struct {
	Symbol             string      `json:"symbol"`
	ShortName          string      `json:"shortName"`
	LongName           string      `json:"longName"`
	QuoteType          string      `json:"quoteType"`
	ExchangeName       string      `json:"exchangeName"`
	Currency           string      `json:"currency"`
	MarketCap          *RawValue   `json:"marketCap"`
	RegularMarketPrice *RawFloat   `json:"regularMarketPrice"`
}

// RawValue is Yahoo's {raw: <int>} number wrapper.
type RawValue struct {
	Raw int64 `json:"raw"`
}

// RawFloat is Yahoo's {raw: <float>} number wrapper.
type RawFloat struct {
	Raw float64 `json:"raw"`
}

// APIError is the provider-side error payload.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ChartResponse is the envelope of the chart (history) endpoint, used as the
// secondary probe when the quote payload looks structurally invalid.
type ChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp []int64 `json:"timestamp"`
		} `json:"result"`
		Error *APIError `json:"error"`
	} `json:"chart"`
}
