package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"enrichment_backend/internal/feature/enrichment/domain"
	"enrichment_backend/internal/feature/enrichment/domain/entity"
	"enrichment_backend/internal/platform/externalapi/yahoo/dto"
)

// Client はYahoo Finance互換APIのエンリッチメントプロバイダ実装です。
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient は新しいプロバイダクライアントを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// FetchProfile は1銘柄の属性情報を取得します。
//
// エラー分類:
//   - HTTP 404 または構造的に無効なペイロード（価格・銘柄・名称がすべて欠落し、
//     かつ履歴プローブも空）→ domain.ErrSymbolNotFound（恒久失敗）
//   - HTTP 429 → domain.ErrRateLimited（リトライ可能）
//   - 履歴はあるがプロファイルが空 → domain.ErrEmptyPayload
//   - その他のHTTP/デコード失敗 → 通常のエラー
func (y *Client) FetchProfile(ctx context.Context, symbol, exchange string) (*entity.EnrichmentFields, error) {
	providerSymbol := FormatSymbol(symbol, exchange)

	q := url.Values{}
	q.Set("modules", "assetProfile,price")
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s",
		y.cfg.BaseURL, url.PathEscape(providerSymbol), q.Encode())

	var body dto.QuoteSummaryResponse
	if err := y.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}

	if body.QuoteSummary.Error != nil {
		if isNotFoundCode(body.QuoteSummary.Error.Code) {
			return nil, fmt.Errorf("%s: %w", providerSymbol, domain.ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("yahoo: %s", body.QuoteSummary.Error.Description)
	}

	if len(body.QuoteSummary.Result) == 0 {
		return nil, y.probeInvalid(ctx, providerSymbol)
	}

	result := body.QuoteSummary.Result[0]
	if structurallyInvalid(result) {
		// 必須フィールドが全欠落。履歴プローブで上場廃止かどうかを確定させます。
		return nil, y.probeInvalid(ctx, providerSymbol)
	}

	fields := buildFields(providerSymbol, result)
	return &fields, nil
}

// probeInvalid confirms a suspect payload against the history endpoint.
// No historical data means the symbol does not exist (or is delisted); a
// symbol with history but no profile yields ErrEmptyPayload instead so it
// stays eligible for a later retry.
func (y *Client) probeInvalid(ctx context.Context, providerSymbol string) error {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d",
		y.cfg.BaseURL, url.PathEscape(providerSymbol))

	var body dto.ChartResponse
	if err := y.getJSON(ctx, u, &body); err != nil {
		// プローブ自体が404なら確定
		return err
	}

	if body.Chart.Error != nil || len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Timestamp) == 0 {
		return fmt.Errorf("%s: no historical data: %w", providerSymbol, domain.ErrSymbolNotFound)
	}
	return fmt.Errorf("%s: %w", providerSymbol, domain.ErrEmptyPayload)
}

func (y *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := y.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return domain.ErrSymbolNotFound
	case res.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case res.StatusCode >= 400:
		return fmt.Errorf("yahoo http %d", res.StatusCode)
	}

	return json.NewDecoder(res.Body).Decode(out)
}

// structurallyInvalid reports whether the payload carries none of the
// essential identification fields (price, symbol, short/long name).
func structurallyInvalid(r dto.QuoteSummaryResult) bool {
	if r.Price == nil {
		return true
	}
	return r.Price.RegularMarketPrice == nil &&
		r.Price.Symbol == "" &&
		r.Price.ShortName == "" &&
		r.Price.LongName == ""
}

func isNotFoundCode(code string) bool {
	return code == "Not Found" || code == "404"
}
