package yahoo

import (
	"os"
	"time"
)

// Config はYahoo Finance互換APIクライアントの設定です。
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// LoadConfig は環境変数から設定を読み込みます。
// YAHOO_BASE_URL が未設定の場合は公開エンドポイントを使用します。
func LoadConfig() Config {
	baseURL := os.Getenv("YAHOO_BASE_URL")
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return Config{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}
