// Package ratelimiter は外部API呼び出しの頻度制限を提供します。
package ratelimiter

import (
	"log/slog"
	"time"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded()
}

// RateLimiter は固定ウィンドウ方式でプロバイダ呼び出しの頻度を制限します。
// バックオフ（429応答後の待機）とは独立した、礼儀としての事前制限です。
type RateLimiter struct {
	limit     int           // ウィンドウあたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
	}
}

// WaitIfNeeded はレートリミットの上限に達しているかを確認し、必要であれば
// ウィンドウの残り時間だけ待機します。
func (rl *RateLimiter) WaitIfNeeded() {
	now := time.Now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count > rl.limit {
		sleep := rl.interval - now.Sub(rl.lastReset)
		if sleep > 0 {
			slog.Info("rate limit window full, sleeping", "limit", rl.limit, "sleep", sleep)
			time.Sleep(sleep)
		}
		// リセット
		rl.count = 1
		rl.lastReset = time.Now()
	}
}
