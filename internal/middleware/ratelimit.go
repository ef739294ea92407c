package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）
	GeneralBurst    int           // API全般のバーストサイズ
	PurchaseRate    rate.Limit    // 購入のレート（req/sec）
	PurchaseBurst   int           // 購入のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// NewRateLimiterConfig は1分あたりのリクエスト数からレート制限設定を生成する。
func NewRateLimiterConfig(generalPerMinute, purchasePerMinute int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalPerMinute) / 60.0),
		GeneralBurst:    generalPerMinute,
		PurchaseRate:    rate.Limit(float64(purchasePerMinute) / 60.0),
		PurchaseBurst:   purchasePerMinute,
		CleanupInterval: 5 * time.Minute,
	}
}

// accountLimiter はアカウントごとのレートリミッターとアクセス時刻を保持する。
type accountLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はアカウントごとのレート制限を管理する。
// API全般のレート制限と購入専用のレート制限の2種類を提供する。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*accountLimiter

	purchaseMu       sync.RWMutex
	purchaseLimiters map[string]*accountLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:           config,
		generalLimiters:  make(map[string]*accountLimiter),
		purchaseLimiters: make(map[string]*accountLimiter),
		stopCh:           make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
// リクエストコンテキストに認証コンテキストが含まれている必要がある
// （認証ミドルウェアの後に配置）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := AuthContextFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			limiter := rl.getOrCreateGeneralLimiter(authCtx.AccountID)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("account_id", authCtx.AccountID),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PurchaseMiddleware は購入専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) PurchaseMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := AuthContextFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			limiter := rl.getOrCreatePurchaseLimiter(authCtx.AccountID)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.PurchaseRate)
				slog.Warn("rate limit exceeded",
					slog.String("account_id", authCtx.AccountID),
					slog.String("limit_type", "purchase"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// PurchaseLimiterCount は現在管理されている購入リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) PurchaseLimiterCount() int {
	rl.purchaseMu.RLock()
	defer rl.purchaseMu.RUnlock()
	return len(rl.purchaseLimiters)
}

// getOrCreateGeneralLimiter はアカウントのAPI全般リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateGeneralLimiter(accountID string) *rate.Limiter {
	rl.generalMu.RLock()
	al, exists := rl.generalLimiters[accountID]
	rl.generalMu.RUnlock()

	if exists {
		rl.generalMu.Lock()
		al.lastAccess = time.Now()
		rl.generalMu.Unlock()
		return al.limiter
	}

	rl.generalMu.Lock()
	defer rl.generalMu.Unlock()

	// ダブルチェック
	if al, exists := rl.generalLimiters[accountID]; exists {
		al.lastAccess = time.Now()
		return al.limiter
	}

	limiter := rate.NewLimiter(rl.config.GeneralRate, rl.config.GeneralBurst)
	rl.generalLimiters[accountID] = &accountLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// getOrCreatePurchaseLimiter はアカウントの購入リミッターを取得または作成する。
func (rl *RateLimiter) getOrCreatePurchaseLimiter(accountID string) *rate.Limiter {
	rl.purchaseMu.RLock()
	al, exists := rl.purchaseLimiters[accountID]
	rl.purchaseMu.RUnlock()

	if exists {
		rl.purchaseMu.Lock()
		al.lastAccess = time.Now()
		rl.purchaseMu.Unlock()
		return al.limiter
	}

	rl.purchaseMu.Lock()
	defer rl.purchaseMu.Unlock()

	// ダブルチェック
	if al, exists := rl.purchaseLimiters[accountID]; exists {
		al.lastAccess = time.Now()
		return al.limiter
	}

	limiter := rate.NewLimiter(rl.config.PurchaseRate, rl.config.PurchaseBurst)
	rl.purchaseLimiters[accountID] = &accountLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2

	now := time.Now()

	rl.generalMu.Lock()
	for accountID, al := range rl.generalLimiters {
		if now.Sub(al.lastAccess) > ttl {
			delete(rl.generalLimiters, accountID)
		}
	}
	rl.generalMu.Unlock()

	rl.purchaseMu.Lock()
	for accountID, al := range rl.purchaseLimiters {
		if now.Sub(al.lastAccess) > ttl {
			delete(rl.purchaseLimiters, accountID)
		}
	}
	rl.purchaseMu.Unlock()
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	// Retry-Afterの算出: 1トークンが補充されるまでの秒数
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "RATE_LIMIT_EXCEEDED",
		"message":  "リクエストが多すぎます。しばらく待ってから再度お試しください。",
		"category": "system",
		"action":   "指定された時間の経過後に再試行してください。",
	})
}
