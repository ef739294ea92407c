package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/sweetshop/internal/model"
)

func testLimiterConfig(generalBurst, purchaseBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001), // テスト中に補充されない程度に遅く
		GeneralBurst:    generalBurst,
		PurchaseRate:    rate.Limit(0.001),
		PurchaseBurst:   purchaseBurst,
		CleanupInterval: time.Hour,
	}
}

func authedRequest(accountID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/sweets", nil)
	authCtx := &model.AuthContext{AccountID: accountID, Role: model.RoleUser}
	return req.WithContext(ContextWithAuthContext(req.Context(), authCtx))
}

// TestRateLimiter_GeneralLimit はバーストを超えたリクエストが429になることを検証する。
func TestRateLimiter_GeneralLimit(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(3, 10))
	defer rl.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.GeneralMiddleware()(next)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest("acc-1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("acc-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header must be set on 429")
	}
}

// TestRateLimiter_PerAccount はアカウントごとに独立して制限されることを検証する。
func TestRateLimiter_PerAccount(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(1, 10))
	defer rl.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.GeneralMiddleware()(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("acc-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("acc-1 first request: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("acc-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("acc-1 second request: status = %d, want 429", rec.Code)
	}

	// 別アカウントは影響を受けない
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("acc-2"))
	if rec.Code != http.StatusOK {
		t.Errorf("acc-2: status = %d, want 200", rec.Code)
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("limiter count = %d, want 2", rl.GeneralLimiterCount())
	}
}

// TestRateLimiter_PurchaseIndependent は購入リミッターがAPI全般と
// 独立に動作することを検証する。
func TestRateLimiter_PurchaseIndependent(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(10, 1))
	defer rl.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	purchaseHandler := rl.PurchaseMiddleware()(next)
	generalHandler := rl.GeneralMiddleware()(next)

	rec := httptest.NewRecorder()
	purchaseHandler.ServeHTTP(rec, authedRequest("acc-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first purchase: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	purchaseHandler.ServeHTTP(rec, authedRequest("acc-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second purchase: status = %d, want 429", rec.Code)
	}

	// 購入制限に達してもAPI全般は通る
	rec = httptest.NewRecorder()
	generalHandler.ServeHTTP(rec, authedRequest("acc-1"))
	if rec.Code != http.StatusOK {
		t.Errorf("general after purchase limit: status = %d, want 200", rec.Code)
	}
}

// TestRateLimiter_Unauthenticated は認証コンテキストのないリクエストが
// 401になることを検証する。
func TestRateLimiter_Unauthenticated(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(10, 10))
	defer rl.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/sweets", nil)
	rec := httptest.NewRecorder()
	rl.GeneralMiddleware()(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestNewRateLimiterConfig は分あたりの設定値からの変換を検証する。
func TestNewRateLimiterConfig(t *testing.T) {
	config := NewRateLimiterConfig(120, 30)

	if config.GeneralRate != rate.Limit(2.0) {
		t.Errorf("general rate = %v, want 2 req/sec", config.GeneralRate)
	}
	if config.GeneralBurst != 120 {
		t.Errorf("general burst = %d, want 120", config.GeneralBurst)
	}
	if config.PurchaseRate != rate.Limit(0.5) {
		t.Errorf("purchase rate = %v, want 0.5 req/sec", config.PurchaseRate)
	}
	if config.PurchaseBurst != 30 {
		t.Errorf("purchase burst = %d, want 30", config.PurchaseBurst)
	}
}
