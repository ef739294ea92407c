package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/sweetshop/internal/middleware"
)

// Pinger はヘルスチェックが必要とするデータベース疎通確認のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	RequestLogger     *slog.Logger
	MetricsRecorder   middleware.HTTPMetricsRecorder

	// サービス
	AuthService  AuthServiceInterface
	SweetService SweetServiceInterface

	// 運用エンドポイント
	DB             Pinger
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → Recovery → SecurityHeaders → Logging → Metrics
//	→ [認証グループ: BearerAuth → RateLimit(General)]
//
// 認証ルート（/api/auth/*）と運用エンドポイントは認証グループの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.RequestLogger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.RequestLogger))
	}
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	sweetHandler := NewSweetHandler(deps.SweetService)

	// --- 認証不要のルート ---

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Get("/health", healthHandler(deps.DB))

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: BearerAuth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Route("/api/sweets", func(r chi.Router) {
			r.Get("/", sweetHandler.ListSweets)
			r.Post("/", sweetHandler.CreateSweet)

			// /searchは/{id}より先に登録する
			r.Get("/search", sweetHandler.SearchSweets)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sweetHandler.GetSweet)
				r.Put("/", sweetHandler.UpdateSweet)
				r.Delete("/", sweetHandler.DeleteSweet)

				// POST /api/sweets/{id}/purchase - 購入専用レート制限を追加
				if deps.RateLimiter != nil {
					r.With(deps.RateLimiter.PurchaseMiddleware()).Post("/purchase", sweetHandler.PurchaseSweet)
				} else {
					r.Post("/purchase", sweetHandler.PurchaseSweet)
				}

				r.Post("/restock", sweetHandler.RestockSweet)
			})
		})
	})

	return r
}

// healthHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			if err := db.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
