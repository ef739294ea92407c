// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/sweetshop/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// authContextKey はリクエストコンテキストに認証コンテキストを格納するためのキー。
var authContextKey = contextKey("auth_context")

// TokenVerifier はベアラートークンの検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type TokenVerifier interface {
	VerifyToken(tokenString string) (*model.AuthContext, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのベアラートークンを検証し、
// 認証コンテキストをリクエストコンテキストに注入するミドルウェアを返す。
// ヘッダー欠落・形式不正・検証失敗はいずれも401 Unauthorizedになる。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			authCtx, err := verifier.VerifyToken(token)
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			ctx := context.WithValue(r.Context(), authContextKey, authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからベアラートークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// AuthContextFromContext はリクエストコンテキストから認証コンテキストを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func AuthContextFromContext(ctx context.Context) (*model.AuthContext, error) {
	authCtx, ok := ctx.Value(authContextKey).(*model.AuthContext)
	if !ok || authCtx == nil {
		return nil, fmt.Errorf("auth context not found in context")
	}
	return authCtx, nil
}

// ContextWithAuthContext はコンテキストに認証コンテキストを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAuthContext(ctx context.Context, authCtx *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}
