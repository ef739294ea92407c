package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/sweetshop/internal/model"
)

type mockTokenVerifier struct {
	verifyFn func(tokenString string) (*model.AuthContext, error)
}

func (m *mockTokenVerifier) VerifyToken(tokenString string) (*model.AuthContext, error) {
	if m.verifyFn != nil {
		return m.verifyFn(tokenString)
	}
	return nil, errors.New("not implemented")
}

// TestAuthMiddleware_ValidToken は有効なトークンで認証コンテキストが
// 注入されることを検証する。
func TestAuthMiddleware_ValidToken(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(tokenString string) (*model.AuthContext, error) {
			if tokenString != "valid-token" {
				t.Errorf("token = %q, want %q", tokenString, "valid-token")
			}
			return &model.AuthContext{AccountID: "acc-1", Role: model.RoleUser}, nil
		},
	}

	var gotCtx *model.AuthContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtx, _ = AuthContextFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/sweets", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	NewAuthMiddleware(verifier)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotCtx == nil || gotCtx.AccountID != "acc-1" {
		t.Errorf("auth context = %+v, want AccountID acc-1", gotCtx)
	}
}

// TestAuthMiddleware_Rejections はヘッダー欠落・形式不正・無効トークンが
// いずれも401になり、ハンドラーに到達しないことを検証する。
func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
		{"no space", "Bearertoken"},
		{"invalid token", "Bearer expired-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &mockTokenVerifier{
				verifyFn: func(tokenString string) (*model.AuthContext, error) {
					return nil, model.NewUnauthenticatedError()
				},
			}

			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
			})

			req := httptest.NewRequest(http.MethodGet, "/api/sweets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			NewAuthMiddleware(verifier)(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if nextCalled {
				t.Error("next handler must not be called")
			}
		})
	}
}

// TestAuthMiddleware_CaseInsensitiveScheme はスキーム名の大文字小文字を
// 区別しないことを検証する。
func TestAuthMiddleware_CaseInsensitiveScheme(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(tokenString string) (*model.AuthContext, error) {
			return &model.AuthContext{AccountID: "acc-1", Role: model.RoleUser}, nil
		},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/sweets", nil)
	req.Header.Set("Authorization", "bearer valid-token")
	rec := httptest.NewRecorder()

	NewAuthMiddleware(verifier)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// TestAuthContextFromContext_Missing は未注入コンテキストからの取得が
// エラーになることを検証する。
func TestAuthContextFromContext_Missing(t *testing.T) {
	if _, err := AuthContextFromContext(context.Background()); err == nil {
		t.Error("expected error for missing auth context")
	}
}

// TestContextWithAuthContext は注入と取得の往復を検証する。
func TestContextWithAuthContext(t *testing.T) {
	authCtx := &model.AuthContext{AccountID: "acc-9", Role: model.RoleAdmin}
	ctx := ContextWithAuthContext(context.Background(), authCtx)

	got, err := AuthContextFromContext(ctx)
	if err != nil {
		t.Fatalf("AuthContextFromContext returned error: %v", err)
	}
	if got.AccountID != "acc-9" || got.Role != model.RoleAdmin {
		t.Errorf("auth context = %+v, want acc-9/admin", got)
	}
}
