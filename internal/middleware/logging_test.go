package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/sweetshop/internal/model"
)

// TestLoggingMiddleware はリクエストの構造化ログ出力を検証する。
func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/sweets", nil)
	authCtx := &model.AuthContext{AccountID: "acc-1", Role: model.RoleAdmin}
	req = req.WithContext(ContextWithAuthContext(req.Context(), authCtx))
	rec := httptest.NewRecorder()

	NewLoggingMiddleware(logger)(next).ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["method"] != "POST" {
		t.Errorf("method = %v, want POST", entry["method"])
	}
	if entry["path"] != "/api/sweets" {
		t.Errorf("path = %v, want /api/sweets", entry["path"])
	}
	if entry["status"] != float64(http.StatusCreated) {
		t.Errorf("status = %v, want 201", entry["status"])
	}
	if entry["account_id"] != "acc-1" {
		t.Errorf("account_id = %v, want acc-1", entry["account_id"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("duration_ms must be present")
	}
}

// TestLoggingMiddleware_ErrorLevel は5xxレスポンスがERRORレベルで
// 記録されることを検証する。
func TestLoggingMiddleware_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/sweets", nil)
	rec := httptest.NewRecorder()

	NewLoggingMiddleware(logger)(next).ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if _, ok := entry["account_id"]; ok {
		t.Error("account_id must be absent for unauthenticated requests")
	}
}

// TestRecoveryMiddleware はpanicが500レスポンスに変換されることを検証する。
func TestRecoveryMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/sweets", nil)
	rec := httptest.NewRecorder()

	NewRecoveryMiddleware()(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	var body ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
}

// TestCORSMiddleware はCORSヘッダーとプリフライト応答を検証する。
func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := NewCORSMiddleware("http://localhost:5173")(next)

	req := httptest.NewRequest(http.MethodOptions, "/api/sweets", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow-origin = %q, want configured origin", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Errorf("allow-headers = %q, want Content-Type, Authorization", got)
	}
}

// TestSecurityHeadersMiddleware はセキュリティヘッダーの付与を検証する。
func TestSecurityHeadersMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/sweets", nil)
	rec := httptest.NewRecorder()
	NewSecurityHeadersMiddleware()(next).ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
