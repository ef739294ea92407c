// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/sweetshop/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規アカウントを登録する。ロールは常にuser。
	Register(ctx context.Context, username, password string) (*model.Account, error)
	// Login は認証情報を検証し、ベアラートークンとアカウントを返す。
	Login(ctx context.Context, username, password string) (string, *model.Account, error)
}

// AuthHandler はアカウント登録・ログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// credentialsRequest は登録・ログインリクエストのボディ。
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// accountResponse はアカウント情報のAPIレスポンス。パスワードハッシュは含めない。
type accountResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// loginResponse はログイン成功のレスポンス。
type loginResponse struct {
	Token   string          `json:"token"`
	Account accountResponse `json:"account"`
}

func toAccountResponse(account *model.Account) accountResponse {
	return accountResponse{
		ID:        account.ID,
		Username:  account.Username,
		Role:      string(account.Role),
		CreatedAt: account.CreatedAt,
	}
}

// Register は新規アカウントを登録する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	account, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toAccountResponse(account))
}

// Login は認証情報を検証しトークンを発行する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	token, account, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{
		Token:   token,
		Account: toAccountResponse(account),
	})
}
