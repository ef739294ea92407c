// Package auth はアカウント登録・ログインとトークン発行を提供する。
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/sweetshop/internal/model"
	"github.com/hitoshi/sweetshop/internal/repository"
)

const (
	maxUsernameLength = 255
	minPasswordLength = 8
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// Service はアカウント登録・ログインのサービス層。
type Service struct {
	accountRepo repository.AccountRepository
	config      ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(accountRepo repository.AccountRepository, config ServiceConfig) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		accountRepo: accountRepo,
		config:      config,
	}
}

// Register は新規アカウントを登録する。
// ロールは常にuserで作成される。管理者はデータベース上で直接付与する。
func (s *Service) Register(ctx context.Context, username, password string) (*model.Account, error) {
	if username == "" {
		return nil, model.NewValidationError("ユーザー名が空です")
	}
	if len(username) > maxUsernameLength {
		return nil, model.NewValidationError("ユーザー名が長すぎます")
	}
	if len(password) < minPasswordLength {
		return nil, model.NewValidationError("パスワードは8文字以上で指定してください")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		slog.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, model.NewStoreUnavailableError()
	}

	now := time.Now().UTC()
	account := &model.Account{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, model.NewDuplicateUsernameError(username)
		}
		slog.Error("failed to create account", slog.String("error", err.Error()))
		return nil, model.NewStoreUnavailableError()
	}

	slog.Info("account registered",
		slog.String("account_id", account.ID),
		slog.String("username", account.Username),
	)

	return account, nil
}

// Login は資格情報を検証してアクセストークンを発行する。
// ユーザー不在とパスワード不一致は区別せず、同一のエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.Account, error) {
	if username == "" || password == "" {
		return "", nil, model.NewInvalidCredentialsError()
	}

	account, err := s.accountRepo.FindByUsername(ctx, username)
	if err != nil {
		slog.Error("failed to find account", slog.String("error", err.Error()))
		return "", nil, model.NewStoreUnavailableError()
	}
	if account == nil {
		return "", nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, model.NewInvalidCredentialsError()
	}

	token, err := GenerateToken([]byte(s.config.JWTSecret), s.config.TokenTTL, account)
	if err != nil {
		slog.Error("failed to generate token", slog.String("error", err.Error()))
		return "", nil, model.NewStoreUnavailableError()
	}

	slog.Info("login succeeded",
		slog.String("account_id", account.ID),
		slog.String("role", string(account.Role)),
	)

	return token, account, nil
}

// VerifyToken は提示されたトークンを検証し、認証コンテキストを返す。
// 不正・期限切れ・検証不能なトークンはすべて未認証として扱う。
func (s *Service) VerifyToken(tokenString string) (*model.AuthContext, error) {
	authCtx, err := ParseToken([]byte(s.config.JWTSecret), tokenString)
	if err != nil {
		return nil, model.NewUnauthenticatedError()
	}
	return authCtx, nil
}
