package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/sweetshop/internal/model"
)

// Claims はアクセストークンに含めるクレームを表す。
// subにアカウントID、roleに権限ロールを格納する。
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken はアカウントに対するHS256署名付きアクセストークンを発行する。
func GenerateToken(secret []byte, ttl time.Duration, account *model.Account) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: account.Username,
		Role:     string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ParseToken はトークン文字列を検証し、認証コンテキストを復元する。
// 署名不正・期限切れ・クレーム不正はすべてエラーとして返す。
// HMAC以外の署名アルゴリズムは受け付けない。
func ParseToken(secret []byte, tokenString string) (*model.AuthContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	role := model.Role(claims.Role)
	if claims.Subject == "" || !role.IsValid() {
		return nil, fmt.Errorf("token claims are incomplete")
	}

	return &model.AuthContext{
		AccountID: claims.Subject,
		Role:      role,
	}, nil
}
