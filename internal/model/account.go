// Package model はドメインモデルを定義する。
package model

import "time"

// Role はアカウントの権限ロールを表す。
type Role string

const (
	// RoleAdmin は在庫の作成・更新・削除・補充が可能な管理者ロール。
	RoleAdmin Role = "admin"
	// RoleUser は閲覧・検索・購入が可能な一般ユーザーロール。
	RoleUser Role = "user"
)

// IsValid はロールが定義済みのものかを返す。
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account はサービス利用アカウントを表す。
// PasswordHashはbcryptでハッシュ化された資格情報で、平文は保持しない。
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthContext はリクエストごとにトークンから復元される認証コンテキスト。
// 永続化やリクエストをまたいだキャッシュは行わない。
type AuthContext struct {
	AccountID string
	Role      Role
}
