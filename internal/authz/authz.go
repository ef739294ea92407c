// Package authz は操作に対する静的な権限判定を提供する。
//
// 判定は提示された認証コンテキストと固定のケーパビリティテーブルのみに
// 依存する純粋関数であり、副作用を持たない。ミドルウェアのルート定義順に
// 依存する認可と異なり、すべてのコマンドハンドラーが実行前に一様に
// Authorizeを呼び出す。
package authz

import "github.com/hitoshi/sweetshop/internal/model"

// Operation は権限判定の対象となる操作を表す。
type Operation string

const (
	OpListSweets   Operation = "sweets.list"
	OpGetSweet     Operation = "sweets.get"
	OpSearchSweets Operation = "sweets.search"
	OpPurchase     Operation = "sweets.purchase"
	OpCreateSweet  Operation = "sweets.create"
	OpUpdateSweet  Operation = "sweets.update"
	OpDeleteSweet  Operation = "sweets.delete"
	OpRestock      Operation = "sweets.restock"
)

// capabilities は操作ごとの必要ロールを定義する固定テーブル。
// 実行時に変更されることはない。register/loginは公開操作のため
// このテーブルを経由しない。
var capabilities = map[Operation]model.Role{
	OpListSweets:   model.RoleUser,
	OpGetSweet:     model.RoleUser,
	OpSearchSweets: model.RoleUser,
	OpPurchase:     model.RoleUser,
	OpCreateSweet:  model.RoleAdmin,
	OpUpdateSweet:  model.RoleAdmin,
	OpDeleteSweet:  model.RoleAdmin,
	OpRestock:      model.RoleAdmin,
}

// Authorize は認証コンテキストが操作を実行できるかを判定する。
// 許可の場合はnil、コンテキスト不在・不正の場合は未認証エラー、
// ロール不足の場合は権限不足エラーを返す。
// テーブルに存在しない操作は拒否する（フェイルクローズ）。
// RoleUserを要求する操作は認証済みであればロールを問わず許可される。
func Authorize(authCtx *model.AuthContext, op Operation) error {
	if authCtx == nil || authCtx.AccountID == "" || !authCtx.Role.IsValid() {
		return model.NewUnauthenticatedError()
	}

	required, ok := capabilities[op]
	if !ok {
		return model.NewForbiddenError()
	}

	if required == model.RoleAdmin && authCtx.Role != model.RoleAdmin {
		return model.NewForbiddenError()
	}

	return nil
}
