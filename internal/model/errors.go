// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// 失敗は必ずこの分類のいずれかとして呼び出し元へ返され、
// 成功へ格下げされたり黙って握り潰されることはない。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, inventory, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeSweetNotFound      = "SWEET_NOT_FOUND"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	ErrCodeDuplicateUsername  = "DUPLICATE_USERNAME"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// NewUnauthenticatedError は未認証エラーを生成する。
// 資格情報が提示されない場合と、提示されたが検証できない場合の両方で使用する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインして有効なトークンを提示してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を実行する権限がありません。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力が不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewSweetNotFoundError は商品未検出エラーを生成する。
func NewSweetNotFoundError(sweetID int64) *APIError {
	return &APIError{
		Code:     ErrCodeSweetNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %d", sweetID),
		Category: "inventory",
		Action:   "商品IDを確認してください。",
	}
}

// NewInsufficientStockError は在庫不足エラーを生成する。
// 部分的な引き落としは発生していないことを保証する（全か無か）。
func NewInsufficientStockError(sweetID int64) *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientStock,
		Message:  fmt.Sprintf("在庫が不足しています: %d", sweetID),
		Category: "inventory",
		Action:   "購入数量を減らすか、入荷をお待ちください。",
	}
}

// NewInvalidQuantityError は数量不正エラーを生成する。
// 購入・補充の数量は1以上の整数でなければならない。
func NewInvalidQuantityError(quantity int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuantity,
		Message:  fmt.Sprintf("無効な数量です: %d", quantity),
		Category: "validation",
		Action:   "数量には1以上の整数を指定してください。",
	}
}

// NewStoreUnavailableError はストア障害エラーを生成する。
// リクエスト自体の不正とは区別され、呼び出し側のみが限定的なリトライを行える。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データストアへのアクセスに失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
func NewDuplicateUsernameError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  fmt.Sprintf("このユーザー名は既に使用されています: %s", username),
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不在とパスワード不一致を区別しない一定の応答を返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}
