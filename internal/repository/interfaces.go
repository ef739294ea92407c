// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/sweetshop/internal/model"
)

// ErrDuplicateUsername はユーザー名のUNIQUE制約違反を表す。
// 呼び出し側（認証サービス）が統一エラーフォーマットへ変換する。
var ErrDuplicateUsername = errors.New("username already exists")

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// Create はアカウントを作成する。
	// ユーザー名が既に存在する場合はErrDuplicateUsernameを返す。
	Create(ctx context.Context, account *model.Account) error

	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByUsername はユーザー名でアカウントを検索する。見つからない場合はnilを返す。
	// ユーザー名の比較は大文字小文字を区別する。
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
}

// SweetRepository は商品データの永続化インターフェース。
// カタログの唯一の所有者であり、他のコンポーネントは1リクエストを超えて
// 可変コピーを保持してはならない。
type SweetRepository interface {
	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Sweet, error)

	// List は全商品をID昇順で返す。
	List(ctx context.Context) ([]*model.Sweet, error)

	// Search はフィルタ条件に合致する商品をID昇順で返す。
	// 指定されたフィルタはすべてAND条件、未指定のフィルタは制約を課さない。
	Search(ctx context.Context, filter model.SearchFilter) ([]*model.Sweet, error)

	// Create は商品を作成し、サーバー採番のIDとタイムスタンプをsweetに書き戻す。
	Create(ctx context.Context, sweet *model.Sweet) error

	// Update は指定フィールドのみの部分更新を行い、更新後の商品を返す。
	// 商品が存在しない場合はnilを返す。
	Update(ctx context.Context, id int64, update model.SweetUpdate) (*model.Sweet, error)

	// Delete は指定IDの商品を削除し、行が存在したかを返す。
	// 不在のIDに対してもエラーにはしない。
	Delete(ctx context.Context, id int64) (bool, error)

	// AdjustQuantity は条件付き境界更新プリミティブ。
	// 適用後のquantityが0以上になる場合に限りdeltaを適用し、更新後の商品を返す。
	// 条件を満たす行がない場合（商品不在、または在庫不足）はnilを返す。
	// 境界チェックと更新は単一のUPDATE文として実行され、同一商品への並行する
	// 調整に対して不可分であることを保証する。複数のサーバープロセスが同一
	// データベースを共有していても正しさは保たれる。
	AdjustQuantity(ctx context.Context, id int64, delta int) (*model.Sweet, error)
}
