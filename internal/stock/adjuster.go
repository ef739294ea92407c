// Package stock は在庫数量の境界付き増減を提供する。
//
// 数量の読取り・境界チェック・書込みはストアの条件付きUPDATE1文に畳み込まれ、
// 同一商品への並行する調整に対して不可分に実行される。プロセス内ロックは
// 使用しないため、同一データベースを共有する複数のサーバープロセス間でも
// quantity >= 0 の不変条件が保たれる。
package stock

import (
	"context"
	"log/slog"

	"github.com/hitoshi/sweetshop/internal/model"
)

// SweetStore は在庫調整に必要なストア操作のインターフェース。
// repository.SweetRepositoryの部分集合として定義する。
type SweetStore interface {
	// AdjustQuantity は適用後のquantityが0以上になる場合に限りdeltaを適用する。
	// 条件を満たす行がない場合はnilを返す。
	AdjustQuantity(ctx context.Context, id int64, delta int) (*model.Sweet, error)
	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Sweet, error)
}

// Adjuster は在庫調整エンジン。
type Adjuster struct {
	store SweetStore
}

// NewAdjuster はAdjusterを生成する。
func NewAdjuster(store SweetStore) *Adjuster {
	return &Adjuster{store: store}
}

// Adjust は商品の数量にdeltaを適用し、コミット済みの更新後状態を返す。
// deltaは購入で負、補充で正の値をとる。失敗の分類:
//   - 商品が存在しない場合はSWEET_NOT_FOUND
//   - 適用するとquantityが負になる場合はINSUFFICIENT_STOCK（部分更新は発生しない）
//   - ストア障害はSTORE_UNAVAILABLE
//
// 条件付きUPDATEが空振りした場合は再読取りを行い、原因が商品不在か
// 在庫不足（レースに敗れた場合を含む）かを判別する。
// 補充（delta > 0）が境界チェックで失敗することはない。
func (a *Adjuster) Adjust(ctx context.Context, sweetID int64, delta int) (*model.Sweet, error) {
	if delta == 0 {
		return nil, model.NewInvalidQuantityError(0)
	}

	updated, err := a.store.AdjustQuantity(ctx, sweetID, delta)
	if err != nil {
		slog.Error("stock adjustment failed",
			slog.Int64("sweet_id", sweetID),
			slog.Int("delta", delta),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStoreUnavailableError()
	}

	if updated != nil {
		slog.Info("stock adjusted",
			slog.Int64("sweet_id", sweetID),
			slog.Int("delta", delta),
			slog.Int("quantity", updated.Quantity),
		)
		return updated, nil
	}

	// 条件を満たす行がなかった。不在か在庫不足かを再読取りで判別する。
	existing, err := a.store.FindByID(ctx, sweetID)
	if err != nil {
		slog.Error("stock adjustment reread failed",
			slog.Int64("sweet_id", sweetID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStoreUnavailableError()
	}
	if existing == nil {
		return nil, model.NewSweetNotFoundError(sweetID)
	}

	return nil, model.NewInsufficientStockError(sweetID)
}
