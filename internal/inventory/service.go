// Package inventory はカタログ在庫のコマンドハンドラーを提供する。
//
// すべてのコマンドは認可ゲートの判定を通過してから実行される。認可・検証の
// 失敗は確定的であり、ストアへ到達する前に即座に呼び出し元へ返される。
// リトライは行わない。
package inventory

import (
	"context"
	"log/slog"

	"github.com/hitoshi/sweetshop/internal/authz"
	"github.com/hitoshi/sweetshop/internal/model"
	"github.com/hitoshi/sweetshop/internal/repository"
)

// StockAdjuster は在庫調整エンジンのインターフェース。
type StockAdjuster interface {
	// Adjust は商品の数量にdeltaを適用し、更新後の状態を返す。
	Adjust(ctx context.Context, sweetID int64, delta int) (*model.Sweet, error)
}

// FieldSanitizer は保存対象文字列のサニタイズインターフェース。
type FieldSanitizer interface {
	SanitizeText(input string) string
}

// MetricsCollector は在庫操作のメトリクス収集インターフェース。
type MetricsCollector interface {
	RecordPurchaseSuccess(quantity int)
	RecordPurchaseRejected(reason string)
	RecordRestock(quantity int)
}

// CreateInput は商品作成コマンドのペイロード。
type CreateInput struct {
	Name       string
	PriceCents int64
	Quantity   int
	Category   string
	ImageRef   string
}

// Service は在庫コマンドのサービス層。
// リクエストをまたぐ状態は持たず、各呼び出しは独立した遷移として実行される。
type Service struct {
	sweetRepo repository.SweetRepository
	adjuster  StockAdjuster
	sanitizer FieldSanitizer
	metrics   MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	sweetRepo repository.SweetRepository,
	adjuster StockAdjuster,
	sanitizer FieldSanitizer,
	metrics MetricsCollector,
) *Service {
	return &Service{
		sweetRepo: sweetRepo,
		adjuster:  adjuster,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// Create は新規商品を登録する。管理者のみ実行できる。
func (s *Service) Create(ctx context.Context, authCtx *model.AuthContext, input CreateInput) (*model.Sweet, error) {
	if err := authz.Authorize(authCtx, authz.OpCreateSweet); err != nil {
		return nil, err
	}

	sweet := &model.Sweet{
		Name:       s.sanitize(input.Name),
		PriceCents: input.PriceCents,
		Quantity:   input.Quantity,
		Category:   s.sanitize(input.Category),
		ImageRef:   s.sanitize(input.ImageRef),
	}

	if sweet.Name == "" {
		return nil, model.NewValidationError("商品名が空です")
	}
	if sweet.PriceCents < 0 {
		return nil, model.NewValidationError("価格は0以上で指定してください")
	}
	if sweet.Quantity < 0 {
		return nil, model.NewValidationError("数量は0以上で指定してください")
	}
	if sweet.Category == "" {
		return nil, model.NewValidationError("カテゴリが空です")
	}

	if err := s.sweetRepo.Create(ctx, sweet); err != nil {
		slog.Error("failed to create sweet", slog.String("error", err.Error()))
		return nil, model.NewStoreUnavailableError()
	}

	slog.Info("sweet created",
		slog.Int64("sweet_id", sweet.ID),
		slog.String("name", sweet.Name),
		slog.String("account_id", authCtx.AccountID),
	)

	return sweet, nil
}

// Update は指定フィールドのみの部分更新を行う。管理者のみ実行できる。
// 指定されたフィールドが不変条件に違反する場合はVALIDATION_ERRORを返す。
func (s *Service) Update(ctx context.Context, authCtx *model.AuthContext, id int64, update model.SweetUpdate) (*model.Sweet, error) {
	if err := authz.Authorize(authCtx, authz.OpUpdateSweet); err != nil {
		return nil, err
	}

	if update.Name != nil {
		clean := s.sanitize(*update.Name)
		if clean == "" {
			return nil, model.NewValidationError("商品名が空です")
		}
		update.Name = &clean
	}
	if update.PriceCents != nil && *update.PriceCents < 0 {
		return nil, model.NewValidationError("価格は0以上で指定してください")
	}
	if update.Quantity != nil && *update.Quantity < 0 {
		return nil, model.NewValidationError("数量は0以上で指定してください")
	}
	if update.Category != nil {
		clean := s.sanitize(*update.Category)
		if clean == "" {
			return nil, model.NewValidationError("カテゴリが空です")
		}
		update.Category = &clean
	}
	if update.ImageRef != nil {
		clean := s.sanitize(*update.ImageRef)
		update.ImageRef = &clean
	}

	sweet, err := s.sweetRepo.Update(ctx, id, update)
	if err != nil {
		slog.Error("failed to update sweet", slog.String("error", err.Error()))
		return nil, model.NewStoreUnavailableError()
	}
	if sweet == nil {
		return nil, model.NewSweetNotFoundError(id)
	}

	slog.Info("sweet updated",
		slog.Int64("sweet_id", id),
		slog.String("account_id", authCtx.AccountID),
	)

	return sweet, nil
}

// Delete は商品を削除する。管理者のみ実行できる。
// 不在のIDに対する削除はエラーとせず、冪等に成功する。
func (s *Service) Delete(ctx context.Context, authCtx *model.AuthContext, id int64) error {
	if err := authz.Authorize(authCtx, authz.OpDeleteSweet); err != nil {
		return err
	}

	existed, err := s.sweetRepo.Delete(ctx, id)
	if err != nil {
		slog.Error("failed to delete sweet", slog.String("error", err.Error()))
		return model.NewStoreUnavailableError()
	}

	slog.Info("sweet deleted",
		slog.Int64("sweet_id", id),
		slog.Bool("existed", existed),
		slog.String("account_id", authCtx.AccountID),
	)

	return nil
}

// Get は商品詳細を取得する。認証済みであれば実行できる。
func (s *Service) Get(ctx context.Context, authCtx *model.AuthContext, id int64) (*model.Sweet, error) {
	if err := authz.Authorize(authCtx, authz.OpGetSweet); err != nil {
		return nil, err
	}

	sweet, err := s.sweetRepo.FindByID(ctx, id)
	if err != nil {
		slog.Error("failed to find sweet", slog.String("error", err.Error()))
		return nil, model.NewStoreUnavailableError()
	}
	if sweet == nil {
		return nil, model.NewSweetNotFoundError(id)
	}

	return sweet, nil
}

// List は全商品をID昇順で返す。認証済みであれば実行できる。
func (s *Service) List(ctx context.Context, authCtx *model.AuthContext) ([]*model.Sweet, error) {
	if err := authz.Authorize(authCtx, authz.OpListSweets); err != nil {
		return nil, err
	}

	sweets, err := s.sweetRepo.List(ctx)
	if err != nil {
		slog.Error("failed to list sweets", slog.String("error", err.Error()))
		return nil, model.NewStoreUnavailableError()
	}

	return sweets, nil
}

// Search はフィルタ条件に合致する商品をID昇順で返す。認証済みであれば実行できる。
// 指定されたフィルタはすべてAND条件、未指定のフィルタは制約を課さない。
func (s *Service) Search(ctx context.Context, authCtx *model.AuthContext, filter model.SearchFilter) ([]*model.Sweet, error) {
	if err := authz.Authorize(authCtx, authz.OpSearchSweets); err != nil {
		return nil, err
	}

	if filter.MinPriceCents != nil && *filter.MinPriceCents < 0 {
		return nil, model.NewValidationError("価格の下限は0以上で指定してください")
	}
	if filter.MaxPriceCents != nil && *filter.MaxPriceCents < 0 {
		return nil, model.NewValidationError("価格の上限は0以上で指定してください")
	}
	if filter.MinPriceCents != nil && filter.MaxPriceCents != nil && *filter.MinPriceCents > *filter.MaxPriceCents {
		return nil, model.NewValidationError("価格の下限が上限を超えています")
	}

	sweets, err := s.sweetRepo.Search(ctx, filter)
	if err != nil {
		slog.Error("failed to search sweets", slog.String("error", err.Error()))
		return nil, model.NewStoreUnavailableError()
	}

	return sweets, nil
}

// Purchase は商品を購入し、在庫を数量分引き落とす。認証済みであれば実行できる。
// 数量は1以上の整数でなければならず、違反時はエンジンに到達する前に
// INVALID_QUANTITYで拒否される。
func (s *Service) Purchase(ctx context.Context, authCtx *model.AuthContext, id int64, quantity int) (*model.Sweet, error) {
	if err := authz.Authorize(authCtx, authz.OpPurchase); err != nil {
		return nil, err
	}

	if quantity <= 0 {
		s.recordPurchaseRejected("invalid_quantity")
		return nil, model.NewInvalidQuantityError(quantity)
	}

	sweet, err := s.adjuster.Adjust(ctx, id, -quantity)
	if err != nil {
		s.recordPurchaseRejected(rejectionReason(err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPurchaseSuccess(quantity)
	}

	slog.Info("sweet purchased",
		slog.Int64("sweet_id", id),
		slog.Int("quantity", quantity),
		slog.Int("remaining", sweet.Quantity),
		slog.String("account_id", authCtx.AccountID),
	)

	return sweet, nil
}

// Restock は商品の在庫を数量分補充する。管理者のみ実行できる。
// 数量は1以上の整数でなければならない。補充が在庫の境界チェックで
// 失敗することはないが、商品不在の場合はSWEET_NOT_FOUNDを返す。
func (s *Service) Restock(ctx context.Context, authCtx *model.AuthContext, id int64, quantity int) (*model.Sweet, error) {
	if err := authz.Authorize(authCtx, authz.OpRestock); err != nil {
		return nil, err
	}

	if quantity <= 0 {
		return nil, model.NewInvalidQuantityError(quantity)
	}

	sweet, err := s.adjuster.Adjust(ctx, id, quantity)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordRestock(quantity)
	}

	slog.Info("sweet restocked",
		slog.Int64("sweet_id", id),
		slog.Int("quantity", quantity),
		slog.Int("total", sweet.Quantity),
		slog.String("account_id", authCtx.AccountID),
	)

	return sweet, nil
}

func (s *Service) sanitize(input string) string {
	if s.sanitizer == nil {
		return input
	}
	return s.sanitizer.SanitizeText(input)
}

func (s *Service) recordPurchaseRejected(reason string) {
	if s.metrics != nil {
		s.metrics.RecordPurchaseRejected(reason)
	}
}

// rejectionReason はエラーをメトリクスのreasonラベルに変換する。
func rejectionReason(err error) string {
	apiErr, ok := err.(*model.APIError)
	if !ok {
		return "store_unavailable"
	}
	switch apiErr.Code {
	case model.ErrCodeSweetNotFound:
		return "not_found"
	case model.ErrCodeInsufficientStock:
		return "insufficient_stock"
	case model.ErrCodeInvalidQuantity:
		return "invalid_quantity"
	default:
		return "store_unavailable"
	}
}
