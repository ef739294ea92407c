package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/sweetshop/internal/inventory"
	"github.com/hitoshi/sweetshop/internal/middleware"
	"github.com/hitoshi/sweetshop/internal/model"
)

// SweetServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type SweetServiceInterface interface {
	Create(ctx context.Context, authCtx *model.AuthContext, input inventory.CreateInput) (*model.Sweet, error)
	Update(ctx context.Context, authCtx *model.AuthContext, id int64, update model.SweetUpdate) (*model.Sweet, error)
	Delete(ctx context.Context, authCtx *model.AuthContext, id int64) error
	Get(ctx context.Context, authCtx *model.AuthContext, id int64) (*model.Sweet, error)
	List(ctx context.Context, authCtx *model.AuthContext) ([]*model.Sweet, error)
	Search(ctx context.Context, authCtx *model.AuthContext, filter model.SearchFilter) ([]*model.Sweet, error)
	Purchase(ctx context.Context, authCtx *model.AuthContext, id int64, quantity int) (*model.Sweet, error)
	Restock(ctx context.Context, authCtx *model.AuthContext, id int64, quantity int) (*model.Sweet, error)
}

// SweetHandler は商品管理のHTTPハンドラー。
type SweetHandler struct {
	service SweetServiceInterface
}

// NewSweetHandler はSweetHandlerを生成する。
func NewSweetHandler(service SweetServiceInterface) *SweetHandler {
	return &SweetHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// sweetRequest は商品作成・更新リクエストのボディ。
// 画像参照はimage_urlとimageUrlの両方の表記を受け付ける。
type sweetRequest struct {
	Name          *string  `json:"name"`
	Price         *float64 `json:"price"`
	Quantity      *int     `json:"quantity"`
	Category      *string  `json:"category"`
	ImageURL      *string  `json:"image_url"`
	ImageURLCamel *string  `json:"imageUrl"`
}

// imageRef は表記ゆれを解決した画像参照を返す。image_urlを優先する。
func (req *sweetRequest) imageRef() *string {
	if req.ImageURL != nil {
		return req.ImageURL
	}
	return req.ImageURLCamel
}

// quantityRequest は購入・補充リクエストのボディ。
type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// sweetResponse は商品情報のAPIレスポンス。価格は小数2桁の数値で表現する。
type sweetResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toSweetResponse(sweet *model.Sweet) sweetResponse {
	return sweetResponse{
		ID:        sweet.ID,
		Name:      sweet.Name,
		Price:     centsToPrice(sweet.PriceCents),
		Quantity:  sweet.Quantity,
		Category:  sweet.Category,
		ImageURL:  sweet.ImageRef,
		CreatedAt: sweet.CreatedAt,
		UpdatedAt: sweet.UpdatedAt,
	}
}

func toSweetResponses(sweets []*model.Sweet) []sweetResponse {
	results := make([]sweetResponse, len(sweets))
	for i, sweet := range sweets {
		results[i] = toSweetResponse(sweet)
	}
	return results
}

// priceToCents は小数表現の価格をセント単位の整数に変換する。
func priceToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// centsToPrice はセント単位の整数を小数表現の価格に変換する。
func centsToPrice(cents int64) float64 {
	return float64(cents) / 100
}

// --- ヘルパー ---

// authContext はリクエストコンテキストから認証コンテキストを取り出す。
// 認証ミドルウェア通過後は必ず存在するが、欠落時は未認証として扱う。
func authContext(r *http.Request) *model.AuthContext {
	authCtx, err := middleware.AuthContextFromContext(r.Context())
	if err != nil {
		return nil
	}
	return authCtx
}

// sweetIDParam はパスパラメータの商品IDを解析する。
func sweetIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// decodeBody はリクエストボディをJSONとして解析する。空ボディは許容する。
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// --- ハンドラー ---

// ListSweets は全商品の一覧を取得する。
// GET /api/sweets
func (h *SweetHandler) ListSweets(w http.ResponseWriter, r *http.Request) {
	sweets, err := h.service.List(r.Context(), authContext(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSweetResponses(sweets))
}

// GetSweet は商品詳細を取得する。
// GET /api/sweets/{id}
func (h *SweetHandler) GetSweet(w http.ResponseWriter, r *http.Request) {
	id, err := sweetIDParam(r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("商品IDは整数で指定してください"))
		return
	}

	sweet, err := h.service.Get(r.Context(), authContext(r), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSweetResponse(sweet))
}

// SearchSweets はフィルタ条件で商品を検索する。
// GET /api/sweets/search?name=&q=&category=&minPrice=&maxPrice=
// qはnameの別名として受け付ける。
func (h *SweetHandler) SearchSweets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := model.SearchFilter{
		Name:     query.Get("name"),
		Category: query.Get("category"),
	}
	if filter.Name == "" {
		filter.Name = query.Get("q")
	}

	if raw := query.Get("minPrice"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("minPriceは数値で指定してください"))
			return
		}
		cents := priceToCents(price)
		filter.MinPriceCents = &cents
	}
	if raw := query.Get("maxPrice"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("maxPriceは数値で指定してください"))
			return
		}
		cents := priceToCents(price)
		filter.MaxPriceCents = &cents
	}

	sweets, err := h.service.Search(r.Context(), authContext(r), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSweetResponses(sweets))
}

// CreateSweet は新規商品を登録する。
// POST /api/sweets
func (h *SweetHandler) CreateSweet(w http.ResponseWriter, r *http.Request) {
	var req sweetRequest
	if err := decodeBody(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	if req.Name == nil || req.Price == nil || req.Quantity == nil || req.Category == nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("name、price、quantity、categoryは必須です"))
		return
	}

	input := inventory.CreateInput{
		Name:       *req.Name,
		PriceCents: priceToCents(*req.Price),
		Quantity:   *req.Quantity,
		Category:   *req.Category,
	}
	if ref := req.imageRef(); ref != nil {
		input.ImageRef = *ref
	}

	sweet, err := h.service.Create(r.Context(), authContext(r), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSweetResponse(sweet))
}

// UpdateSweet は商品の部分更新を行う。指定されたフィールドのみ更新する。
// PUT /api/sweets/{id}
func (h *SweetHandler) UpdateSweet(w http.ResponseWriter, r *http.Request) {
	id, err := sweetIDParam(r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("商品IDは整数で指定してください"))
		return
	}

	var req sweetRequest
	if err := decodeBody(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	update := model.SweetUpdate{
		Name:     req.Name,
		Quantity: req.Quantity,
		Category: req.Category,
		ImageRef: req.imageRef(),
	}
	if req.Price != nil {
		cents := priceToCents(*req.Price)
		update.PriceCents = &cents
	}

	sweet, err := h.service.Update(r.Context(), authContext(r), id, update)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSweetResponse(sweet))
}

// DeleteSweet は商品を削除する。不在のIDに対しても204を返す。
// DELETE /api/sweets/{id}
func (h *SweetHandler) DeleteSweet(w http.ResponseWriter, r *http.Request) {
	id, err := sweetIDParam(r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("商品IDは整数で指定してください"))
		return
	}

	if err := h.service.Delete(r.Context(), authContext(r), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PurchaseSweet は商品を購入し在庫を引き落とす。
// POST /api/sweets/{id}/purchase
func (h *SweetHandler) PurchaseSweet(w http.ResponseWriter, r *http.Request) {
	id, err := sweetIDParam(r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("商品IDは整数で指定してください"))
		return
	}

	var req quantityRequest
	if err := decodeBody(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	sweet, err := h.service.Purchase(r.Context(), authContext(r), id, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSweetResponse(sweet))
}

// RestockSweet は商品の在庫を補充する。
// POST /api/sweets/{id}/restock
func (h *SweetHandler) RestockSweet(w http.ResponseWriter, r *http.Request) {
	id, err := sweetIDParam(r)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("商品IDは整数で指定してください"))
		return
	}

	var req quantityRequest
	if err := decodeBody(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	sweet, err := h.service.Restock(r.Context(), authContext(r), id, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSweetResponse(sweet))
}
