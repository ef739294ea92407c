package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/sweetshop/internal/model"
)

// sweetColumns はsweetsテーブルのSELECT対象カラム。
const sweetColumns = "id, name, price_cents, quantity, category, image_ref, created_at, updated_at"

// PostgresSweetRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresSweetRepo struct {
	db *sql.DB
}

// NewPostgresSweetRepo はPostgresSweetRepoを生成する。
func NewPostgresSweetRepo(db *sql.DB) *PostgresSweetRepo {
	return &PostgresSweetRepo{db: db}
}

// scanSweet は1行をmodel.Sweetに読み取る。
func scanSweet(row interface{ Scan(dest ...any) error }) (*model.Sweet, error) {
	sweet := &model.Sweet{}
	err := row.Scan(
		&sweet.ID, &sweet.Name, &sweet.PriceCents, &sweet.Quantity,
		&sweet.Category, &sweet.ImageRef, &sweet.CreatedAt, &sweet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sweet, nil
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresSweetRepo) FindByID(ctx context.Context, id int64) (*model.Sweet, error) {
	sweet, err := scanSweet(r.db.QueryRowContext(ctx,
		`SELECT `+sweetColumns+` FROM sweets WHERE id = $1`,
		id,
	))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find sweet by ID: %w", err)
	}

	return sweet, nil
}

// List は全商品をID昇順で返す。
func (r *PostgresSweetRepo) List(ctx context.Context) ([]*model.Sweet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sweetColumns+` FROM sweets ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweets: %w", err)
	}
	defer rows.Close()

	return collectSweets(rows)
}

// Search はフィルタ条件に合致する商品をID昇順で返す。
// 指定されたフィルタはすべてAND条件で適用される。
func (r *PostgresSweetRepo) Search(ctx context.Context, filter model.SearchFilter) ([]*model.Sweet, error) {
	var conds []string
	var args []any

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, "%"+filter.Category+"%")
		conds = append(conds, fmt.Sprintf("category ILIKE $%d", len(args)))
	}
	if filter.MinPriceCents != nil {
		args = append(args, *filter.MinPriceCents)
		conds = append(conds, fmt.Sprintf("price_cents >= $%d", len(args)))
	}
	if filter.MaxPriceCents != nil {
		args = append(args, *filter.MaxPriceCents)
		conds = append(conds, fmt.Sprintf("price_cents <= $%d", len(args)))
	}

	query := `SELECT ` + sweetColumns + ` FROM sweets`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search sweets: %w", err)
	}
	defer rows.Close()

	return collectSweets(rows)
}

// Create は商品を作成し、サーバー採番のIDとタイムスタンプをsweetに書き戻す。
func (r *PostgresSweetRepo) Create(ctx context.Context, sweet *model.Sweet) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sweets (name, price_cents, quantity, category, image_ref)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		sweet.Name, sweet.PriceCents, sweet.Quantity, sweet.Category, sweet.ImageRef,
	).Scan(&sweet.ID, &sweet.CreatedAt, &sweet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sweet: %w", err)
	}

	return nil
}

// Update は指定フィールドのみの部分更新を行い、更新後の商品を返す。
// 商品が存在しない場合はnilを返す。
// COALESCEによりnilのフィールドは現在値を維持する。
func (r *PostgresSweetRepo) Update(ctx context.Context, id int64, update model.SweetUpdate) (*model.Sweet, error) {
	var name, category, imageRef sql.NullString
	var priceCents sql.NullInt64
	var quantity sql.NullInt32

	if update.Name != nil {
		name = sql.NullString{String: *update.Name, Valid: true}
	}
	if update.PriceCents != nil {
		priceCents = sql.NullInt64{Int64: *update.PriceCents, Valid: true}
	}
	if update.Quantity != nil {
		quantity = sql.NullInt32{Int32: int32(*update.Quantity), Valid: true}
	}
	if update.Category != nil {
		category = sql.NullString{String: *update.Category, Valid: true}
	}
	if update.ImageRef != nil {
		imageRef = sql.NullString{String: *update.ImageRef, Valid: true}
	}

	sweet, err := scanSweet(r.db.QueryRowContext(ctx,
		`UPDATE sweets SET
		     name = COALESCE($2, name),
		     price_cents = COALESCE($3, price_cents),
		     quantity = COALESCE($4, quantity),
		     category = COALESCE($5, category),
		     image_ref = COALESCE($6, image_ref),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+sweetColumns,
		id, name, priceCents, quantity, category, imageRef,
	))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update sweet: %w", err)
	}

	return sweet, nil
}

// Delete は指定IDの商品を削除し、行が存在したかを返す。
// 不在のIDに対してもエラーにはしない（削除は望ましい最終状態の表明）。
func (r *PostgresSweetRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sweets WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete sweet: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// AdjustQuantity は条件付き境界更新プリミティブ。
// 境界チェックと加算を単一のUPDATE文で行い、適用後のquantityが0以上になる
// 場合に限り更新する。条件を満たす行がない場合はnilを返し、原因の分類
// （商品不在か在庫不足か）は呼び出し側が再読取りで行う。
// コミット済みの現在値に対して条件が評価されるため、同一商品の最後の1個を
// 奪い合う並行購入が両方成功することはない。
func (r *PostgresSweetRepo) AdjustQuantity(ctx context.Context, id int64, delta int) (*model.Sweet, error) {
	sweet, err := scanSweet(r.db.QueryRowContext(ctx,
		`UPDATE sweets
		 SET quantity = quantity + $2, updated_at = now()
		 WHERE id = $1 AND quantity + $2 >= 0
		 RETURNING `+sweetColumns,
		id, delta,
	))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust sweet quantity: %w", err)
	}

	return sweet, nil
}

// collectSweets は全行をmodel.Sweetのスライスに読み取る。
func collectSweets(rows *sql.Rows) ([]*model.Sweet, error) {
	sweets := make([]*model.Sweet, 0)
	for rows.Next() {
		sweet, err := scanSweet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sweet row: %w", err)
		}
		sweets = append(sweets, sweet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sweet rows: %w", err)
	}

	return sweets, nil
}

// compile-time interface check
var _ SweetRepository = (*PostgresSweetRepo)(nil)
