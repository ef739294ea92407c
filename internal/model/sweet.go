// Package model はドメインモデルを定義する。
package model

import "time"

// Sweet はカタログ上の菓子商品を表す。
// 不変条件: Quantityは並行する購入・補充のいかなるインターリーブの下でも0以上を保つ。
type Sweet struct {
	ID         int64
	Name       string
	PriceCents int64 // 価格（セント単位）。JSON境界では小数2桁の数値に変換される。
	Quantity   int
	Category   string
	ImageRef   string // 任意の画像参照。サーバー側で取得・解釈はしない。
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SearchFilter は商品検索の条件を表す。
// 各フィールドは独立に任意で、指定されたものはAND条件として適用される。
// nilのフィールドは制約を課さない。
type SearchFilter struct {
	Name          string // 名前の部分一致（大文字小文字を区別しない）
	Category      string // カテゴリの部分一致（大文字小文字を区別しない）
	MinPriceCents *int64 // 価格の下限（含む）
	MaxPriceCents *int64 // 価格の上限（含む）
}

// SweetUpdate は部分更新のペイロードを表す。
// nilのフィールドは変更しない。
type SweetUpdate struct {
	Name       *string
	PriceCents *int64
	Quantity   *int
	Category   *string
	ImageRef   *string
}
