// Package security はアプリケーションのセキュリティ機能を提供する。
//
// FieldSanitizer は商品名・カテゴリ・画像参照など、ブラウザクライアントで
// 表示される保存対象の文字列フィールドをサニタイズし、格納型XSSを防ぐ。
// bluemondayのStrictPolicyにより、HTMLタグはすべて除去される。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// FieldSanitizerService は文字列フィールドのサニタイズ機能のインターフェースを定義する。
// 商品の作成・更新時、格納前に使用される。
type FieldSanitizerService interface {
	// SanitizeText は入力からすべてのHTMLタグを除去し、前後の空白を取り除いて返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(input string) string
}

// fieldSanitizer はFieldSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type fieldSanitizer struct {
	policy *bluemonday.Policy
}

// NewFieldSanitizer はFieldSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはいかなるHTML要素・属性も許可しない。
func NewFieldSanitizer() *fieldSanitizer {
	return &fieldSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力からすべてのHTMLタグを除去し、前後の空白を取り除いて返す。
func (s *fieldSanitizer) SanitizeText(input string) string {
	return strings.TrimSpace(s.policy.Sanitize(input))
}
