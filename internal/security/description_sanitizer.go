// Package security はアプリケーションのセキュリティ機能を提供する。
//
// DescriptionSanitizerService はフードの自由記述欄をサニタイズし、
// XSS攻撃などのセキュリティリスクから閲覧ユーザーを保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 最小限の整形タグのみを通過させる。
package security

import "github.com/microcosm-cc/bluemonday"

// DescriptionSanitizerService はフード説明文のサニタイズ機能のインターフェース。
// フードの登録・更新時、リモートAPIへの送信前に使用される。
type DescriptionSanitizerService interface {
	// Sanitize は説明文をサニタイズして安全なテキストを返す。
	// 許可タグ（p, br, ul, ol, li, strong, em）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// descriptionSanitizer はDescriptionSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type descriptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewDescriptionSanitizer はDescriptionSanitizerServiceの新しいインスタンスを生成する。
// 説明文はリンクや画像を必要としないため、ポリシーは整形タグのみを許可する。
func NewDescriptionSanitizer() *descriptionSanitizer {
	p := bluemonday.NewPolicy()

	// 許可タグの設定（属性なしのシンプルなタグ）
	// script, iframe, style等は許可リストに含めないことで自動的に除去される
	// on*イベント属性はbluemondayのデフォルトで許可されない
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em",
	)

	return &descriptionSanitizer{
		policy: p,
	}
}

// Sanitize は説明文をサニタイズして安全なテキストを返す。
func (s *descriptionSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
