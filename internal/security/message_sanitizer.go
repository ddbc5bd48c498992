// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MessageSanitizerService は主催者が入力した通知メッセージと
// イベント説明文のHTMLをサニタイズし、メール受信者とUIを
// XSS等のリスクから保護する。bluemondayライブラリを使用した
// 許可リストベースのポリシーで、安全なタグのみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// MessageSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// 通知メール本文の組み立て時とイベント説明文の保存前に使用される。
type MessageSanitizerService interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, b, strong, em, i, ul, ol, li）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// messageSanitizer はMessageSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type messageSanitizer struct {
	policy *bluemonday.Policy
}

// NewMessageSanitizer はMessageSanitizerServiceの新しいインスタンスを生成する。
// 通知メッセージはリンクや画像を含まない短いテキストを想定しているため、
// 記事向けのポリシーより狭い許可リストを使用する。
//   - 許可タグ: p, br, b, strong, em, i, ul, ol, li
//   - 禁止タグ: script, iframe, style および全てのon*イベント属性
//   - a, imgタグは許可しない（通知メールにリンク・画像を埋め込まない）
func NewMessageSanitizer() *messageSanitizer {
	p := bluemonday.NewPolicy()

	// 許可リストに含めないタグ・属性は自動的に除去される
	p.AllowElements(
		"p", "br",
		"b", "strong", "em", "i",
		"ul", "ol", "li",
	)

	return &messageSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *messageSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
