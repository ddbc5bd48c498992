// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, event, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeEventNotFound      = "EVENT_NOT_FOUND"
	ErrCodeNoEvents           = "NO_EVENTS"
	ErrCodeCapacityExceeded   = "CAPACITY_EXCEEDED"
	ErrCodeAlreadyRegistered  = "ALREADY_REGISTERED"
	ErrCodeInvalidRating      = "INVALID_RATING"
	ErrCodeReportGeneration   = "REPORT_GENERATION_FAILED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", detail),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインして有効なトークンを送信してください。",
	}
}

// NewEventNotFoundError はイベント未検出エラーを生成する。
func NewEventNotFoundError(eventID string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("指定されたイベントが見つかりません: %s", eventID),
		Category: "event",
		Action:   "イベントIDを確認してください。",
	}
}

// NewNoEventsError はイベントが1件も存在しない場合のエラーを生成する。
func NewNoEventsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoEvents,
		Message:  "イベントが登録されていません。",
		Category: "event",
		Action:   "イベントが作成されるまでお待ちください。",
	}
}

// NewCapacityExceededError は定員超過エラーを生成する。
func NewCapacityExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeCapacityExceeded,
		Message:  "イベントは定員に達しています。",
		Category: "event",
		Action:   "他のイベントへの参加をご検討ください。",
	}
}

// NewAlreadyRegisteredError は重複登録エラーを生成する。
func NewAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyRegistered,
		Message:  "このイベントには既に登録済みです。",
		Category: "event",
		Action:   "登録済みイベントの一覧を確認してください。",
	}
}

// NewInvalidRatingError は評価値が範囲外の場合のエラーを生成する。
func NewInvalidRatingError(rating int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("評価は1から5の整数で指定してください: %d", rating),
		Category: "validation",
		Action:   "星1〜5のいずれかを選択してください。",
	}
}

// NewReportGenerationError はレポート生成失敗エラーを生成する。
// upstreamには外部生成AIサービスからのエラーメッセージを渡す。
func NewReportGenerationError(upstream string) *APIError {
	return &APIError{
		Code:     ErrCodeReportGeneration,
		Message:  fmt.Sprintf("レポートの生成に失敗しました: %s", upstream),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewDuplicateEmailError はメールアドレスが登録済みの場合のエラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "サインインするか、別のメールアドレスを使用してください。",
	}
}

// NewInvalidCredentialsError は認証情報が一致しない場合のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}
