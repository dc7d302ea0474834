// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, provider, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeMissingProviderGrant = "MISSING_PROVIDER_GRANT"
	ErrCodeInvalidRange         = "INVALID_RANGE"
	ErrCodeEmptyMessage         = "EMPTY_MESSAGE"
	ErrCodeInvalidProfile       = "INVALID_PROFILE"
	ErrCodeProviderFailure      = "PROVIDER_FAILURE"
	ErrCodeExtractionFailed     = "EXTRACTION_FAILED"
)

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewMissingProviderGrantError はGoogleアクセストークン未保持エラーを生成する。
func NewMissingProviderGrantError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingProviderGrant,
		Message:  "Googleアクセストークンが登録されていません。",
		Category: "auth",
		Action:   "Googleアカウントでログインし直してください。",
	}
}

// NewInvalidRangeError は開始・終了時刻が不正な場合のエラーを生成する。
func NewInvalidRangeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRange,
		Message:  "終了時刻は開始時刻より後である必要があります。",
		Category: "validation",
		Action:   "開始・終了時刻を確認してください。",
	}
}

// NewEmptyMessageError は抽出対象メッセージが空の場合のエラーを生成する。
func NewEmptyMessageError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyMessage,
		Message:  "メッセージが指定されていません。",
		Category: "validation",
		Action:   "抽出対象のテキストを入力してください。",
	}
}

// NewInvalidProfileError はプロフィール更新内容が不正な場合のエラーを生成する。
func NewInvalidProfileError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidProfile,
		Message:  fmt.Sprintf("プロフィールの内容が不正です: %s", reason),
		Category: "validation",
		Action:   "名前とメールアドレスを確認してください。",
	}
}

// NewProviderFailureError はプロバイダー呼び出し失敗のエラーを生成する。
// 原因メッセージは診断用に伝播するが、トークンを含めてはならない。
func NewProviderFailureError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderFailure,
		Message:  fmt.Sprintf("プロバイダー呼び出しに失敗しました: %s", reason),
		Category: "provider",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewExtractionFailedError は生成AI抽出の失敗エラーを生成する。
func NewExtractionFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeExtractionFailed,
		Message:  "イベント情報の抽出に失敗しました。",
		Category: "provider",
		Action:   "メッセージの内容を変えて再度お試しください。",
	}
}
