// Package model はドメインモデルを定義する。
package model

import "time"

// GoogleOAuthPassword はGoogleログインユーザーのパスワード欄に格納するプレースホルダ。
// このユーザー種別はパスワードで認証しないため、合成値を保持する。
const GoogleOAuthPassword = "GOOGLE_OAUTH"

// User はサービス利用ユーザーを表す。
// emailが一意の識別子であり、Googleログインのたびにprovider_tokenが更新される。
type User struct {
	ID            string
	Email         string
	Name          string
	Image         string
	ProviderToken string // Googleアクセストークン。未連携の場合は空文字列。
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasProviderGrant はプロバイダーアクセストークンを保持しているかを返す。
func (u *User) HasProviderGrant() bool {
	return u.ProviderToken != ""
}

// ProfileUpdate はプロフィール部分更新の入力を表す。
type ProfileUpdate struct {
	Name  string
	Email string
	Image string
}
