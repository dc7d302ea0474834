// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/mailcal/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// UpsertByEmail はメールアドレスで一意のユーザーをUPSERTする。
	// 未登録の場合は新規作成し、登録済みの場合はprovider_tokenのみを更新する。
	// いずれの場合も確定後のレコードを返す。単一文で実行し原子性はDBに委ねる。
	UpsertByEmail(ctx context.Context, user *model.User) (*model.User, error)

	// UpdateProfile は名前・メールアドレス・画像を更新する。
	// 対象が存在しない場合はnilを返す。
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error)
}
