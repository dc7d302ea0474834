package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/mailcal/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, email, name, image, provider_token, created_at, updated_at`

// scanUser は1行をmodel.Userに読み込む。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.Image,
		&user.ProviderToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

const upsertByEmailQuery = `INSERT INTO users (id, email, name, password, image, provider_token, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	 ON CONFLICT (email) DO UPDATE
	 SET provider_token = EXCLUDED.provider_token, updated_at = EXCLUDED.updated_at
	 RETURNING ` + userColumns

// UpsertByEmail はメールアドレスで一意のユーザーをUPSERTする。
// 既存レコードがある場合はIDを保持したままprovider_tokenのみを更新する。
func (r *PostgresUserRepo) UpsertByEmail(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	row := r.db.QueryRowContext(ctx, upsertByEmailQuery,
		user.ID, user.Email, user.Name, model.GoogleOAuthPassword,
		user.Image, user.ProviderToken, now,
	)
	saved, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user by email: %w", err)
	}
	return saved, nil
}

// UpdateProfile は名前・メールアドレス・画像を更新する。
// 対象が存在しない場合はnilを返す。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET name = $2, email = $3, image = $4, updated_at = $5
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, update.Name, update.Email, update.Image, time.Now(),
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
