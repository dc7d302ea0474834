// Package auth はOAuthログインフローとアカウント管理を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/mailcal/internal/model"
	"github.com/hitoshi/mailcal/internal/repository"
	"github.com/hitoshi/mailcal/internal/token"
)

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
// AccessTokenはプロバイダープロキシの資格情報としてユーザーに紐付けて保存する。
type OAuthUserInfo struct {
	Email       string
	Name        string
	Picture     string
	AccessToken string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// LoginResult はログイン成功時の結果を表す。
type LoginResult struct {
	Token string
	User  *model.User
}

// Service は認証・アカウント管理のビジネスロジックを提供する。
type Service struct {
	oauth    OAuthProvider
	userRepo repository.UserRepository
	codec    *token.Codec
}

// NewService はServiceを生成する。
func NewService(oauth OAuthProvider, userRepo repository.UserRepository, codec *token.Codec) *Service {
	return &Service{
		oauth:    oauth,
		userRepo: userRepo,
		codec:    codec,
	}
}

// Login は認可コードを交換し、ユーザーをメールアドレスでUPSERTして
// セッショントークンを発行する。
// 初回ログインでレコードを作成し、以降のログインではprovider_tokenのみを更新する。
func (s *Service) Login(ctx context.Context, code string) (*LoginResult, error) {
	userInfo, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	user, err := s.userRepo.UpsertByEmail(ctx, &model.User{
		ID:            uuid.New().String(),
		Email:         userInfo.Email,
		Name:          userInfo.Name,
		Image:         userInfo.Picture,
		ProviderToken: userInfo.AccessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	sessionToken, err := s.codec.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return &LoginResult{Token: sessionToken, User: user}, nil
}

// GetUser は指定IDのユーザーを取得する。
// 見つからない場合はUSER_NOT_FOUNDエラーを返す。
func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile はユーザーのプロフィールを更新する。
// 形状検証（名前・メールアドレスが空でないこと）を適用前に行う。
// 対象が存在しない場合はUSER_NOT_FOUNDエラーを返す。
func (s *Service) UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (*model.User, error) {
	update.Name = strings.TrimSpace(update.Name)
	update.Email = strings.TrimSpace(update.Email)

	if update.Name == "" {
		return nil, model.NewInvalidProfileError("名前が空です")
	}
	if update.Email == "" || !strings.Contains(update.Email, "@") {
		return nil, model.NewInvalidProfileError("メールアドレスの形式が不正です")
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("profile updated",
		slog.String("user_id", userID),
	)

	return user, nil
}
