package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/mailcal/internal/middleware"
	"github.com/hitoshi/mailcal/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// UpdateProfile はプロフィールを検証してから更新する。
	UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (*model.User, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
type updateProfileRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Image  string `json:"image"`
}

// profileResponse はプロフィール更新のレスポンス。
type profileResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

// UpdateProfile はプロフィール更新を処理する。
// 対象ユーザーはリクエストボディのuserIdで指定する。
// 省略された場合はセッションのユーザーを対象とする。
// PUT /update-profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sessionUserID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	targetID := req.UserID
	if targetID == "" {
		targetID = sessionUserID
	}

	user, err := h.service.UpdateProfile(r.Context(), targetID, model.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
		Image: req.Image,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Message: "プロフィールを更新しました。",
		User:    toUserResponse(user),
	})
}
