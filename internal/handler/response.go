// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/mailcal/internal/middleware"
	"github.com/hitoshi/mailcal/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Image: user.Image,
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// newInvalidRequestError はリクエストボディ解析失敗時のエラーを生成する。
func newInvalidRequestError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// handleServiceError はサービス層のエラーをHTTPステータスに対応付けて書き込む。
// APIError以外のエラーは詳細をログのみに記録し、500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		slog.Error("unexpected service error", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	status := http.StatusInternalServerError
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case model.ErrCodeUserNotFound:
		status = http.StatusNotFound
	case model.ErrCodeMissingProviderGrant:
		status = http.StatusBadRequest
	case model.ErrCodeInvalidRange:
		status = http.StatusUnprocessableEntity
	case model.ErrCodeEmptyMessage:
		status = http.StatusBadRequest
	case model.ErrCodeInvalidProfile:
		status = http.StatusBadRequest
	case model.ErrCodeProviderFailure:
		status = http.StatusInternalServerError
	case model.ErrCodeExtractionFailed:
		status = http.StatusBadGateway
	}

	middleware.WriteErrorResponse(w, status, apiErr)
}
