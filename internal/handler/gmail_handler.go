package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mailcal/internal/middleware"
	"github.com/hitoshi/mailcal/internal/model"
)

// ImportServiceInterface は取り込みハンドラーが必要とするサービスインターフェース。
type ImportServiceInterface interface {
	// ImportEvents はイベント関連メッセージから抽出したイベントを登録する。
	ImportEvents(ctx context.Context, userID string) ([]*model.Event, error)
}

// GmailHandler はメール取り込みのHTTPハンドラー。
type GmailHandler struct {
	service ImportServiceInterface
}

// NewGmailHandler はGmailHandlerを生成する。
func NewGmailHandler(service ImportServiceInterface) *GmailHandler {
	return &GmailHandler{service: service}
}

// ImportEvents はメールからのイベント取り込みを実行し、登録したイベントを返す。
// GET /gmail/events
func (h *GmailHandler) ImportEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	events, err := h.service.ImportEvents(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if events == nil {
		events = []*model.Event{}
	}

	writeJSON(w, http.StatusOK, listEventsResponse{
		Message: "メールからイベントを取り込みました。",
		Events:  events,
	})
}
