package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/mailcal/internal/middleware"
	"github.com/hitoshi/mailcal/internal/model"
)

// ExtractorInterface は抽出ハンドラーが必要とする抽出インターフェース。
type ExtractorInterface interface {
	Extract(ctx context.Context, text string) (*model.ExtractedEvent, error)
}

// ExtractHandler は自由テキストからのイベント抽出のHTTPハンドラー。
type ExtractHandler struct {
	extractor ExtractorInterface
}

// NewExtractHandler はExtractHandlerを生成する。
func NewExtractHandler(extractor ExtractorInterface) *ExtractHandler {
	return &ExtractHandler{extractor: extractor}
}

// extractRequest は抽出リクエストのボディ。
type extractRequest struct {
	Message string `json:"message"`
}

// extractResponse は抽出成功時のレスポンス。
type extractResponse struct {
	Message string                `json:"message"`
	Event   *model.ExtractedEvent `json:"event"`
}

// Extract はメッセージテキストからイベント情報を抽出する。
// POST /extract-event
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewEmptyMessageError())
		return
	}

	event, err := h.extractor.Extract(r.Context(), req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{
		Message: "イベント情報を抽出しました。",
		Event:   event,
	})
}
