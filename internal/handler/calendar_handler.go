package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/mailcal/internal/middleware"
	"github.com/hitoshi/mailcal/internal/model"
)

// CalendarServiceInterface はカレンダーハンドラーが必要とするサービスインターフェース。
type CalendarServiceInterface interface {
	// ListEvents は既定の時間窓のイベントを開始時刻昇順で返す。
	ListEvents(ctx context.Context, userID string, maxResults int64) ([]*model.Event, error)
	// InsertEvent はドラフトを検証してからプロバイダーに登録する。
	InsertEvent(ctx context.Context, userID string, draft *model.EventDraft) (*model.Event, error)
}

// CalendarHandler はカレンダープロキシのHTTPハンドラー。
type CalendarHandler struct {
	service CalendarServiceInterface
}

// NewCalendarHandler はCalendarHandlerを生成する。
func NewCalendarHandler(service CalendarServiceInterface) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// createEventRequest はイベント登録リクエストのボディ。
// start / end はRFC3339形式。
type createEventRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Location    string `json:"location"`
}

// listEventsResponse はイベント一覧のレスポンス。
type listEventsResponse struct {
	Message string         `json:"message"`
	Events  []*model.Event `json:"events"`
}

// eventResponse は単一イベントのレスポンス。
type eventResponse struct {
	Message string       `json:"message"`
	Event   *model.Event `json:"event"`
}

// ListEvents はカレンダーイベント一覧を取得する。
// GET /calendar/events?maxResults=N
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var maxResults int64
	if raw := r.URL.Query().Get("maxResults"); raw != "" {
		// 数値として解釈できない場合は既定値に任せる
		maxResults, _ = strconv.ParseInt(raw, 10, 64)
	}

	events, err := h.service.ListEvents(r.Context(), userID, maxResults)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if events == nil {
		events = []*model.Event{}
	}

	writeJSON(w, http.StatusOK, listEventsResponse{
		Message: "イベントを取得しました。",
		Events:  events,
	})
}

// CreateEvent はカレンダーイベントを登録する。
// POST /calendar/events
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	start, err1 := time.Parse(time.RFC3339, req.Start)
	end, err2 := time.Parse(time.RFC3339, req.End)
	if err1 != nil || err2 != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "開始・終了時刻の形式が不正です。",
			Category: "validation",
			Action:   "RFC3339形式（例: 2025-03-10T14:30:00Z）で指定してください。",
		})
		return
	}

	event, err := h.service.InsertEvent(r.Context(), userID, &model.EventDraft{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       start,
		End:         end,
		Location:    req.Location,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, eventResponse{
		Message: "イベントを登録しました。",
		Event:   event,
	})
}
