package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/hitoshi/mailcal/internal/model"
)

// primaryCalendarID は操作対象のカレンダー。常にログインユーザーのプライマリを使う。
const primaryCalendarID = "primary"

// GoogleCalendarClient はGoogle Calendar APIのクライアント。
// アクセストークンは呼び出しごとに受け取り、リクエスト単位のサービスハンドルを
// 構築する。共有クライアントの資格情報を変異させない。
type GoogleCalendarClient struct {
	endpoint string // テスト用にオーバーライド可能なエンドポイント
}

// NewGoogleCalendarClient はGoogleCalendarClientを生成する。
func NewGoogleCalendarClient() *GoogleCalendarClient {
	return &GoogleCalendarClient{}
}

// newService は指定アクセストークンのみを持つリクエスト単位のサービスを構築する。
func (c *GoogleCalendarClient) newService(ctx context.Context, accessToken string) (*calendar.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

// ListEvents は指定期間のイベントを開始時刻昇順で取得する。
func (c *GoogleCalendarClient) ListEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time, maxResults int64) ([]*model.Event, error) {
	svc, err := c.newService(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Events.List(primaryCalendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]*model.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, toModelEvent(item))
	}
	return events, nil
}

// InsertEvent はドラフトをプライマリカレンダーに登録する。
func (c *GoogleCalendarClient) InsertEvent(ctx context.Context, accessToken string, draft *model.EventDraft) (*model.Event, error) {
	svc, err := c.newService(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	created, err := svc.Events.Insert(primaryCalendarID, &calendar.Event{
		Summary:     draft.Summary,
		Description: draft.Description,
		Location:    draft.Location,
		Start: &calendar.EventDateTime{
			DateTime: draft.Start.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: draft.End.Format(time.RFC3339),
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	return toModelEvent(created), nil
}

// toModelEvent はGoogle APIのイベントをドメインモデルに変換する。
// 終日イベントは日付のみを保持するため、DateTimeが空の場合はDateを使う。
func toModelEvent(item *calendar.Event) *model.Event {
	e := &model.Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      item.Status,
		HTMLLink:    item.HtmlLink,
	}
	if item.Start != nil {
		e.Start = item.Start.DateTime
		if e.Start == "" {
			e.Start = item.Start.Date
		}
	}
	if item.End != nil {
		e.End = item.End.DateTime
		if e.End == "" {
			e.End = item.End.Date
		}
	}
	return e
}

// compile-time interface check
var _ CalendarClient = (*GoogleCalendarClient)(nil)
