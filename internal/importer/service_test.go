package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/mailcal/internal/model"
)

// --- モック定義 ---

type mockProvider struct {
	searchMessagesFn    func(ctx context.Context, userID, query string, limit int64) ([]model.MessageSummary, error)
	getMessageFn        func(ctx context.Context, userID, id string) (*model.Message, error)
	listEventsBetweenFn func(ctx context.Context, userID string, timeMin, timeMax time.Time) ([]*model.Event, error)
	insertEventFn       func(ctx context.Context, userID string, draft *model.EventDraft) (*model.Event, error)
	insertCalls         int
}

func (m *mockProvider) SearchMessages(ctx context.Context, userID, query string, limit int64) ([]model.MessageSummary, error) {
	if m.searchMessagesFn != nil {
		return m.searchMessagesFn(ctx, userID, query, limit)
	}
	return nil, nil
}

func (m *mockProvider) GetMessage(ctx context.Context, userID, id string) (*model.Message, error) {
	if m.getMessageFn != nil {
		return m.getMessageFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockProvider) ListEventsBetween(ctx context.Context, userID string, timeMin, timeMax time.Time) ([]*model.Event, error) {
	if m.listEventsBetweenFn != nil {
		return m.listEventsBetweenFn(ctx, userID, timeMin, timeMax)
	}
	return nil, nil
}

func (m *mockProvider) InsertEvent(ctx context.Context, userID string, draft *model.EventDraft) (*model.Event, error) {
	m.insertCalls++
	if m.insertEventFn != nil {
		return m.insertEventFn(ctx, userID, draft)
	}
	return &model.Event{ID: "evt", Summary: draft.Summary}, nil
}

var _ ProviderService = (*mockProvider)(nil)

func summaries(ids ...string) []model.MessageSummary {
	out := make([]model.MessageSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.MessageSummary{ID: id})
	}
	return out
}

// --- テスト ---

// 抽出できたメッセージが登録され、結果が返ることを検証
func TestImportEvents_InsertsExtractedEvents(t *testing.T) {
	p := &mockProvider{
		searchMessagesFn: func(ctx context.Context, userID, query string, limit int64) ([]model.MessageSummary, error) {
			if query != importQuery {
				t.Errorf("query = %q", query)
			}
			return summaries("m-1"), nil
		},
		getMessageFn: func(ctx context.Context, userID, id string) (*model.Message, error) {
			return &model.Message{
				ID:      id,
				Subject: "Team meeting",
				Body:    "Meeting on 3/10/2025 14:30 at Office",
			}, nil
		},
		insertEventFn: func(ctx context.Context, userID string, draft *model.EventDraft) (*model.Event, error) {
			if draft.Summary != "Team meeting" {
				t.Errorf("draft.Summary = %q", draft.Summary)
			}
			return &model.Event{ID: "evt-1", Summary: draft.Summary}, nil
		},
	}
	svc := NewService(p, nil)

	imported, err := svc.ImportEvents(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ImportEvents failed: %v", err)
	}
	if len(imported) != 1 || imported[0].ID != "evt-1" {
		t.Errorf("imported = %+v", imported)
	}
	if p.insertCalls != 1 {
		t.Errorf("insertCalls = %d, want 1", p.insertCalls)
	}
}

// 抽出できないメッセージが読み飛ばされることを検証
func TestImportEvents_SkipsUnextractableMessages(t *testing.T) {
	p := &mockProvider{
		searchMessagesFn: func(ctx context.Context, userID, query string, limit int64) ([]model.MessageSummary, error) {
			return summaries("m-1", "m-2"), nil
		},
		getMessageFn: func(ctx context.Context, userID, id string) (*model.Message, error) {
			if id == "m-1" {
				return &model.Message{ID: id, Subject: "Happy birthday", Body: "cake"}, nil
			}
			return &model.Message{ID: id, Subject: "Flight", Body: "flight on 3/10/2025"}, nil
		},
	}
	svc := NewService(p, nil)

	imported, err := svc.ImportEvents(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ImportEvents failed: %v", err)
	}
	if len(imported) != 1 {
		t.Errorf("len(imported) = %d, want 1", len(imported))
	}
	if p.insertCalls != 1 {
		t.Errorf("insertCalls = %d, want 1", p.insertCalls)
	}
}

// 1回目の登録済みイベントが2回目の重複チェックに反映されることを検証。
// 同一候補を2回処理しても登録は1回だけになる。
func TestImportEvents_DeduplicatesAgainstInsertedEvents(t *testing.T) {
	var inserted []*model.Event
	p := &mockProvider{
		searchMessagesFn: func(ctx context.Context, userID, query string, limit int64) ([]model.MessageSummary, error) {
			return summaries("m-1", "m-2"), nil
		},
		getMessageFn: func(ctx context.Context, userID, id string) (*model.Message, error) {
			return &model.Message{
				ID:      id,
				Subject: "Team meeting",
				Body:    "Meeting on 3/10/2025 14:30 at Office",
			}, nil
		},
		listEventsBetweenFn: func(ctx context.Context, userID string, timeMin, timeMax time.Time) ([]*model.Event, error) {
			return inserted, nil
		},
		insertEventFn: func(ctx context.Context, userID string, draft *model.EventDraft) (*model.Event, error) {
			event := &model.Event{
				ID:      "evt-1",
				Summary: draft.Summary,
				Start:   draft.Start.Format(time.RFC3339),
				End:     draft.End.Format(time.RFC3339),
			}
			inserted = append(inserted, event)
			return event, nil
		},
	}
	svc := NewService(p, nil)

	imported, err := svc.ImportEvents(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ImportEvents failed: %v", err)
	}
	if p.insertCalls != 1 {
		t.Errorf("insertCalls = %d, want exactly 1", p.insertCalls)
	}
	if len(imported) != 1 {
		t.Errorf("len(imported) = %d, want 1", len(imported))
	}
}

// タイトル比較が前後空白と大文字小文字に依存しないことを検証
func TestImportEvents_TitleMatchIsCaseInsensitive(t *testing.T) {
	start := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	p := &mockProvider{
		searchMessagesFn: func(ctx context.Context, userID, query string, limit int64) ([]model.MessageSummary, error) {
			return summaries("m-1"), nil
		},
		getMessageFn: func(ctx context.Context, userID, id string) (*model.Message, error) {
			return &model.Message{ID: id, Subject: "Team Meeting", Body: "Meeting on 3/10/2025 14:30"}, nil
		},
		listEventsBetweenFn: func(ctx context.Context, userID string, timeMin, timeMax time.Time) ([]*model.Event, error) {
			return []*model.Event{{
				ID:      "existing",
				Summary: "  team meeting ",
				Start:   start.Format(time.RFC3339),
				End:     start.Add(time.Hour).Format(time.RFC3339),
			}}, nil
		},
	}
	svc := NewService(p, nil)

	imported, err := svc.ImportEvents(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ImportEvents failed: %v", err)
	}
	if p.insertCalls != 0 {
		t.Errorf("insertCalls = %d, want 0", p.insertCalls)
	}
	if len(imported) != 0 {
		t.Errorf("len(imported) = %d, want 0", len(imported))
	}
}

// タイトルが一致しても時間帯が重ならなければ登録されることを検証
func TestImportEvents_SameTitleDifferentTimeIsNotDuplicate(t *testing.T) {
	otherDay := time.Date(2025, 3, 9, 14, 30, 0, 0, time.UTC)
	p := &mockProvider{
		searchMessagesFn: func(ctx context.Context, userID, query string, limit int64) ([]model.MessageSummary, error) {
			return summaries("m-1"), nil
		},
		getMessageFn: func(ctx context.Context, userID, id string) (*model.Message, error) {
			return &model.Message{ID: id, Subject: "Team meeting", Body: "Meeting on 3/10/2025 14:30"}, nil
		},
		listEventsBetweenFn: func(ctx context.Context, userID string, timeMin, timeMax time.Time) ([]*model.Event, error) {
			return []*model.Event{{
				ID:      "existing",
				Summary: "Team meeting",
				Start:   otherDay.Format(time.RFC3339),
				End:     otherDay.Add(time.Hour).Format(time.RFC3339),
			}}, nil
		},
	}
	svc := NewService(p, nil)

	imported, err := svc.ImportEvents(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ImportEvents failed: %v", err)
	}
	if p.insertCalls != 1 {
		t.Errorf("insertCalls = %d, want 1", p.insertCalls)
	}
	if len(imported) != 1 {
		t.Errorf("len(imported) = %d, want 1", len(imported))
	}
}

// 検索失敗がそのまま返ることを検証
func TestImportEvents_SearchFailure(t *testing.T) {
	wantErr := model.NewProviderFailureError("search failed")
	p := &mockProvider{
		searchMessagesFn: func(ctx context.Context, userID, query string, limit int64) ([]model.MessageSummary, error) {
			return nil, wantErr
		},
	}
	svc := NewService(p, nil)

	_, err := svc.ImportEvents(context.Background(), "user-1")
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

// 途中のプロバイダー失敗で処理が打ち切られ、それまでの結果が返ることを検証
func TestImportEvents_StopsOnMidImportFailure(t *testing.T) {
	p := &mockProvider{
		searchMessagesFn: func(ctx context.Context, userID, query string, limit int64) ([]model.MessageSummary, error) {
			return summaries("m-1", "m-2", "m-3"), nil
		},
		getMessageFn: func(ctx context.Context, userID, id string) (*model.Message, error) {
			if id == "m-2" {
				return nil, model.NewProviderFailureError("gmail unavailable")
			}
			return &model.Message{ID: id, Subject: "Meeting " + id, Body: "meeting on 3/10/2025"}, nil
		},
	}
	svc := NewService(p, nil)

	imported, err := svc.ImportEvents(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(imported) != 1 {
		t.Errorf("len(imported) = %d, want 1 (events imported before the failure)", len(imported))
	}
	if p.insertCalls != 1 {
		t.Errorf("insertCalls = %d, want 1", p.insertCalls)
	}
}
