package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/mailcal/internal/model"
)

type mockExtractor struct {
	extractFn func(ctx context.Context, text string) (*model.ExtractedEvent, error)
	calls     int
}

func (m *mockExtractor) Extract(ctx context.Context, text string) (*model.ExtractedEvent, error) {
	m.calls++
	if m.extractFn != nil {
		return m.extractFn(ctx, text)
	}
	return nil, nil
}

var _ Extractor = (*mockExtractor)(nil)

// ヒューリスティック抽出器が契約に沿って抽出することを検証
func TestHeuristicExtractor_Extract(t *testing.T) {
	e := NewHeuristicExtractor()

	event, err := e.Extract(context.Background(), "Meeting on 3/10/2025 14:30 at Office")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if event.StartTime != "2025-03-10T14:30:00Z" {
		t.Errorf("StartTime = %q", event.StartTime)
	}
	if event.Priority != "medium" || event.Type != "meeting" || event.TimeZone != "UTC" {
		t.Errorf("defaults = %q/%q/%q", event.Priority, event.Type, event.TimeZone)
	}
}

// 一致しない入力でEXTRACTION_FAILEDになることを検証
func TestHeuristicExtractor_Extract_NoMatch(t *testing.T) {
	e := NewHeuristicExtractor()

	_, err := e.Extract(context.Background(), "happy birthday")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeExtractionFailed {
		t.Errorf("err = %v, want EXTRACTION_FAILED", err)
	}
}

// 優先抽出器の成功時にフォールバックが呼ばれないことを検証
func TestChain_PrimarySucceeds(t *testing.T) {
	primary := &mockExtractor{
		extractFn: func(ctx context.Context, text string) (*model.ExtractedEvent, error) {
			return &model.ExtractedEvent{Title: "from primary"}, nil
		},
	}
	fallback := &mockExtractor{}
	chain := NewChain(primary, fallback, nil)

	event, err := chain.Extract(context.Background(), "meeting tomorrow")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if event.Title != "from primary" {
		t.Errorf("Title = %q", event.Title)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback.calls = %d, want 0", fallback.calls)
	}
}

// 優先抽出器の失敗時にフォールバックへ委譲することを検証
func TestChain_FallsBackOnPrimaryFailure(t *testing.T) {
	primary := &mockExtractor{
		extractFn: func(ctx context.Context, text string) (*model.ExtractedEvent, error) {
			return nil, errors.New("gemini returned status 429")
		},
	}
	fallback := &mockExtractor{
		extractFn: func(ctx context.Context, text string) (*model.ExtractedEvent, error) {
			return &model.ExtractedEvent{Title: "from fallback"}, nil
		},
	}
	chain := NewChain(primary, fallback, nil)

	event, err := chain.Extract(context.Background(), "meeting tomorrow")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if event.Title != "from fallback" {
		t.Errorf("Title = %q", event.Title)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, fallback.calls)
	}
}

// 優先抽出器がnilの場合に常にフォールバックが使われることを検証
func TestChain_NilPrimary(t *testing.T) {
	fallback := &mockExtractor{
		extractFn: func(ctx context.Context, text string) (*model.ExtractedEvent, error) {
			return &model.ExtractedEvent{Title: "from fallback"}, nil
		},
	}
	chain := NewChain(nil, fallback, nil)

	event, err := chain.Extract(context.Background(), "meeting tomorrow")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if event.Title != "from fallback" {
		t.Errorf("Title = %q", event.Title)
	}
}

// 両方の抽出器が失敗した場合にエラーが返ることを検証
func TestChain_BothFail(t *testing.T) {
	failing := func(ctx context.Context, text string) (*model.ExtractedEvent, error) {
		return nil, model.NewExtractionFailedError()
	}
	chain := NewChain(&mockExtractor{extractFn: failing}, &mockExtractor{extractFn: failing}, nil)

	_, err := chain.Extract(context.Background(), "happy birthday")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeExtractionFailed {
		t.Errorf("err = %v, want EXTRACTION_FAILED", err)
	}
}
