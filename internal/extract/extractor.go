package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/mailcal/internal/model"
)

// Extractor は自由テキストからのイベント抽出の契約。
// 生成AI抽出とヒューリスティック抽出が同じ契約を実装する。
type Extractor interface {
	Extract(ctx context.Context, text string) (*model.ExtractedEvent, error)
}

// HeuristicExtractor はExtractDraftをExtractor契約に適合させる。
// 外部呼び出しを行わない完全にテスト可能なフォールバック経路。
type HeuristicExtractor struct{}

// NewHeuristicExtractor はHeuristicExtractorを生成する。
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

// Extract はヒューリスティック抽出を実行する。
// 一致しない場合はEXTRACTION_FAILEDエラーを返す。
func (e *HeuristicExtractor) Extract(_ context.Context, text string) (*model.ExtractedEvent, error) {
	draft := ExtractDraft(Input{Body: text})
	if draft == nil {
		return nil, model.NewExtractionFailedError()
	}

	return &model.ExtractedEvent{
		Title:       draft.Summary,
		Description: draft.Description,
		StartTime:   draft.Start.Format(time.RFC3339),
		EndTime:     draft.End.Format(time.RFC3339),
		Location:    draft.Location,
		Priority:    "medium",
		Type:        "meeting",
		TimeZone:    "UTC",
	}, nil
}

// Recorder は抽出結果のメトリクス記録インターフェース。
type Recorder interface {
	RecordExtractionHit(source string)
	RecordExtractionMiss(source string)
}

type nopRecorder struct{}

func (nopRecorder) RecordExtractionHit(string)  {}
func (nopRecorder) RecordExtractionMiss(string) {}

// Chain は生成AI抽出を優先し、失敗時にフォールバックへ委譲する。
// primaryがnilの場合は常にfallbackを使う。
type Chain struct {
	primary  Extractor
	fallback Extractor
	recorder Recorder
}

// NewChain はChainを生成する。
func NewChain(primary, fallback Extractor, recorder Recorder) *Chain {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Chain{primary: primary, fallback: fallback, recorder: recorder}
}

// Extract は優先抽出器を試し、失敗した場合のみフォールバックを実行する。
func (c *Chain) Extract(ctx context.Context, text string) (*model.ExtractedEvent, error) {
	if c.primary != nil {
		event, err := c.primary.Extract(ctx, text)
		if err == nil {
			c.recorder.RecordExtractionHit("primary")
			return event, nil
		}
		c.recorder.RecordExtractionMiss("primary")
		slog.Warn("primary extractor failed, falling back",
			slog.String("error", err.Error()),
		)
	}

	event, err := c.fallback.Extract(ctx, text)
	if err != nil {
		c.recorder.RecordExtractionMiss("fallback")
		return nil, err
	}
	c.recorder.RecordExtractionHit("fallback")
	return event, nil
}

// compile-time interface checks
var (
	_ Extractor = (*HeuristicExtractor)(nil)
	_ Extractor = (*Chain)(nil)
)
