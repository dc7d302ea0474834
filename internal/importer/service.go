// Package importer はメールからのイベント一括取り込みを提供する。
// メッセージ検索・抽出・重複チェック・登録を厳密に逐次で実行する。
package importer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/mailcal/internal/extract"
	"github.com/hitoshi/mailcal/internal/model"
)

const (
	// importQuery は取り込み対象メッセージの検索クエリ。
	importQuery = "subject:(invite OR reservation OR flight OR meeting) -is:chat"

	// importSearchLimit は1回の取り込みで処理するメッセージの上限。
	importSearchLimit = 50

	// dedupWindow は重複チェックで既存イベントを照会する前後幅。
	dedupWindow = 24 * time.Hour
)

// ProviderService は取り込みが必要とするプロバイダー操作の部分集合。
type ProviderService interface {
	SearchMessages(ctx context.Context, userID, query string, limit int64) ([]model.MessageSummary, error)
	GetMessage(ctx context.Context, userID, id string) (*model.Message, error)
	ListEventsBetween(ctx context.Context, userID string, timeMin, timeMax time.Time) ([]*model.Event, error)
	InsertEvent(ctx context.Context, userID string, draft *model.EventDraft) (*model.Event, error)
}

// Recorder は取り込み結果のメトリクス記録インターフェース。
type Recorder interface {
	RecordEventImported()
	RecordDuplicateSkipped()
}

type nopRecorder struct{}

func (nopRecorder) RecordEventImported()    {}
func (nopRecorder) RecordDuplicateSkipped() {}

// Service はメール取り込みの本体。
type Service struct {
	provider ProviderService
	recorder Recorder
}

// NewService はServiceを生成する。
func NewService(provider ProviderService, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{provider: provider, recorder: recorder}
}

// ImportEvents はイベント関連メッセージを検索し、抽出できたイベントを登録する。
// メッセージは検索結果の順に1件ずつ処理し、前のメッセージの登録が完了してから
// 次の重複チェックを行う。登録済みイベントと重複する候補はスキップする。
// 抽出に失敗したメッセージは読み飛ばし、プロバイダー呼び出しの失敗は即座に返す。
func (s *Service) ImportEvents(ctx context.Context, userID string) ([]*model.Event, error) {
	summaries, err := s.provider.SearchMessages(ctx, userID, importQuery, importSearchLimit)
	if err != nil {
		return nil, err
	}

	imported := make([]*model.Event, 0, len(summaries))
	for _, summary := range summaries {
		message, err := s.provider.GetMessage(ctx, userID, summary.ID)
		if err != nil {
			return imported, err
		}

		body := message.Body
		if body == "" {
			body = message.Snippet
		}
		draft := extract.ExtractDraft(extract.Input{
			Subject:    message.Subject,
			Body:       body,
			ReceivedAt: message.ReceivedAt,
		})
		if draft == nil {
			slog.Info("no event extracted from message",
				slog.String("user_id", userID),
				slog.String("message_id", summary.ID),
			)
			continue
		}

		duplicate, err := s.isDuplicate(ctx, userID, draft)
		if err != nil {
			return imported, err
		}
		if duplicate {
			s.recorder.RecordDuplicateSkipped()
			slog.Info("duplicate event skipped",
				slog.String("user_id", userID),
				slog.String("message_id", summary.ID),
			)
			continue
		}

		event, err := s.provider.InsertEvent(ctx, userID, draft)
		if err != nil {
			return imported, err
		}
		s.recorder.RecordEventImported()
		imported = append(imported, event)
	}

	return imported, nil
}

// isDuplicate は候補の前後1日の既存イベントを照会し、
// タイトルが一致しかつ時間帯が重なるイベントの有無を返す。
// タイトルは前後空白を除去した大文字小文字非依存の等価で比較する。
func (s *Service) isDuplicate(ctx context.Context, userID string, draft *model.EventDraft) (bool, error) {
	existing, err := s.provider.ListEventsBetween(ctx, userID, draft.Start.Add(-dedupWindow), draft.End.Add(dedupWindow))
	if err != nil {
		return false, err
	}

	title := normalizeTitle(draft.Summary)
	for _, event := range existing {
		if normalizeTitle(event.Summary) != title {
			continue
		}
		if overlaps(event, draft) {
			return true, nil
		}
	}
	return false, nil
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// overlaps は既存イベントと候補の時間帯が重なるかを返す。
// 既存イベントの時刻が解析できない場合はタイトル一致のみで重複とみなす。
func overlaps(event *model.Event, draft *model.EventDraft) bool {
	start, err1 := time.Parse(time.RFC3339, event.Start)
	end, err2 := time.Parse(time.RFC3339, event.End)
	if err1 != nil || err2 != nil {
		return true
	}
	return start.Before(draft.End) && draft.Start.Before(end)
}
