// Package provider はトークンゲート付きのプロバイダープロキシを提供する。
// セッションで解決したユーザーの保存済みアクセストークンを使い、
// カレンダー・メールのAPI呼び出しを仲介する。
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/mailcal/internal/model"
	"github.com/hitoshi/mailcal/internal/repository"
)

const (
	// windowPastDays / windowFutureDays は一覧取得の既定の時間窓。
	// 無制限になりうるプロバイダークエリを有界に保つ。
	windowPastDays   = 30
	windowFutureDays = 90

	// maxResultsCeiling はプロバイダーが公表する1回あたりの取得上限。
	maxResultsCeiling = 2500

	// defaultTimeout は外部呼び出しの既定タイムアウト。
	defaultTimeout = 10 * time.Second
)

// CalendarClient はカレンダープロバイダーのインターフェース。
type CalendarClient interface {
	// ListEvents は指定期間のイベントを開始時刻昇順で取得する。
	ListEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time, maxResults int64) ([]*model.Event, error)
	// InsertEvent はドラフトを登録する。
	InsertEvent(ctx context.Context, accessToken string, draft *model.EventDraft) (*model.Event, error)
}

// GmailClient はメールプロバイダーの読み取り専用インターフェース。
type GmailClient interface {
	// SearchMessages はクエリに一致するメッセージの要約一覧を取得する。
	SearchMessages(ctx context.Context, accessToken, query string, limit int64) ([]model.MessageSummary, error)
	// GetMessage は指定IDのメッセージ全文を取得する。
	GetMessage(ctx context.Context, accessToken, id string) (*model.Message, error)
}

// Recorder はプロバイダー呼び出しのメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type Recorder interface {
	RecordProviderCall(operation string, err error)
	RecordProviderLatency(operation string, duration time.Duration)
}

// nopRecorder はメトリクス未設定時に使用する。
type nopRecorder struct{}

func (nopRecorder) RecordProviderCall(string, error)            {}
func (nopRecorder) RecordProviderLatency(string, time.Duration) {}

// Service はプロバイダープロキシの本体。
// 全操作はGoogleアクセストークンを保持する解決済みユーザーを要求する。
type Service struct {
	userRepo repository.UserRepository
	calendar CalendarClient
	gmail    GmailClient
	recorder Recorder
	timeout  time.Duration
}

// NewService はServiceを生成する。timeoutが0以下の場合は既定値を使用する。
func NewService(userRepo repository.UserRepository, calendar CalendarClient, gmail GmailClient, recorder Recorder, timeout time.Duration) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		userRepo: userRepo,
		calendar: calendar,
		gmail:    gmail,
		recorder: recorder,
		timeout:  timeout,
	}
}

// resolveGrant はユーザーIDから保存済みアクセストークンを解決する。
// ユーザー不在はUSER_NOT_FOUND、トークン未保持はMISSING_PROVIDER_GRANTになる。
func (s *Service) resolveGrant(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", model.NewUserNotFoundError()
	}
	if !user.HasProviderGrant() {
		return "", model.NewMissingProviderGrantError()
	}
	return user.ProviderToken, nil
}

// call は1回の外部呼び出しをタイムアウト・ログ・メトリクス付きで実行する。
// トークンはログに出力しない。
func (s *Service) call(ctx context.Context, userID, operation string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	slog.Info("provider call",
		slog.String("operation", operation),
		slog.String("user_id", userID),
	)

	start := time.Now()
	err := fn(callCtx)
	s.recorder.RecordProviderLatency(operation, time.Since(start))
	s.recorder.RecordProviderCall(operation, err)

	if err != nil {
		slog.Error("provider call failed",
			slog.String("operation", operation),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return err
}

// ListEvents は既定の時間窓（過去30日〜先90日）のイベントを開始時刻昇順で返す。
// maxResultsは[1, 2500]にクランプされる。0以下の場合は上限値を使う。
func (s *Service) ListEvents(ctx context.Context, userID string, maxResults int64) ([]*model.Event, error) {
	grant, err := s.resolveGrant(ctx, userID)
	if err != nil {
		return nil, err
	}

	if maxResults <= 0 || maxResults > maxResultsCeiling {
		maxResults = maxResultsCeiling
	}

	now := time.Now()
	timeMin := now.AddDate(0, 0, -windowPastDays)
	timeMax := now.AddDate(0, 0, windowFutureDays)

	var events []*model.Event
	err = s.call(ctx, userID, "calendar.list", func(ctx context.Context) error {
		var callErr error
		events, callErr = s.calendar.ListEvents(ctx, grant, timeMin, timeMax, maxResults)
		return callErr
	})
	if err != nil {
		return nil, model.NewProviderFailureError(err.Error())
	}
	return events, nil
}

// ListEventsBetween は指定区間のイベントを返す。重複チェックで使用する。
func (s *Service) ListEventsBetween(ctx context.Context, userID string, timeMin, timeMax time.Time) ([]*model.Event, error) {
	grant, err := s.resolveGrant(ctx, userID)
	if err != nil {
		return nil, err
	}

	var events []*model.Event
	err = s.call(ctx, userID, "calendar.list", func(ctx context.Context) error {
		var callErr error
		events, callErr = s.calendar.ListEvents(ctx, grant, timeMin, timeMax, maxResultsCeiling)
		return callErr
	})
	if err != nil {
		return nil, model.NewProviderFailureError(err.Error())
	}
	return events, nil
}

// InsertEvent はドラフトを検証してからプロバイダーに登録する。
// end <= start のドラフトは外部呼び出し前にINVALID_RANGEで拒否する。
func (s *Service) InsertEvent(ctx context.Context, userID string, draft *model.EventDraft) (*model.Event, error) {
	if !draft.End.After(draft.Start) {
		return nil, model.NewInvalidRangeError()
	}

	grant, err := s.resolveGrant(ctx, userID)
	if err != nil {
		return nil, err
	}

	var event *model.Event
	err = s.call(ctx, userID, "calendar.insert", func(ctx context.Context) error {
		var callErr error
		event, callErr = s.calendar.InsertEvent(ctx, grant, draft)
		return callErr
	})
	if err != nil {
		return nil, model.NewProviderFailureError(err.Error())
	}
	return event, nil
}

// SearchMessages はクエリに一致するメッセージの要約一覧を返す。
func (s *Service) SearchMessages(ctx context.Context, userID, query string, limit int64) ([]model.MessageSummary, error) {
	grant, err := s.resolveGrant(ctx, userID)
	if err != nil {
		return nil, err
	}

	var summaries []model.MessageSummary
	err = s.call(ctx, userID, "gmail.search", func(ctx context.Context) error {
		var callErr error
		summaries, callErr = s.gmail.SearchMessages(ctx, grant, query, limit)
		return callErr
	})
	if err != nil {
		return nil, model.NewProviderFailureError(err.Error())
	}
	return summaries, nil
}

// GetMessage は指定IDのメッセージ全文を返す。
func (s *Service) GetMessage(ctx context.Context, userID, id string) (*model.Message, error) {
	grant, err := s.resolveGrant(ctx, userID)
	if err != nil {
		return nil, err
	}

	var message *model.Message
	err = s.call(ctx, userID, "gmail.get", func(ctx context.Context) error {
		var callErr error
		message, callErr = s.gmail.GetMessage(ctx, grant, id)
		return callErr
	})
	if err != nil {
		return nil, model.NewProviderFailureError(err.Error())
	}
	return message, nil
}
