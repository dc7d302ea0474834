package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/mailcal/internal/metrics"
	"github.com/hitoshi/mailcal/internal/middleware"
)

// Pinger はヘルスチェックが必要とするデータベース接続の部分集合。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenValidator    middleware.TokenValidator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// サービス
	AuthService     AuthServiceInterface
	AuthConfig      AuthHandlerConfig
	CalendarService CalendarServiceInterface
	UserService     UserServiceInterface
	ImportService   ImportServiceInterface
	Extractor       ExtractorInterface

	// 運用
	DB       Pinger
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → RecoveryMiddleware → LoggingMiddleware
//	→（保護ルートのみ）SessionMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// /login、/health、/metricsはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	calendarHandler := NewCalendarHandler(deps.CalendarService)
	userHandler := NewUserHandler(deps.UserService)
	gmailHandler := NewGmailHandler(deps.ImportService)
	extractHandler := NewExtractHandler(deps.Extractor)

	// --- 認証不要のルート ---

	r.Post("/login", authHandler.Login)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB != nil {
			if err := deps.DB.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.TokenValidator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// カレンダープロキシ
		r.Route("/calendar/events", func(r chi.Router) {
			r.Get("/", calendarHandler.ListEvents)
			r.Post("/", calendarHandler.CreateEvent)
		})

		// プロフィール管理
		r.Put("/update-profile", userHandler.UpdateProfile)

		// メール取り込み（取り込み専用レート制限を追加）
		r.With(deps.RateLimiter.ImportMiddleware()).Get("/gmail/events", gmailHandler.ImportEvents)

		// イベント抽出
		r.Post("/extract-event", extractHandler.Extract)
	})

	return r
}
