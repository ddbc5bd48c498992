package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/eventman/internal/middleware"
)

// DBPinger はヘルスチェックで使用するデータベース疎通確認のインターフェース。
// *sql.DBがこれを満たす。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	TokenVerifier     middleware.TokenVerifier
	RateLimiter       *middleware.RateLimiter

	// サービス
	EventService  EventServiceInterface
	NotifyService NotifyServiceInterface
	ReportService ReportServiceInterface
	UserService   UserServiceInterface

	// 運用系
	DB             DBPinger
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → (保護ルートのみ BearerAuth → RateLimit)
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	eventHandler := NewEventHandler(deps.EventService, deps.NotifyService, deps.ReportService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Route("/event", func(r chi.Router) {
		r.Post("/add", eventHandler.Create)
		r.Get("/get", eventHandler.List)
		r.Put("/update/{id}", eventHandler.Update)
		r.Delete("/delete/{id}", eventHandler.Delete)
		r.Post("/{id}/notify", eventHandler.Notify)

		// --- ベアラー認証が必要なルート ---
		// ミドルウェアスタック: BearerAuth → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewBearerAuthMiddleware(deps.TokenVerifier))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			// POST /event/register/{id} - 参加登録（登録専用レート制限を追加）
			r.With(deps.RateLimiter.RegistrationMiddleware()).Post("/register/{id}", eventHandler.Register)

			r.Post("/{id}/feedback", eventHandler.SubmitFeedback)
			r.Post("/report/{id}", eventHandler.GenerateReport)
		})
	})

	// ユーザー登録・サインイン
	r.Route("/user", func(r chi.Router) {
		r.Post("/signup", userHandler.Signup)
		r.Post("/signin", userHandler.Signin)
	})

	// ヘルスチェック
	r.Get("/health", healthHandler(deps.DB))

	// Prometheusスクレイプ
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	return r
}

// healthHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(db DBPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
