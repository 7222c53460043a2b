package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/pinkpulse/internal/metrics"
	"github.com/hitoshi/pinkpulse/internal/middleware"
)

// MaxRequestBodyBytes はリクエストボディの上限サイズ（1 MiB）。
const MaxRequestBodyBytes = 1 << 20

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	TrustProxy        bool
	RateLimiter       *middleware.RateLimiter
	Metrics           *metrics.Collector
	MetricsHandler    http.Handler

	// 認証
	AuthService       AuthServiceInterface
	TokenVerifier     middleware.TokenVerifier
	ClinicRequireAuth bool

	// クリニック
	ClinicService ClinicServiceInterface

	// ヘルスチェック
	HealthChecker HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → (RealIP) → Logging → Metrics → Recovery → SecurityHeaders → CORS
//	  → RateLimit → RequestSize → (BearerAuth)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RequestID)
	if deps.TrustProxy {
		// X-Forwarded-For / X-Real-IP を信頼するのはリバースプロキシ配下のみ
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewLoggingMiddleware(logger))
	// Recoveryより外側に置く（パニック時の500も記録対象）
	if deps.Metrics != nil {
		r.Use(metrics.NewHTTPMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	healthHandler := NewHealthHandler(deps.HealthChecker)
	authHandler := NewAuthHandler(deps.AuthService)
	clinicHandler := NewClinicHandler(deps.ClinicService)

	// --- 運用エンドポイント ---
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- API ---
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}
		r.Use(chimw.RequestSize(MaxRequestBodyBytes))

		r.Post("/signup", authHandler.Signup)
		r.Post("/signin", authHandler.Signin)

		if deps.ClinicRequireAuth {
			var events middleware.TokenEventRecorder
			if deps.Metrics != nil {
				events = deps.Metrics
			}
			r.With(middleware.NewBearerAuthMiddleware(deps.TokenVerifier, events)).
				Get("/api/clinic/GetData", clinicHandler.GetData)
		} else {
			r.Get("/api/clinic/GetData", clinicHandler.GetData)
		}
	})

	return r
}
