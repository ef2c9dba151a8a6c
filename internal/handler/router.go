package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/restoease/restoease/internal/middleware"
)

// MetricsRecorderInterface はハンドラー層のメトリクス記録インターフェース。
type MetricsRecorderInterface interface {
	SignInRecorder
	OrderPlacedRecorder
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthManager AuthManagerInterface
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	FoodService      FoodServiceInterface
	OrderService     OrderServiceInterface
	DashboardService DashboardServiceInterface
	ContentService   ContentServiceInterface

	// メトリクス（nil可）
	Metrics        MetricsRecorderInterface
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → CSRF → Session → Logging → RateLimit(General)
//
// セッションミドルウェアは全ルートに適用され、Cookieが有効なら
// コンテキストにセッションを注入する。保護ルートはさらにRouteGuardを通し、
// 未認証アクセスをログイン画面（ページ遷移）または401（API）へ導く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
	r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(deps.RateLimiter.GeneralMiddleware())

	var signInRecorder SignInRecorder
	var orderRecorder OrderPlacedRecorder
	if deps.Metrics != nil {
		signInRecorder = deps.Metrics
		orderRecorder = deps.Metrics
	}

	authHandler := NewAuthHandler(deps.AuthManager, signInRecorder, deps.AuthConfig)
	foodHandler := NewFoodHandler(deps.FoodService)
	orderHandler := NewOrderHandler(deps.OrderService, orderRecorder)
	dashboardHandler := NewDashboardHandler(deps.DashboardService)
	contentHandler := NewContentHandler(deps.ContentService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// 認証フロー
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
		r.Get("/google/login", authHandler.GoogleLogin)
		r.Get("/google/callback", authHandler.GoogleCallback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// 公開コンテンツ（未ログインでも閲覧可能）
	r.Get("/api/foods", foodHandler.ListFoods)
	r.Get("/api/foods/top", foodHandler.TopFoods)
	r.Get("/api/slides", contentHandler.Slides)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRouteGuard())

		// マイページ集計
		r.Get("/api/dashboard", dashboardHandler.Overview)

		// フード管理
		r.Get("/api/foods/mine", foodHandler.MyFoods)
		r.Post("/api/foods", foodHandler.CreateFood)
		r.Put("/api/foods/{id}", foodHandler.UpdateFood)
		r.Delete("/api/foods/{id}", foodHandler.DeleteFood)

		// 注文管理
		r.Get("/api/orders/mine", orderHandler.MyOrders)
		// POST /api/orders - 注文確定（専用レート制限を追加）
		r.With(deps.RateLimiter.OrderMiddleware()).Post("/api/orders", orderHandler.PlaceOrder)
		r.Delete("/api/orders/{id}", orderHandler.DeleteOrder)
	})

	// フード詳細は保護ルートのあとに登録する（/api/foods/top, /api/foods/mineが優先される）
	r.Get("/api/foods/{id}", foodHandler.GetFood)

	return r
}
