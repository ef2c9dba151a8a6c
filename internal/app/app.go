// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/restoease/restoease/internal/config"
	"github.com/restoease/restoease/internal/content"
	"github.com/restoease/restoease/internal/dashboard"
	"github.com/restoease/restoease/internal/food"
	"github.com/restoease/restoease/internal/handler"
	"github.com/restoease/restoease/internal/identity"
	"github.com/restoease/restoease/internal/logger"
	"github.com/restoease/restoease/internal/metrics"
	"github.com/restoease/restoease/internal/middleware"
	"github.com/restoease/restoease/internal/order"
	"github.com/restoease/restoease/internal/profile"
	"github.com/restoease/restoease/internal/remote"
	"github.com/restoease/restoease/internal/security"
	"github.com/restoease/restoease/internal/session"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// 永続ストアは持たない（永続化はリモートAPI、認証はIDプロバイダーに委譲）。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. IDプロバイダークライアントの初期化
	providerClient := identity.NewClient(identity.ClientConfig{
		APIKey:          cfg.IdentityAPIKey,
		IdentityBaseURL: cfg.IdentityBaseURL,
		TokenBaseURL:    cfg.TokenBaseURL,
	}, &http.Client{Timeout: cfg.RequestTimeout})

	oauthProvider := identity.NewGoogleOAuthProvider(identity.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})

	// 3. リモートAPIクライアントの初期化
	apiClient := remote.NewClient(remote.Config{
		BaseURL: cfg.RemoteAPIURL,
		Timeout: cfg.RequestTimeout,
	}, providerClient, collector, slog.Default())

	// 4. セッションストアとマネージャーの初期化
	store := session.NewStore(5 * time.Minute)
	defer store.Stop()

	profileService := profile.NewService(apiClient)
	sessionManager := session.NewManager(
		providerClient, oauthProvider, profileService, store,
		session.ManagerConfig{SessionMaxAge: cfg.SessionMaxAge},
	)

	// 5. セキュリティサービスの初期化
	urlGuard := security.NewImageURLGuard()
	sanitizer := security.NewDescriptionSanitizer()

	// 6. ドメインサービスの初期化
	foodService := food.NewService(apiClient, urlGuard, sanitizer)
	orderService := order.NewService(apiClient, foodService, slog.Default())
	dashboardService := dashboard.NewService(foodService, orderService)
	contentService := content.NewService(apiClient)

	// 7. レートリミッターの構築（req/min -> req/sec に変換）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitOrder > 0 {
		rateLimiterCfg.OrderRate = rate.Limit(float64(cfg.RateLimitOrder) / 60.0)
		rateLimiterCfg.OrderBurst = cfg.RateLimitOrder
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 8. ルーターの構築
	deps := &handler.RouterDeps{
		SessionFinder:     store,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter: rateLimiter,
		Logger:      slog.Default(),

		AuthManager: sessionManager,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			RedirectURL:   cfg.GoogleRedirectURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		FoodService:      foodService,
		OrderService:     orderService,
		DashboardService: dashboardService,
		ContentService:   contentService,

		Metrics:        collector,
		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
