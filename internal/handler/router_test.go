package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/restoease/restoease/internal/middleware"
	"github.com/restoease/restoease/internal/model"
)

// --- モック定義 ---

type mockRouterSessionFinder struct {
	sessions map[string]*model.Session
}

func (m *mockRouterSessionFinder) Find(id string) *model.Session {
	return m.sessions[id]
}

type mockDashboardService struct {
	overviewFn func(ctx context.Context, email string) (*model.DashboardSummary, error)
}

func (m *mockDashboardService) Overview(ctx context.Context, email string) (*model.DashboardSummary, error) {
	if m.overviewFn != nil {
		return m.overviewFn(ctx, email)
	}
	return &model.DashboardSummary{}, nil
}

type mockContentService struct {
	slidesFn func(ctx context.Context) ([]model.Slide, error)
}

func (m *mockContentService) Slides(ctx context.Context) ([]model.Slide, error) {
	if m.slidesFn != nil {
		return m.slidesFn(ctx)
	}
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(1000),
		GeneralBurst:    1000,
		OrderRate:       rate.Limit(1000),
		OrderBurst:      1000,
		CleanupInterval: time.Minute,
	})

	finder := &mockRouterSessionFinder{
		sessions: map[string]*model.Session{
			"valid-session": {
				ID: "valid-session",
				Identity: model.Identity{
					UID:         "uid-1",
					DisplayName: "テスト太郎",
					Email:       "user@example.com",
				},
				ExpiresAt: time.Now().Add(time.Hour),
			},
		},
	}

	router := NewRouter(&RouterDeps{
		SessionFinder:    finder,
		RateLimiter:      rl,
		AuthManager:      &mockAuthManager{},
		AuthConfig:       testAuthConfig(),
		FoodService:      &mockFoodService{},
		OrderService:     &mockOrderService{},
		DashboardService: &mockDashboardService{},
		ContentService:   &mockContentService{},
	})

	return router, rl.Stop
}

// --- テスト ---

func TestRouter_Health_Public(t *testing.T) {
	router, stop := newTestRouter(t)
	defer stop()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Result().StatusCode)
	}
}

func TestRouter_PublicFoodList_NoSessionRequired(t *testing.T) {
	router, stop := newTestRouter(t)
	defer stop()

	req := httptest.NewRequest(http.MethodGet, "/api/foods", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Result().StatusCode)
	}
}

func TestRouter_ProtectedRoute_NoSession_Returns401(t *testing.T) {
	router, stop := newTestRouter(t)
	defer stop()

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Result().StatusCode)
	}
}

func TestRouter_ProtectedRoute_PageNavigation_RedirectsToLogin(t *testing.T) {
	router, stop := newTestRouter(t)
	defer stop()

	req := httptest.NewRequest(http.MethodGet, "/api/foods/mine", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/auth/login?from=%2Fapi%2Ffoods%2Fmine" {
		t.Errorf("Location = %q", loc)
	}
}

func TestRouter_ProtectedRoute_WithSession_Succeeds(t *testing.T) {
	router, stop := newTestRouter(t)
	defer stop()

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "valid-session"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Result().StatusCode)
	}
}

// /api/foods/top は詳細ルートより先にマッチする。
func TestRouter_FoodTopRoute_NotShadowedByDetail(t *testing.T) {
	topCalled := false
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(1000),
		GeneralBurst:    1000,
		OrderRate:       rate.Limit(1000),
		OrderBurst:      1000,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	router := NewRouter(&RouterDeps{
		SessionFinder: &mockRouterSessionFinder{},
		RateLimiter:   rl,
		AuthManager:   &mockAuthManager{},
		AuthConfig:    testAuthConfig(),
		FoodService: &mockFoodService{
			topFn: func(ctx context.Context, limit int) ([]model.Food, error) {
				topCalled = true
				return []model.Food{}, nil
			},
			getFn: func(ctx context.Context, id string) (*model.Food, error) {
				t.Errorf("detail route matched for id = %q", id)
				return nil, nil
			},
		},
		OrderService:     &mockOrderService{},
		DashboardService: &mockDashboardService{},
		ContentService:   &mockContentService{},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/foods/top", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if !topCalled {
		t.Error("top route must handle /api/foods/top")
	}
}

func TestRouter_OrderPost_MissingCSRFToken_Forbidden(t *testing.T) {
	router, stop := newTestRouter(t)
	defer stop()

	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "valid-session"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403 from CSRF validation", w.Result().StatusCode)
	}
}

func TestRouter_RequestIDHeader_Present(t *testing.T) {
	router, stop := newTestRouter(t)
	defer stop()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header must be set")
	}
}

func TestRouter_SecurityHeaders_Present(t *testing.T) {
	router, stop := newTestRouter(t)
	defer stop()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Result().Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
