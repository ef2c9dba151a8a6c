package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/session"
)

// --- モック定義 ---

type mockSessionFinder struct {
	findFn func(id string) *model.Session
}

func (m *mockSessionFinder) Find(id string) *model.Session {
	if m.findFn != nil {
		return m.findFn(id)
	}
	return nil
}

func validSession() *model.Session {
	return &model.Session{
		ID:        "valid-session-id",
		Identity:  model.Identity{UID: "uid-1", Email: "user@example.com"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// --- テスト ---

func TestSessionMiddleware_ValidCookie_InjectsSession(t *testing.T) {
	finder := &mockSessionFinder{
		findFn: func(id string) *model.Session {
			if id == "valid-session-id" {
				return validSession()
			}
			return nil
		},
	}
	mw := NewSessionMiddleware(finder)

	var captured *model.Session
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session-id"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if captured == nil || captured.Identity.UID != "uid-1" {
		t.Errorf("session = %+v, want uid-1", captured)
	}
}

func TestSessionMiddleware_NoCookie_PassesThroughWithoutSession(t *testing.T) {
	mw := NewSessionMiddleware(&mockSessionFinder{})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if session.FromContext(r.Context()) != nil {
			t.Error("expected no session in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/foods", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Error("public request must pass through")
	}
}

func TestSessionMiddleware_StaleCookie_ClearedAndPassedThrough(t *testing.T) {
	mw := NewSessionMiddleware(&mockSessionFinder{}) // ストアは常にnilを返す

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/foods", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("stale session cookie should be cleared")
	}
}

func TestRouteGuard_Authenticated_PassesThrough(t *testing.T) {
	guard := NewRouteGuard()

	called := false
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req = req.WithContext(session.ContextWith(req.Context(), validSession()))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Error("authenticated request must pass through")
	}
}

func TestRouteGuard_UnauthenticatedAPI_Returns401WithRedirect(t *testing.T) {
	guard := NewRouteGuard()

	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want UNAUTHORIZED", body.Code)
	}
	if body.Redirect != "/unauthorized" {
		t.Errorf("redirect = %q, want /unauthorized", body.Redirect)
	}
}

func TestRouteGuard_UnauthenticatedPageNavigation_RedirectsToLoginWithFrom(t *testing.T) {
	guard := NewRouteGuard()

	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/my-foods?page=2", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	loc := resp.Header.Get("Location")
	want := "/auth/login?from=%2Fmy-foods%3Fpage%3D2"
	if loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}
