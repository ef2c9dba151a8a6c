package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/session"
)

// --- モック定義 ---

type mockMinter struct {
	mintFn func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockMinter) MintIDToken(ctx context.Context, refreshToken string) (string, error) {
	if m.mintFn != nil {
		return m.mintFn(ctx, refreshToken)
	}
	return "minted-token", nil
}

type mockMetrics struct {
	requests     int
	mintFailures int
}

func (m *mockMetrics) RecordRemoteRequest(method string, status int, duration time.Duration) {
	m.requests++
}

func (m *mockMetrics) RecordTokenMintFailure() {
	m.mintFailures++
}

func ctxWithSession() context.Context {
	return session.ContextWith(context.Background(), &model.Session{
		ID: "s1",
		Identity: model.Identity{
			UID:          "uid-1",
			RefreshToken: "refresh-token",
		},
		ExpiresAt: time.Now().Add(time.Hour),
	})
}

// --- テスト ---

func TestClient_Get_AttachesMintedToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	minter := &mockMinter{
		mintFn: func(ctx context.Context, refreshToken string) (string, error) {
			if refreshToken != "refresh-token" {
				t.Errorf("refreshToken = %q, want refresh-token", refreshToken)
			}
			return "fresh-id-token", nil
		},
	}
	client := NewClient(Config{BaseURL: srv.URL}, minter, nil, nil)

	var out map[string]bool
	if err := client.Get(ctxWithSession(), "/foods", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer fresh-id-token" {
		t.Errorf("Authorization = %q, want Bearer fresh-id-token", gotAuth)
	}
}

func TestClient_Get_NoSession_NoAuthorizationHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, &mockMinter{}, nil, nil)

	var out []model.Food
	if err := client.Get(context.Background(), "/foods", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestClient_ExplicitAuthorization_WinsOverSessionToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	minter := &mockMinter{
		mintFn: func(ctx context.Context, refreshToken string) (string, error) {
			t.Error("minter must not be called when authorization is explicit")
			return "", nil
		},
	}
	client := NewClient(Config{BaseURL: srv.URL}, minter, nil, nil)

	var out map[string]any
	err := client.Get(ctxWithSession(), "/admin", &out, WithAuthorization("Bearer explicit"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer explicit" {
		t.Errorf("Authorization = %q, want Bearer explicit", gotAuth)
	}
}

func TestClient_MintFailure_ProceedsWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	minter := &mockMinter{
		mintFn: func(ctx context.Context, refreshToken string) (string, error) {
			return "", errors.New("token endpoint down")
		},
	}
	metrics := &mockMetrics{}
	client := NewClient(Config{BaseURL: srv.URL}, minter, metrics, nil)

	var out []model.Food
	if err := client.Get(ctxWithSession(), "/foods", &out); err != nil {
		t.Fatalf("request should proceed without token, got error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
	if metrics.mintFailures != 1 {
		t.Errorf("mintFailures = %d, want 1", metrics.mintFailures)
	}
}

func TestClient_Unauthorized_ReturnsTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil, nil, nil)

	err := client.Get(context.Background(), "/orders/mine", nil)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || !apiErr.IsUnauthorized() {
		t.Errorf("err = %v, want UNAUTHORIZED", err)
	}
}

func TestClient_Forbidden_ReturnsTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil, nil, nil)

	err := client.Delete(context.Background(), "/foods/f1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || !apiErr.IsForbidden() {
		t.Errorf("err = %v, want FORBIDDEN", err)
	}
}

func TestClient_NotFound_DefaultIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil, nil, nil)

	err := client.Get(context.Background(), "/foods/missing", nil)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || !apiErr.IsNotFound() {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestClient_NotFound_AllowNotFound_ReturnsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil, nil, nil)

	var out []model.Order
	if err := client.Get(context.Background(), "/orders/new-user", &out, AllowNotFound()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 出力先は未変更（ゼロ値）のまま
	if out != nil {
		t.Errorf("out = %+v, want nil", out)
	}
}

func TestClient_ServerError_ReturnsRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil, nil, nil)

	err := client.Get(context.Background(), "/foods", nil)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRemoteError {
		t.Errorf("err = %v, want REMOTE_ERROR", err)
	}
}

func TestClient_Timeout_ReturnsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, nil, nil, nil)

	err := client.Get(context.Background(), "/foods", nil)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNetworkError {
		t.Errorf("err = %v, want NETWORK_ERROR", err)
	}
}

func TestClient_Post_SendsJSONBodyAndDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"_id":"o1","foodId":"f1","quantity":2}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, nil, nil, nil)

	var out model.Order
	in := model.Order{FoodID: "f1", Quantity: 2}
	if err := client.Post(context.Background(), "/orders", &in, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ID != "o1" || out.Quantity.Int() != 2 {
		t.Errorf("out = %+v, want _id=o1 quantity=2", out)
	}
}

func TestClient_MetricsRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	metrics := &mockMetrics{}
	client := NewClient(Config{BaseURL: srv.URL}, nil, metrics, nil)

	var out []model.Food
	if err := client.Get(context.Background(), "/foods", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.requests != 1 {
		t.Errorf("requests = %d, want 1", metrics.requests)
	}
}
