package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/remote"
)

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	api := remote.NewClient(remote.Config{BaseURL: srv.URL}, nil, nil, nil)
	return NewService(api), srv
}

func TestFind_Existing_ReturnsProfile(t *testing.T) {
	svc, srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/user@example.com" {
			t.Errorf("path = %q, want /users/user@example.com", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.UserProfile{
			Name:  "テスト太郎",
			Email: "user@example.com",
			UID:   "uid-1",
			Role:  "user",
		})
	})
	defer srv.Close()

	p, err := svc.Find(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.UID != "uid-1" {
		t.Errorf("profile = %+v, want uid-1", p)
	}
}

func TestFind_NotFound_ReturnsNilWithoutError(t *testing.T) {
	svc, srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	p, err := svc.Find(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("profile = %+v, want nil", p)
	}
}

func TestFind_ServerError_Propagates(t *testing.T) {
	svc, srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	if _, err := svc.Find(context.Background(), "user@example.com"); err == nil {
		t.Error("expected error for server failure")
	}
}

func TestCreate_PostsProfile(t *testing.T) {
	var posted model.UserProfile
	svc, srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users" {
			t.Errorf("request = %s %s, want POST /users", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})
	defer srv.Close()

	err := svc.Create(context.Background(), &model.UserProfile{Name: "テスト太郎", Email: "user@example.com", UID: "uid-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posted.Email != "user@example.com" {
		t.Errorf("posted email = %q, want user@example.com", posted.Email)
	}
}
