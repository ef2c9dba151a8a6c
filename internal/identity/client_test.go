package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/restoease/restoease/internal/model"
)

// newTestClient は指定ハンドラーを指すテスト用クライアントを生成する。
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client := NewClient(ClientConfig{
		APIKey:          "test-key",
		IdentityBaseURL: srv.URL,
		TokenBaseURL:    srv.URL,
	}, srv.Client())
	return client, srv
}

func writeProviderError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": code},
	})
}

func TestSignInWithPassword_Success(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "accounts:signInWithPassword") {
			t.Errorf("path = %q, want accounts:signInWithPassword", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q, want test-key", r.URL.Query().Get("key"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"localId":      "uid-1",
			"email":        "user@example.com",
			"displayName":  "テスト太郎",
			"idToken":      "id-token",
			"refreshToken": "refresh-token",
		})
	})
	defer srv.Close()

	account, err := client.SignInWithPassword(context.Background(), "user@example.com", "Passw0rd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.UID != "uid-1" {
		t.Errorf("uid = %q, want uid-1", account.UID)
	}
	if account.RefreshToken != "refresh-token" {
		t.Errorf("refreshToken = %q, want refresh-token", account.RefreshToken)
	}
}

func TestSignInWithPassword_WrongPassword_NormalizedError(t *testing.T) {
	codes := []string{"EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED"}
	for _, code := range codes {
		t.Run(code, func(t *testing.T) {
			client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeProviderError(w, http.StatusBadRequest, code)
			})
			defer srv.Close()

			_, err := client.SignInWithPassword(context.Background(), "user@example.com", "wrong")

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
				t.Errorf("err = %v, want INVALID_CREDENTIALS", err)
			}
		})
	}
}

func TestCreateAccount_EmailExists_NormalizedError(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeProviderError(w, http.StatusBadRequest, "EMAIL_EXISTS")
	})
	defer srv.Close()

	_, err := client.CreateAccount(context.Background(), "user@example.com", "Passw0rd")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailExists {
		t.Errorf("err = %v, want EMAIL_EXISTS", err)
	}
}

func TestCreateAccount_WeakPassword_NormalizedError(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeProviderError(w, http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
	})
	defer srv.Close()

	_, err := client.CreateAccount(context.Background(), "user@example.com", "abc")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeWeakPassword {
		t.Errorf("err = %v, want WEAK_PASSWORD", err)
	}
}

func TestMintIDToken_SendsRefreshTokenForm(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Errorf("path = %q, want /token", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q, want form-urlencoded", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("refresh_token") != "refresh-1" {
			t.Errorf("refresh_token = %q, want refresh-1", r.PostForm.Get("refresh_token"))
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id_token":      "fresh-token",
			"refresh_token": "refresh-1",
			"expires_in":    "3600",
		})
	})
	defer srv.Close()

	token, err := client.MintIDToken(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "fresh-token" {
		t.Errorf("token = %q, want fresh-token", token)
	}
}

func TestMintIDToken_ProviderError_ReturnsError(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeProviderError(w, http.StatusBadRequest, "TOKEN_EXPIRED")
	})
	defer srv.Close()

	if _, err := client.MintIDToken(context.Background(), "stale"); err == nil {
		t.Error("expected error for expired refresh token")
	}
}

func TestSignInWithIdP_BuildsPostBody(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "accounts:signInWithIdp") {
			t.Errorf("path = %q, want accounts:signInWithIdp", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		postBody, _ := body["postBody"].(string)
		if !strings.Contains(postBody, "id_token=idp-token") || !strings.Contains(postBody, "providerId=google.com") {
			t.Errorf("postBody = %q, want id_token and providerId", postBody)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"localId":      "uid-9",
			"email":        "fed@example.com",
			"idToken":      "provider-id-token",
			"refreshToken": "provider-refresh",
		})
	})
	defer srv.Close()

	account, err := client.SignInWithIdP(context.Background(), "google.com", "idp-token", "https://app.example.com/cb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.UID != "uid-9" {
		t.Errorf("uid = %q, want uid-9", account.UID)
	}
}
