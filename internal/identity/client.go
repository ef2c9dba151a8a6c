package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/restoease/restoease/internal/model"
)

const (
	defaultIdentityBaseURL = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenBaseURL    = "https://securetoken.googleapis.com/v1"
)

// ClientConfig はIDプロバイダーRESTクライアントの設定。
type ClientConfig struct {
	APIKey string

	// テスト用にオーバーライド可能なURL
	IdentityBaseURL string
	TokenBaseURL    string
}

// Client はIDプロバイダーのRESTトークン契約を消費するクライアント。
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient はClientを生成する。
// httpClientがnilの場合はhttp.DefaultClientを使用する。
func NewClient(config ClientConfig, httpClient *http.Client) *Client {
	if config.IdentityBaseURL == "" {
		config.IdentityBaseURL = defaultIdentityBaseURL
	}
	if config.TokenBaseURL == "" {
		config.TokenBaseURL = defaultTokenBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{config: config, httpClient: httpClient}
}

// signInResponse はパスワード認証エンドポイントのレスポンス。
type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignInWithPassword はメールアドレスとパスワードで認証する。
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Account, error) {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp signInResponse
	if err := c.post(ctx, c.endpoint("accounts:signInWithPassword"), body, &resp); err != nil {
		return nil, err
	}

	return &Account{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		PhotoURL:     resp.PhotoURL,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// CreateAccount は新しいアカウントを作成する。
func (c *Client) CreateAccount(ctx context.Context, email, password string) (*Account, error) {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp signInResponse
	if err := c.post(ctx, c.endpoint("accounts:signUp"), body, &resp); err != nil {
		return nil, err
	}

	return &Account{
		UID:          resp.LocalID,
		Email:        resp.Email,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// UpdateProfile はアカウントの表示名と写真URLを更新する。
func (c *Client) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) error {
	body := map[string]any{
		"idToken":           idToken,
		"displayName":       displayName,
		"photoUrl":          photoURL,
		"returnSecureToken": false,
	}

	return c.post(ctx, c.endpoint("accounts:update"), body, &struct{}{})
}

// tokenResponse はトークン発行エンドポイントのレスポンス。
type tokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// MintIDToken はリフレッシュトークンから新しいIDトークンを発行する。
// 発行されたトークンはキャッシュせず、呼び出しのたびにこのエンドポイントを叩く。
func (c *Client) MintIDToken(ctx context.Context, refreshToken string) (string, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	endpoint := fmt.Sprintf("%s/token?key=%s", c.config.TokenBaseURL, url.QueryEscape(c.config.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token mint failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.IDToken == "" {
		return "", fmt.Errorf("empty id token in response")
	}

	return tokenResp.IDToken, nil
}

// signInWithIdPResponse はIdPトークン交換エンドポイントのレスポンス。
type signInWithIdPResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignInWithIdP は外部IdPのIDトークンをプロバイダーのアカウントに交換する。
// 未知のユーザーの場合はプロバイダー側でアカウントが自動作成される。
func (c *Client) SignInWithIdP(ctx context.Context, providerID, idpToken, requestURI string) (*Account, error) {
	body := map[string]any{
		"postBody":            fmt.Sprintf("id_token=%s&providerId=%s", idpToken, providerID),
		"requestUri":          requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}

	var resp signInWithIdPResponse
	if err := c.post(ctx, c.endpoint("accounts:signInWithIdp"), body, &resp); err != nil {
		return nil, err
	}

	return &Account{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		PhotoURL:     resp.PhotoURL,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// endpoint はAPIキー付きのエンドポイントURLを構築する。
func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/%s?key=%s", c.config.IdentityBaseURL, method, url.QueryEscape(c.config.APIKey))
}

// providerErrorResponse はIDプロバイダーのエラーレスポンス。
type providerErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// post はJSONボディをPOSTし、レスポンスをoutにデコードする。
// プロバイダーのエラーメッセージはAPIErrorに正規化される。
func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return mapProviderError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response body: %w", err)
	}

	return nil
}

// mapProviderError はプロバイダーのエラーコードをAPIErrorに正規化する。
// 未知のコードはステータス付きのリモートエラーとして扱う。
func mapProviderError(status int, body []byte) error {
	var errResp providerErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return fmt.Errorf("identity provider returned status %d", status)
	}

	code := errResp.Error.Message
	switch {
	case code == "EMAIL_NOT_FOUND", code == "INVALID_PASSWORD", code == "INVALID_LOGIN_CREDENTIALS", code == "USER_DISABLED":
		return model.NewInvalidCredentialsError()
	case code == "EMAIL_EXISTS":
		return model.NewEmailExistsError()
	case strings.HasPrefix(code, "WEAK_PASSWORD"):
		return model.NewWeakPasswordError(code)
	default:
		return fmt.Errorf("identity provider returned status %d: %s", status, code)
	}
}

// compile-time interface check
var _ Provider = (*Client)(nil)
