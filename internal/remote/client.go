// Package remote はリモートREST APIへの共有クライアントを提供する。
// 全リクエストに対して (a) セッションが存在する場合のベアラートークン付与、
// (b) 固定タイムアウト、(c) エラーステータスの型付きエラーへの正規化を行う。
// トランスポート層はナビゲーション等の副作用を持たない:
// 401/403の解釈（/unauthorized, /forbiddenへの誘導）は最上位の
// ハンドラー層だけが行う。
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/session"
)

// defaultTimeout はリクエストごとの固定タイムアウト。
const defaultTimeout = 10 * time.Second

// TokenMinter はIDトークン発行のインターフェース。
// identity.Providerの部分集合として定義する。
type TokenMinter interface {
	MintIDToken(ctx context.Context, refreshToken string) (string, error)
}

// MetricsRecorder はリモートAPI呼び出しのメトリクス収集インターフェース。
type MetricsRecorder interface {
	RecordRemoteRequest(method string, status int, duration time.Duration)
	RecordTokenMintFailure()
}

// Config はClientの設定。
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client はリモートREST APIのクライアント。
type Client struct {
	httpClient *http.Client
	baseURL    string
	minter     TokenMinter
	metrics    MetricsRecorder
	logger     *slog.Logger
}

// NewClient はClientを生成する。
// minterがnilの場合はトークンを付与しない（匿名アクセス専用）。
// metricsがnilの場合はメトリクスを記録しない。
func NewClient(config Config, minter TokenMinter, metrics MetricsRecorder, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		minter:     minter,
		metrics:    metrics,
		logger:     logger,
	}
}

// requestOptions はリクエストごとのオプション。
type requestOptions struct {
	allowNotFound bool
	authorization string
}

// Option はリクエストごとのオプションを設定する。
type Option func(*requestOptions)

// AllowNotFound は404を「空の結果」として扱う。
// エラーは返されず、出力先は未変更（ゼロ値）のままになる。
// ユーザースコープの一覧取得（新規ユーザーは正当に0件）で使用する。
func AllowNotFound() Option {
	return func(o *requestOptions) { o.allowNotFound = true }
}

// WithAuthorization はAuthorizationヘッダーを明示的に指定する。
// 指定された場合、セッション由来のトークン付与より優先される。
func WithAuthorization(header string) Option {
	return func(o *requestOptions) { o.authorization = header }
}

// Get はGETリクエストを送信し、レスポンスをoutにデコードする。
func (c *Client) Get(ctx context.Context, path string, out any, opts ...Option) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post はJSONボディをPOSTし、レスポンスをoutにデコードする。
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...Option) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put はJSONボディをPUTし、レスポンスをoutにデコードする。
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...Option) error {
	return c.do(ctx, http.MethodPut, path, body, out, opts...)
}

// Delete はDELETEリクエストを送信する。
func (c *Client) Delete(ctx context.Context, path string, opts ...Option) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, opts...)
}

// do はリクエストを実行する。
// 処理順序: ボディ構築 → トークン付与 → 送信 → ステータス正規化 → デコード。
func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...Option) error {
	options := &requestOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// 1. リクエスト構築
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// 2. トークン付与（明示指定が優先）
	if options.authorization != "" {
		req.Header.Set("Authorization", options.authorization)
	} else {
		c.attachToken(ctx, req)
	}

	// 3. 送信
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordRemoteRequest(method, 0, duration)
		}
		c.logger.Error("remote API request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return model.NewNetworkError(networkFailureReason(err))
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordRemoteRequest(method, resp.StatusCode, duration)
	}

	// 4. ステータスの正規化
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return model.NewUnauthorizedError()
	case resp.StatusCode == http.StatusForbidden:
		return model.NewForbiddenError()
	case resp.StatusCode == http.StatusNotFound:
		if options.allowNotFound {
			// 404を空の結果として扱う: 出力先は未変更のまま
			return nil
		}
		return model.NewNotFoundError(path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.Warn("remote API returned error status",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return model.NewRemoteError(resp.StatusCode)
	}

	// 5. レスポンスのデコード
	if out != nil {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to parse response body: %w", err)
			}
		}
	}

	return nil
}

// attachToken はセッションが存在する場合に新しいIDトークンを発行して付与する。
// トークン発行の失敗はこの層で握りつぶす（リクエストはトークンなしで続行し、
// 認証が必要なエンドポイントなら401が呼び出し元に返る）。
// 匿名で読めるエンドポイントが一時的なトークン障害でブロックされないための
// 意図的なトレードオフ。
func (c *Client) attachToken(ctx context.Context, req *http.Request) {
	if c.minter == nil {
		return
	}
	sess := session.FromContext(ctx)
	if sess == nil {
		return
	}

	token, err := c.minter.MintIDToken(ctx, sess.Identity.RefreshToken)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordTokenMintFailure()
		}
		c.logger.Debug("token mint failed; proceeding without authorization",
			slog.String("uid", sess.Identity.UID),
			slog.String("error", err.Error()),
		)
		return
	}

	req.Header.Set("Authorization", "Bearer "+token)
}

// networkFailureReason はトランスポートエラーをユーザー向けの理由に変換する。
// タイムアウトも一般的なネットワーク障害として表面化する。
func networkFailureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "タイムアウト"
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "タイムアウト"
	}
	return "接続エラー"
}
