package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/restoease/restoease/internal/middleware"
	"github.com/restoease/restoease/internal/model"
)

const oauthStateCookie = "oauth_state"

// AuthManagerInterface は認証ハンドラーが必要とするセッション管理インターフェース。
type AuthManagerInterface interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	Register(ctx context.Context, email, password, name, photoURL string) (*model.Session, error)
	FederatedLoginURL(state string) string
	HandleFederatedCallback(ctx context.Context, code, requestURI string) (*model.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	Current(ctx context.Context, sessionID string) *model.Session
}

// SignInRecorder はサインイン成功のメトリクス記録インターフェース。
type SignInRecorder interface {
	RecordSignIn(method string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	RedirectURL   string // OAuthコールバックURL
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	manager AuthManagerInterface
	metrics SignInRecorder
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
// metricsがnilの場合はメトリクスを記録しない。
func NewAuthHandler(manager AuthManagerInterface, metrics SignInRecorder, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		manager: manager,
		metrics: metrics,
		config:  config,
	}
}

// loginRequest はメール・パスワードログインのリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerRequest は新規登録のリクエストボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// identityResponse はログインユーザー情報のAPIレスポンス。
type identityResponse struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}

// Login はメールアドレスとパスワードでログインする。
// POST /auth/login
// 認証情報の不一致は401で返り、画面側はフォームにインライン表示する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		middleware.WriteAPIError(w, model.NewInvalidCredentialsError())
		return
	}

	session, err := h.manager.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	h.recordSignIn("password")
	writeJSON(w, http.StatusOK, toIdentityResponse(session.Identity))
}

// Register は新規アカウントを作成してログインする。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}
	if req.Email == "" || req.Name == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "名前とメールアドレスは必須です。",
			Category: "validation",
			Action:   "入力内容を確認してください。",
		})
		return
	}

	session, err := h.manager.Register(r.Context(), req.Email, req.Password, req.Name, req.PhotoURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	h.recordSignIn("register")
	writeJSON(w, http.StatusCreated, toIdentityResponse(session.Identity))
}

// GoogleLogin はGoogleログインのOAuthフローを開始する。
// GET /auth/google/login?from=/dashboard
// ログイン成功後の復帰先パスはstateと一緒にCookieへ保存する。
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// 復帰先はstateに連結して往復させる（Cookie 1個で済ませる）
	if from := r.URL.Query().Get("from"); isSafeReturnPath(from) {
		state = state + "|" + from
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    url.QueryEscape(state),
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.manager.FederatedLoginURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback はGoogleログインのOAuthコールバックを処理する。
// GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	// 1. stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil {
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}
	cookieState, err := url.QueryUnescape(stateCookie.Value)
	if err != nil || cookieState != state || state == "" {
		slog.Warn("oauth state mismatch",
			slog.String("query_state", state),
		)
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 2. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	// 3. 認証処理
	session, err := h.manager.HandleFederatedCallback(r.Context(), code, h.config.RedirectURL)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// 4. セッションCookieを設定（HTTP Only）
	h.setSessionCookie(w, session.ID)
	h.recordSignIn("google")

	// 5. 復帰先（state内に保存したfromパス）またはトップへリダイレクト
	target := h.config.BaseURL
	if _, from, ok := strings.Cut(state, "|"); ok && isSafeReturnPath(from) {
		target = h.config.BaseURL + from
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// Logout はセッションを破棄する。
// POST /auth/logout
// セッションが既に破棄済みの場合でもCookieはクリアする。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)

	h.clearSessionCookie(w)

	if err != nil || cookie.Value == "" {
		handleServiceError(w, model.NewSignOutError())
		return
	}

	if err := h.manager.SignOut(r.Context(), cookie.Value); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	session := h.manager.Current(r.Context(), cookie.Value)
	if session == nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, toIdentityResponse(session.Identity))
}

// setSessionCookie はセッションCookieを設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieをクリアする。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// recordSignIn はサインイン成功をメトリクスに記録する。
func (h *AuthHandler) recordSignIn(method string) {
	if h.metrics != nil {
		h.metrics.RecordSignIn(method)
	}
}

// toIdentityResponse はIdentityをAPIレスポンスに変換する。
// リフレッシュトークンは外に出さない。
func toIdentityResponse(ident model.Identity) identityResponse {
	return identityResponse{
		UID:         ident.UID,
		DisplayName: ident.DisplayName,
		Email:       ident.Email,
		PhotoURL:    ident.PhotoURL,
	}
}

// isSafeReturnPath はログイン後の復帰先として安全なパスかどうかを判定する。
// オープンリダイレクトを防ぐため、同一サイトの絶対パスのみを許可する。
func isSafeReturnPath(path string) bool {
	return path != "" && strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//")
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
