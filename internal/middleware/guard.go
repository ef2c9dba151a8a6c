// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/session"
)

// SessionCookieName はセッションIDを保持するHTTP Only Cookieの名前。
const SessionCookieName = "session_id"

// loginPath は未認証のページ遷移をリダイレクトするログイン画面のパス。
const loginPath = "/auth/login"

// SessionFinder はセッションの検索に必要なインターフェース。
// session.Storeの部分集合として定義する。
type SessionFinder interface {
	Find(id string) *model.Session
}

// NewSessionMiddleware はCookieからセッションを読み取り、有効であれば
// リクエストコンテキストに注入するミドルウェアを返す。
// セッションがなくてもリクエストは通す（公開ルート用）。
// アクセス制御はNewRouteGuardが行う。
func NewSessionMiddleware(store SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess := store.Find(cookie.Value)
			if sess == nil {
				// 期限切れまたは破棄済みのセッションID。Cookieを破棄する。
				clearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := session.ContextWith(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRouteGuard は保護ルートへの未認証アクセスを遮断するミドルウェアを返す。
// NewSessionMiddlewareの後に配置する。
//
//   - ページ遷移（Acceptがtext/html）: ログイン画面へ302リダイレクト。
//     遷移元のパスをfromクエリに保存し、ログイン成功後に復帰できるようにする。
//   - APIリクエスト: 401と統一エラーフォーマットを返す。
//
// 認証済みかどうかの判定のみを行い、セッションの再検証は行わない。
func NewRouteGuard() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session.FromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			slog.Info("unauthenticated access to protected route",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			if wantsHTML(r) {
				from := r.URL.Path
				if r.URL.RawQuery != "" {
					from += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, loginPath+"?from="+url.QueryEscape(from), http.StatusFound)
				return
			}

			WriteAPIError(w, model.NewUnauthorizedError())
		})
	}
}

// wantsHTML はリクエストがページ遷移（ブラウザのHTMLナビゲーション）かどうかを判定する。
func wantsHTML(r *http.Request) bool {
	return r.Method == http.MethodGet &&
		strings.Contains(r.Header.Get("Accept"), "text/html")
}

// clearSessionCookie はセッションCookieを無効化する。
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
