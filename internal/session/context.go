package session

import (
	"context"

	"github.com/restoease/restoease/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// ContextWith はコンテキストにセッションを注入する。
// ルートガードミドルウェアとテストで使用する。
func ContextWith(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext はリクエストコンテキストからセッションを取得する。
// 未認証リクエストではnilを返す。
func FromContext(ctx context.Context) *model.Session {
	s, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok {
		return nil
	}
	return s
}
