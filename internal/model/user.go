// Package model はドメインモデルを定義する。
package model

import "time"

// Identity はIDプロバイダーで認証済みのユーザーを表す。
// RefreshTokenはリクエストごとのIDトークン発行に使用する。
// IDトークン自体はこの層では保持しない（毎回発行し直す）。
type Identity struct {
	UID          string
	DisplayName  string
	Email        string
	PhotoURL     string
	RefreshToken string
}

// Session はユーザーのログインセッションを表す。
// サーバープロセスのメモリ上にのみ存在し、永続化されない。
type Session struct {
	ID        string
	Identity  Identity
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired はセッションが有効期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// UserProfile はリモートAPIに保存されるユーザープロフィール行を表す。
// IDプロバイダーは認証のみを管理するため、プロフィールはアプリケーション側で
// /users エンドポイントに別途保存する。
type UserProfile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	PhotoURL  string `json:"photoURL"`
	UID       string `json:"uid"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}
