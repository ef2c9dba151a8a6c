// Package identity は外部IDプロバイダーとの連携を提供する。
// パスワード認証、アカウント作成、プロフィール更新、IDトークン発行、
// およびフェデレーテッドログイン（OAuthコードフロー）を含む。
// プロバイダーの内部プロトコルは不透明として扱い、トークン取得契約のみを消費する。
package identity

import "context"

// Account はIDプロバイダーでの認証結果を表す。
// RefreshTokenは以後のIDトークン発行に使用する。
type Account struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	IDToken      string
	RefreshToken string
}

// Provider はIDプロバイダーのインターフェース。
// 実装はRESTトークン契約を消費するClient。テストではモックに差し替える。
type Provider interface {
	// SignInWithPassword はメールアドレスとパスワードで認証する。
	// 認証情報が不一致の場合はINVALID_CREDENTIALSエラーを返す。
	SignInWithPassword(ctx context.Context, email, password string) (*Account, error)
	// CreateAccount は新しいアカウントを作成する。
	CreateAccount(ctx context.Context, email, password string) (*Account, error)
	// UpdateProfile はアカウントの表示名と写真URLを更新する。
	UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) error
	// MintIDToken はリフレッシュトークンから新しいIDトークンを発行する。
	// トークンはこの層ではキャッシュされない（呼び出しごとに発行し直す）。
	MintIDToken(ctx context.Context, refreshToken string) (string, error)
	// SignInWithIdP は外部IdPのIDトークンをプロバイダーのアカウントに交換する。
	// フェデレーテッドログインの最終段で使用する。
	SignInWithIdP(ctx context.Context, providerID, idpToken, requestURI string) (*Account, error)
}

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
// IDTokenはIdPが発行した生のIDトークンで、プロバイダーのアカウントへの
// 交換（SignInWithIdP）に使用する。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	PhotoURL       string
	Provider       string // "google" 等
	IDToken        string
}

// OAuthProvider はフェデレーテッドログインのインターフェース。
// 元のポップアップフローはサーバーサイドではリダイレクトベースの
// 認可コードフローとして表現される。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}
