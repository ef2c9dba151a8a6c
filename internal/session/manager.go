package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/restoease/restoease/internal/identity"
	"github.com/restoease/restoease/internal/model"
)

// ProfileService はリモートAPIのユーザープロフィール操作のうち
// セッション管理が必要とする部分集合。
type ProfileService interface {
	// Find はメールアドレスからプロフィールを取得する。未登録の場合はnilを返す。
	Find(ctx context.Context, email string) (*model.UserProfile, error)
	// Create はプロフィール行を新規作成する。
	Create(ctx context.Context, profile *model.UserProfile) error
}

// EventType は認証状態変化の種別。
type EventType string

const (
	// EventSignedIn はサインイン（登録・フェデレーテッド含む）を表す。
	EventSignedIn EventType = "signed_in"
	// EventSignedOut はサインアウトを表す。
	EventSignedOut EventType = "signed_out"
)

// Event は認証状態の変化通知。
type Event struct {
	Type     EventType
	Identity model.Identity
}

// ManagerConfig はセッションマネージャーの設定。
type ManagerConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Manager は認証フローとセッションライフサイクルを管理する。
// サインイン・サインアウトのたびに購読者へイベントを通知する。
type Manager struct {
	provider identity.Provider
	oauth    identity.OAuthProvider
	profiles ProfileService
	store    *Store
	config   ManagerConfig

	watcherMu sync.Mutex
	watchers  map[int]func(Event)
	nextID    int
}

// NewManager はManagerを生成する。
func NewManager(
	provider identity.Provider,
	oauth identity.OAuthProvider,
	profiles ProfileService,
	store *Store,
	config ManagerConfig,
) *Manager {
	return &Manager{
		provider: provider,
		oauth:    oauth,
		profiles: profiles,
		store:    store,
		config:   config,
		watchers: make(map[int]func(Event)),
	}
}

// Subscribe は認証状態変化の購読を開始する。
// 返される関数を呼ぶと購読を解除する。
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.watcherMu.Lock()
	defer m.watcherMu.Unlock()

	id := m.nextID
	m.nextID++
	m.watchers[id] = fn

	return func() {
		m.watcherMu.Lock()
		defer m.watcherMu.Unlock()
		delete(m.watchers, id)
	}
}

// notify は全購読者にイベントを配信する。
func (m *Manager) notify(event Event) {
	m.watcherMu.Lock()
	fns := make([]func(Event), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	m.watcherMu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

// SignIn はメールアドレスとパスワードでサインインし、セッションを発行する。
// 認証情報が不一致の場合はINVALID_CREDENTIALSエラーを返す。
func (m *Manager) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	account, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session, err := m.createSession(identityFromAccount(account))
	if err != nil {
		return nil, err
	}

	slog.Info("user signed in",
		slog.String("uid", session.Identity.UID),
	)
	m.notify(Event{Type: EventSignedIn, Identity: session.Identity})

	return session, nil
}

// Register は新規アカウントを作成し、セッションを発行する。
// 処理順序: パスワードポリシー検証 → アカウント作成 → プロフィール更新
// → リモートAPIへのプロフィール行保存。
// プロフィール行の保存がアカウント作成後に失敗した場合、アカウントは
// 残る（補償ロールバックは行わない）。失敗はログに記録される。
func (m *Manager) Register(ctx context.Context, email, password, name, photoURL string) (*model.Session, error) {
	// 1. パスワードポリシー検証
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	// 2. IDプロバイダーにアカウントを作成
	account, err := m.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, err
	}

	// 3. 表示名と写真URLを設定
	if err := m.provider.UpdateProfile(ctx, account.IDToken, name, photoURL); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	account.DisplayName = name
	account.PhotoURL = photoURL

	// 4. リモートAPIにプロフィール行を保存
	profile := &model.UserProfile{
		Name:      name,
		Email:     email,
		PhotoURL:  photoURL,
		UID:       account.UID,
		Role:      "user",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := m.profiles.Create(ctx, profile); err != nil {
		// アカウントは作成済みのため続行する（既知のギャップ）
		slog.Warn("profile persistence failed after account creation",
			slog.String("uid", account.UID),
			slog.String("error", err.Error()),
		)
	}

	session, err := m.createSession(identityFromAccount(account))
	if err != nil {
		return nil, err
	}

	slog.Info("user registered",
		slog.String("uid", session.Identity.UID),
	)
	m.notify(Event{Type: EventSignedIn, Identity: session.Identity})

	return session, nil
}

// FederatedLoginURL はフェデレーテッドログインの認証URLを生成する。
func (m *Manager) FederatedLoginURL(state string) string {
	return m.oauth.GetLoginURL(state)
}

// HandleFederatedCallback はOAuthコールバックを処理し、セッションを発行する。
// IdPのIDトークンをプロバイダーのアカウントに交換した後、リモートAPIの
// プロフィール行を冪等にアップサートする（存在チェック → 未登録なら作成）。
// 存在チェックの404のみを「未登録」として作成にフォールスルーし、
// それ以外のエラーはサインインを中断する。
func (m *Manager) HandleFederatedCallback(ctx context.Context, code, requestURI string) (*model.Session, error) {
	// 1. 認可コードをIdPトークンに交換し、ユーザー情報を取得
	userInfo, err := m.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. IdPトークンをプロバイダーのアカウントに交換
	account, err := m.provider.SignInWithIdP(ctx, userInfo.Provider+".com", userInfo.IDToken, requestURI)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in with idp: %w", err)
	}
	if account.DisplayName == "" {
		account.DisplayName = userInfo.Name
	}
	if account.PhotoURL == "" {
		account.PhotoURL = userInfo.PhotoURL
	}

	// 3. プロフィール行の冪等アップサート
	if err := m.upsertProfile(ctx, account); err != nil {
		return nil, err
	}

	session, err := m.createSession(identityFromAccount(account))
	if err != nil {
		return nil, err
	}

	slog.Info("federated user signed in",
		slog.String("uid", session.Identity.UID),
		slog.String("provider", userInfo.Provider),
	)
	m.notify(Event{Type: EventSignedIn, Identity: session.Identity})

	return session, nil
}

// upsertProfile はプロフィール行を冪等に作成する。
// 既存行がある場合は何も書き込まない。
func (m *Manager) upsertProfile(ctx context.Context, account *identity.Account) error {
	existing, err := m.profiles.Find(ctx, account.Email)
	if err != nil {
		return fmt.Errorf("failed to check existing profile: %w", err)
	}
	if existing != nil {
		return nil
	}

	profile := &model.UserProfile{
		Name:      account.DisplayName,
		Email:     account.Email,
		PhotoURL:  account.PhotoURL,
		UID:       account.UID,
		Role:      "user",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := m.profiles.Create(ctx, profile); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// SignOut はセッションを破棄する。
// セッションが存在しない場合はSIGN_OUT_FAILEDエラーを返す。
// 破棄に成功した場合は必ず購読者へ通知される。
func (m *Manager) SignOut(ctx context.Context, sessionID string) error {
	session := m.store.Find(sessionID)
	if session == nil || !m.store.Delete(sessionID) {
		return model.NewSignOutError()
	}

	slog.Info("user signed out",
		slog.String("uid", session.Identity.UID),
	)
	m.notify(Event{Type: EventSignedOut, Identity: session.Identity})

	return nil
}

// Current はセッションIDから現在のセッションを取得する。
// 未認証の場合はnilを返す。
func (m *Manager) Current(ctx context.Context, sessionID string) *model.Session {
	if sessionID == "" {
		return nil
	}
	return m.store.Find(sessionID)
}

// createSession はセッションを作成し保存する。
func (m *Manager) createSession(ident model.Identity) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		Identity:  ident,
		ExpiresAt: time.Now().Add(time.Duration(m.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	m.store.Save(session)

	return session, nil
}

// identityFromAccount はプロバイダーのアカウントからIdentityを構築する。
// 表示名や写真URLがアカウントに含まれない場合はIDトークンのクレームで補完する。
func identityFromAccount(account *identity.Account) model.Identity {
	ident := model.Identity{
		UID:          account.UID,
		DisplayName:  account.DisplayName,
		Email:        account.Email,
		PhotoURL:     account.PhotoURL,
		RefreshToken: account.RefreshToken,
	}

	if ident.DisplayName == "" || ident.PhotoURL == "" {
		if claims, err := identity.ParseIDToken(account.IDToken); err == nil {
			if ident.DisplayName == "" {
				ident.DisplayName = claims.Name
			}
			if ident.PhotoURL == "" {
				ident.PhotoURL = claims.PhotoURL
			}
			if ident.Email == "" {
				ident.Email = claims.Email
			}
		}
	}

	return ident
}

// validatePassword はパスワードポリシーを検証する。
// 要件: 6文字以上、大文字1文字以上、小文字1文字以上。
func validatePassword(password string) error {
	var reasons []string
	if len(password) < 6 {
		reasons = append(reasons, "6文字以上が必要です")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		reasons = append(reasons, "大文字が必要です")
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		reasons = append(reasons, "小文字が必要です")
	}
	if len(reasons) > 0 {
		return model.NewWeakPasswordError(strings.Join(reasons, "、"))
	}
	return nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
