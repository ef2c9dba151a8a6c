// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// リモートAPI・IDプロバイダー由来のエラーもすべてこの型に正規化され、
// トランスポート層はリダイレクトなどの副作用を持たない。
// ナビゲーション（/unauthorized, /forbidden）はエラーコードを解釈する
// 最上位のハンドラー層だけが行う。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, order, food, network, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeSignOutFailed      = "SIGN_OUT_FAILED"
	ErrCodeEmailExists        = "EMAIL_EXISTS"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeInvalidURL         = "INVALID_URL"
	ErrCodeInvalidPrice       = "INVALID_PRICE"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeOutOfStock         = "OUT_OF_STOCK"
	ErrCodeOwnFood            = "OWN_FOOD"
	ErrCodeFoodNotFound       = "FOOD_NOT_FOUND"
	ErrCodeRemoteError        = "REMOTE_ERROR"
	ErrCodeNetworkError       = "NETWORK_ERROR"
)

// IsUnauthorized はリモートAPIの401に対応するエラーかどうかを返す。
func (e *APIError) IsUnauthorized() bool { return e.Code == ErrCodeUnauthorized }

// IsForbidden はリモートAPIの403に対応するエラーかどうかを返す。
func (e *APIError) IsForbidden() bool { return e.Code == ErrCodeForbidden }

// IsNotFound は404に対応するエラーかどうかを返す。
func (e *APIError) IsNotFound() bool { return e.Code == ErrCodeNotFound }

// NewUnauthorizedError は認可エラー（401）を生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限エラー（403）を生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "アカウントの権限を確認してください。",
	}
}

// NewNotFoundError はリソース未検出エラー（404）を生成する。
func NewNotFoundError(path string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("リソースが見つかりません: %s", path),
		Category: "network",
		Action:   "URLを確認してください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// ログインフォームにインライン表示される。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewSignOutError はサインアウト失敗エラーを生成する。
func NewSignOutError() *APIError {
	return &APIError{
		Code:     ErrCodeSignOutFailed,
		Message:  "サインアウトに失敗しました。",
		Category: "auth",
		Action:   "再度お試しください。",
	}
}

// NewEmailExistsError はメールアドレス重複エラーを生成する。
func NewEmailExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailExists,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスを使用してください。",
	}
}

// NewWeakPasswordError はパスワードポリシー違反エラーを生成する。
func NewWeakPasswordError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  fmt.Sprintf("パスワードが要件を満たしていません: %s", reason),
		Category: "validation",
		Action:   "6文字以上で、大文字と小文字をそれぞれ1文字以上含めてください。",
	}
}

// NewInvalidURLError は無効な画像URLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効な画像URLです: %s", reason),
		Category: "validation",
		Action:   "公開されているhttp/https URLを指定してください。",
	}
}

// NewInvalidPriceError は価格の範囲エラーを生成する。
func NewInvalidPriceError(price int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPrice,
		Message:  fmt.Sprintf("無効な価格です: %d", price),
		Category: "validation",
		Action:   "価格は0以上の整数で指定してください。",
	}
}

// NewInvalidQuantityError は数量の範囲エラーを生成する。
func NewInvalidQuantityError(quantity int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuantity,
		Message:  fmt.Sprintf("無効な数量です: %d", quantity),
		Category: "validation",
		Action:   "数量は0以上の整数で指定してください。",
	}
}

// NewOutOfStockError は在庫不足エラーを生成する。
func NewOutOfStockError(requested, available int) *APIError {
	return &APIError{
		Code:     ErrCodeOutOfStock,
		Message:  fmt.Sprintf("在庫が不足しています: 注文 %d に対し在庫 %d", requested, available),
		Category: "order",
		Action:   "在庫数以下の数量を指定してください。",
	}
}

// NewOwnFoodError は自分の出品を購入しようとした場合のエラーを生成する。
func NewOwnFoodError() *APIError {
	return &APIError{
		Code:     ErrCodeOwnFood,
		Message:  "自分が出品したフードは購入できません。",
		Category: "order",
		Action:   "他の出品者のフードを選択してください。",
	}
}

// NewFoodNotFoundError はフード未検出エラーを生成する。
func NewFoodNotFoundError(foodID string) *APIError {
	return &APIError{
		Code:     ErrCodeFoodNotFound,
		Message:  fmt.Sprintf("指定されたフードが見つかりません: %s", foodID),
		Category: "food",
		Action:   "フードIDを確認してください。",
	}
}

// NewRemoteError はリモートAPIのエラーステータスを表すエラーを生成する。
// 401/403/404以外のステータスはこのエラーとして呼び出し元にそのまま伝播する
// （リトライやトースト表示の判断は呼び出し元が行う）。
func NewRemoteError(status int) *APIError {
	return &APIError{
		Code:     ErrCodeRemoteError,
		Message:  fmt.Sprintf("リモートAPIがステータス %d を返しました。", status),
		Category: "network",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewNetworkError はタイムアウトを含む一般的なネットワーク障害を表すエラーを生成する。
func NewNetworkError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeNetworkError,
		Message:  fmt.Sprintf("通信に失敗しました: %s", reason),
		Category: "network",
		Action:   "接続状態を確認して再度お試しください。",
	}
}
