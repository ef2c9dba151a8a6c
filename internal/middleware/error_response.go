package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/restoease/restoease/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。認証・権限エラーの場合は
// 遷移先パス（/unauthorized, /forbidden）をredirectに含める。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
	Redirect string `json:"redirect,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	body := ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Redirect: redirectFor(apiErr),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// WriteAPIError はエラーコードからHTTPステータスを導出して書き込む。
// トランスポート層・サービス層は型付きエラーを返すだけで、
// ステータスと遷移先の解釈はこの最上位層に集約される。
func WriteAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	WriteErrorResponse(w, StatusForAPIError(apiErr), apiErr)
}

// WriteError は任意のエラーを統一フォーマットで書き込む。
// 型付きエラーでない場合は内部エラーとして扱う。
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		WriteAPIError(w, apiErr)
		return
	}
	WriteInternalServerError(w)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// StatusForAPIError はエラーコードをHTTPステータスにマッピングする。
func StatusForAPIError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeOwnFood:
		return http.StatusForbidden
	case model.ErrCodeNotFound, model.ErrCodeFoodNotFound:
		return http.StatusNotFound
	case model.ErrCodeEmailExists:
		return http.StatusConflict
	case model.ErrCodeWeakPassword, model.ErrCodeInvalidURL,
		model.ErrCodeInvalidPrice, model.ErrCodeInvalidQuantity,
		model.ErrCodeSignOutFailed:
		return http.StatusBadRequest
	case model.ErrCodeOutOfStock:
		return http.StatusConflict
	case model.ErrCodeNetworkError:
		return http.StatusBadGateway
	case model.ErrCodeRemoteError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// redirectFor は認証・権限エラーに対応する遷移先パスを返す。
// 遷移が不要なエラーには空文字列を返す。
func redirectFor(apiErr *model.APIError) string {
	switch {
	case apiErr.IsUnauthorized():
		return "/unauthorized"
	case apiErr.IsForbidden():
		return "/forbidden"
	default:
		return ""
	}
}
