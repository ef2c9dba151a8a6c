package handler

import (
	"context"
	"net/http"

	"github.com/restoease/restoease/internal/middleware"
	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/session"
)

// DashboardServiceInterface はダッシュボードハンドラーが必要とするサービスインターフェース。
type DashboardServiceInterface interface {
	Overview(ctx context.Context, email string) (*model.DashboardSummary, error)
}

// DashboardHandler はマイページ集計のHTTPハンドラー。
type DashboardHandler struct {
	service DashboardServiceInterface
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview はログインユーザーの出品・注文の統計を返す。
// GET /api/dashboard
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	summary, err := h.service.Overview(r.Context(), sess.Identity.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
