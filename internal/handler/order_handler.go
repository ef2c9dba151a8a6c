package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/restoease/restoease/internal/middleware"
	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/order"
	"github.com/restoease/restoease/internal/session"
)

// OrderServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
type OrderServiceInterface interface {
	ListByBuyer(ctx context.Context, email string) ([]model.Order, error)
	Place(ctx context.Context, buyerName, buyerEmail, foodID string, quantity int) (*order.PlaceResult, error)
	Delete(ctx context.Context, orderID string) error
}

// OrderPlacedRecorder は注文確定のメトリクス記録インターフェース。
type OrderPlacedRecorder interface {
	RecordOrderPlaced()
}

// OrderHandler は注文のHTTPハンドラー。
type OrderHandler struct {
	service OrderServiceInterface
	metrics OrderPlacedRecorder
}

// NewOrderHandler はOrderHandlerを生成する。
// metricsがnilの場合はメトリクスを記録しない。
func NewOrderHandler(service OrderServiceInterface, metrics OrderPlacedRecorder) *OrderHandler {
	return &OrderHandler{
		service: service,
		metrics: metrics,
	}
}

// placeOrderRequest は注文確定のリクエストボディ。
type placeOrderRequest struct {
	FoodID   string `json:"foodId"`
	Quantity int    `json:"quantity"`
}

// placeOrderResponse は注文確定のレスポンス。
// 画面が再取得なしで残り在庫を表示できるよう、更新後のフードを含む。
type placeOrderResponse struct {
	Order model.Order `json:"order"`
	Food  model.Food  `json:"food"`
}

// MyOrders はログインユーザーの注文履歴を返す。
// GET /api/orders/mine
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	orders, err := h.service.ListByBuyer(r.Context(), sess.Identity.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// PlaceOrder は注文を確定する。
// POST /api/orders
// 購入者はセッションから決定される。
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}
	if req.FoodID == "" {
		middleware.WriteAPIError(w, model.NewFoodNotFoundError(""))
		return
	}

	result, err := h.service.Place(r.Context(), sess.Identity.DisplayName, sess.Identity.Email, req.FoodID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordOrderPlaced()
	}

	writeJSON(w, http.StatusCreated, placeOrderResponse{
		Order: result.Order,
		Food:  result.Food,
	})
}

// DeleteOrder は注文をキャンセルする。
// DELETE /api/orders/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
