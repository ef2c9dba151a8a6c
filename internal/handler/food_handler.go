package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/restoease/restoease/internal/middleware"
	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/session"
)

// defaultTopLimit はトップフード一覧のデフォルト件数。
const defaultTopLimit = 6

// FoodServiceInterface はフードハンドラーが必要とするサービスインターフェース。
type FoodServiceInterface interface {
	List(ctx context.Context) ([]model.Food, error)
	Top(ctx context.Context, limit int) ([]model.Food, error)
	Get(ctx context.Context, id string) (*model.Food, error)
	ListByOwner(ctx context.Context, email string) ([]model.Food, error)
	Create(ctx context.Context, owner model.FoodOwner, input *model.Food) (*model.Food, error)
	Update(ctx context.Context, id string, input *model.Food) error
	Delete(ctx context.Context, id string) error
}

// FoodHandler はフード管理のHTTPハンドラー。
type FoodHandler struct {
	service FoodServiceInterface
}

// NewFoodHandler はFoodHandlerを生成する。
func NewFoodHandler(service FoodServiceInterface) *FoodHandler {
	return &FoodHandler{service: service}
}

// ListFoods は全フードの一覧を返す。
// GET /api/foods
func (h *FoodHandler) ListFoods(w http.ResponseWriter, r *http.Request) {
	foods, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if foods == nil {
		foods = []model.Food{}
	}
	writeJSON(w, http.StatusOK, foods)
}

// TopFoods は購入数の多い順のフード一覧を返す。
// GET /api/foods/top?limit=6
func (h *FoodHandler) TopFoods(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	foods, err := h.service.Top(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

// GetFood はフード詳細を返す。
// GET /api/foods/{id}
func (h *FoodHandler) GetFood(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	food, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if food == nil {
		middleware.WriteAPIError(w, model.NewFoodNotFoundError(id))
		return
	}
	writeJSON(w, http.StatusOK, food)
}

// MyFoods はログインユーザーが出品したフードの一覧を返す。
// GET /api/foods/mine
func (h *FoodHandler) MyFoods(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	foods, err := h.service.ListByOwner(r.Context(), sess.Identity.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

// CreateFood は新しいフードを出品する。
// POST /api/foods
// 出品者はセッションから決定され、リクエストボディの値は無視される。
func (h *FoodHandler) CreateFood(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	var input model.Food
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeInvalidRequest(w)
		return
	}

	owner := model.FoodOwner{
		Name:  sess.Identity.DisplayName,
		Email: sess.Identity.Email,
	}
	created, err := h.service.Create(r.Context(), owner, &input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// UpdateFood はフードを更新する。
// PUT /api/foods/{id}
// 他人の出品は更新できない。
func (h *FoodHandler) UpdateFood(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}
	id := chi.URLParam(r, "id")

	var input model.Food
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeInvalidRequest(w)
		return
	}

	if err := h.requireOwnership(r.Context(), w, id, sess.Identity.Email); err != nil {
		return
	}

	if err := h.service.Update(r.Context(), id, &input); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteFood はフードを削除する。
// DELETE /api/foods/{id}
// 他人の出品は削除できない。
func (h *FoodHandler) DeleteFood(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.requireOwnership(r.Context(), w, id, sess.Identity.Email); err != nil {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireOwnership は対象フードがemailの出品であることを確認する。
// 確認に失敗した場合はレスポンスを書き込み、非nilを返す。
func (h *FoodHandler) requireOwnership(ctx context.Context, w http.ResponseWriter, id, email string) error {
	food, err := h.service.Get(ctx, id)
	if err != nil {
		handleServiceError(w, err)
		return err
	}
	if food == nil {
		apiErr := model.NewFoodNotFoundError(id)
		middleware.WriteAPIError(w, apiErr)
		return apiErr
	}
	if food.AddedBy.Email != email {
		apiErr := model.NewForbiddenError()
		middleware.WriteAPIError(w, apiErr)
		return apiErr
	}
	return nil
}
