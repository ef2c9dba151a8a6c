package handler

import (
	"context"
	"net/http"

	"github.com/restoease/restoease/internal/model"
)

// ContentServiceInterface はコンテンツハンドラーが必要とするサービスインターフェース。
type ContentServiceInterface interface {
	Slides(ctx context.Context) ([]model.Slide, error)
}

// ContentHandler はサイト表示コンテンツのHTTPハンドラー。
type ContentHandler struct {
	service ContentServiceInterface
}

// NewContentHandler はContentHandlerを生成する。
func NewContentHandler(service ContentServiceInterface) *ContentHandler {
	return &ContentHandler{service: service}
}

// Slides はトップページのスライド一覧を返す。
// GET /api/slides
func (h *ContentHandler) Slides(w http.ResponseWriter, r *http.Request) {
	slides, err := h.service.Slides(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if slides == nil {
		slides = []model.Slide{}
	}
	writeJSON(w, http.StatusOK, slides)
}
