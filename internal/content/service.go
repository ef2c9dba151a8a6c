// Package content はサイトの表示コンテンツ（スライド等）を提供する。
package content

import (
	"context"

	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/remote"
)

// Service は表示コンテンツのサービス層。
type Service struct {
	api *remote.Client
}

// NewService はServiceを生成する。
func NewService(api *remote.Client) *Service {
	return &Service{api: api}
}

// Slides はトップページのスライド一覧を取得する。
func (s *Service) Slides(ctx context.Context) ([]model.Slide, error) {
	var slides []model.Slide
	if err := s.api.Get(ctx, "/slides", &slides); err != nil {
		return nil, err
	}
	return slides, nil
}
