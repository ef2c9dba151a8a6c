// Package profile はユーザープロフィールのサービス層を提供する。
// プロフィールの実体はリモートAPI側に保存される。
package profile

import (
	"context"

	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/remote"
)

// Service はユーザープロフィールのサービス層。
type Service struct {
	api *remote.Client
}

// NewService はServiceを生成する。
func NewService(api *remote.Client) *Service {
	return &Service{api: api}
}

// Find はメールアドレスでプロフィールを検索する。
// 未登録の場合はエラーではなくnilを返す。連合ログイン後の
// アップサート判定で「存在しない」と「取得失敗」を区別するため。
func (s *Service) Find(ctx context.Context, email string) (*model.UserProfile, error) {
	var p model.UserProfile
	if err := s.api.Get(ctx, "/users/"+email, &p, remote.AllowNotFound()); err != nil {
		return nil, err
	}
	if p.Email == "" && p.UID == "" {
		return nil, nil
	}
	return &p, nil
}

// Create は新しいプロフィールを登録する。
func (s *Service) Create(ctx context.Context, p *model.UserProfile) error {
	return s.api.Post(ctx, "/users", p, nil)
}
