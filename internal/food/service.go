// Package food はフード出品のドメインロジックを提供する。
// すべての読み書きはリモートAPIに委譲され、このパッケージは
// 送信前のバリデーションとサニタイズだけを担う。
package food

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/remote"
	"github.com/restoease/restoease/internal/security"
)

// imageCheckTimeout は画像URL到達性チェックのタイムアウト。
// 本体のリクエストタイムアウト（10秒）より短く抑える。
const imageCheckTimeout = 5 * time.Second

// Service はフード出品のサービス層。
type Service struct {
	api       *remote.Client
	urlGuard  security.ImageURLGuardService
	sanitizer security.DescriptionSanitizerService
}

// NewService はServiceを生成する。
func NewService(api *remote.Client, urlGuard security.ImageURLGuardService, sanitizer security.DescriptionSanitizerService) *Service {
	return &Service{
		api:       api,
		urlGuard:  urlGuard,
		sanitizer: sanitizer,
	}
}

// List は全フードの一覧を取得する。
func (s *Service) List(ctx context.Context) ([]model.Food, error) {
	var foods []model.Food
	if err := s.api.Get(ctx, "/foods", &foods); err != nil {
		return nil, err
	}
	return foods, nil
}

// Top は購入数の多い順にlimit件のフードを返す。ホーム画面で使用する。
func (s *Service) Top(ctx context.Context, limit int) ([]model.Food, error) {
	foods, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(foods, func(i, j int) bool {
		return foods[i].PurchaseCount > foods[j].PurchaseCount
	})

	if limit > 0 && len(foods) > limit {
		foods = foods[:limit]
	}
	return foods, nil
}

// Get はフード詳細を取得する。存在しない場合はnilを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Food, error) {
	var f model.Food
	if err := s.api.Get(ctx, "/foods/"+id, &f); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// ListByOwner は出品者のフード一覧を取得する。
// 新規ユーザーは正当に0件のため、404は空の一覧として扱う。
func (s *Service) ListByOwner(ctx context.Context, email string) ([]model.Food, error) {
	var foods []model.Food
	if err := s.api.Get(ctx, "/foods/user/"+email, &foods, remote.AllowNotFound()); err != nil {
		return nil, err
	}
	if foods == nil {
		foods = []model.Food{}
	}
	return foods, nil
}

// Create は新しいフードを出品する。
// 送信前にクライアント側の不変条件（価格・数量は0以上、画像URLは公開URL）を
// 検証し、説明文をサニタイズする。
func (s *Service) Create(ctx context.Context, owner model.FoodOwner, input *model.Food) (*model.Food, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	s.checkImageReachable(ctx, input.Image)

	f := *input
	f.ID = ""
	f.AddedBy = owner
	f.Description = s.sanitizer.Sanitize(f.Description)
	f.PurchaseCount = 0
	f.AddedTime = time.Now().UTC().Format(time.RFC3339)

	var created model.Food
	if err := s.api.Post(ctx, "/foods", &f, &created); err != nil {
		return nil, err
	}
	if created.Name == "" {
		// リモートAPIが作成結果を返さない場合は送信内容をそのまま返す
		created = f
	}
	return &created, nil
}

// Update はフードを更新する。
// リモートAPIは _id を含むドキュメントの更新を拒否するため、
// 送信前にIDをクリアしてフルドキュメントを再送する。
func (s *Service) Update(ctx context.Context, id string, input *model.Food) error {
	if err := s.validate(input); err != nil {
		return err
	}

	f := *input
	f.ID = ""
	f.Description = s.sanitizer.Sanitize(f.Description)

	return s.api.Put(ctx, "/foods/"+id, &f, nil)
}

// Delete はフードを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.api.Delete(ctx, "/foods/"+id)
}

// validate は送信前の不変条件を検証する。
func (s *Service) validate(f *model.Food) error {
	if f.Name == "" {
		return &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "フード名は必須です。",
			Category: "validation",
			Action:   "フード名を入力してください。",
		}
	}
	if f.Price < 0 {
		return model.NewInvalidPriceError(f.Price.Int())
	}
	if f.Quantity < 0 {
		return model.NewInvalidQuantityError(f.Quantity.Int())
	}
	if err := s.urlGuard.ValidateURL(f.Image); err != nil {
		return model.NewInvalidURLError(err.Error())
	}
	return nil
}

// checkImageReachable は画像URLの到達性をベストエフォートで確認する。
// 到達できない場合も出品はブロックせず、警告ログのみ記録する。
func (s *Service) checkImageReachable(ctx context.Context, imageURL string) {
	client := s.urlGuard.NewSafeClient(imageCheckTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("image URL unreachable",
			slog.String("url", imageURL),
			slog.String("error", err.Error()),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		slog.Warn("image URL returned error status",
			slog.String("url", imageURL),
			slog.String("status", fmt.Sprintf("%d", resp.StatusCode)),
		)
	}
}
