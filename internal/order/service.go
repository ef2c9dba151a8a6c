// Package order は注文のドメインロジックを提供する。
package order

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/restoease/restoease/internal/model"
	"github.com/restoease/restoease/internal/remote"
)

// FoodFinder は注文対象フードの取得と在庫更新のインターフェース。
// food.Serviceの部分集合として定義する。
type FoodFinder interface {
	Get(ctx context.Context, id string) (*model.Food, error)
	Update(ctx context.Context, id string, input *model.Food) error
}

// Service は注文のサービス層。
type Service struct {
	api    *remote.Client
	foods  FoodFinder
	logger *slog.Logger
}

// NewService はServiceを生成する。
func NewService(api *remote.Client, foods FoodFinder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:    api,
		foods:  foods,
		logger: logger,
	}
}

// PlaceResult は注文確定の結果。
// Foodには在庫を減算したあとの状態が入り、画面は再取得なしで
// 残り在庫を表示できる。
type PlaceResult struct {
	Order model.Order
	Food  model.Food
}

// ListByBuyer は購入者の注文一覧を取得する。
// 注文が1件もないユーザーは正当に0件のため、404は空の一覧として扱う。
func (s *Service) ListByBuyer(ctx context.Context, email string) ([]model.Order, error) {
	var orders []model.Order
	if err := s.api.Get(ctx, "/orders/"+email, &orders, remote.AllowNotFound()); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// Place は注文を確定する。
// 処理順序:
//  1. フード詳細を取得（存在しなければ注文不可）
//  2. 数量・在庫・出品者チェック
//  3. 注文レコードをPOST
//  4. 在庫を減算したフードをPUT
//
// 3と4はアトミックではない（リモートAPIにトランザクションAPIがない）。
// 同一フードへの同時注文では後勝ちの在庫書き込みになり得る。
func (s *Service) Place(ctx context.Context, buyerName, buyerEmail, foodID string, quantity int) (*PlaceResult, error) {
	// 1. フード詳細の取得
	food, err := s.foods.Get(ctx, foodID)
	if err != nil {
		return nil, err
	}
	if food == nil {
		return nil, model.NewFoodNotFoundError(foodID)
	}

	// 2. 注文前チェック
	if quantity <= 0 {
		return nil, model.NewInvalidQuantityError(quantity)
	}
	available := food.Quantity.Int()
	if available <= 0 || quantity > available {
		return nil, model.NewOutOfStockError(quantity, available)
	}
	if sameEmail(food.AddedBy.Email, buyerEmail) {
		return nil, model.NewOwnFoodError()
	}

	// 3. 注文レコードの作成
	o := model.Order{
		FoodID:     foodID,
		FoodName:   food.Name,
		Price:      food.Price,
		Quantity:   model.FlexInt(quantity),
		BuyerName:  buyerName,
		BuyerEmail: buyerEmail,
		OrderDate:  time.Now().UnixMilli(),
	}
	var created model.Order
	if err := s.api.Post(ctx, "/orders", &o, &created); err != nil {
		return nil, err
	}
	if created.FoodID == "" {
		created = o
	}

	// 4. 在庫の減算
	updated := *food
	updated.Quantity = model.FlexInt(available - quantity)
	if err := s.foods.Update(ctx, foodID, &updated); err != nil {
		// 注文は作成済み。在庫更新だけが失敗した場合は記録して
		// エラーを返す（画面側で再試行を促す）。
		s.logger.Error("stock update failed after order creation",
			slog.String("food_id", foodID),
			slog.String("buyer", buyerEmail),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return &PlaceResult{Order: created, Food: updated}, nil
}

// Delete は注文を削除（キャンセル）する。
func (s *Service) Delete(ctx context.Context, orderID string) error {
	return s.api.Delete(ctx, "/orders/"+orderID)
}

// sameEmail はメールアドレスを大文字小文字を無視して比較する。
func sameEmail(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}
