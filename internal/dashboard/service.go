package dashboard

import (
	"context"
	"sync"

	"github.com/restoease/restoease/internal/model"
)

// FoodLister はユーザーの出品フード一覧取得のインターフェース。
// food.Serviceの部分集合として定義する。
type FoodLister interface {
	ListByOwner(ctx context.Context, email string) ([]model.Food, error)
}

// OrderLister はユーザーの注文履歴取得のインターフェース。
// order.Serviceの部分集合として定義する。
type OrderLister interface {
	ListByBuyer(ctx context.Context, email string) ([]model.Order, error)
}

// Service はマイページ集計のサービス層。
type Service struct {
	foods  FoodLister
	orders OrderLister
}

// NewService はServiceを生成する。
func NewService(foods FoodLister, orders OrderLister) *Service {
	return &Service{foods: foods, orders: orders}
}

// Overview はユーザーの出品と注文を並行取得し、統計を集計して返す。
// どちらかの取得が失敗した場合は単一のエラーを返す（両方失敗した場合は
// 出品側のエラーを優先する）。404は下位のサービス層で空の一覧に
// 正規化されているため、ここに届くエラーは本物の障害だけになる。
func (s *Service) Overview(ctx context.Context, email string) (*model.DashboardSummary, error) {
	var (
		wg        sync.WaitGroup
		foods     []model.Food
		orders    []model.Order
		foodsErr  error
		ordersErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		foods, foodsErr = s.foods.ListByOwner(ctx, email)
	}()
	go func() {
		defer wg.Done()
		orders, ordersErr = s.orders.ListByBuyer(ctx, email)
	}()
	wg.Wait()

	if foodsErr != nil {
		return nil, foodsErr
	}
	if ordersErr != nil {
		return nil, ordersErr
	}

	summary := Summarize(foods, orders)
	return &summary, nil
}
