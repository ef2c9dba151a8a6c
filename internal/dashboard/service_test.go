package dashboard

import (
	"context"
	"testing"

	"github.com/restoease/restoease/internal/model"
)

// --- モック定義 ---

type mockFoodLister struct {
	listByOwnerFn func(ctx context.Context, email string) ([]model.Food, error)
}

func (m *mockFoodLister) ListByOwner(ctx context.Context, email string) ([]model.Food, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, email)
	}
	return nil, nil
}

type mockOrderLister struct {
	listByBuyerFn func(ctx context.Context, email string) ([]model.Order, error)
}

func (m *mockOrderLister) ListByBuyer(ctx context.Context, email string) ([]model.Order, error) {
	if m.listByBuyerFn != nil {
		return m.listByBuyerFn(ctx, email)
	}
	return nil, nil
}

// --- テスト ---

func TestOverview_AggregatesBothSources(t *testing.T) {
	foods := &mockFoodLister{
		listByOwnerFn: func(ctx context.Context, email string) ([]model.Food, error) {
			if email != "chef@example.com" {
				t.Errorf("email = %q, want chef@example.com", email)
			}
			return []model.Food{{ID: "f1"}, {ID: "f2"}}, nil
		},
	}
	orders := &mockOrderLister{
		listByBuyerFn: func(ctx context.Context, email string) ([]model.Order, error) {
			return []model.Order{{ID: "o1", Price: 200, Quantity: 3}}, nil
		},
	}

	svc := NewService(foods, orders)
	summary, err := svc.Overview(context.Background(), "chef@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalFoods != 2 {
		t.Errorf("totalFoods = %d, want 2", summary.TotalFoods)
	}
	if summary.TotalOrders != 1 {
		t.Errorf("totalOrders = %d, want 1", summary.TotalOrders)
	}
	if summary.TotalRevenue != 600 {
		t.Errorf("totalRevenue = %d, want 600", summary.TotalRevenue)
	}
}

func TestOverview_FoodFetchFailure_ReturnsSingleError(t *testing.T) {
	wantErr := model.NewUnauthorizedError()
	foods := &mockFoodLister{
		listByOwnerFn: func(ctx context.Context, email string) ([]model.Food, error) {
			return nil, wantErr
		},
	}
	orders := &mockOrderLister{
		listByBuyerFn: func(ctx context.Context, email string) ([]model.Order, error) {
			return []model.Order{{ID: "o1"}}, nil
		},
	}

	svc := NewService(foods, orders)
	summary, err := svc.Overview(context.Background(), "chef@example.com")

	if summary != nil {
		t.Error("expected nil summary on failure")
	}
	if err != wantErr {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestOverview_BothFail_FoodErrorWins(t *testing.T) {
	foodErr := model.NewNetworkError("接続エラー")
	orderErr := model.NewRemoteError(500)

	foods := &mockFoodLister{
		listByOwnerFn: func(ctx context.Context, email string) ([]model.Food, error) {
			return nil, foodErr
		},
	}
	orders := &mockOrderLister{
		listByBuyerFn: func(ctx context.Context, email string) ([]model.Order, error) {
			return nil, orderErr
		},
	}

	svc := NewService(foods, orders)
	_, err := svc.Overview(context.Background(), "chef@example.com")

	// 両方失敗しても返るエラーは1つだけ
	if err != foodErr {
		t.Errorf("err = %v, want %v", err, foodErr)
	}
}
