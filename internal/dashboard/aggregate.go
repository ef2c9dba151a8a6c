// Package dashboard はマイページの集計機能を提供する。
package dashboard

import "github.com/restoease/restoease/internal/model"

// recentLimit は「最近の項目」として表示する件数。
const recentLimit = 5

// Summarize は出品フードと注文履歴から統計を集計する純粋関数。
// 出品数画面・注文数画面・統計画面で共有される唯一の集計ロジック。
//
//   - TotalRevenue: 各注文の price × quantity の合計
//   - AverageOrderValue: TotalRevenue / 注文数（注文0件なら0）
//   - RecentFoods / RecentOrders: 一覧の先頭から最大5件
func Summarize(foods []model.Food, orders []model.Order) model.DashboardSummary {
	totalRevenue := 0
	for _, o := range orders {
		totalRevenue += o.Price.Int() * o.Quantity.Int()
	}

	average := 0.0
	if len(orders) > 0 {
		average = float64(totalRevenue) / float64(len(orders))
	}

	return model.DashboardSummary{
		TotalFoods:        len(foods),
		TotalOrders:       len(orders),
		TotalRevenue:      totalRevenue,
		AverageOrderValue: average,
		RecentFoods:       head(foods, recentLimit),
		RecentOrders:      head(orders, recentLimit),
	}
}

// head はスライスの先頭から最大n件を新しいスライスとして返す。
func head[T any](items []T, n int) []T {
	if len(items) < n {
		n = len(items)
	}
	out := make([]T, n)
	copy(out, items[:n])
	return out
}
