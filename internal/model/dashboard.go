package model

// DashboardSummary はユーザーのフードと注文から導出される集計レコード。
// 永続化されず、取得のたびに再計算される。
type DashboardSummary struct {
	TotalFoods        int     `json:"totalFoods"`
	TotalOrders       int     `json:"totalOrders"`
	TotalRevenue      int     `json:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	RecentFoods       []Food  `json:"recentFoods"`
	RecentOrders      []Order `json:"recentOrders"`
}
