package model

// FoodOwner はフード出品者の情報を表す。
// リモートAPIではフード行に非正規化されて埋め込まれる。
type FoodOwner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Food はリモートAPIが所有するフード出品を表す。
// IDはMongoDB由来の _id フィールドにマップされる。
// 数値フィールドはリモート側の表現揺れ（素の数値・文字列・ボックス化表現）を
// 吸収するためFlexIntで受ける。
type Food struct {
	ID            string    `json:"_id,omitempty"`
	Name          string    `json:"name"`
	Image         string    `json:"image"`
	Category      string    `json:"category"`
	Quantity      FlexInt   `json:"quantity"`
	Price         FlexInt   `json:"price"`
	AddedBy       FoodOwner `json:"addedBy"`
	Origin        string    `json:"origin"`
	Description   string    `json:"description"`
	PurchaseCount FlexInt   `json:"purchaseCount"`
	AddedTime     string    `json:"addedTime,omitempty"`
}

// Order はリモートAPIが所有する注文を表す。
// フード名と価格は注文時点の値を非正規化して保持する。
// OrderDateはミリ秒単位のUNIX時刻。
type Order struct {
	ID         string  `json:"_id,omitempty"`
	FoodID     string  `json:"foodId"`
	FoodName   string  `json:"foodName"`
	Price      FlexInt `json:"price"`
	Quantity   FlexInt `json:"quantity"`
	BuyerName  string  `json:"buyerName"`
	BuyerEmail string  `json:"buyerEmail"`
	OrderDate  int64   `json:"orderDate"`
}

// Slide はホーム画面のスライダーとギャラリーで使用する画像を表す。
type Slide struct {
	ID       string `json:"_id,omitempty"`
	Image    string `json:"image"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}
