package model

import (
	"encoding/json"
	"testing"
)

func TestFlexInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"素の数値", `42`, 42},
		{"小数は切り捨て", `42.9`, 42},
		{"数値文字列", `"120"`, 120},
		{"ボックス化int", `{"$numberInt":"7"}`, 7},
		{"ボックス化long", `{"$numberLong":"9000"}`, 9000},
		{"ボックス化double", `{"$numberDouble":"3.5"}`, 3},
		{"null", `null`, 0},
		{"不正な文字列はゼロ", `"abc"`, 0},
		{"不正なオブジェクトはゼロ", `{"foo":"bar"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v FlexInt
			if err := json.Unmarshal([]byte(tt.input), &v); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Int() != tt.want {
				t.Errorf("FlexInt = %d, want %d", v.Int(), tt.want)
			}
		})
	}
}

func TestFlexInt_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(FlexInt(99))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "99" {
		t.Errorf("marshaled = %s, want 99", b)
	}
}

func TestFlexInt_RoundTripInFood(t *testing.T) {
	// リモートAPIのボックス化表現を含むフード行がそのままデコードできること
	raw := `{
		"_id": "f1",
		"name": "カレー",
		"quantity": {"$numberInt": "5"},
		"price": "300",
		"purchaseCount": 12
	}`

	var f Food
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Quantity.Int() != 5 {
		t.Errorf("quantity = %d, want 5", f.Quantity.Int())
	}
	if f.Price.Int() != 300 {
		t.Errorf("price = %d, want 300", f.Price.Int())
	}
	if f.PurchaseCount.Int() != 12 {
		t.Errorf("purchaseCount = %d, want 12", f.PurchaseCount.Int())
	}
}
