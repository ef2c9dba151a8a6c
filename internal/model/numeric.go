package model

import (
	"encoding/json"
	"strconv"
)

// FlexInt はリモートAPIの数値表現の揺れを吸収する整数型。
// 以下の表現をすべて受け付け、数値として解釈できない値は0にフォールバックする:
//   - 素の数値: 5, 5.0
//   - 数値文字列: "5"
//   - ボックス化表現（MongoDB拡張JSON）: {"$numberInt": "5"}, {"$numberLong": "5"},
//     {"$numberDouble": "5.0"}
//
// 出力時は常に素の数値としてシリアライズされる。
type FlexInt int

// UnmarshalJSON はerrorを返さない。解釈できない入力は0として扱う
// （ダッシュボード集計が欠損値で失敗しないようにするための仕様）。
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt(coerceInt(data))
	return nil
}

// MarshalJSON は素の数値として出力する。
func (f FlexInt) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(f))), nil
}

// Int はint型の値を返す。
func (f FlexInt) Int() int {
	return int(f)
}

// coerceInt はJSON値を整数に強制変換する。変換不能な場合は0を返す。
func coerceInt(data []byte) int {
	// 1. 素の数値
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		return int(n)
	}

	// 2. 数値文字列
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if fl, err := strconv.ParseFloat(s, 64); err == nil {
			return int(fl)
		}
		return 0
	}

	// 3. ボックス化表現
	var boxed map[string]json.RawMessage
	if err := json.Unmarshal(data, &boxed); err == nil {
		for _, key := range []string{"$numberInt", "$numberLong", "$numberDouble"} {
			if raw, ok := boxed[key]; ok {
				return coerceInt(raw)
			}
		}
	}

	return 0
}
