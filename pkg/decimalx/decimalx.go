package decimalx

import "github.com/shopspring/decimal"

var Hundred = decimal.NewFromInt(100)

// PctChange 计算 from -> to 的百分比变化, from 为 0 时返回 0
func PctChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(Hundred)
}

// Deref 取指针值, nil 返回 0
func Deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func Ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
