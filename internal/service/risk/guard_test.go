package risk

import (
	"testing"

	"github.com/KNICEX/spot-trader/internal/entity"
	"github.com/KNICEX/spot-trader/pkg/decimalx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGuard_InBand(t *testing.T) {
	g := NewGuard(entity.StrategyConfig{
		GridMin: decimalx.Ptr(d("90")),
		GridMax: decimalx.Ptr(d("110")),
	})
	testCases := []struct {
		name    string
		price   string
		allowed bool
	}{
		{name: "区间内", price: "100", allowed: true},
		{name: "下边界", price: "90", allowed: true},
		{name: "上边界", price: "110", allowed: true},
		{name: "低于下限", price: "89.99", allowed: false},
		{name: "高于上限", price: "110.01", allowed: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := g.InBand(d(tc.price))
			assert.Equal(t, tc.allowed, c.Allowed)
			if !tc.allowed {
				assert.NotEmpty(t, c.Reason)
			}
		})
	}

	assert.True(t, NewGuard(entity.StrategyConfig{}).InBand(d("1")).Allowed)
}

func TestGuard_CanBuy(t *testing.T) {
	testCases := []struct {
		name        string
		maxPosition *decimal.Decimal
		position    string
		free        string
		allowed     bool
	}{
		{name: "无限制", position: "10", free: "100", allowed: true},
		{name: "未达最大持仓", maxPosition: decimalx.Ptr(d("2")), position: "1", free: "100", allowed: true},
		{name: "达到最大持仓", maxPosition: decimalx.Ptr(d("2")), position: "2", free: "100", allowed: false},
		{name: "余额刚好足够", position: "0", free: "50", allowed: true},
		{name: "余额不足", position: "0", free: "49.99", allowed: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGuard(entity.StrategyConfig{MaxPosition: tc.maxPosition})
			c := g.CanBuy(d(tc.position), d(tc.free), d("100"), d("0.5"))
			assert.Equal(t, tc.allowed, c.Allowed)
		})
	}
}

func TestGuard_CanSell(t *testing.T) {
	g := NewGuard(entity.StrategyConfig{})
	assert.True(t, g.CanSell(d("1"), d("1")).Allowed)
	assert.True(t, g.CanSell(d("2"), d("1")).Allowed)
	assert.False(t, g.CanSell(d("0.5"), d("1")).Allowed)
	assert.False(t, g.CanSell(decimal.Zero, d("1")).Allowed)
}

func TestGuard_Exit(t *testing.T) {
	g := NewGuard(entity.StrategyConfig{
		StopLossPct:   decimalx.Ptr(d("-10")),
		TakeProfitPct: decimalx.Ptr(d("20")),
	})
	assert.True(t, g.HasExitRule())

	testCases := []struct {
		name   string
		pnlPct string
		want   ExitReason
	}{
		{name: "正常区间", pnlPct: "5", want: ExitNone},
		{name: "刚好止损", pnlPct: "-10", want: ExitStopLoss},
		{name: "超过止损", pnlPct: "-15", want: ExitStopLoss},
		{name: "刚好止盈", pnlPct: "20", want: ExitTakeProfit},
		{name: "超过止盈", pnlPct: "35", want: ExitTakeProfit},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, g.Exit(d(tc.pnlPct)))
		})
	}

	none := NewGuard(entity.StrategyConfig{})
	assert.False(t, none.HasExitRule())
	assert.Equal(t, ExitNone, none.Exit(d("-99")))
}
