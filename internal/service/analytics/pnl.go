package analytics

import (
	"github.com/KNICEX/spot-trader/internal/entity"
	"github.com/KNICEX/spot-trader/pkg/decimalx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PnL 基于成交记录与最新价格的盈亏汇总, 均价法
type PnL struct {
	TotalBought      decimal.Decimal `json:"total_bought"`
	TotalBuyCost     decimal.Decimal `json:"total_buy_cost"`
	TotalSold        decimal.Decimal `json:"total_sold"`
	TotalSellRevenue decimal.Decimal `json:"total_sell_revenue"`
	AvgBuyPrice      decimal.Decimal `json:"avg_buy_price"`
	CurrentPosition  decimal.Decimal `json:"current_position"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	RealizedPnL      decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnL    decimal.Decimal `json:"unrealized_pnl"`
	TotalPnL         decimal.Decimal `json:"total_pnl"`
	PnLPct           decimal.Decimal `json:"pnl_pct"`
	LatestPrice      decimal.Decimal `json:"latest_price"`
	TradeCount       int             `json:"trade_count"`
}

func sumBy(trades []entity.Trade, f func(t entity.Trade) decimal.Decimal) decimal.Decimal {
	return lo.Reduce(trades, func(acc decimal.Decimal, t entity.Trade, _ int) decimal.Decimal {
		return acc.Add(f(t))
	}, decimal.Zero)
}

func tradeAmount(t entity.Trade) decimal.Decimal {
	return t.Amount
}

// tradeCost 成交额按 价格×数量 计算, 不使用交易所回报的 Cost
func tradeCost(t entity.Trade) decimal.Decimal {
	return t.Price.Mul(t.Amount)
}

func splitByAction(trades []entity.Trade) (buys, sells []entity.Trade) {
	return lo.FilterReject(trades, func(t entity.Trade, _ int) bool {
		return t.Action == entity.ActionBuy
	})
}

// Position 持仓 = 买入总量 - 卖出总量
func Position(trades []entity.Trade) decimal.Decimal {
	buys, sells := splitByAction(trades)
	return sumBy(buys, tradeAmount).Sub(sumBy(sells, tradeAmount))
}

// Calculate 计算已实现/未实现盈亏, 空记录返回全 0
func Calculate(trades []entity.Trade, latestPrice decimal.Decimal) PnL {
	res := PnL{LatestPrice: latestPrice, TradeCount: len(trades)}
	if len(trades) == 0 {
		return res
	}

	buys, sells := splitByAction(trades)
	res.TotalBought = sumBy(buys, tradeAmount)
	res.TotalBuyCost = sumBy(buys, tradeCost)
	res.TotalSold = sumBy(sells, tradeAmount)
	res.TotalSellRevenue = sumBy(sells, tradeCost)

	if res.TotalBought.IsPositive() {
		res.AvgBuyPrice = res.TotalBuyCost.Div(res.TotalBought)
	}

	soldAtAvg := res.AvgBuyPrice.Mul(res.TotalSold)
	res.RealizedPnL = res.TotalSellRevenue.Sub(soldAtAvg)
	remainingCost := res.TotalBuyCost.Sub(soldAtAvg)

	res.CurrentPosition = res.TotalBought.Sub(res.TotalSold)
	res.CurrentValue = res.CurrentPosition.Mul(latestPrice)
	if res.CurrentPosition.IsPositive() {
		res.UnrealizedPnL = res.CurrentValue.Sub(remainingCost)
	}
	res.TotalPnL = res.RealizedPnL.Add(res.UnrealizedPnL)

	if res.TotalBuyCost.IsPositive() {
		res.PnLPct = res.TotalPnL.Div(res.TotalBuyCost).Mul(decimalx.Hundred)
	}
	return res
}
