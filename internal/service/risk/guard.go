package risk

import (
	"fmt"

	"github.com/KNICEX/spot-trader/internal/entity"
	"github.com/shopspring/decimal"
)

// Check 交易前检查结果, 不通过只跳过本次信号, 不视为错误
type Check struct {
	Allowed bool
	Reason  string
}

func allow() Check {
	return Check{Allowed: true}
}

func deny(format string, args ...any) Check {
	return Check{Reason: fmt.Sprintf(format, args...)}
}

// ExitReason 止盈止损导致的终止原因
type ExitReason string

const (
	ExitNone       ExitReason = ""
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
)

// Guard 单个交易员的风控规则, 由策略配置生成
type Guard struct {
	gridMin       *decimal.Decimal
	gridMax       *decimal.Decimal
	maxPosition   *decimal.Decimal
	stopLossPct   *decimal.Decimal
	takeProfitPct *decimal.Decimal
}

func NewGuard(cfg entity.StrategyConfig) *Guard {
	return &Guard{
		gridMin:       cfg.GridMin,
		gridMax:       cfg.GridMax,
		maxPosition:   cfg.MaxPosition,
		stopLossPct:   cfg.StopLossPct,
		takeProfitPct: cfg.TakeProfitPct,
	}
}

// InBand 价格是否在网格区间内, 边界价格视为区间内
func (g *Guard) InBand(price decimal.Decimal) Check {
	if g.gridMin != nil && price.LessThan(*g.gridMin) {
		return deny("price %s below grid min %s", price, *g.gridMin)
	}
	if g.gridMax != nil && price.GreaterThan(*g.gridMax) {
		return deny("price %s above grid max %s", price, *g.gridMax)
	}
	return allow()
}

func (g *Guard) CanBuy(position, freeQuote, price, amount decimal.Decimal) Check {
	if g.maxPosition != nil && position.GreaterThanOrEqual(*g.maxPosition) {
		return deny("position %s reached max position %s", position, *g.maxPosition)
	}
	if required := price.Mul(amount); freeQuote.LessThan(required) {
		return deny("insufficient balance: free %s, required %s", freeQuote, required)
	}
	return allow()
}

// CanSell 现货不允许卖空
func (g *Guard) CanSell(position, amount decimal.Decimal) Check {
	if position.LessThan(amount) {
		return deny("position %s less than amount %s", position, amount)
	}
	return allow()
}

func (g *Guard) HasExitRule() bool {
	return g.stopLossPct != nil || g.takeProfitPct != nil
}

// Exit 按收益率判断是否止损或止盈, 止损优先
func (g *Guard) Exit(pnlPct decimal.Decimal) ExitReason {
	if g.stopLossPct != nil && pnlPct.LessThanOrEqual(*g.stopLossPct) {
		return ExitStopLoss
	}
	if g.takeProfitPct != nil && pnlPct.GreaterThanOrEqual(*g.takeProfitPct) {
		return ExitTakeProfit
	}
	return ExitNone
}
