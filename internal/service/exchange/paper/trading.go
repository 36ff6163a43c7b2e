package paper

import (
	"context"
	"fmt"

	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/shopspring/decimal"
)

// ============ TradingService 实现 ============

func (svc *ExchangeService) MarketBuy(ctx context.Context, tradingPair exchange.TradingPair, amount decimal.Decimal) (exchange.OrderResult, error) {
	return svc.fill(tradingPair, exchange.SideBuy, amount)
}

func (svc *ExchangeService) MarketSell(ctx context.Context, tradingPair exchange.TradingPair, amount decimal.Decimal) (exchange.OrderResult, error) {
	return svc.fill(tradingPair, exchange.SideSell, amount)
}

// fill 以当前价格全部成交, 手续费以计价币扣除
func (svc *ExchangeService) fill(tradingPair exchange.TradingPair, side exchange.Side, amount decimal.Decimal) (exchange.OrderResult, error) {
	if err := svc.takeFault(&svc.orderFaults, &svc.orderErr); err != nil {
		return exchange.OrderResult{}, err
	}
	if !amount.IsPositive() {
		return exchange.OrderResult{}, fmt.Errorf("invalid order amount %s", amount)
	}
	price, err := svc.price(tradingPair)
	if err != nil {
		return exchange.OrderResult{}, err
	}

	cost := price.Mul(amount)
	fee := cost.Mul(svc.feeRate)

	svc.accountMu.Lock()
	switch side {
	case exchange.SideBuy:
		need := cost.Add(fee)
		if svc.balances[tradingPair.Quote].LessThan(need) {
			svc.accountMu.Unlock()
			return exchange.OrderResult{}, fmt.Errorf("%w: need %s %s, have %s",
				exchange.ErrInsufficientBalance, need, tradingPair.Quote, svc.balances[tradingPair.Quote])
		}
		svc.balances[tradingPair.Quote] = svc.balances[tradingPair.Quote].Sub(need)
		svc.balances[tradingPair.Base] = svc.balances[tradingPair.Base].Add(amount)
	case exchange.SideSell:
		if svc.balances[tradingPair.Base].LessThan(amount) {
			svc.accountMu.Unlock()
			return exchange.OrderResult{}, fmt.Errorf("%w: need %s %s, have %s",
				exchange.ErrInsufficientBalance, amount, tradingPair.Base, svc.balances[tradingPair.Base])
		}
		svc.balances[tradingPair.Base] = svc.balances[tradingPair.Base].Sub(amount)
		svc.balances[tradingPair.Quote] = svc.balances[tradingPair.Quote].Add(cost.Sub(fee))
	}
	svc.accountMu.Unlock()

	res := exchange.OrderResult{
		OrderId:   svc.newOrderId(),
		Symbol:    tradingPair,
		Side:      side,
		Price:     price,
		Amount:    amount,
		Cost:      cost,
		Fee:       fee,
		Timestamp: now(),
	}
	svc.record(res)
	return res, nil
}
