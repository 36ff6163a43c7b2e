package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/KNICEX/spot-trader/internal/entity"
	"github.com/KNICEX/spot-trader/internal/repo"
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/shopspring/decimal"
)

// ErrOrderNotFilled 交易所接受了订单但成交数量为 0
var ErrOrderNotFilled = errors.New("order not filled")

// Order 待执行的市价单
type Order struct {
	TraderId string
	Strategy Kind
	Pair     exchange.TradingPair
	Side     exchange.Side
	Amount   decimal.Decimal
	// Position 下单前的账本持仓
	Position decimal.Decimal
}

// Executor 下单并写入账本
type Executor struct {
	tradingSvc exchange.TradingService
	tradeRepo  repo.TradeRepo
}

func NewExecutor(tradingSvc exchange.TradingService, tradeRepo repo.TradeRepo) *Executor {
	return &Executor{
		tradingSvc: tradingSvc,
		tradeRepo:  tradeRepo,
	}
}

// Execute 下单失败时不写账本; 持仓变化以实际成交数量为准
func (e *Executor) Execute(ctx context.Context, order Order) (entity.Trade, error) {
	var (
		res exchange.OrderResult
		err error
	)
	switch order.Side {
	case exchange.SideBuy:
		res, err = e.tradingSvc.MarketBuy(ctx, order.Pair, order.Amount)
	case exchange.SideSell:
		res, err = e.tradingSvc.MarketSell(ctx, order.Pair, order.Amount)
	default:
		return entity.Trade{}, fmt.Errorf("unsupported order side: %s", order.Side)
	}
	if err != nil {
		return entity.Trade{}, fmt.Errorf("place market %s order failed: %w", order.Side, err)
	}

	if !res.Amount.IsPositive() {
		return entity.Trade{}, fmt.Errorf("%w: order %s, side %s", ErrOrderNotFilled, res.OrderId, order.Side)
	}
	trade := entity.Trade{
		TraderId:       order.TraderId,
		Strategy:       string(order.Strategy),
		Symbol:         order.Pair.ToSlashString(),
		OrderId:        res.OrderId,
		Price:          res.Price,
		Amount:         res.Amount,
		Cost:           res.Cost,
		Fee:            res.Fee,
		PositionBefore: order.Position,
		Timestamp:      res.Timestamp,
	}
	if order.Side == exchange.SideBuy {
		trade.Action = entity.ActionBuy
	} else {
		trade.Action = entity.ActionSell
	}
	trade.PositionAfter = order.Position.Add(trade.SignedAmount())

	if err = e.tradeRepo.Append(ctx, &trade); err != nil {
		return entity.Trade{}, fmt.Errorf("order %s filled but ledger append failed: %w", res.OrderId, err)
	}
	return trade, nil
}
