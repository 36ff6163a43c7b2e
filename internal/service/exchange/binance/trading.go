package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

var _ exchange.TradingService = (*TradingService)(nil)

type TradingService struct {
	cli       *binance.Client
	precision *PrecisionProvider
}

// NewTradingService 创建现货交易服务
func NewTradingService(cli *binance.Client, precision *PrecisionProvider) *TradingService {
	return &TradingService{
		cli:       cli,
		precision: precision,
	}
}

func (s *TradingService) MarketBuy(ctx context.Context, tradingPair exchange.TradingPair, amount decimal.Decimal) (exchange.OrderResult, error) {
	return s.marketOrder(ctx, tradingPair, exchange.SideBuy, amount)
}

func (s *TradingService) MarketSell(ctx context.Context, tradingPair exchange.TradingPair, amount decimal.Decimal) (exchange.OrderResult, error) {
	return s.marketOrder(ctx, tradingPair, exchange.SideSell, amount)
}

func (s *TradingService) marketOrder(ctx context.Context, tradingPair exchange.TradingPair, side exchange.Side, amount decimal.Decimal) (exchange.OrderResult, error) {
	quantity := s.precision.Truncate(tradingPair, amount)
	if !quantity.IsPositive() {
		return exchange.OrderResult{}, fmt.Errorf("order quantity %s too small for %s", amount, tradingPair.ToSlashString())
	}

	res, err := s.cli.NewCreateOrderService().
		Symbol(tradingPair.ToString()).
		Side(binanceSide(side)).
		Type(binance.OrderTypeMarket).
		Quantity(quantity.String()).
		NewOrderRespType(binance.NewOrderRespTypeFULL).
		Do(ctx)
	if err != nil {
		return exchange.OrderResult{}, fmt.Errorf("create market %s order failed: %w", side, err)
	}
	return convertOrderResponse(tradingPair, res)
}

// convertOrderResponse 成交均价 = 成交额 / 成交量, 手续费为各笔成交手续费之和
func convertOrderResponse(pair exchange.TradingPair, res *binance.CreateOrderResponse) (exchange.OrderResult, error) {
	executed, err := parseDecimal("executedQty", res.ExecutedQuantity)
	if err != nil {
		return exchange.OrderResult{}, err
	}
	cost, err := parseDecimal("cummulativeQuoteQty", res.CummulativeQuoteQuantity)
	if err != nil {
		return exchange.OrderResult{}, err
	}

	fee := decimal.Zero
	for _, fill := range res.Fills {
		commission, err := parseDecimal("commission", fill.Commission)
		if err != nil {
			return exchange.OrderResult{}, err
		}
		fee = fee.Add(commission)
	}

	price := decimal.Zero
	if executed.IsPositive() {
		price = cost.Div(executed)
	} else if len(res.Fills) > 0 {
		price, err = parseDecimal("fillPrice", res.Fills[0].Price)
		if err != nil {
			return exchange.OrderResult{}, err
		}
	}

	ts := time.Now()
	if res.TransactTime > 0 {
		ts = time.UnixMilli(res.TransactTime)
	}
	return exchange.OrderResult{
		OrderId:   strconv.FormatInt(res.OrderID, 10),
		Symbol:    pair,
		Side:      fromBinanceSide(res.Side),
		Price:     price,
		Amount:    executed,
		Cost:      cost,
		Fee:       fee,
		Timestamp: ts,
	}, nil
}
