package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

type TradingService interface {
	// MarketBuy 市价买入 amount 个基础币
	MarketBuy(ctx context.Context, tradingPair TradingPair, amount decimal.Decimal) (OrderResult, error)
	// MarketSell 市价卖出 amount 个基础币
	MarketSell(ctx context.Context, tradingPair TradingPair, amount decimal.Decimal) (OrderResult, error)
}
