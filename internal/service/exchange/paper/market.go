package paper

import (
	"context"

	"github.com/KNICEX/spot-trader/internal/service/exchange"
)

// Ticker 以当前价格作为 last/bid/ask
func (svc *ExchangeService) Ticker(ctx context.Context, tradingPair exchange.TradingPair) (exchange.Ticker, error) {
	if err := svc.takeFault(&svc.tickerFaults, &svc.tickerErr); err != nil {
		return exchange.Ticker{}, err
	}
	price, err := svc.tickPrice(tradingPair)
	if err != nil {
		return exchange.Ticker{}, err
	}
	return exchange.Ticker{
		Symbol:    tradingPair,
		Last:      price,
		Bid:       price,
		Ask:       price,
		High:      price,
		Low:       price,
		Timestamp: now(),
	}, nil
}
