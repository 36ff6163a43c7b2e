package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

var _ exchange.MarketService = (*MarketService)(nil)

type MarketService struct {
	cli *binance.Client
}

// NewMarketService 创建现货行情服务
func NewMarketService(cli *binance.Client) *MarketService {
	return &MarketService{cli: cli}
}

func (m *MarketService) Ticker(ctx context.Context, tradingPair exchange.TradingPair) (exchange.Ticker, error) {
	res, err := m.cli.NewListPriceChangeStatsService().Symbol(tradingPair.ToString()).Do(ctx)
	if err != nil {
		return exchange.Ticker{}, fmt.Errorf("get ticker %s: %w", tradingPair.ToSlashString(), err)
	}
	if len(res) == 0 {
		return exchange.Ticker{}, fmt.Errorf("get ticker %s: empty response", tradingPair.ToSlashString())
	}
	return convertTicker(tradingPair, res[0])
}

func convertTicker(pair exchange.TradingPair, s *binance.PriceChangeStats) (exchange.Ticker, error) {
	t := exchange.Ticker{Symbol: pair, Timestamp: time.Now()}
	if s.CloseTime > 0 {
		t.Timestamp = time.UnixMilli(s.CloseTime)
	}
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"lastPrice", s.LastPrice, &t.Last},
		{"bidPrice", s.BidPrice, &t.Bid},
		{"askPrice", s.AskPrice, &t.Ask},
		{"highPrice", s.HighPrice, &t.High},
		{"lowPrice", s.LowPrice, &t.Low},
		{"volume", s.Volume, &t.Volume},
		{"priceChangePercent", s.PriceChangePercent, &t.ChangePct},
	}
	for _, f := range fields {
		v, err := parseDecimal(f.name, f.raw)
		if err != nil {
			return exchange.Ticker{}, err
		}
		*f.dst = v
	}
	return t, nil
}
