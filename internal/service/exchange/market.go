package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TradingPair 交易对
type TradingPair struct {
	Base  string
	Quote string
}

// quotes 常见计价币, 按长度优先匹配
var quotes = []string{"FDUSD", "USDT", "BUSD", "USDC", "BTC", "ETH", "BNB"}

func SplitSymbol(s string) (string, string) {
	s = strings.ToUpper(s)
	for _, q := range quotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return strings.TrimSuffix(s, q), q
		}
	}
	// fallback
	return s, ""
}

// ParseTradingPair 支持 BTC/USDT 与 BTCUSDT 两种格式
func ParseTradingPair(s string) (TradingPair, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	var base, quote string
	if strings.Contains(s, "/") {
		parts := strings.SplitN(s, "/", 2)
		base, quote = parts[0], parts[1]
	} else {
		base, quote = SplitSymbol(s)
	}
	pair := TradingPair{Base: base, Quote: quote}
	if pair.IsZero() {
		return TradingPair{}, fmt.Errorf("invalid trading pair %q", s)
	}
	return pair, nil
}

func (s TradingPair) IsZero() bool {
	return s.Base == "" || s.Quote == ""
}

func (s TradingPair) ToString() string {
	return fmt.Sprintf("%s%s", s.Base, s.Quote)
}

func (s TradingPair) ToSlashString() string {
	return fmt.Sprintf("%s/%s", s.Base, s.Quote)
}

type Ticker struct {
	Symbol    TradingPair
	Last      decimal.Decimal
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	High      decimal.Decimal // 24h
	Low       decimal.Decimal // 24h
	Volume    decimal.Decimal // 24h 成交量(基础币)
	ChangePct decimal.Decimal // 24h 涨跌幅
	Timestamp time.Time
}

type MarketService interface {
	Ticker(ctx context.Context, tradingPair TradingPair) (Ticker, error)
}
