package exchange

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPriceUnavailable    = errors.New("price unavailable")
	ErrImplausiblePrice    = errors.New("implausible price")
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderResult 市价单成交结果
type OrderResult struct {
	OrderId   string
	Symbol    TradingPair
	Side      Side
	Price     decimal.Decimal // 成交均价
	Amount    decimal.Decimal // 成交数量(基础币)
	Cost      decimal.Decimal // 成交额(计价币)
	Fee       decimal.Decimal
	Timestamp time.Time
}

// Service 现货交易所适配器, 所有交易员共享同一个实例
type Service interface {
	MarketService() MarketService
	AccountService() AccountService
	TradingService() TradingService
}
