package paper

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/shopspring/decimal"
)

// 编译时检查接口实现
var (
	_ exchange.Service        = (*ExchangeService)(nil)
	_ exchange.MarketService  = (*ExchangeService)(nil)
	_ exchange.AccountService = (*ExchangeService)(nil)
	_ exchange.TradingService = (*ExchangeService)(nil)
)

// DefaultFeeRate 模拟手续费率 0.15%
var DefaultFeeRate = decimal.RequireFromString("0.0015")

// ExchangeService 内存模拟撮合的现货交易所, 用于无 API Key 的演示模式与测试
type ExchangeService struct {
	feeRate decimal.Decimal

	priceMu sync.RWMutex
	prices  map[string]decimal.Decimal // key: tradingPair symbol
	walk    *randomWalk

	accountMu sync.Mutex
	balances  map[string]decimal.Decimal // key: asset

	orderMu     sync.Mutex
	nextOrderId int64
	orders      []exchange.OrderResult

	faultMu      sync.Mutex
	tickerFaults int
	tickerErr    error
	orderFaults  int
	orderErr     error
}

type Option func(svc *ExchangeService)

func WithFeeRate(rate decimal.Decimal) Option {
	return func(svc *ExchangeService) {
		svc.feeRate = rate
	}
}

// WithBalances 初始余额, key 为币种
func WithBalances(balances map[string]decimal.Decimal) Option {
	return func(svc *ExchangeService) {
		for asset, amount := range balances {
			svc.balances[strings.ToUpper(asset)] = amount
		}
	}
}

// WithPrices 初始价格, key 为交易对 (BTC/USDT 或 BTCUSDT)
func WithPrices(prices map[string]decimal.Decimal) Option {
	return func(svc *ExchangeService) {
		for symbol, price := range prices {
			pair, err := exchange.ParseTradingPair(symbol)
			if err != nil {
				continue
			}
			svc.prices[pair.ToString()] = price
		}
	}
}

func NewExchangeService(opts ...Option) *ExchangeService {
	svc := &ExchangeService{
		feeRate:     DefaultFeeRate,
		prices:      make(map[string]decimal.Decimal),
		balances:    make(map[string]decimal.Decimal),
		nextOrderId: 1,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc *ExchangeService) MarketService() exchange.MarketService {
	return svc
}

func (svc *ExchangeService) AccountService() exchange.AccountService {
	return svc
}

func (svc *ExchangeService) TradingService() exchange.TradingService {
	return svc
}

// SetPrice 更新交易对当前价格
func (svc *ExchangeService) SetPrice(tradingPair exchange.TradingPair, price decimal.Decimal) {
	svc.priceMu.Lock()
	defer svc.priceMu.Unlock()
	svc.prices[tradingPair.ToString()] = price
}

// SetBalance 覆盖某币种可用余额
func (svc *ExchangeService) SetBalance(asset string, amount decimal.Decimal) {
	svc.accountMu.Lock()
	defer svc.accountMu.Unlock()
	svc.balances[strings.ToUpper(asset)] = amount
}

// FailTicker 接下来 times 次行情请求返回 err
func (svc *ExchangeService) FailTicker(times int, err error) {
	svc.faultMu.Lock()
	defer svc.faultMu.Unlock()
	svc.tickerFaults, svc.tickerErr = times, err
}

// FailOrders 接下来 times 次下单返回 err
func (svc *ExchangeService) FailOrders(times int, err error) {
	svc.faultMu.Lock()
	defer svc.faultMu.Unlock()
	svc.orderFaults, svc.orderErr = times, err
}

// Orders 已成交订单, 按成交顺序
func (svc *ExchangeService) Orders() []exchange.OrderResult {
	svc.orderMu.Lock()
	defer svc.orderMu.Unlock()
	res := make([]exchange.OrderResult, len(svc.orders))
	copy(res, svc.orders)
	return res
}

func (svc *ExchangeService) takeFault(counter *int, err *error) error {
	svc.faultMu.Lock()
	defer svc.faultMu.Unlock()
	if *counter <= 0 {
		return nil
	}
	*counter--
	return *err
}

func (svc *ExchangeService) price(tradingPair exchange.TradingPair) (decimal.Decimal, error) {
	svc.priceMu.RLock()
	defer svc.priceMu.RUnlock()
	price, ok := svc.prices[tradingPair.ToString()]
	if !ok {
		return decimal.Zero, errNoPrice(tradingPair)
	}
	return price, nil
}

func errNoPrice(tradingPair exchange.TradingPair) error {
	return fmt.Errorf("no price data for %s", tradingPair.ToSlashString())
}

func (svc *ExchangeService) newOrderId() string {
	svc.orderMu.Lock()
	defer svc.orderMu.Unlock()
	id := svc.nextOrderId
	svc.nextOrderId++
	return "paper-" + strconv.FormatInt(id, 10)
}

func (svc *ExchangeService) record(res exchange.OrderResult) {
	svc.orderMu.Lock()
	defer svc.orderMu.Unlock()
	svc.orders = append(svc.orders, res)
}

func now() time.Time {
	return time.Now()
}
