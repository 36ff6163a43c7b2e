package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KNICEX/spot-trader/internal/entity"
	"github.com/KNICEX/spot-trader/internal/repo"
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/KNICEX/spot-trader/internal/service/risk"
	"github.com/shopspring/decimal"
)

var ErrUnsupportedStrategy = errors.New("unsupported strategy")

type Kind string

const (
	KindGrid Kind = "grid"
)

const (
	ActionBuy  = entity.ActionBuy
	ActionSell = entity.ActionSell
	ActionNone = "none"
)

// Strategy 交易员运行时, Run 阻塞直到 Stop、ctx 取消或策略自行终止
type Strategy interface {
	// Init 从账本恢复持仓
	Init(ctx context.Context) error
	Run(ctx context.Context) error
	// Stop 非阻塞, 只发出停止信号
	Stop()
	Status() Status
}

// Heartbeat 运行时每轮循环上报, 单向非阻塞
type Heartbeat struct {
	TraderId string
	At       time.Time
}

type Status struct {
	TraderId          string                `json:"trader_id"`
	Strategy          Kind                  `json:"strategy"`
	Symbol            string                `json:"symbol"`
	Running           bool                  `json:"running"`
	Config            entity.StrategyConfig `json:"config"`
	LastPrice         *decimal.Decimal      `json:"last_price"`
	LastAction        string                `json:"last_action"`
	TradeCount        int                   `json:"trade_count"`
	Position          decimal.Decimal       `json:"position"`
	LastHeartbeat     time.Time             `json:"last_heartbeat"`
	TerminationReason risk.ExitReason       `json:"termination_reason,omitempty"`
}

// PriceSource 带缓存回退的价格源
type PriceSource interface {
	Price(ctx context.Context, pair exchange.TradingPair) (exchange.Quote, error)
}

var _ PriceSource = (*exchange.PriceFeed)(nil)

// Deps 运行时共享依赖, 所有交易员共用
type Deps struct {
	Feed       PriceSource
	AccountSvc exchange.AccountService
	Executor   *Executor
	TradeRepo  repo.TradeRepo
	Heartbeats chan<- Heartbeat
}

type Factory func(trader entity.Trader, deps Deps) (Strategy, error)

var factories = map[Kind]Factory{
	KindGrid: func(trader entity.Trader, deps Deps) (Strategy, error) {
		return NewGrid(trader, deps)
	},
}

// Register 注册策略类型, 须在任何交易员启动前调用
func Register(kind Kind, factory Factory) {
	factories[kind] = factory
}

// Supported 是否支持该策略类型
func Supported(kind string) bool {
	_, ok := factories[Kind(kind)]
	return ok
}

// New 按交易员的策略类型创建运行时
func New(trader entity.Trader, deps Deps) (Strategy, error) {
	factory, ok := factories[Kind(trader.Strategy)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, trader.Strategy)
	}
	return factory(trader, deps)
}
