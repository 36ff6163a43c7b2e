package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KNICEX/spot-trader/internal/entity"
	"github.com/KNICEX/spot-trader/internal/service/analytics"
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/KNICEX/spot-trader/internal/service/risk"
	"github.com/KNICEX/spot-trader/pkg/decimalx"
	"github.com/shopspring/decimal"
)

var _ Strategy = (*Grid)(nil)

// Grid 网格策略: 相对上次成交价跌 gap% 买入, 涨 gap% 卖出, 同方向不连续触发
type Grid struct {
	traderId string
	pair     exchange.TradingPair
	cfg      entity.StrategyConfig
	guard    *risk.Guard
	deps     Deps
	logger   *slog.Logger

	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once

	mu            sync.RWMutex
	lastPrice     *decimal.Decimal
	lastAction    string
	tradeCount    int
	position      decimal.Decimal
	lastHeartbeat time.Time
	termination   risk.ExitReason
}

func NewGrid(trader entity.Trader, deps Deps) (*Grid, error) {
	pair, err := exchange.ParseTradingPair(trader.Symbol)
	if err != nil {
		return nil, err
	}
	if !trader.Config.Amount.IsPositive() || !trader.Config.GridGap.IsPositive() || trader.Config.CheckInterval <= 0 {
		return nil, fmt.Errorf("invalid grid config: amount %s, gap %s, interval %d",
			trader.Config.Amount, trader.Config.GridGap, trader.Config.CheckInterval)
	}
	return &Grid{
		traderId:   trader.Id,
		pair:       pair,
		cfg:        trader.Config,
		guard:      risk.NewGuard(trader.Config),
		deps:       deps,
		logger:     slog.With("trader_id", trader.Id, "symbol", pair.ToSlashString(), "strategy", KindGrid),
		stopCh:     make(chan struct{}),
		lastAction: ActionNone,
	}, nil
}

func (g *Grid) Init(ctx context.Context) error {
	trades, err := g.deps.TradeRepo.FindByTraderSymbol(ctx, g.traderId, g.pair.ToSlashString())
	if err != nil {
		return fmt.Errorf("load ledger failed: %w", err)
	}
	position := analytics.Position(trades)

	g.mu.Lock()
	g.position = position
	g.lastPrice = nil
	g.lastAction = ActionNone
	g.tradeCount = 0
	g.termination = risk.ExitNone
	g.mu.Unlock()

	g.running.Store(true)
	g.logger.Info("grid initialized", "position", position, "ledger_trades", len(trades))
	return nil
}

func (g *Grid) Run(ctx context.Context) error {
	g.logger.Info("grid started", "amount", g.cfg.Amount, "grid_gap", g.cfg.GridGap, "interval", g.cfg.Interval())
	defer g.logger.Info("grid exited", "termination", g.Status().TerminationReason)

	for g.running.Load() {
		if err := g.safeStep(ctx); err != nil {
			g.logger.Error("grid iteration failed", "error", err)
		}
		if !g.running.Load() {
			break
		}
		select {
		case <-ctx.Done():
			g.running.Store(false)
			return ctx.Err()
		case <-g.stopCh:
			return nil
		case <-time.After(g.cfg.Interval()):
		}
	}
	return nil
}

func (g *Grid) Stop() {
	g.running.Store(false)
	g.stopOnce.Do(func() {
		close(g.stopCh)
	})
}

func (g *Grid) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var lastPrice *decimal.Decimal
	if g.lastPrice != nil {
		lastPrice = decimalx.Ptr(*g.lastPrice)
	}
	return Status{
		TraderId:          g.traderId,
		Strategy:          KindGrid,
		Symbol:            g.pair.ToSlashString(),
		Running:           g.running.Load(),
		Config:            g.cfg,
		LastPrice:         lastPrice,
		LastAction:        g.lastAction,
		TradeCount:        g.tradeCount,
		Position:          g.position,
		LastHeartbeat:     g.lastHeartbeat,
		TerminationReason: g.termination,
	}
}

func (g *Grid) safeStep(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("grid iteration panic: %v", r)
		}
	}()
	return g.step(ctx)
}

func (g *Grid) heartbeat() {
	now := time.Now()
	g.mu.Lock()
	g.lastHeartbeat = now
	g.mu.Unlock()
	if g.deps.Heartbeats == nil {
		return
	}
	select {
	case g.deps.Heartbeats <- Heartbeat{TraderId: g.traderId, At: now}:
	default:
	}
}

func (g *Grid) step(ctx context.Context) error {
	g.heartbeat()

	quote, err := g.deps.Feed.Price(ctx, g.pair)
	if err != nil {
		return fmt.Errorf("get price failed: %w", err)
	}
	price := quote.Price
	if quote.Cached {
		g.logger.Warn("evaluating with cached price", "price", price, "cached", true, "cached_at", quote.At)
	}

	g.mu.RLock()
	lastPrice, lastAction, position := g.lastPrice, g.lastAction, g.position
	g.mu.RUnlock()

	if lastPrice == nil {
		g.mu.Lock()
		g.lastPrice = decimalx.Ptr(price)
		g.mu.Unlock()
		g.logger.Info("initial price recorded", "price", price)
		return nil
	}

	pctChange := decimalx.PctChange(*lastPrice, price)

	if position.IsPositive() && g.guard.HasExitRule() {
		done, err := g.checkExit(ctx, price, position)
		if err != nil || done {
			return err
		}
	}

	if c := g.guard.InBand(price); !c.Allowed {
		g.logger.Info("price out of grid band, skip", "price", price, "reason", c.Reason)
		return nil
	}

	gap := g.cfg.GridGap
	switch {
	case pctChange.LessThanOrEqual(gap.Neg()) && lastAction != ActionBuy:
		return g.buy(ctx, price, position, pctChange)
	case pctChange.GreaterThanOrEqual(gap) && lastAction != ActionSell:
		return g.sell(ctx, price, position, pctChange)
	}
	g.logger.Debug("no signal", "price", price, "last_price", *lastPrice, "pct_change", pctChange.StringFixed(4))
	return nil
}

// checkExit 止盈止损, 触发后一次性卖出全部持仓并终止运行
func (g *Grid) checkExit(ctx context.Context, price, position decimal.Decimal) (bool, error) {
	trades, err := g.deps.TradeRepo.FindByTraderSymbol(ctx, g.traderId, g.pair.ToSlashString())
	if err != nil {
		return false, fmt.Errorf("load ledger for pnl failed: %w", err)
	}
	pnl := analytics.Calculate(trades, price)
	reason := g.guard.Exit(pnl.PnLPct)
	if reason == risk.ExitNone {
		return false, nil
	}

	g.logger.Warn("exit condition triggered, liquidating", "reason", reason, "pnl_pct", pnl.PnLPct.StringFixed(2), "position", position)
	if !g.running.Load() {
		return true, nil
	}
	trade, err := g.deps.Executor.Execute(ctx, g.order(exchange.SideSell, position, position))
	if err != nil {
		// 清仓失败不终止, 下一轮重试
		return false, fmt.Errorf("liquidation failed: %w", err)
	}
	g.applyTrade(trade, price)

	g.mu.Lock()
	g.termination = reason
	g.mu.Unlock()
	g.running.Store(false)
	g.logger.Warn("grid terminated", "reason", reason, "price", trade.Price, "amount", trade.Amount)
	return true, nil
}

func (g *Grid) buy(ctx context.Context, price, position, pctChange decimal.Decimal) error {
	balance, err := g.deps.AccountSvc.Balance(ctx, g.pair.Quote)
	if err != nil {
		return fmt.Errorf("get %s balance failed: %w", g.pair.Quote, err)
	}
	if c := g.guard.CanBuy(position, balance.Free, price, g.cfg.Amount); !c.Allowed {
		g.logger.Info("buy signal skipped", "price", price, "reason", c.Reason)
		return nil
	}
	if !g.running.Load() {
		return nil
	}
	trade, err := g.deps.Executor.Execute(ctx, g.order(exchange.SideBuy, g.cfg.Amount, position))
	if err != nil {
		return err
	}
	g.applyTrade(trade, price)
	g.logger.Info("grid buy", "price", trade.Price, "amount", trade.Amount, "pct_change", pctChange.StringFixed(2), "position", trade.PositionAfter)
	return nil
}

func (g *Grid) sell(ctx context.Context, price, position, pctChange decimal.Decimal) error {
	if c := g.guard.CanSell(position, g.cfg.Amount); !c.Allowed {
		g.logger.Info("sell signal skipped", "price", price, "reason", c.Reason)
		return nil
	}
	if !g.running.Load() {
		return nil
	}
	trade, err := g.deps.Executor.Execute(ctx, g.order(exchange.SideSell, g.cfg.Amount, position))
	if err != nil {
		return err
	}
	g.applyTrade(trade, price)
	g.logger.Info("grid sell", "price", trade.Price, "amount", trade.Amount, "pct_change", pctChange.StringFixed(2), "position", trade.PositionAfter)
	return nil
}

func (g *Grid) order(side exchange.Side, amount, position decimal.Decimal) Order {
	return Order{
		TraderId: g.traderId,
		Strategy: KindGrid,
		Pair:     g.pair,
		Side:     side,
		Amount:   amount,
		Position: position,
	}
}

// applyTrade 成交后更新内存状态, 持仓与账本保持一致
func (g *Grid) applyTrade(trade entity.Trade, price decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = trade.PositionAfter
	g.lastPrice = decimalx.Ptr(price)
	g.lastAction = trade.Action
	g.tradeCount++
}
