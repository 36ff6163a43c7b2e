package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/KNICEX/spot-trader/internal/entity"
	"github.com/KNICEX/spot-trader/internal/repo"
	"github.com/KNICEX/spot-trader/internal/service/analytics"
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/KNICEX/spot-trader/internal/service/strategy"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type runtime struct {
	strategy strategy.Strategy
	cancel   context.CancelFunc
	done     chan struct{}
}

// Engine 交易员生命周期管理, 每个 id 至多一个运行时
type Engine struct {
	traderRepo repo.TraderRepo
	tradeRepo  repo.TradeRepo
	feed       strategy.PriceSource
	deps       strategy.Deps

	stopGrace time.Duration
	newId     func() string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	mu       sync.RWMutex
	runtimes map[string]*runtime

	hbCh       chan strategy.Heartbeat
	hbMu       sync.RWMutex
	heartbeats map[string]time.Time

	closeOnce sync.Once
	closeCh   chan struct{}
}

type Option func(e *Engine)

// WithStopGrace 停止时等待运行时退出的最长时间
func WithStopGrace(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.stopGrace = d
		}
	}
}

func WithIdGenerator(f func() string) Option {
	return func(e *Engine) {
		e.newId = f
	}
}

func NewEngine(traderRepo repo.TraderRepo, tradeRepo repo.TradeRepo, exchangeSvc exchange.Service,
	feed strategy.PriceSource, opts ...Option) *Engine {
	e := &Engine{
		traderRepo: traderRepo,
		tradeRepo:  tradeRepo,
		feed:       feed,
		stopGrace:  5 * time.Second,
		newId: func() string {
			return "trader_" + uuid.NewString()
		},
		locks:      make(map[string]*sync.Mutex),
		runtimes:   make(map[string]*runtime),
		hbCh:       make(chan strategy.Heartbeat, 64),
		heartbeats: make(map[string]time.Time),
		closeCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.deps = strategy.Deps{
		Feed:       feed,
		AccountSvc: exchangeSvc.AccountService(),
		Executor:   strategy.NewExecutor(exchangeSvc.TradingService(), tradeRepo),
		TradeRepo:  tradeRepo,
		Heartbeats: e.hbCh,
	}
	go e.collectHeartbeats()
	return e
}

func (e *Engine) collectHeartbeats() {
	for {
		select {
		case <-e.closeCh:
			return
		case hb := <-e.hbCh:
			e.hbMu.Lock()
			e.heartbeats[hb.TraderId] = hb.At
			e.hbMu.Unlock()
		}
	}
}

func (e *Engine) lockFor(id string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

func (e *Engine) runtime(id string) (*runtime, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rt, ok := e.runtimes[id]
	return rt, ok
}

// unregister 仅当登记的仍是 rt 时移除
func (e *Engine) unregister(id string, rt *runtime) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runtimes[id] != rt {
		return false
	}
	delete(e.runtimes, id)
	e.hbMu.Lock()
	delete(e.heartbeats, id)
	e.hbMu.Unlock()
	return true
}

// Reconcile 启动时将遗留的 running 状态置为 stopped, 须在任何生命周期操作之前调用
func (e *Engine) Reconcile(ctx context.Context) error {
	n, err := e.traderRepo.ResetRunning(ctx)
	if err != nil {
		return fmt.Errorf("reconcile trader status failed: %w", err)
	}
	if n > 0 {
		slog.Warn("reset stale running traders", "count", n)
	}
	return nil
}

func (e *Engine) Create(ctx context.Context, req CreateReq) (entity.Trader, error) {
	if req.Strategy == "" {
		req.Strategy = string(strategy.KindGrid)
	}
	if !strategy.Supported(req.Strategy) {
		return entity.Trader{}, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, req.Strategy)
	}
	pair, err := exchange.ParseTradingPair(req.Symbol)
	if err != nil {
		return entity.Trader{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg, err := normalizeConfig(req.Config)
	if err != nil {
		return entity.Trader{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("%s %s", req.Strategy, pair.ToSlashString())
	}

	trader := entity.Trader{
		Id:       e.newId(),
		Name:     name,
		Strategy: req.Strategy,
		Symbol:   pair.ToSlashString(),
		Status:   entity.TraderStatusStopped,
		Config:   cfg,
	}
	if err = e.traderRepo.Create(ctx, trader); err != nil {
		return entity.Trader{}, err
	}
	slog.Info("trader created", "trader_id", trader.Id, "symbol", trader.Symbol, "strategy", trader.Strategy)
	return e.traderRepo.FindById(ctx, trader.Id)
}

// normalizeConfig 零值取默认值, 负数或区间倒置视为非法
func normalizeConfig(cfg entity.StrategyConfig) (entity.StrategyConfig, error) {
	if cfg.Amount.IsNegative() || cfg.GridGap.IsNegative() || cfg.CheckInterval < 0 {
		return cfg, fmt.Errorf("%w: amount, grid_gap and check_interval must not be negative", ErrInvalidConfig)
	}
	if cfg.Amount.IsZero() {
		cfg.Amount = DefaultAmount
	}
	if cfg.GridGap.IsZero() {
		cfg.GridGap = DefaultGridGap
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.MaxPosition != nil && !cfg.MaxPosition.IsPositive() {
		return cfg, fmt.Errorf("%w: max_position must be positive", ErrInvalidConfig)
	}
	if cfg.GridMin != nil && cfg.GridMin.IsNegative() {
		return cfg, fmt.Errorf("%w: grid_min must not be negative", ErrInvalidConfig)
	}
	if cfg.GridMin != nil && cfg.GridMax != nil && cfg.GridMin.GreaterThan(*cfg.GridMax) {
		return cfg, fmt.Errorf("%w: grid_min %s greater than grid_max %s", ErrInvalidConfig, *cfg.GridMin, *cfg.GridMax)
	}
	return cfg, nil
}

func (e *Engine) Start(ctx context.Context, id string) error {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if _, ok := e.runtime(id); ok {
		return ErrAlreadyRunning
	}
	trader, err := e.traderRepo.FindById(ctx, id)
	if err != nil {
		return err
	}
	s, err := strategy.New(trader, e.deps)
	if err != nil {
		return err
	}
	if err = s.Init(ctx); err != nil {
		return fmt.Errorf("init trader %s failed: %w", id, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	rt := &runtime{strategy: s, cancel: cancel, done: make(chan struct{})}
	e.mu.Lock()
	e.runtimes[id] = rt
	e.mu.Unlock()
	e.hbMu.Lock()
	e.heartbeats[id] = time.Now()
	e.hbMu.Unlock()

	if err = e.traderRepo.UpdateStatus(ctx, id, entity.TraderStatusRunning); err != nil {
		e.unregister(id, rt)
		s.Stop()
		cancel()
		return fmt.Errorf("persist trader status failed: %w", err)
	}

	go e.run(runCtx, id, rt)
	slog.Info("trader started", "trader_id", id, "symbol", trader.Symbol)
	return nil
}

func (e *Engine) run(ctx context.Context, id string, rt *runtime) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("trader runtime panic", "trader_id", id, "panic", r)
		}
		close(rt.done)
		e.reap(id, rt)
	}()
	if err := rt.strategy.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("trader runtime exited with error", "trader_id", id, "error", err)
	}
}

// reap 运行时自行退出(止盈止损)后从注册表移除并持久化 stopped
func (e *Engine) reap(id string, rt *runtime) {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if !e.unregister(id, rt) {
		return
	}
	rt.cancel()
	if err := e.traderRepo.UpdateStatus(context.Background(), id, entity.TraderStatusStopped); err != nil &&
		!errors.Is(err, repo.ErrTraderNotFound) {
		slog.Error("persist reaped trader status failed", "trader_id", id, "error", err)
	}
	slog.Info("trader runtime reaped", "trader_id", id, "termination", rt.strategy.Status().TerminationReason)
}

func (e *Engine) Stop(ctx context.Context, id string) error {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return e.stopLocked(ctx, id)
}

func (e *Engine) stopLocked(ctx context.Context, id string) error {
	rt, ok := e.runtime(id)
	if !ok {
		return ErrNotRunning
	}
	rt.strategy.Stop()
	select {
	case <-rt.done:
	case <-time.After(e.stopGrace):
		slog.Error("trader runtime did not exit in time, abandoned", "trader_id", id, "grace", e.stopGrace)
	}
	rt.cancel()
	e.unregister(id, rt)

	if err := e.traderRepo.UpdateStatus(ctx, id, entity.TraderStatusStopped); err != nil {
		return fmt.Errorf("persist trader status failed: %w", err)
	}
	slog.Info("trader stopped", "trader_id", id)
	return nil
}

// Delete 运行中则先停止; 成交记录保留
func (e *Engine) Delete(ctx context.Context, id string) error {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if _, ok := e.runtime(id); ok {
		if err := e.stopLocked(ctx, id); err != nil {
			return err
		}
	}
	if err := e.traderRepo.Delete(ctx, id); err != nil {
		return err
	}
	e.locksMu.Lock()
	delete(e.locks, id)
	e.locksMu.Unlock()
	slog.Info("trader deleted", "trader_id", id)
	return nil
}

func (e *Engine) view(trader entity.Trader) TraderView {
	v := TraderView{Trader: trader}
	if rt, ok := e.runtime(trader.Id); ok {
		st := rt.strategy.Status()
		v.Runtime = &st
	}
	return v
}

func (e *Engine) Get(ctx context.Context, id string) (TraderView, error) {
	trader, err := e.traderRepo.FindById(ctx, id)
	if err != nil {
		return TraderView{}, err
	}
	return e.view(trader), nil
}

func (e *Engine) List(ctx context.Context) ([]TraderView, error) {
	traders, err := e.traderRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(traders, func(t entity.Trader, _ int) TraderView {
		return e.view(t)
	}), nil
}

func (e *Engine) Status(ctx context.Context, id string) (strategy.Status, error) {
	rt, ok := e.runtime(id)
	if !ok {
		if _, err := e.traderRepo.FindById(ctx, id); err != nil {
			return strategy.Status{}, err
		}
		return strategy.Status{}, ErrNotRunning
	}
	return rt.strategy.Status(), nil
}

// PnL 按最新价格计算, 取价失败时使用最近一笔成交价
func (e *Engine) PnL(ctx context.Context, id string) (analytics.PnL, error) {
	trader, err := e.traderRepo.FindById(ctx, id)
	if err != nil {
		return analytics.PnL{}, err
	}
	trades, err := e.tradeRepo.FindByTrader(ctx, id)
	if err != nil {
		return analytics.PnL{}, err
	}
	pair, err := exchange.ParseTradingPair(trader.Symbol)
	if err != nil {
		return analytics.PnL{}, err
	}

	quote, err := e.feed.Price(ctx, pair)
	if err == nil {
		return analytics.Calculate(trades, quote.Price), nil
	}
	slog.Warn("price unavailable for pnl, use last trade price", "trader_id", id, "error", err)
	latest := decimal.Zero
	if len(trades) > 0 {
		latest = trades[len(trades)-1].Price
	}
	return analytics.Calculate(trades, latest), nil
}

// Trades 交易员的全部成交, 已删除的交易员也可查询
func (e *Engine) Trades(ctx context.Context, id string) ([]entity.Trade, error) {
	return e.tradeRepo.FindByTrader(ctx, id)
}

// Heartbeats 运行中交易员最近一次心跳
func (e *Engine) Heartbeats() map[string]time.Time {
	e.mu.RLock()
	ids := lo.Keys(e.runtimes)
	e.mu.RUnlock()

	e.hbMu.RLock()
	defer e.hbMu.RUnlock()
	res := make(map[string]time.Time, len(ids))
	for _, id := range ids {
		if at, ok := e.heartbeats[id]; ok {
			res[id] = at
		}
	}
	return res
}

// Active 运行中的交易员 id
func (e *Engine) Active() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return lo.Keys(e.runtimes)
}

// Shutdown 停止所有运行时, 进程退出前调用
func (e *Engine) Shutdown(ctx context.Context) error {
	var errs []error
	for _, id := range e.Active() {
		if err := e.Stop(ctx, id); err != nil && !errors.Is(err, ErrNotRunning) {
			errs = append(errs, fmt.Errorf("stop trader %s: %w", id, err))
		}
	}
	e.closeOnce.Do(func() {
		close(e.closeCh)
	})
	return errors.Join(errs...)
}
