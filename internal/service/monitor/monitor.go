package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KNICEX/spot-trader/internal/repo"
	"github.com/KNICEX/spot-trader/internal/schedule"
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/shopspring/decimal"
)

var _ schedule.Task = (*Monitor)(nil)

// HeartbeatSource 运行中交易员的最近心跳
type HeartbeatSource interface {
	Heartbeats() map[string]time.Time
}

// Monitor 周期性健康检查: 余额、持仓异常、心跳超时
type Monitor struct {
	accountSvc exchange.AccountService
	traderRepo repo.TraderRepo
	tradeRepo  repo.TradeRepo
	heartbeats HeartbeatSource

	notifier Notifier
	alerts   *AlertBuffer

	quoteAsset string
	lowBalance decimal.Decimal
	staleAfter time.Duration
	now        func() time.Time
}

type Option func(m *Monitor)

func WithNotifier(notifiers ...Notifier) Option {
	return func(m *Monitor) {
		if len(notifiers) == 1 {
			m.notifier = notifiers[0]
			return
		}
		m.notifier = multiNotifier(notifiers)
	}
}

func WithQuoteAsset(asset string) Option {
	return func(m *Monitor) {
		m.quoteAsset = asset
	}
}

func WithLowBalance(threshold decimal.Decimal) Option {
	return func(m *Monitor) {
		m.lowBalance = threshold
	}
}

func WithStaleAfter(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.staleAfter = d
		}
	}
}

func WithMaxAlerts(n int) Option {
	return func(m *Monitor) {
		m.alerts = NewAlertBuffer(n)
	}
}

func NewMonitor(accountSvc exchange.AccountService, traderRepo repo.TraderRepo, tradeRepo repo.TradeRepo,
	heartbeats HeartbeatSource, opts ...Option) *Monitor {
	m := &Monitor{
		accountSvc: accountSvc,
		traderRepo: traderRepo,
		tradeRepo:  tradeRepo,
		heartbeats: heartbeats,
		notifier:   consoleNotifier{},
		alerts:     NewAlertBuffer(100),
		quoteAsset: "USDT",
		lowBalance: decimal.NewFromInt(10),
		staleAfter: 5 * time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) Name() string {
	return "trader health monitor task"
}

// Run 三项检查互不影响, 失败合并返回
func (m *Monitor) Run(ctx context.Context) error {
	return errors.Join(
		m.checkBalance(ctx),
		m.checkPositions(ctx),
		m.checkHeartbeats(ctx),
	)
}

// Alerts 最近的告警, 最新的在最后
func (m *Monitor) Alerts() []Alert {
	return m.alerts.List()
}

func (m *Monitor) raise(ctx context.Context, kind AlertKind, traderId, format string, args ...any) {
	alert := Alert{
		Kind:      kind,
		TraderId:  traderId,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: m.now(),
	}
	m.alerts.Add(alert)
	if err := m.notifier.Notify(ctx, alert); err != nil {
		slog.Error("notify alert failed", "kind", kind, "error", err)
	}
}

func (m *Monitor) checkBalance(ctx context.Context) error {
	balance, err := m.accountSvc.Balance(ctx, m.quoteAsset)
	if err != nil {
		return fmt.Errorf("balance check failed: %w", err)
	}
	if balance.Free.LessThan(m.lowBalance) {
		m.raise(ctx, AlertLowBalance, "", "%s free balance %s below %s", m.quoteAsset, balance.Free, m.lowBalance)
	}
	return nil
}

func (m *Monitor) checkPositions(ctx context.Context) error {
	traders, err := m.traderRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("position check failed: %w", err)
	}
	var errs []error
	for _, trader := range traders {
		latest, err := m.tradeRepo.Latest(ctx, trader.Id)
		if errors.Is(err, repo.ErrTradeNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("position check for %s: %w", trader.Id, err))
			continue
		}
		if latest.PositionAfter.IsNegative() {
			m.raise(ctx, AlertCritical, trader.Id, "negative position %s after trade %d", latest.PositionAfter, latest.Id)
		}
	}
	return errors.Join(errs...)
}

func (m *Monitor) checkHeartbeats(ctx context.Context) error {
	now := m.now()
	for traderId, at := range m.heartbeats.Heartbeats() {
		if age := now.Sub(at); age > m.staleAfter {
			m.raise(ctx, AlertStaleHeartbeat, traderId, "no heartbeat for %s", age.Truncate(time.Second))
		}
	}
	return nil
}

