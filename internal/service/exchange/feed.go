package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Quote 价格报价, Cached 表示来自缓存的最近一次有效价格
type Quote struct {
	Price  decimal.Decimal
	Cached bool
	At     time.Time
}

// PriceFeed 带重试、合理区间校验与缓存回退的价格源, 可被多个交易员共享
type PriceFeed struct {
	marketSvc MarketService

	attempts int
	delay    time.Duration
	minPrice decimal.Decimal
	maxPrice decimal.Decimal

	mu    sync.RWMutex
	cache map[string]Quote
}

type FeedOption func(f *PriceFeed)

// WithRetry 失败重试次数(含首次)与固定间隔
func WithRetry(attempts int, delay time.Duration) FeedOption {
	return func(f *PriceFeed) {
		if attempts > 0 {
			f.attempts = attempts
		}
		if delay >= 0 {
			f.delay = delay
		}
	}
}

// WithSanityBand 合理价格区间 (min, max), 区间外视为异常价格
func WithSanityBand(min, max decimal.Decimal) FeedOption {
	return func(f *PriceFeed) {
		f.minPrice = min
		f.maxPrice = max
	}
}

func NewPriceFeed(marketSvc MarketService, opts ...FeedOption) *PriceFeed {
	f := &PriceFeed{
		marketSvc: marketSvc,
		attempts:  3,
		delay:     time.Second,
		minPrice:  decimal.New(1, -8),
		maxPrice:  decimal.New(1, 9),
		cache:     make(map[string]Quote),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Price 获取最新价格; 重试耗尽后回退到缓存价格, 没有缓存则返回 ErrPriceUnavailable
func (f *PriceFeed) Price(ctx context.Context, pair TradingPair) (Quote, error) {
	var lastErr error
	for i := 0; i < f.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return f.fallback(pair, ctx.Err())
			case <-time.After(f.delay):
			}
		}

		ticker, err := f.marketSvc.Ticker(ctx, pair)
		if err == nil {
			err = f.check(ticker.Last)
		}
		if err != nil {
			lastErr = err
			slog.Warn("fetch price failed", "symbol", pair.ToSlashString(), "attempt", i+1, "error", err)
			continue
		}

		q := Quote{Price: ticker.Last, At: time.Now()}
		f.mu.Lock()
		f.cache[pair.ToString()] = q
		f.mu.Unlock()
		return q, nil
	}
	return f.fallback(pair, lastErr)
}

// Latest 最近一次有效价格
func (f *PriceFeed) Latest(pair TradingPair) (Quote, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	q, ok := f.cache[pair.ToString()]
	return q, ok
}

func (f *PriceFeed) check(price decimal.Decimal) error {
	if price.LessThanOrEqual(f.minPrice) || price.GreaterThanOrEqual(f.maxPrice) {
		return fmt.Errorf("%w: %s", ErrImplausiblePrice, price)
	}
	return nil
}

func (f *PriceFeed) fallback(pair TradingPair, cause error) (Quote, error) {
	q, ok := f.Latest(pair)
	if !ok {
		return Quote{}, fmt.Errorf("%w for %s: %w", ErrPriceUnavailable, pair.ToSlashString(), cause)
	}
	slog.Warn("use cached price", "symbol", pair.ToSlashString(), "price", q.Price, "cached_at", q.At, "error", cause)
	q.Cached = true
	return q, nil
}
