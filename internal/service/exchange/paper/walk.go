package paper

import (
	"math/rand"

	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/shopspring/decimal"
)

var maxWalkStepPct = decimal.NewFromInt(50)

// randomWalk 每次取行情时价格在 ±stepPct% 内随机波动
type randomWalk struct {
	stepPct decimal.Decimal
	rnd     *rand.Rand
}

// WithRandomWalk 演示模式下让价格随机游走, stepPct 取值 (0, 50]
func WithRandomWalk(stepPct decimal.Decimal, seed int64) Option {
	return func(svc *ExchangeService) {
		if !stepPct.IsPositive() || stepPct.GreaterThan(maxWalkStepPct) {
			return
		}
		svc.walk = &randomWalk{
			stepPct: stepPct,
			rnd:     rand.New(rand.NewSource(seed)),
		}
	}
}

func (w *randomWalk) next(price decimal.Decimal) decimal.Decimal {
	// [-1, 1)
	u := decimal.NewFromFloat(w.rnd.Float64()*2 - 1)
	factor := decimal.NewFromInt(1).Add(w.stepPct.Div(decimal.NewFromInt(100)).Mul(u))
	return price.Mul(factor).Round(8)
}

// tickPrice 返回当前价格, 开启随机游走时先推进一步
func (svc *ExchangeService) tickPrice(tradingPair exchange.TradingPair) (decimal.Decimal, error) {
	if svc.walk == nil {
		return svc.price(tradingPair)
	}
	svc.priceMu.Lock()
	defer svc.priceMu.Unlock()
	price, ok := svc.prices[tradingPair.ToString()]
	if !ok {
		return decimal.Zero, errNoPrice(tradingPair)
	}
	price = svc.walk.next(price)
	svc.prices[tradingPair.ToString()] = price
	return price, nil
}
