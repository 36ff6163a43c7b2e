package binance

import (
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/shopspring/decimal"
)

// PrecisionProvider 现货交易对数量精度
type PrecisionProvider struct {
	precisions map[string]int32
}

// NewPrecisionProvider 创建币安现货精度提供器
func NewPrecisionProvider() *PrecisionProvider {
	// 参考: https://www.binance.com/en/trade-rule
	return &PrecisionProvider{precisions: map[string]int32{
		"BTC":  5, // 0.00001
		"ETH":  4, // 0.0001
		"BNB":  3, // 0.001
		"SOL":  3, // 0.001
		"XRP":  0, // 1
		"DOGE": 0, // 1
		"ADA":  1, // 0.1
	}}
}

// QuantityPrecision 获取交易对的数量精度, 默认 5 位小数
func (p *PrecisionProvider) QuantityPrecision(pair exchange.TradingPair) int32 {
	precision, ok := p.precisions[pair.Base]
	if !ok {
		return 5
	}
	return precision
}

// Truncate 将下单数量截断到交易所允许的精度
func (p *PrecisionProvider) Truncate(pair exchange.TradingPair, amount decimal.Decimal) decimal.Decimal {
	return amount.Truncate(p.QuantityPrecision(pair))
}
