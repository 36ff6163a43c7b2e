package binance

import (
	"fmt"

	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

func binanceSide(side exchange.Side) binance.SideType {
	switch side {
	case exchange.SideBuy:
		return binance.SideTypeBuy
	case exchange.SideSell:
		return binance.SideTypeSell
	default:
		return ""
	}
}

func fromBinanceSide(side binance.SideType) exchange.Side {
	switch side {
	case binance.SideTypeBuy:
		return exchange.SideBuy
	case binance.SideTypeSell:
		return exchange.SideSell
	default:
		return exchange.Side(side)
	}
}

// parseDecimal 币安数值字段均为字符串, 空串视为 0
func parseDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}
