package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

type Balance struct {
	Asset string
	Free  decimal.Decimal
	Used  decimal.Decimal
	Total decimal.Decimal
}

type AccountService interface {
	// Balance 单个币种余额, 不存在的币种返回 0 余额
	Balance(ctx context.Context, asset string) (Balance, error)
	// Balances 全部币种余额快照
	Balances(ctx context.Context) ([]Balance, error)
}
