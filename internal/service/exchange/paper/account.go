package paper

import (
	"context"
	"sort"
	"strings"

	"github.com/KNICEX/spot-trader/internal/service/exchange"
)

func (svc *ExchangeService) Balance(ctx context.Context, asset string) (exchange.Balance, error) {
	asset = strings.ToUpper(asset)
	svc.accountMu.Lock()
	defer svc.accountMu.Unlock()
	free := svc.balances[asset]
	return exchange.Balance{Asset: asset, Free: free, Total: free}, nil
}

// Balances 按币种名排序
func (svc *ExchangeService) Balances(ctx context.Context) ([]exchange.Balance, error) {
	svc.accountMu.Lock()
	defer svc.accountMu.Unlock()
	res := make([]exchange.Balance, 0, len(svc.balances))
	for asset, free := range svc.balances {
		if free.IsZero() {
			continue
		}
		res = append(res, exchange.Balance{Asset: asset, Free: free, Total: free})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Asset < res[j].Asset })
	return res, nil
}
