package binance

import (
	"context"
	"fmt"
	"strings"

	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/adshao/go-binance/v2"
)

var _ exchange.AccountService = (*AccountService)(nil)

type AccountService struct {
	cli *binance.Client
}

func NewAccountService(cli *binance.Client) *AccountService {
	return &AccountService{cli: cli}
}

func (s *AccountService) Balance(ctx context.Context, asset string) (exchange.Balance, error) {
	balances, err := s.Balances(ctx)
	if err != nil {
		return exchange.Balance{}, err
	}
	asset = strings.ToUpper(asset)
	for _, b := range balances {
		if b.Asset == asset {
			return b, nil
		}
	}
	return exchange.Balance{Asset: asset}, nil
}

func (s *AccountService) Balances(ctx context.Context) ([]exchange.Balance, error) {
	account, err := s.cli.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return convertBalances(account.Balances)
}

// convertBalances 过滤掉余额为 0 的币种
func convertBalances(raw []binance.Balance) ([]exchange.Balance, error) {
	res := make([]exchange.Balance, 0, len(raw))
	for _, b := range raw {
		free, err := parseDecimal("free", b.Free)
		if err != nil {
			return nil, err
		}
		locked, err := parseDecimal("locked", b.Locked)
		if err != nil {
			return nil, err
		}
		total := free.Add(locked)
		if total.IsZero() {
			continue
		}
		res = append(res, exchange.Balance{
			Asset: b.Asset,
			Free:  free,
			Used:  locked,
			Total: total,
		})
	}
	return res, nil
}
