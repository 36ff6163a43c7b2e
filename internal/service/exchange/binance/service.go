package binance

import (
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/adshao/go-binance/v2"
)

var _ exchange.Service = (*Service)(nil)

type Service struct {
	marketSvc  exchange.MarketService
	accountSvc exchange.AccountService
	tradingSvc exchange.TradingService
}

func NewService(cli *binance.Client) *Service {
	return &Service{
		marketSvc:  NewMarketService(cli),
		accountSvc: NewAccountService(cli),
		tradingSvc: NewTradingService(cli, NewPrecisionProvider()),
	}
}

func (s *Service) MarketService() exchange.MarketService {
	return s.marketSvc
}

func (s *Service) AccountService() exchange.AccountService {
	return s.accountSvc
}

func (s *Service) TradingService() exchange.TradingService {
	return s.tradingSvc
}
