package ioc

import (
	"log/slog"
	"time"

	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/KNICEX/spot-trader/internal/service/exchange/binance"
	"github.com/KNICEX/spot-trader/internal/service/exchange/paper"
	"github.com/KNICEX/spot-trader/pkg/decimalx"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	ModeBinance = "binance"
	ModePaper   = "paper"
)

// InitExchange 未配置 API Key 时自动使用模拟交易所
func InitExchange() exchange.Service {
	type Config struct {
		Mode      string `mapstructure:"mode"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
		Testnet   bool   `mapstructure:"testnet"`
	}
	var cfg Config
	if err := viper.UnmarshalKey("exchange", &cfg); err != nil {
		panic(err)
	}
	// 密钥允许通过环境变量覆盖
	cfg.ApiKey = viper.GetString("exchange.api_key")
	cfg.ApiSecret = viper.GetString("exchange.api_secret")

	if cfg.Mode == ModeBinance && cfg.ApiKey != "" {
		slog.Info("use binance spot exchange", "testnet", cfg.Testnet)
		return binance.NewService(InitBinanceCli(cfg.ApiKey, cfg.ApiSecret, cfg.Testnet))
	}
	if cfg.Mode == ModeBinance {
		slog.Warn("binance api key not set, fallback to paper exchange")
	}
	return initPaperExchange()
}

func initPaperExchange() *paper.ExchangeService {
	type Config struct {
		Balances map[string]string `mapstructure:"balances"`
		Prices   map[string]string `mapstructure:"prices"`
		FeeRate  string            `mapstructure:"fee_rate"`
		// 演示模式价格随机游走的单步幅度, 百分比, 为空则价格固定
		RandomWalkPct string `mapstructure:"random_walk_pct"`
	}
	var cfg Config
	if err := viper.UnmarshalKey("paper", &cfg); err != nil {
		panic(err)
	}

	slog.Info("use paper exchange", "balances", cfg.Balances, "prices", cfg.Prices)
	return paper.NewExchangeService(
		paper.WithBalances(toDecimals(cfg.Balances)),
		paper.WithPrices(toDecimals(cfg.Prices)),
		paper.WithFeeRate(decimalx.FromStringOr(cfg.FeeRate, paper.DefaultFeeRate)),
		paper.WithRandomWalk(decimalx.FromStringOr(cfg.RandomWalkPct, decimal.Zero), time.Now().UnixNano()),
	)
}

func toDecimals(m map[string]string) map[string]decimal.Decimal {
	res := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		res[k] = decimalx.MustFromString(v)
	}
	return res
}

func InitPriceFeed(exchangeSvc exchange.Service) *exchange.PriceFeed {
	type Config struct {
		Attempts int           `mapstructure:"attempts"`
		Delay    time.Duration `mapstructure:"delay"`
		MinPrice string        `mapstructure:"min_price"`
		MaxPrice string        `mapstructure:"max_price"`
	}
	cfg := Config{Attempts: 3, Delay: time.Second}
	if err := viper.UnmarshalKey("feed", &cfg); err != nil {
		panic(err)
	}
	opts := []exchange.FeedOption{exchange.WithRetry(cfg.Attempts, cfg.Delay)}
	if cfg.MinPrice != "" && cfg.MaxPrice != "" {
		opts = append(opts, exchange.WithSanityBand(decimalx.MustFromString(cfg.MinPrice), decimalx.MustFromString(cfg.MaxPrice)))
	}
	return exchange.NewPriceFeed(exchangeSvc.MarketService(), opts...)
}

func QuoteAsset() string {
	if asset := viper.GetString("exchange.quote_asset"); asset != "" {
		return asset
	}
	return "USDT"
}
