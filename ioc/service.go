package ioc

import (
	"context"
	"time"

	"github.com/KNICEX/spot-trader/internal/api"
	"github.com/KNICEX/spot-trader/internal/repo"
	"github.com/KNICEX/spot-trader/internal/service/advisor"
	"github.com/KNICEX/spot-trader/internal/service/engine"
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/KNICEX/spot-trader/internal/service/llm"
	"github.com/KNICEX/spot-trader/internal/service/monitor"
	"github.com/KNICEX/spot-trader/internal/service/notification"
	"github.com/KNICEX/spot-trader/pkg/decimalx"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// InitEngine 创建引擎并完成启动对账
func InitEngine(db *gorm.DB, exchangeSvc exchange.Service, feed *exchange.PriceFeed) *engine.Engine {
	type Config struct {
		StopGrace time.Duration `mapstructure:"stop_grace"`
	}
	var cfg Config
	if err := viper.UnmarshalKey("engine", &cfg); err != nil {
		panic(err)
	}
	eng := engine.NewEngine(repo.NewTraderRepo(db), repo.NewTradeRepo(db), exchangeSvc, feed,
		engine.WithStopGrace(cfg.StopGrace))
	if err := eng.Reconcile(context.Background()); err != nil {
		panic(err)
	}
	return eng
}

func MonitorInterval() time.Duration {
	if d := viper.GetDuration("monitor.interval"); d > 0 {
		return d
	}
	return time.Minute
}

func InitMonitor(db *gorm.DB, exchangeSvc exchange.Service, eng *engine.Engine) *monitor.Monitor {
	type Config struct {
		LowBalance string        `mapstructure:"low_balance"`
		StaleAfter time.Duration `mapstructure:"stale_after"`
		MaxAlerts  int           `mapstructure:"max_alerts"`
		WebhookURL string        `mapstructure:"webhook_url"`
	}
	var cfg Config
	if err := viper.UnmarshalKey("monitor", &cfg); err != nil {
		panic(err)
	}
	opts := []monitor.Option{
		monitor.WithQuoteAsset(QuoteAsset()),
		monitor.WithStaleAfter(cfg.StaleAfter),
	}
	if cfg.LowBalance != "" {
		opts = append(opts, monitor.WithLowBalance(decimalx.MustFromString(cfg.LowBalance)))
	}
	if cfg.MaxAlerts > 0 {
		opts = append(opts, monitor.WithMaxAlerts(cfg.MaxAlerts))
	}
	if cfg.WebhookURL != "" {
		opts = append(opts, monitor.WithNotifier(
			monitor.NewConsoleNotifier(),
			monitor.NewWebhookNotifier(notification.NewHTTPWebhookService(5*time.Second), cfg.WebhookURL),
		))
	}
	return monitor.NewMonitor(exchangeSvc.AccountService(), repo.NewTraderRepo(db), repo.NewTradeRepo(db), eng, opts...)
}

func InitServer(db *gorm.DB, eng *engine.Engine, mon *monitor.Monitor, exchangeSvc exchange.Service, llmSvc llm.Service) *api.Server {
	opts := []api.Option{api.WithQuoteAsset(QuoteAsset())}
	if llmSvc != nil {
		opts = append(opts, api.WithAdvisor(advisor.NewAdvisor(llmSvc, exchangeSvc, repo.NewDecisionRepo(db))))
	}
	return api.NewServer(eng, mon, exchangeSvc, repo.NewTradeRepo(db), opts...)
}
