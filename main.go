package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/KNICEX/spot-trader/internal/schedule"
	"github.com/KNICEX/spot-trader/ioc"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func initViper() {
	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.dev.yaml", "specify config file")
	pflag.Parse()

	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(fmt.Errorf("load .env: %w", err))
	}

	viper.SetConfigFile(*file)
	viper.SetEnvPrefix("SPOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
}

func main() {
	initViper()
	ioc.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := ioc.InitDB()
	exchangeSvc := ioc.InitExchange()
	feed := ioc.InitPriceFeed(exchangeSvc)
	eng := ioc.InitEngine(db, exchangeSvc, feed)

	mon := ioc.InitMonitor(db, exchangeSvc, eng)
	go schedule.Every(ctx, mon, ioc.MonitorInterval())

	server := ioc.InitServer(db, eng, mon, exchangeSvc, ioc.InitLLM())
	addr := viper.GetString("http.addr")
	if addr == "" {
		addr = ":8080"
	}
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(addr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			slog.Error("api server exited", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api server shutdown failed", "err", err)
	}
	if err := eng.Shutdown(shutdownCtx); err != nil {
		slog.Error("engine shutdown failed", "err", err)
	}
	slog.Info("bye")
}
