package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/KNICEX/spot-trader/internal/repo"
	"github.com/KNICEX/spot-trader/internal/service/advisor"
	"github.com/KNICEX/spot-trader/internal/service/engine"
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/KNICEX/spot-trader/internal/service/monitor"
	"github.com/gin-gonic/gin"
)

// Server HTTP 接口, 只做参数解析与转发
type Server struct {
	router     *gin.Engine
	httpServer *http.Server

	engine      *engine.Engine
	monitor     *monitor.Monitor
	advisor     *advisor.Advisor
	exchangeSvc exchange.Service
	tradeRepo   repo.TradeRepo
	quoteAsset  string
}

type Option func(s *Server)

// WithAdvisor 未配置时 AI 接口返回 503
func WithAdvisor(a *advisor.Advisor) Option {
	return func(s *Server) {
		s.advisor = a
	}
}

func WithQuoteAsset(asset string) Option {
	return func(s *Server) {
		s.quoteAsset = asset
	}
}

func NewServer(eng *engine.Engine, mon *monitor.Monitor, exchangeSvc exchange.Service, tradeRepo repo.TradeRepo, opts ...Option) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), corsMiddleware())

	s := &Server{
		router:      router,
		engine:      eng,
		monitor:     mon,
		exchangeSvc: exchangeSvc,
		tradeRepo:   tradeRepo,
		quoteAsset:  "USDT",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		traders := api.Group("/traders")
		traders.POST("", s.handleCreateTrader)
		traders.GET("", s.handleListTraders)
		traders.GET("/:id", s.handleGetTrader)
		traders.DELETE("/:id", s.handleDeleteTrader)
		traders.POST("/:id/start", s.handleStartTrader)
		traders.POST("/:id/stop", s.handleStopTrader)
		traders.GET("/:id/status", s.handleTraderStatus)
		traders.GET("/:id/pnl", s.handleTraderPnL)
		traders.GET("/:id/trades", s.handleTraderTrades)

		api.GET("/alerts", s.handleAlerts)
		api.GET("/ticker", s.handleTicker)
		api.GET("/balance", s.handleBalance)
		api.GET("/trades", s.handleRecentTrades)

		api.POST("/ai/decide", s.handleAIDecide)
		api.GET("/ai/decisions/:trader_id", s.handleAIDecisions)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request", "method", c.Request.Method, "path", c.FullPath(),
			"status", c.Writer.Status(), "cost", time.Since(start))
	}
}

// Start 阻塞直到 Shutdown
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("api server starting", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
