package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/KNICEX/spot-trader/internal/service/advisor"
	"github.com/KNICEX/spot-trader/internal/service/engine"
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/gin-gonic/gin"
)

var errAdvisorDisabled = errors.New("ai advisor not configured")

func (s *Server) handleHealth(c *gin.Context) {
	ok(c, gin.H{"active_traders": len(s.engine.Active())})
}

func (s *Server) handleCreateTrader(c *gin.Context) {
	var req engine.CreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}
	trader, err := s.engine.Create(c.Request.Context(), req)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, trader)
}

func (s *Server) handleListTraders(c *gin.Context) {
	traders, err := s.engine.List(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, traders)
}

func (s *Server) handleGetTrader(c *gin.Context) {
	trader, err := s.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, trader)
}

func (s *Server) handleDeleteTrader(c *gin.Context) {
	if err := s.engine.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failWith(c, err)
		return
	}
	ok(c, nil)
}

func (s *Server) handleStartTrader(c *gin.Context) {
	if err := s.engine.Start(c.Request.Context(), c.Param("id")); err != nil {
		failWith(c, err)
		return
	}
	ok(c, nil)
}

func (s *Server) handleStopTrader(c *gin.Context) {
	if err := s.engine.Stop(c.Request.Context(), c.Param("id")); err != nil {
		failWith(c, err)
		return
	}
	ok(c, nil)
}

func (s *Server) handleTraderStatus(c *gin.Context) {
	st, err := s.engine.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, st)
}

func (s *Server) handleTraderPnL(c *gin.Context) {
	pnl, err := s.engine.PnL(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, pnl)
}

func (s *Server) handleTraderTrades(c *gin.Context) {
	trades, err := s.engine.Trades(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, trades)
}

func (s *Server) handleAlerts(c *gin.Context) {
	ok(c, s.monitor.Alerts())
}

func (s *Server) handleTicker(c *gin.Context) {
	pair, err := exchange.ParseTradingPair(c.DefaultQuery("symbol", "BTC/USDT"))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	ticker, err := s.exchangeSvc.MarketService().Ticker(c.Request.Context(), pair)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, gin.H{
		"symbol":     pair.ToSlashString(),
		"last":       ticker.Last,
		"bid":        ticker.Bid,
		"ask":        ticker.Ask,
		"high":       ticker.High,
		"low":        ticker.Low,
		"volume":     ticker.Volume,
		"change_pct": ticker.ChangePct,
		"timestamp":  ticker.Timestamp,
	})
}

func (s *Server) handleBalance(c *gin.Context) {
	currency := c.DefaultQuery("currency", s.quoteAsset)
	balance, err := s.exchangeSvc.AccountService().Balance(c.Request.Context(), currency)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, gin.H{
		"currency": balance.Asset,
		"free":     balance.Free,
		"used":     balance.Used,
		"total":    balance.Total,
	})
}

func (s *Server) handleRecentTrades(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	trades, err := s.tradeRepo.FindRecent(c.Request.Context(), limit)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, trades)
}

func (s *Server) handleAIDecide(c *gin.Context) {
	if s.advisor == nil {
		fail(c, http.StatusServiceUnavailable, errAdvisorDisabled)
		return
	}
	var req advisor.AdviseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}
	if req.Symbol == "" {
		req.Symbol = "BTC/USDT"
	}
	advice, err := s.advisor.Advise(c.Request.Context(), req)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, advice)
}

func (s *Server) handleAIDecisions(c *gin.Context) {
	if s.advisor == nil {
		fail(c, http.StatusServiceUnavailable, errAdvisorDisabled)
		return
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	decisions, err := s.advisor.Decisions(c.Request.Context(), c.Param("trader_id"), limit)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, decisions)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}
