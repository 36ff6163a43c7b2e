package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KNICEX/spot-trader/internal/repo"
	"github.com/KNICEX/spot-trader/internal/service/advisor"
	"github.com/KNICEX/spot-trader/internal/service/engine"
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/KNICEX/spot-trader/internal/service/exchange/paper"
	"github.com/KNICEX/spot-trader/internal/service/llm"
	"github.com/KNICEX/spot-trader/internal/service/monitor"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLLM struct {
	content string
}

func (s staticLLM) AskOnce(ctx context.Context, q llm.Question) (llm.Answer, error) {
	return llm.Answer{Content: s.content}, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	gin.SetMode(gin.TestMode)
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, repo.InitTables(db))

	ex := paper.NewExchangeService(
		paper.WithBalances(map[string]decimal.Decimal{"USDT": decimal.NewFromInt(1000)}),
		paper.WithPrices(map[string]decimal.Decimal{"BTC/USDT": decimal.NewFromInt(95000)}),
	)
	traderRepo := repo.NewTraderRepo(db)
	tradeRepo := repo.NewTradeRepo(db)
	eng := engine.NewEngine(traderRepo, tradeRepo, ex, exchange.NewPriceFeed(ex.MarketService(), exchange.WithRetry(1, 0)))
	t.Cleanup(func() {
		_ = eng.Shutdown(context.Background())
	})
	mon := monitor.NewMonitor(ex.AccountService(), traderRepo, tradeRepo, eng)

	adv := advisor.NewAdvisor(staticLLM{content: `{"action":"wait","reasoning":"震荡","confidence":0.4}`}, ex, repo.NewDecisionRepo(db))
	return NewServer(eng, mon, ex, tradeRepo, append([]Option{WithAdvisor(adv)}, opts...)...)
}

func do(t *testing.T, s *Server, method, path, body string) (int, envelope) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestServer_TraderLifecycle(t *testing.T) {
	s := newTestServer(t)

	code, resp := do(t, s, http.MethodPost, "/api/traders",
		`{"name":"btc","symbol":"BTC/USDT","config":{"amount":"0.001","grid_gap":2,"check_interval":60}}`)
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, 0, resp.Code)
	var trader struct {
		Id     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &trader))
	assert.Equal(t, "stopped", trader.Status)

	code, _ = do(t, s, http.MethodPost, "/api/traders/"+trader.Id+"/start", "")
	assert.Equal(t, http.StatusOK, code)
	code, resp = do(t, s, http.MethodPost, "/api/traders/"+trader.Id+"/start", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	code, resp = do(t, s, http.MethodGet, "/api/traders/"+trader.Id+"/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"running":true`)

	code, _ = do(t, s, http.MethodGet, "/api/traders", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, s, http.MethodGet, "/api/traders/"+trader.Id+"/pnl", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, s, http.MethodGet, "/api/traders/"+trader.Id+"/trades", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, s, http.MethodPost, "/api/traders/"+trader.Id+"/stop", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, s, http.MethodPost, "/api/traders/"+trader.Id+"/stop", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, s, http.MethodDelete, "/api/traders/"+trader.Id, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, s, http.MethodGet, "/api/traders/"+trader.Id, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_Errors(t *testing.T) {
	s := newTestServer(t)
	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "启动不存在的交易员", method: http.MethodPost, path: "/api/traders/trader_x/start", status: http.StatusNotFound},
		{name: "非法请求体", method: http.MethodPost, path: "/api/traders", body: `{"symbol":`, status: http.StatusBadRequest},
		{name: "不支持的策略", method: http.MethodPost, path: "/api/traders", body: `{"strategy":"dca","symbol":"BTC/USDT"}`, status: http.StatusBadRequest},
		{name: "非法 limit", method: http.MethodGet, path: "/api/trades?limit=abc", status: http.StatusBadRequest},
		{name: "未知交易对行情", method: http.MethodGet, path: "/api/ticker?symbol=ETH/USDT", status: http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, resp := do(t, s, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, code)
			assert.Equal(t, tc.status, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestServer_MarketAndAccount(t *testing.T) {
	s := newTestServer(t)

	code, resp := do(t, s, http.MethodGet, "/api/ticker?symbol=BTCUSDT", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"symbol":"BTC/USDT"`)

	code, resp = do(t, s, http.MethodGet, "/api/balance", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"currency":"USDT"`)

	code, _ = do(t, s, http.MethodGet, "/api/trades?limit=5", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, s, http.MethodGet, "/api/alerts", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_AI(t *testing.T) {
	s := newTestServer(t)

	code, resp := do(t, s, http.MethodPost, "/api/ai/decide", `{"symbol":"BTC/USDT","trader_id":"trader_1"}`)
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Contains(t, string(resp.Data), `"action":"wait"`)

	code, resp = do(t, s, http.MethodGet, "/api/ai/decisions/trader_1?limit=5", "")
	require.Equal(t, http.StatusOK, code)
	var decisions []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &decisions))
	assert.Len(t, decisions, 1)

	disabled := newTestServer(t, WithAdvisor(nil))
	code, _ = do(t, disabled, http.MethodPost, "/api/ai/decide", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
