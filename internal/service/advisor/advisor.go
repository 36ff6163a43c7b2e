package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KNICEX/spot-trader/internal/entity"
	"github.com/KNICEX/spot-trader/internal/repo"
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/KNICEX/spot-trader/internal/service/llm"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	ActionBuy  = "buy"
	ActionSell = "sell"
	ActionWait = "wait"

	// ManualTraderId 未关联交易员的手动请求
	ManualTraderId = "manual"
)

var validActions = []string{ActionBuy, ActionSell, ActionWait}

type AdviseReq struct {
	Symbol   string `json:"symbol"`
	TraderId string `json:"trader_id"`
}

// Snapshot 发送给模型的市场快照
type Snapshot struct {
	Symbol       string          `json:"symbol"`
	Base         string          `json:"base"`
	Quote        string          `json:"quote"`
	Price        decimal.Decimal `json:"price"`
	ChangePct    decimal.Decimal `json:"change_24h"`
	High         decimal.Decimal `json:"high_24h"`
	Low          decimal.Decimal `json:"low_24h"`
	Position     decimal.Decimal `json:"position"`
	QuoteBalance decimal.Decimal `json:"balance"`
}

type Advice struct {
	Decision entity.Decision `json:"decision"`
	Snapshot Snapshot        `json:"snapshot"`
}

type answer struct {
	Action     string  `json:"action"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// Advisor AI 交易建议, 只记录不下单
type Advisor struct {
	llmSvc       llm.Service
	marketSvc    exchange.MarketService
	accountSvc   exchange.AccountService
	decisionRepo repo.DecisionRepo
}

func NewAdvisor(llmSvc llm.Service, exchangeSvc exchange.Service, decisionRepo repo.DecisionRepo) *Advisor {
	return &Advisor{
		llmSvc:       llmSvc,
		marketSvc:    exchangeSvc.MarketService(),
		accountSvc:   exchangeSvc.AccountService(),
		decisionRepo: decisionRepo,
	}
}

func (a *Advisor) Advise(ctx context.Context, req AdviseReq) (Advice, error) {
	pair, err := exchange.ParseTradingPair(req.Symbol)
	if err != nil {
		return Advice{}, err
	}
	snapshot, err := a.snapshot(ctx, pair)
	if err != nil {
		return Advice{}, err
	}

	decision := entity.Decision{
		TraderId:  lo.Ternary(req.TraderId == "", ManualTraderId, req.TraderId),
		Symbol:    pair.ToSlashString(),
		Price:     snapshot.Price,
		Timestamp: time.Now(),
	}

	res, err := a.ask(ctx, snapshot)
	if err != nil {
		slog.Warn("ai decision fallback to wait", "symbol", decision.Symbol, "error", err)
		res = answer{Action: ActionWait, Reasoning: err.Error()}
	}
	decision.Action, decision.Reasoning, decision.Confidence = res.Action, res.Reasoning, res.Confidence

	id, err := a.decisionRepo.Create(ctx, decision)
	if err != nil {
		return Advice{}, fmt.Errorf("save ai decision failed: %w", err)
	}
	decision.Id = id
	slog.Info("ai decision", "trader_id", decision.TraderId, "symbol", decision.Symbol,
		"action", decision.Action, "confidence", decision.Confidence)
	return Advice{Decision: decision, Snapshot: snapshot}, nil
}

// Decisions 交易员最近的 AI 决策
func (a *Advisor) Decisions(ctx context.Context, traderId string, limit int) ([]entity.Decision, error) {
	if limit <= 0 {
		limit = 20
	}
	return a.decisionRepo.FindByTrader(ctx, traderId, limit)
}

func (a *Advisor) snapshot(ctx context.Context, pair exchange.TradingPair) (Snapshot, error) {
	ticker, err := a.marketSvc.Ticker(ctx, pair)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get ticker failed: %w", err)
	}
	base, err := a.accountSvc.Balance(ctx, pair.Base)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get %s balance failed: %w", pair.Base, err)
	}
	quote, err := a.accountSvc.Balance(ctx, pair.Quote)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get %s balance failed: %w", pair.Quote, err)
	}
	return Snapshot{
		Symbol:       pair.ToSlashString(),
		Base:         pair.Base,
		Quote:        pair.Quote,
		Price:        ticker.Last,
		ChangePct:    ticker.ChangePct,
		High:         ticker.High,
		Low:          ticker.Low,
		Position:     base.Free,
		QuoteBalance: quote.Free,
	}, nil
}

func (a *Advisor) ask(ctx context.Context, snapshot Snapshot) (answer, error) {
	resp, err := a.llmSvc.AskOnce(ctx, llm.Question{Content: buildPrompt(snapshot)})
	if err != nil {
		return answer{}, err
	}
	return parseAnswer(resp.Content)
}

// parseAnswer 兼容 ```json 代码块包裹
func parseAnswer(content string) (answer, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var res answer
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return answer{}, fmt.Errorf("invalid ai response: %w", err)
	}
	res.Action = strings.ToLower(strings.TrimSpace(res.Action))
	if !lo.Contains(validActions, res.Action) {
		return answer{}, fmt.Errorf("invalid ai action %q", res.Action)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		return answer{}, fmt.Errorf("invalid ai confidence %v", res.Confidence)
	}
	return res, nil
}
