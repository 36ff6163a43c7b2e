package engine

import (
	"errors"

	"github.com/KNICEX/spot-trader/internal/entity"
	"github.com/KNICEX/spot-trader/internal/repo"
	"github.com/KNICEX/spot-trader/internal/service/strategy"
	"github.com/shopspring/decimal"
)

var (
	ErrAlreadyRunning = errors.New("trader already running")
	ErrNotRunning     = errors.New("trader not running")
	ErrInvalidConfig  = errors.New("invalid strategy config")

	ErrTraderNotFound      = repo.ErrTraderNotFound
	ErrDuplicateId         = repo.ErrDuplicateId
	ErrUnsupportedStrategy = strategy.ErrUnsupportedStrategy
)

// 创建交易员时零值字段的默认值
var (
	DefaultAmount        = decimal.RequireFromString("0.0005")
	DefaultGridGap       = decimal.NewFromInt(2)
	DefaultCheckInterval = 60
)

type CreateReq struct {
	Name     string                `json:"name"`
	Strategy string                `json:"strategy"`
	Symbol   string                `json:"symbol"`
	Config   entity.StrategyConfig `json:"config"`
}

// TraderView 持久化的交易员 + 运行时状态(仅运行中)
type TraderView struct {
	entity.Trader
	Runtime *strategy.Status `json:"runtime,omitempty"`
}
