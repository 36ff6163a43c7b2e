package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TraderStatusStopped = "stopped"
	TraderStatusRunning = "running"
)

// Trader 交易员, 一个绑定单一交易对、独立调度的策略实例
type Trader struct {
	Id        string         `gorm:"primaryKey" json:"id"`
	Name      string         `json:"name"`
	Strategy  string         `gorm:"index" json:"strategy"`
	Symbol    string         `json:"symbol"`
	Status    string         `gorm:"index" json:"status"`
	Config    StrategyConfig `gorm:"serializer:json" json:"config"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// StrategyConfig 策略配置, 创建后不可修改(需要删除重建)
type StrategyConfig struct {
	// 每次交易数量(基础币)
	Amount decimal.Decimal `json:"amount"`
	// 网格间隔, 百分比, 2 表示 2%
	GridGap decimal.Decimal `json:"grid_gap"`
	// 检查间隔, 秒
	CheckInterval int `json:"check_interval"`

	// 以下均为可选, nil 表示不启用
	StopLossPct   *decimal.Decimal `json:"stop_loss_pct,omitempty"`   // 如 -10 表示 -10%
	TakeProfitPct *decimal.Decimal `json:"take_profit_pct,omitempty"` // 如 20 表示 +20%
	GridMin       *decimal.Decimal `json:"grid_min,omitempty"`
	GridMax       *decimal.Decimal `json:"grid_max,omitempty"`
	MaxPosition   *decimal.Decimal `json:"max_position,omitempty"`
}

func (c StrategyConfig) Interval() time.Duration {
	return time.Duration(c.CheckInterval) * time.Second
}
