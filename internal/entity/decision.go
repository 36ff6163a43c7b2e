package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decision AI 决策记录, 仅用于记录, 不参与交易执行
type Decision struct {
	Id         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TraderId   string          `gorm:"index" json:"trader_id"`
	Symbol     string          `json:"symbol"`
	Action     string          `json:"action"`
	Reasoning  string          `json:"reasoning"`
	Confidence float64         `json:"confidence"`
	Price      decimal.Decimal `gorm:"type:text" json:"price"`
	Timestamp  time.Time       `gorm:"index" json:"timestamp"`
}

func (Decision) TableName() string {
	return "ai_decisions"
}
