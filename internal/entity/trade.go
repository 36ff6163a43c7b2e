package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// Trade 成交记录, 只追加不修改, 是持仓的唯一数据来源
type Trade struct {
	Id             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TraderId       string          `gorm:"index:idx_trader_symbol" json:"trader_id"`
	Strategy       string          `json:"strategy"`
	Symbol         string          `gorm:"index:idx_trader_symbol" json:"symbol"`
	OrderId        string          `json:"order_id"`
	Action         string          `json:"action"`
	Price          decimal.Decimal `gorm:"type:text" json:"price"`
	Amount         decimal.Decimal `gorm:"type:text" json:"amount"`
	Cost           decimal.Decimal `gorm:"type:text" json:"cost"`
	Fee            decimal.Decimal `gorm:"type:text" json:"fee"`
	PositionBefore decimal.Decimal `gorm:"type:text" json:"position_before"`
	PositionAfter  decimal.Decimal `gorm:"type:text" json:"position_after"`
	Timestamp      time.Time       `gorm:"index" json:"timestamp"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SignedAmount 买入为正, 卖出为负
func (t Trade) SignedAmount() decimal.Decimal {
	if t.Action == ActionSell {
		return t.Amount.Neg()
	}
	return t.Amount
}
