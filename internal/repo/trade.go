package repo

import (
	"context"
	"errors"
	"sync"

	"github.com/KNICEX/spot-trader/internal/entity"
	"gorm.io/gorm"
)

// TradeRepo 成交账本, 只追加
type TradeRepo interface {
	Append(ctx context.Context, trade *entity.Trade) error
	// FindByTrader 按写入顺序返回
	FindByTrader(ctx context.Context, traderId string) ([]entity.Trade, error)
	FindByTraderSymbol(ctx context.Context, traderId, symbol string) ([]entity.Trade, error)
	Latest(ctx context.Context, traderId string) (entity.Trade, error)
	FindRecent(ctx context.Context, limit int) ([]entity.Trade, error)
}

type tradeRepo struct {
	db *gorm.DB
	// sqlite 单写者, 多个交易员并发写入在这里串行化
	writeMu sync.Mutex
}

func NewTradeRepo(db *gorm.DB) TradeRepo {
	return &tradeRepo{
		db: db,
	}
}

func (r *tradeRepo) Append(ctx context.Context, trade *entity.Trade) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.db.WithContext(ctx).Create(trade).Error
}

func (r *tradeRepo) FindByTrader(ctx context.Context, traderId string) ([]entity.Trade, error) {
	var trades []entity.Trade
	err := r.db.WithContext(ctx).Where("trader_id = ?", traderId).Order("id ASC").Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}

func (r *tradeRepo) FindByTraderSymbol(ctx context.Context, traderId, symbol string) ([]entity.Trade, error) {
	var trades []entity.Trade
	err := r.db.WithContext(ctx).Where("trader_id = ? AND symbol = ?", traderId, symbol).
		Order("id ASC").Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}

func (r *tradeRepo) Latest(ctx context.Context, traderId string) (entity.Trade, error) {
	var trade entity.Trade
	err := r.db.WithContext(ctx).Where("trader_id = ?", traderId).Order("id DESC").First(&trade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.Trade{}, ErrTradeNotFound
	}
	if err != nil {
		return entity.Trade{}, err
	}
	return trade, nil
}

func (r *tradeRepo) FindRecent(ctx context.Context, limit int) ([]entity.Trade, error) {
	var trades []entity.Trade
	err := r.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC").Limit(limit).Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}
