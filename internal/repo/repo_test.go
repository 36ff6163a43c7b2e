package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/KNICEX/spot-trader/internal/entity"
	"github.com/KNICEX/spot-trader/pkg/decimalx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, InitTables(db))
	return db
}

func newTrader(id, status string) entity.Trader {
	return entity.Trader{
		Id:       id,
		Name:     "grid " + id,
		Strategy: "grid",
		Symbol:   "BTC/USDT",
		Status:   status,
		Config: entity.StrategyConfig{
			Amount:        decimal.RequireFromString("0.0005"),
			GridGap:       decimal.NewFromInt(2),
			CheckInterval: 60,
			StopLossPct:   decimalx.Ptr(decimal.NewFromInt(-10)),
		},
	}
}

func TestTraderRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	r := NewTraderRepo(newTestDB(t))

	require.NoError(t, r.Create(ctx, newTrader("trader_1", entity.TraderStatusStopped)))

	got, err := r.FindById(ctx, "trader_1")
	require.NoError(t, err)
	assert.Equal(t, "grid", got.Strategy)
	assert.Equal(t, "0.0005", got.Config.Amount.String())
	require.NotNil(t, got.Config.StopLossPct)
	assert.Equal(t, "-10", got.Config.StopLossPct.String())
	assert.Nil(t, got.Config.TakeProfitPct)

	require.NoError(t, r.UpdateStatus(ctx, "trader_1", entity.TraderStatusRunning))
	got, err = r.FindById(ctx, "trader_1")
	require.NoError(t, err)
	assert.Equal(t, entity.TraderStatusRunning, got.Status)

	require.NoError(t, r.Delete(ctx, "trader_1"))
	_, err = r.FindById(ctx, "trader_1")
	assert.ErrorIs(t, err, ErrTraderNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "trader_1"), ErrTraderNotFound)
	assert.ErrorIs(t, r.UpdateStatus(ctx, "trader_1", entity.TraderStatusStopped), ErrTraderNotFound)
}

func TestTraderRepo_DuplicateId(t *testing.T) {
	ctx := context.Background()
	r := NewTraderRepo(newTestDB(t))

	require.NoError(t, r.Create(ctx, newTrader("trader_1", entity.TraderStatusStopped)))
	err := r.Create(ctx, newTrader("trader_1", entity.TraderStatusStopped))
	assert.ErrorIs(t, err, ErrDuplicateId)
}

func TestTraderRepo_ResetRunning(t *testing.T) {
	ctx := context.Background()
	r := NewTraderRepo(newTestDB(t))

	require.NoError(t, r.Create(ctx, newTrader("a", entity.TraderStatusRunning)))
	require.NoError(t, r.Create(ctx, newTrader("b", entity.TraderStatusRunning)))
	require.NoError(t, r.Create(ctx, newTrader("c", entity.TraderStatusStopped)))

	n, err := r.ResetRunning(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	traders, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, traders, 3)
	for _, tr := range traders {
		assert.Equal(t, entity.TraderStatusStopped, tr.Status, tr.Id)
	}
}

func TestTradeRepo_AppendAndOrder(t *testing.T) {
	ctx := context.Background()
	r := NewTradeRepo(newTestDB(t))

	_, err := r.Latest(ctx, "trader_1")
	assert.ErrorIs(t, err, ErrTradeNotFound)

	now := time.Now()
	actions := []string{entity.ActionBuy, entity.ActionBuy, entity.ActionSell}
	pos := decimal.Zero
	for i, action := range actions {
		amount := decimal.RequireFromString("0.01")
		trade := &entity.Trade{
			TraderId:       "trader_1",
			Strategy:       "grid",
			Symbol:         "BTC/USDT",
			Action:         action,
			Price:          decimal.NewFromInt(int64(90000 + i*10000)),
			Amount:         amount,
			PositionBefore: pos,
			Timestamp:      now.Add(time.Duration(i) * time.Second),
		}
		pos = pos.Add(trade.SignedAmount())
		trade.PositionAfter = pos
		require.NoError(t, r.Append(ctx, trade))
		assert.NotZero(t, trade.Id)
	}

	trades, err := r.FindByTrader(ctx, "trader_1")
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, "90000", trades[0].Price.String())
	assert.Equal(t, entity.ActionSell, trades[2].Action)

	latest, err := r.Latest(ctx, "trader_1")
	require.NoError(t, err)
	assert.Equal(t, "0.01", latest.PositionAfter.String())

	other, err := r.FindByTraderSymbol(ctx, "trader_1", "ETH/USDT")
	require.NoError(t, err)
	assert.Empty(t, other)

	recent, err := r.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, entity.ActionSell, recent[0].Action)
}

func TestTradeRepo_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	r := NewTradeRepo(newTestDB(t))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		traderId := fmt.Sprintf("trader_%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				err := r.Append(ctx, &entity.Trade{
					TraderId:  traderId,
					Symbol:    "BTC/USDT",
					Action:    entity.ActionBuy,
					Amount:    decimal.NewFromInt(1),
					Timestamp: time.Now(),
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		trades, err := r.FindByTrader(ctx, fmt.Sprintf("trader_%d", i))
		require.NoError(t, err)
		assert.Len(t, trades, 10)
	}
}

func TestDecisionRepo(t *testing.T) {
	ctx := context.Background()
	r := NewDecisionRepo(newTestDB(t))

	base := time.Now()
	for i := 0; i < 3; i++ {
		_, err := r.Create(ctx, entity.Decision{
			TraderId:   "manual",
			Symbol:     "BTC/USDT",
			Action:     "wait",
			Confidence: 0.5,
			Price:      decimal.NewFromInt(95000),
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	decisions, err := r.FindByTrader(ctx, "manual", 2)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.True(t, decisions[0].Timestamp.After(decisions[1].Timestamp))
}
