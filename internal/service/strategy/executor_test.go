package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KNICEX/spot-trader/internal/entity"
	"github.com/KNICEX/spot-trader/internal/service/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTradingService struct {
	mock.Mock
}

func (m *MockTradingService) MarketBuy(ctx context.Context, tradingPair exchange.TradingPair, amount decimal.Decimal) (exchange.OrderResult, error) {
	args := m.Called(ctx, tradingPair, amount)
	return args.Get(0).(exchange.OrderResult), args.Error(1)
}

func (m *MockTradingService) MarketSell(ctx context.Context, tradingPair exchange.TradingPair, amount decimal.Decimal) (exchange.OrderResult, error) {
	args := m.Called(ctx, tradingPair, amount)
	return args.Get(0).(exchange.OrderResult), args.Error(1)
}

type MockTradeRepo struct {
	mock.Mock
}

func (m *MockTradeRepo) Append(ctx context.Context, trade *entity.Trade) error {
	return m.Called(ctx, trade).Error(0)
}

func (m *MockTradeRepo) FindByTrader(ctx context.Context, traderId string) ([]entity.Trade, error) {
	args := m.Called(ctx, traderId)
	return args.Get(0).([]entity.Trade), args.Error(1)
}

func (m *MockTradeRepo) FindByTraderSymbol(ctx context.Context, traderId, symbol string) ([]entity.Trade, error) {
	args := m.Called(ctx, traderId, symbol)
	return args.Get(0).([]entity.Trade), args.Error(1)
}

func (m *MockTradeRepo) Latest(ctx context.Context, traderId string) (entity.Trade, error) {
	args := m.Called(ctx, traderId)
	return args.Get(0).(entity.Trade), args.Error(1)
}

func (m *MockTradeRepo) FindRecent(ctx context.Context, limit int) ([]entity.Trade, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]entity.Trade), args.Error(1)
}

func TestExecutor_Execute(t *testing.T) {
	now := time.Now()
	testCases := []struct {
		name      string
		side      exchange.Side
		position  string
		result    exchange.OrderResult
		orderErr  error
		notFilled bool
		appendErr error
		wantErr   bool
		wantAfter string
	}{
		{
			name:     "买入成功",
			side:     exchange.SideBuy,
			position: "0.5",
			result: exchange.OrderResult{
				OrderId: "1", Side: exchange.SideBuy, Price: d("100"), Amount: d("0.25"), Cost: d("25"), Fee: d("0.01"), Timestamp: now,
			},
			wantAfter: "0.75",
		},
		{
			name:     "卖出成功",
			side:     exchange.SideSell,
			position: "0.5",
			result: exchange.OrderResult{
				OrderId: "2", Side: exchange.SideSell, Price: d("100"), Amount: d("0.25"), Cost: d("25"), Timestamp: now,
			},
			wantAfter: "0.25",
		},
		{
			name:     "下单失败",
			side:     exchange.SideBuy,
			position: "0",
			orderErr: errors.New("rejected"),
			wantErr:  true,
		},
		{
			name:      "卖单未成交",
			side:      exchange.SideSell,
			position:  "0.5",
			result:    exchange.OrderResult{OrderId: "1"},
			notFilled: true,
			wantErr:   true,
		},
		{
			name:      "买单未成交",
			side:      exchange.SideBuy,
			position:  "0",
			result:    exchange.OrderResult{OrderId: "5", Side: exchange.SideBuy, Amount: decimal.Zero},
			notFilled: true,
			wantErr:   true,
		},
		{
			name:      "账本写入失败",
			side:      exchange.SideBuy,
			position:  "0",
			result:    exchange.OrderResult{OrderId: "3", Price: d("100"), Amount: d("0.25")},
			appendErr: errors.New("disk full"),
			wantErr:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tradingSvc := new(MockTradingService)
			tradeRepo := new(MockTradeRepo)
			method := "MarketBuy"
			if tc.side == exchange.SideSell {
				method = "MarketSell"
			}
			tradingSvc.On(method, mock.Anything, btcUsdt, d("0.25")).Return(tc.result, tc.orderErr)
			if tc.orderErr == nil && !tc.notFilled {
				tradeRepo.On("Append", mock.Anything, mock.AnythingOfType("*entity.Trade")).Return(tc.appendErr)
			}

			e := NewExecutor(tradingSvc, tradeRepo)
			trade, err := e.Execute(context.Background(), Order{
				TraderId: testTraderId,
				Strategy: KindGrid,
				Pair:     btcUsdt,
				Side:     tc.side,
				Amount:   d("0.25"),
				Position: d(tc.position),
			})
			if tc.wantErr {
				assert.Error(t, err)
				if tc.notFilled {
					assert.ErrorIs(t, err, ErrOrderNotFilled)
				}
				if tc.orderErr != nil || tc.notFilled {
					tradeRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantAfter, trade.PositionAfter.String())
			assert.Equal(t, tc.position, trade.PositionBefore.String())
			assert.Equal(t, "BTC/USDT", trade.Symbol)
			assert.Equal(t, string(tc.side), trade.Action)
			assert.Equal(t, tc.result.OrderId, trade.OrderId)
			tradingSvc.AssertExpectations(t)
			tradeRepo.AssertExpectations(t)
		})
	}
}
