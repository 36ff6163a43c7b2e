package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMarketService struct {
	mock.Mock
}

func (m *MockMarketService) Ticker(ctx context.Context, tradingPair TradingPair) (Ticker, error) {
	args := m.Called(ctx, tradingPair)
	return args.Get(0).(Ticker), args.Error(1)
}

var btcUsdt = TradingPair{Base: "BTC", Quote: "USDT"}

func tickerAt(price int64) Ticker {
	return Ticker{Symbol: btcUsdt, Last: decimal.NewFromInt(price)}
}

func TestPriceFeed_Success(t *testing.T) {
	m := new(MockMarketService)
	m.On("Ticker", mock.Anything, btcUsdt).Return(tickerAt(95000), nil).Once()

	feed := NewPriceFeed(m, WithRetry(3, 0))
	q, err := feed.Price(context.Background(), btcUsdt)
	require.NoError(t, err)
	assert.False(t, q.Cached)
	assert.Equal(t, "95000", q.Price.String())
	m.AssertExpectations(t)
}

func TestPriceFeed_RetryThenSuccess(t *testing.T) {
	m := new(MockMarketService)
	m.On("Ticker", mock.Anything, btcUsdt).Return(Ticker{}, errors.New("rate limited")).Twice()
	m.On("Ticker", mock.Anything, btcUsdt).Return(tickerAt(94000), nil).Once()

	feed := NewPriceFeed(m, WithRetry(3, time.Millisecond))
	q, err := feed.Price(context.Background(), btcUsdt)
	require.NoError(t, err)
	assert.Equal(t, "94000", q.Price.String())
	m.AssertNumberOfCalls(t, "Ticker", 3)
}

func TestPriceFeed_FallbackToCache(t *testing.T) {
	m := new(MockMarketService)
	m.On("Ticker", mock.Anything, btcUsdt).Return(tickerAt(95000), nil).Once()
	m.On("Ticker", mock.Anything, btcUsdt).Return(Ticker{}, errors.New("network down"))

	feed := NewPriceFeed(m, WithRetry(2, 0))
	_, err := feed.Price(context.Background(), btcUsdt)
	require.NoError(t, err)

	q, err := feed.Price(context.Background(), btcUsdt)
	require.NoError(t, err)
	assert.True(t, q.Cached)
	assert.Equal(t, "95000", q.Price.String())
}

func TestPriceFeed_ImplausiblePrice(t *testing.T) {
	testCases := []struct {
		name   string
		ticker Ticker
	}{
		{name: "价格为0", ticker: tickerAt(0)},
		{name: "价格为负", ticker: tickerAt(-1)},
		{name: "价格过高", ticker: tickerAt(2_000_000_000)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := new(MockMarketService)
			m.On("Ticker", mock.Anything, btcUsdt).Return(tc.ticker, nil)

			feed := NewPriceFeed(m, WithRetry(2, 0))
			_, err := feed.Price(context.Background(), btcUsdt)
			assert.ErrorIs(t, err, ErrPriceUnavailable)
			assert.ErrorIs(t, err, ErrImplausiblePrice)
			m.AssertNumberOfCalls(t, "Ticker", 2)
		})
	}
}

func TestPriceFeed_HardFailureWithoutCache(t *testing.T) {
	m := new(MockMarketService)
	m.On("Ticker", mock.Anything, btcUsdt).Return(Ticker{}, errors.New("timeout"))

	feed := NewPriceFeed(m, WithRetry(3, 0))
	_, err := feed.Price(context.Background(), btcUsdt)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	_, ok := feed.Latest(btcUsdt)
	assert.False(t, ok)
}

func TestParseTradingPair(t *testing.T) {
	testCases := []struct {
		in      string
		want    TradingPair
		wantErr bool
	}{
		{in: "BTC/USDT", want: TradingPair{Base: "BTC", Quote: "USDT"}},
		{in: "ethusdt", want: TradingPair{Base: "ETH", Quote: "USDT"}},
		{in: "ETHBTC", want: TradingPair{Base: "ETH", Quote: "BTC"}},
		{in: "USDT", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTradingPair(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.Base+"/"+tc.want.Quote, got.ToSlashString())
		})
	}
}
