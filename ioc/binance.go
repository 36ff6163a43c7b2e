package ioc

import (
	"github.com/adshao/go-binance/v2"
)

func InitBinanceCli(apiKey, apiSecret string, testnet bool) *binance.Client {
	// 需要在创建 client 之前设置
	binance.UseTestnet = testnet
	return binance.NewClient(apiKey, apiSecret)
}
