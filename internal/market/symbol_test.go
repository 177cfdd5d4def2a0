package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExchangeSymbol(t *testing.T) {
	cases := map[string]string{
		"BTC/USDT":        "BTCUSDT",
		"btc/usdt":        "BTCUSDT",
		"BTCUSDT":         "BTCUSDT",
		"BINANCE:BTCUSDT": "BTCUSDT",
		"ethbtc":          "ETHBTC",
		"  solusdt ":      "SOLUSDT",
		"":                "",
		"XYZ":             "",
		"USDT":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExchangeSymbol(in), "input=%q", in)
	}
}

func TestValidSymbol(t *testing.T) {
	assert.True(t, ValidSymbol("BTC/USDT"))
	assert.True(t, ValidSymbol("dogeusdt"))
	assert.False(t, ValidSymbol(""))
	assert.False(t, ValidSymbol("not-a-pair"))
}
