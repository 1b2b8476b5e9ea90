package binance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/whalebot/internal/domain"
)

func TestDecodeTrade(t *testing.T) {
	raw := []byte(`{"stream":"btcusdt@trade","data":{"e":"trade","E":1700000000123,"T":1700000000120,"s":"BTCUSDT","t":42,"p":"43000.50","q":"12.5","X":"MARKET","m":true}}`)

	tr, ok := DecodeTrade(raw)
	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", tr.Symbol)
	assert.Equal(t, int64(42), tr.TradeID)
	assert.Equal(t, "43000.5", tr.Price.String())
	assert.Equal(t, "12.5", tr.Quantity.String())
	assert.Equal(t, domain.SideSell, tr.Side)
	assert.Equal(t, int64(1700000000120), tr.TradeTime.UnixMilli())
}

func TestDecodeTradeBuyerTaker(t *testing.T) {
	tr, ok := DecodeTrade([]byte(`{"stream":"ethusdt@trade","data":{"e":"trade","s":"ETHUSDT","p":"2000","q":"1","m":false}}`))
	require.True(t, ok)
	assert.Equal(t, domain.SideBuy, tr.Side)
}

func TestDecodeTradeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":         `not json at all`,
		"subscription ack": `{"result":null,"id":1}`,
		"missing data":     `{"stream":"btcusdt@trade"}`,
		"null data":        `{"stream":"btcusdt@trade","data":null}`,
		"missing symbol":   `{"stream":"btcusdt@trade","data":{"e":"trade","p":"1","q":"1"}}`,
		"non numeric p":    `{"stream":"btcusdt@trade","data":{"e":"trade","s":"BTCUSDT","p":"abc","q":"1"}}`,
		"non numeric q":    `{"stream":"btcusdt@trade","data":{"e":"trade","s":"BTCUSDT","p":"1","q":""}}`,
		"zero price":       `{"stream":"btcusdt@trade","data":{"e":"trade","s":"BTCUSDT","p":"0","q":"1"}}`,
		"negative qty":     `{"stream":"btcusdt@trade","data":{"e":"trade","s":"BTCUSDT","p":"1","q":"-3"}}`,
		"other event":      `{"stream":"btcusdt@markPrice","data":{"e":"markPriceUpdate","s":"BTCUSDT","p":"1","q":"1"}}`,
		"wrong types":      `{"stream":"btcusdt@trade","data":{"e":"trade","s":"BTCUSDT","p":1,"q":1}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := DecodeTrade([]byte(raw))
			assert.False(t, ok)
		})
	}
}
