package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSideFromBuyerMaker(t *testing.T) {
	// m=true: buyer rested on the book, the taker sold.
	assert.Equal(t, SideSell, SideFromBuyerMaker(true))
	assert.Equal(t, "SELL", SideFromBuyerMaker(true).String())
	assert.Equal(t, SideBuy, SideFromBuyerMaker(false))
	assert.Equal(t, "BUY", SideFromBuyerMaker(false).String())
}

func TestNotionalIsRecomputed(t *testing.T) {
	tr := TradeEvent{
		Price:    decimal.RequireFromString("10"),
		Quantity: decimal.RequireFromString("60000"),
	}
	assert.True(t, tr.Notional().Equal(decimal.NewFromInt(600_000)))

	tr.Price = decimal.RequireFromString("20")
	assert.True(t, tr.Notional().Equal(decimal.NewFromInt(1_200_000)))
}

func TestPerpetualQuotedIn(t *testing.T) {
	f := PerpetualQuotedIn("USDT")

	assert.True(t, f(Instrument{Symbol: "BTCUSDT", ContractType: "PERPETUAL", QuoteAsset: "USDT"}))
	assert.True(t, f(Instrument{Symbol: "ETHUSDT", ContractType: "perpetual", QuoteAsset: "usdt"}))
	assert.False(t, f(Instrument{Symbol: "BTCUSDT_250627", ContractType: "CURRENT_QUARTER", QuoteAsset: "USDT"}))
	assert.False(t, f(Instrument{Symbol: "BTCUSDC", ContractType: "PERPETUAL", QuoteAsset: "USDC"}))
}

func TestContractQuotedIn(t *testing.T) {
	f := ContractQuotedIn("CURRENT_QUARTER", "USDT")

	assert.True(t, f(Instrument{Symbol: "BTCUSDT_250627", ContractType: "CURRENT_QUARTER", QuoteAsset: "USDT"}))
	assert.False(t, f(Instrument{Symbol: "BTCUSDT", ContractType: "PERPETUAL", QuoteAsset: "USDT"}))
}

func TestConnStateString(t *testing.T) {
	assert.Equal(t, "connecting", ConnConnecting.String())
	assert.Equal(t, "open", ConnOpen.String())
	assert.Equal(t, "closed_pending_retry", ConnClosedPendingRetry.String())
	assert.Equal(t, "stopped", ConnStopped.String())
	assert.Equal(t, "unknown", ConnState(42).String())
}
