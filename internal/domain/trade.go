package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the aggressor (taker) side of a matched trade.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

// String returns the alert label for the side.
func (s Side) String() string {
	if s == SideSell {
		return "SELL"
	}
	return "BUY"
}

// SideFromBuyerMaker maps the feed's "buyer is maker" flag to the taker side.
// When the buyer rested on the book, the seller crossed the spread, so the
// trade is aggressive selling into bids.
func SideFromBuyerMaker(buyerIsMaker bool) Side {
	if buyerIsMaker {
		return SideSell
	}
	return SideBuy
}

// TradeEvent is one parsed execution from the trade stream. It is built per
// inbound frame and dropped once the filter has seen it.
type TradeEvent struct {
	Symbol    string // exchange symbol as sent by the feed, e.g. "BTCUSDT"
	TradeID   int64
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Side      Side
	TradeTime time.Time
}

// Notional returns price × quantity.
func (t TradeEvent) Notional() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}
