package binance

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/whalebot/internal/domain"
)

// combinedFrame is the envelope the combined-stream endpoint wraps every
// payload in.
type combinedFrame struct {
	Stream string        `json:"stream"`
	Data   *tradePayload `json:"data"`
}

type tradePayload struct {
	EventType    string `json:"e"` // "trade"
	EventTime    int64  `json:"E"`
	TradeTime    int64  `json:"T"`
	Symbol       string `json:"s"`
	TradeID      int64  `json:"t"`
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	IsBuyerMaker bool   `json:"m"`
}

// DecodeTrade parses one combined-stream frame. It reports false for
// anything that is not a well-formed trade: subscription acks, other event
// types, missing fields, or non-positive price/quantity.
func DecodeTrade(raw []byte) (domain.TradeEvent, bool) {
	var frame combinedFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return domain.TradeEvent{}, false
	}
	d := frame.Data
	if d == nil || d.Symbol == "" {
		return domain.TradeEvent{}, false
	}
	if d.EventType != "" && d.EventType != "trade" {
		return domain.TradeEvent{}, false
	}

	price, err := decimal.NewFromString(d.Price)
	if err != nil || !price.IsPositive() {
		return domain.TradeEvent{}, false
	}
	qty, err := decimal.NewFromString(d.Quantity)
	if err != nil || !qty.IsPositive() {
		return domain.TradeEvent{}, false
	}

	trade := domain.TradeEvent{
		Symbol:   d.Symbol,
		TradeID:  d.TradeID,
		Price:    price,
		Quantity: qty,
		// m is "buyer is maker": true means the seller was the aggressor.
		Side: domain.SideFromBuyerMaker(d.IsBuyerMaker),
	}
	if d.TradeTime > 0 {
		trade.TradeTime = time.UnixMilli(d.TradeTime)
	}
	return trade, true
}
