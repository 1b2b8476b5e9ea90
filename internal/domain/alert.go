package domain

import "github.com/shopspring/decimal"

// Alert is a rendered large-trade notification. Text is what senders deliver.
type Alert struct {
	Symbol   string
	Side     Side
	Notional decimal.Decimal
	Price    decimal.Decimal
	Text     string
}
