// Package alert decides which trades are large enough to report and renders
// them into notification text. Everything here is pure.
package alert

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/whalebot/internal/domain"
)

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// Evaluate returns an alert for trade when its notional is at least
// threshold. A notional strictly below threshold yields no alert.
func Evaluate(trade domain.TradeEvent, threshold decimal.Decimal) (domain.Alert, bool) {
	notional := trade.Notional()
	if notional.LessThan(threshold) {
		return domain.Alert{}, false
	}

	return domain.Alert{
		Symbol:   trade.Symbol,
		Side:     trade.Side,
		Notional: notional,
		Price:    trade.Price,
		Text:     Render(trade.Symbol, trade.Side, notional, trade.Price),
	}, true
}

// Render formats the alert body. The text uses Telegram's HTML subset.
func Render(symbol string, side domain.Side, notional, price decimal.Decimal) string {
	return fmt.Sprintf("%s <b>#%s</b> %s big trade detected: $%s at $%s",
		icon(side), symbol, side, FormatNotional(notional), price.String())
}

// FormatNotional compresses a value with an M or k suffix and two decimals.
// Values under one thousand keep two decimals and no suffix.
func FormatNotional(v decimal.Decimal) string {
	switch {
	case v.GreaterThanOrEqual(million):
		return v.Div(million).StringFixed(2) + "M"
	case v.GreaterThanOrEqual(thousand):
		return v.Div(thousand).StringFixed(2) + "k"
	default:
		return v.StringFixed(2)
	}
}

func icon(side domain.Side) string {
	if side == domain.SideSell {
		return "🔴"
	}
	return "🟢"
}
