// Package binance adapts the Binance USDⓈ-M futures REST and websocket APIs
// to the domain interfaces: instrument discovery, trade-stream connections,
// and trade frame decoding.
package binance

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"github.com/alanyoungcy/whalebot/internal/domain"
)

// ExchangeInfoProvider discovers tradable symbols from the futures
// exchangeInfo endpoint. It implements domain.SymbolProvider.
type ExchangeInfoProvider struct {
	client *futures.Client
	filter domain.SymbolFilter
	logger *slog.Logger
}

// NewExchangeInfoProvider creates a provider against baseURL, e.g.
// "https://fapi.binance.com". Only instruments accepted by filter are
// returned; a nil filter accepts everything.
func NewExchangeInfoProvider(baseURL string, filter domain.SymbolFilter, logger *slog.Logger) *ExchangeInfoProvider {
	client := futures.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	client.HTTPClient = &http.Client{Timeout: 30 * time.Second}

	if filter == nil {
		filter = func(domain.Instrument) bool { return true }
	}

	return &ExchangeInfoProvider{
		client: client,
		filter: filter,
		logger: logger.With(slog.String("component", "exchange_info")),
	}
}

// FetchSymbols returns the lower-cased identifiers of every instrument that
// passes the filter, in the order the exchange lists them. It fails with
// domain.ErrNoInstruments when nothing matches.
func (p *ExchangeInfoProvider) FetchSymbols(ctx context.Context) ([]string, error) {
	info, err := p.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance/exchange_info: fetch: %w", err)
	}

	symbols := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		in := domain.Instrument{
			Symbol:       s.Symbol,
			ContractType: string(s.ContractType),
			QuoteAsset:   s.QuoteAsset,
			Status:       s.Status,
		}
		if in.Symbol == "" || !p.filter(in) {
			continue
		}
		symbols = append(symbols, strings.ToLower(in.Symbol))
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("binance/exchange_info: %w", domain.ErrNoInstruments)
	}

	p.logger.InfoContext(ctx, "loaded instruments",
		slog.Int("listed", len(info.Symbols)),
		slog.Int("watched", len(symbols)),
	)
	return symbols, nil
}
