package domain

import (
	"context"
	"strings"
)

// Contract types reported by the futures exchange-info endpoint.
const (
	ContractTypePerpetual = "PERPETUAL"
)

// Instrument is a raw discovery record before filtering.
type Instrument struct {
	Symbol       string
	ContractType string
	QuoteAsset   string
	Status       string
}

// SymbolFilter decides whether a discovered instrument should be watched.
type SymbolFilter func(Instrument) bool

// PerpetualQuotedIn accepts perpetual contracts settled in quoteAsset.
// Comparison is case-insensitive.
func PerpetualQuotedIn(quoteAsset string) SymbolFilter {
	return ContractQuotedIn(ContractTypePerpetual, quoteAsset)
}

// ContractQuotedIn accepts contracts of contractType settled in quoteAsset.
func ContractQuotedIn(contractType, quoteAsset string) SymbolFilter {
	return func(in Instrument) bool {
		return strings.EqualFold(in.ContractType, contractType) &&
			strings.EqualFold(in.QuoteAsset, quoteAsset)
	}
}

// SymbolProvider returns the instrument identifiers to watch. It is called
// once at startup; a failure there is fatal.
type SymbolProvider interface {
	FetchSymbols(ctx context.Context) ([]string, error)
}

// Batch is a contiguous, ordered group of identifiers served by one stream
// connection.
type Batch struct {
	Index   int // 1-based, used in logs and metrics
	Symbols []string
}
