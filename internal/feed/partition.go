package feed

import (
	"fmt"

	"github.com/alanyoungcy/whalebot/internal/domain"
)

// Partition splits symbols into consecutive batches of at most maxBatchSize,
// preserving discovery order. Batch i holds symbols[i*max : (i+1)*max]; only
// the last batch may be short. Batches are numbered from 1.
func Partition(symbols []string, maxBatchSize int) ([]domain.Batch, error) {
	if maxBatchSize <= 0 {
		return nil, fmt.Errorf("feed: partition %d: %w", maxBatchSize, domain.ErrInvalidBatchSize)
	}

	batches := make([]domain.Batch, 0, (len(symbols)+maxBatchSize-1)/maxBatchSize)
	for start := 0; start < len(symbols); start += maxBatchSize {
		end := min(start+maxBatchSize, len(symbols))
		// Full slice expression so a batch can never append into its neighbour.
		batches = append(batches, domain.Batch{
			Index:   len(batches) + 1,
			Symbols: symbols[start:end:end],
		})
	}
	return batches, nil
}
