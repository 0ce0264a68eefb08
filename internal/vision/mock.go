// File: internal/vision/mock.go
package vision

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
)

// Mock produces randomized but well-shaped results for development runs
// without an API key.
type Mock struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger
}

var _ Analyzer = (*Mock)(nil)

func NewMock(seed int64, logger *zap.Logger) *Mock {
	return &Mock{
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger.Named("vision_mock"),
	}
}

// Analyze ignores the screenshot and invents a plausible answer keyed
// to the item's target sizes and price ceiling.
func (m *Mock) Analyze(_ context.Context, _ []byte, item schemas.MonitoredItem) (schemas.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	available := m.rng.Float64() > 0.5
	var sizes []string
	if available {
		for _, s := range item.Sizes {
			if m.rng.Float64() > 0.3 {
				sizes = append(sizes, s)
			}
		}
	}
	price := math.Round(item.MaxPrice * (0.8 + m.rng.Float64()*0.4))

	result := schemas.AnalysisResult{
		Available:      available && len(sizes) > 0 && price <= item.MaxPrice,
		AvailableSizes: sizes,
		Price:          price,
	}
	if !result.Available {
		result.OutOfStockMessage = "This item is currently out of stock"
	}
	m.logger.Info("Mock analysis produced",
		zap.Bool("available", result.Available),
		zap.Strings("sizes", result.AvailableSizes),
		zap.Float64("price", result.Price))
	return result, nil
}
