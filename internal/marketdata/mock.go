package marketdata

import (
	"math/rand"
	"sync"
	"time"
)

// mockVolatility bounds the random walk of the mock model: prices stay
// within ±2% of the per-instrument base price.
const mockVolatility = 0.02

// MockGenerator produces synthetic quotes from the static base-price table.
// It is the fallback for every upstream failure and for unknown instruments,
// so it never fails.
type MockGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockGenerator creates a mock quote generator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededMockGenerator creates a generator with a fixed seed.
func NewSeededMockGenerator(seed int64) *MockGenerator {
	return &MockGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Quote generates a synthetic quote for the instrument. The asset type is
// resolved from the registry when present; unknown instruments get the
// default spread model and base price.
func (g *MockGenerator) Quote(name string) *Quote {
	assetType := AssetTypeStock
	if cfg, ok := LookupAsset(name); ok {
		assetType = cfg.Type
	}

	base := BasePrice(name)

	g.mu.Lock()
	r := g.rng.Float64()
	volume := float64(g.rng.Intn(1_000_000))
	g.mu.Unlock()

	change := (r - 0.5) * 2 * (base * mockVolatility)
	price := base + change
	changePercent := change / base * 100

	q := &Quote{
		Symbol:        name,
		Name:          name,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		High:          base * 1.02,
		Low:           base * 0.98,
		Open:          base,
		PreviousClose: base,
		Volume:        volume,
		Timestamp:     time.Now().UnixMilli(),
		IsMock:        true,
	}
	q.applySpread(assetType)
	return q
}
