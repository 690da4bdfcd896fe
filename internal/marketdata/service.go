package marketdata

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Service resolves instrument display names to provider quotes with a mock
// fallback. The contract is total: Quote always returns a usable value, and
// upstream failures are never surfaced to the caller.
type Service struct {
	providers map[ProviderName]QuoteProvider
	mock      *MockGenerator
	redis     *redis.Client // nil disables caching
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewService creates the market data service. redisClient may be nil, in
// which case quotes are fetched fresh on every call.
func NewService(providers []QuoteProvider, mock *MockGenerator, redisClient *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *Service {
	m := make(map[ProviderName]QuoteProvider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Service{
		providers: m,
		mock:      mock,
		redis:     redisClient,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Quote returns the current quote for a display name. Unknown instruments
// and upstream failures fall back to the mock model.
func (s *Service) Quote(ctx context.Context, name string) *Quote {
	asset, ok := LookupAsset(name)
	if !ok {
		s.logger.Debug("no provider mapping, serving mock quote", zap.String("symbol", name))
		return s.mock.Quote(name)
	}

	if q := s.cachedQuote(ctx, name); q != nil {
		return q
	}

	provider, ok := s.providers[asset.Provider]
	if !ok {
		return s.mock.Quote(name)
	}

	q, err := provider.Quote(ctx, asset)
	if err != nil {
		s.logger.Warn("upstream quote failed, serving mock quote",
			zap.String("symbol", name),
			zap.String("provider", string(asset.Provider)),
			zap.Error(err))
		return s.mock.Quote(name)
	}

	s.cacheQuote(ctx, name, q)
	return q
}

// Batch fetches quotes for multiple display names in parallel. Each
// instrument resolves independently; a failure on one never affects the
// others, so the result always has one entry per requested name.
func (s *Service) Batch(ctx context.Context, names []string) map[string]*Quote {
	results := make([]*Quote, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = s.Quote(ctx, name)
		}(i, name)
	}
	wg.Wait()

	out := make(map[string]*Quote, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out
}

// Known reports whether the display name exists in the instrument registry.
func (s *Service) Known(name string) bool {
	_, ok := LookupAsset(name)
	return ok
}

func (s *Service) cacheKey(name string) string {
	return "quote:" + name
}

func (s *Service) cachedQuote(ctx context.Context, name string) *Quote {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.Get(ctx, s.cacheKey(name)).Bytes()
	if err != nil {
		return nil
	}
	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil
	}
	return &q
}

func (s *Service) cacheQuote(ctx context.Context, name string, q *Quote) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, s.cacheKey(name), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("quote cache write failed", zap.String("symbol", name), zap.Error(err))
	}
}
