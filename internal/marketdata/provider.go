package marketdata

import (
	"context"
)

// QuoteProvider fetches a live quote for an instrument from an upstream API.
// Providers may fail (auth, rate limit, network); the Service absorbs every
// failure by substituting the mock model.
type QuoteProvider interface {
	// Name returns the provider identifier used in the asset registry.
	Name() ProviderName

	// Quote fetches the current quote for the given instrument.
	Quote(ctx context.Context, asset AssetConfig) (*Quote, error)
}
