package collector

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"MarketWatcher/internal/model"
)

// Fetcher defines the interface for fetching the current price of a symbol.
// Transport, timeout and decoding problems are all reported as errors.
type Fetcher interface {
	FetchPrice(ctx context.Context, symbol string) (*model.PriceSample, error)
	Name() string
}

// FallbackFetcher asks Primary first and Secondary only when Primary fails.
type FallbackFetcher struct {
	Primary   Fetcher
	Secondary Fetcher
}

func (f *FallbackFetcher) Name() string {
	return f.Primary.Name() + "+" + f.Secondary.Name()
}

func (f *FallbackFetcher) FetchPrice(ctx context.Context, symbol string) (*model.PriceSample, error) {
	sample, err := f.Primary.FetchPrice(ctx, symbol)
	if err == nil {
		return sample, nil
	}
	log.Warn().Err(err).Str("symbol", symbol).Str("fallback", f.Secondary.Name()).Msg("primary source failed")
	sample, err2 := f.Secondary.FetchPrice(ctx, symbol)
	if err2 != nil {
		return nil, fmt.Errorf("%s: %w; %s: %v", f.Primary.Name(), err, f.Secondary.Name(), err2)
	}
	return sample, nil
}
