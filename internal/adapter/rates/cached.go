package rates

import (
	"context"
	"strings"
	"time"

	"currency-wallet/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CachedRateSource decorates another rate source with a TTL cache of unit
// rates. Cache failures are logged and fall through to the inner source, so
// a dead cache degrades latency, never correctness.
type CachedRateSource struct {
	inner ports.RateSource
	cache ports.RateCache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedRateSource wraps inner with the given cache.
func NewCachedRateSource(inner ports.RateSource, cache ports.RateCache, ttl time.Duration, log zerolog.Logger) *CachedRateSource {
	return &CachedRateSource{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// Convert resolves the unit rate for the pair, from cache when possible, and
// applies it to amount.
func (s *CachedRateSource) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	rate, ok, err := s.cache.GetRate(ctx, from, to)
	if err != nil {
		s.log.Warn().Err(err).Str("from", from).Str("to", to).Msg("rate cache read failed")
	}
	if ok {
		return amount.Mul(rate), nil
	}

	unit, err := s.inner.Convert(ctx, from, to, decimal.NewFromInt(1))
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.cache.SetRate(ctx, from, to, unit, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("from", from).Str("to", to).Msg("rate cache write failed")
	}

	return amount.Mul(unit), nil
}
