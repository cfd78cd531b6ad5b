package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"FXInsight/internal/model"
)

var (
	// ErrNoData means every real source failed and the synthetic fallback is
	// disabled. The accompanying result is empty and must not be computed on.
	ErrNoData = errors.New("no market data available")

	// ErrTooFewObservations marks a source that answered with too short a history.
	ErrTooFewObservations = errors.New("too few observations")
)

const (
	DefaultMinObservations   = 10
	DefaultCacheTTL          = time.Hour
	DefaultFlatFallbackPrice = 1400.0

	flatFallbackDays = 30
	peerLookbackDays = 30
)

// Request identifies one historical series request.
type Request struct {
	Pair         model.Pair
	LookbackDays int
}

func (r Request) key() string {
	return fmt.Sprintf("%s|%d", r.Pair, r.LookbackDays)
}

// PeerSpec names an auxiliary pair and the scalar used when no source answers.
type PeerSpec struct {
	Pair     model.Pair
	Fallback float64
}

// Provider walks the source priority chain and memoizes the outcome.
type Provider struct {
	sources           []Fetcher
	synthetic         *SyntheticGenerator
	flatFallbackPrice float64
	minObservations   int
	cache             *Cache[*model.SourceResult]
	peerCache         *Cache[[]model.PeerQuote]
	now               func() time.Time
	log               zerolog.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithSynthetic enables the synthetic fallback tier. Without it a total
// outage yields ErrNoData.
func WithSynthetic(g *SyntheticGenerator) ProviderOption {
	return func(p *Provider) { p.synthetic = g }
}

// WithFlatFallbackPrice sets the price of the last-resort flat series.
func WithFlatFallbackPrice(price float64) ProviderOption {
	return func(p *Provider) { p.flatFallbackPrice = price }
}

// WithMinObservations sets how many points a source must return to count.
func WithMinObservations(n int) ProviderOption {
	return func(p *Provider) { p.minObservations = n }
}

// WithCacheTTL sets the memoization window.
func WithCacheTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		p.cache = NewCache[*model.SourceResult](ttl)
		p.peerCache = NewCache[[]model.PeerQuote](ttl)
	}
}

// WithClock overrides time.Now for the request window and the cache.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) { p.now = now }
}

// WithLogger sets the provider logger.
func WithLogger(log zerolog.Logger) ProviderOption {
	return func(p *Provider) { p.log = log }
}

// NewProvider creates a Provider trying sources in the given order.
func NewProvider(sources []Fetcher, opts ...ProviderOption) *Provider {
	p := &Provider{
		sources:           sources,
		flatFallbackPrice: DefaultFlatFallbackPrice,
		minObservations:   DefaultMinObservations,
		cache:             NewCache[*model.SourceResult](DefaultCacheTTL),
		peerCache:         NewCache[[]model.PeerQuote](DefaultCacheTTL),
		now:               time.Now,
		log:               zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache.now = p.now
	p.peerCache.now = p.now
	p.log = p.log.With().Str("component", "collector").Logger()
	return p
}

// SourceNames lists the real sources in priority order.
func (p *Provider) SourceNames() []string {
	names := make([]string, len(p.sources))
	for i, s := range p.sources {
		names[i] = s.Name()
	}
	return names
}

// Load returns the memoized result for req, fetching it on a miss. Errors are
// ErrNoData or the context error when ctx ends mid-chain; both come with an
// empty, labelled result and neither is memoized.
func (p *Provider) Load(ctx context.Context, req Request) (*model.SourceResult, error) {
	return p.cache.GetOrFetch(req.key(), func() (*model.SourceResult, error) {
		return p.fetch(ctx, req)
	})
}

// Reset invalidates every memoized result so the next Load starts again at
// the primary source.
func (p *Provider) Reset() {
	p.cache.Invalidate()
	p.peerCache.Invalidate()
	p.log.Info().Msg("market data cache invalidated")
}

func (p *Provider) fetch(ctx context.Context, req Request) (*model.SourceResult, error) {
	end := p.now()
	start := end.AddDate(0, 0, -req.LookbackDays)

	attempts := make([]model.SourceAttempt, 0, len(p.sources)+1)
	for _, src := range p.sources {
		points, err := p.try(ctx, src, req.Pair, start, end)
		attempts = append(attempts, model.SourceAttempt{Source: src.Name(), Points: len(points), Err: err})
		if err == nil {
			p.log.Info().Str("source", src.Name()).Str("pair", req.Pair.String()).Int("points", len(points)).Msg("market data loaded")
			return p.result(req.Pair, points, src.Name(), false, attempts), nil
		}
		p.log.Warn().Err(err).Str("source", src.Name()).Str("pair", req.Pair.String()).Msg("source failed, trying next")
	}

	// A cancelled caller gets the context error; no placeholder is generated or memoized.
	if err := ctx.Err(); err != nil {
		return &model.SourceResult{
			Series:      model.PriceSeries{Pair: req.Pair},
			SourceLabel: model.SourceUnavailable,
			Attempts:    attempts,
			FetchedAt:   end,
		}, err
	}

	if p.synthetic == nil {
		p.log.Error().Str("pair", req.Pair.String()).Msg("all sources failed and synthetic fallback is disabled")
		return &model.SourceResult{
			Series:      model.PriceSeries{Pair: req.Pair},
			SourceLabel: model.SourceUnavailable,
			Attempts:    attempts,
			FetchedAt:   end,
		}, ErrNoData
	}

	points := p.synthetic.Generate(start, end)
	attempts = append(attempts, model.SourceAttempt{Source: model.SourceSynthetic, Points: len(points)})
	label := model.SourceSynthetic
	if len(points) == 0 {
		points = flatSeries(p.flatFallbackPrice, end, flatFallbackDays)
		label = model.SourceFlatFallback
	}
	p.log.Warn().Str("source", label).Str("pair", req.Pair.String()).Int("points", len(points)).Msg("using placeholder data")
	return p.result(req.Pair, points, label, true, attempts), nil
}

// try runs one source and applies the success condition. Panics inside a
// fetcher are converted to errors so the chain always continues.
func (p *Provider) try(ctx context.Context, src Fetcher, pair model.Pair, start, end time.Time) (points []model.PricePoint, err error) {
	defer func() {
		if r := recover(); r != nil {
			points, err = nil, fmt.Errorf("%s panicked: %v", src.Name(), r)
		}
	}()

	raw, err := src.FetchDaily(ctx, pair, start, end)
	if err != nil {
		return nil, err
	}
	points = model.NormalizePoints(raw)
	if len(points) < p.minObservations {
		return points, fmt.Errorf("%w: %s returned %d, need %d", ErrTooFewObservations, src.Name(), len(points), p.minObservations)
	}
	return points, nil
}

func (p *Provider) result(pair model.Pair, points []model.PricePoint, label string, synthetic bool, attempts []model.SourceAttempt) *model.SourceResult {
	last := points[len(points)-1]
	return &model.SourceResult{
		Series:      model.PriceSeries{Pair: pair, Points: points},
		LatestPrice: last.Close,
		LatestDate:  last.Date,
		SourceLabel: label,
		IsSynthetic: synthetic,
		Attempts:    attempts,
		FetchedAt:   p.now(),
	}
}

// LoadPeers returns the latest value of each peer pair. Peers use the real
// sources only and degrade to their scalar fallback; they never fail.
func (p *Provider) LoadPeers(ctx context.Context, peers []PeerSpec) []model.PeerQuote {
	if len(peers) == 0 {
		return nil
	}
	keys := make([]string, len(peers))
	for i, ps := range peers {
		keys[i] = ps.Pair.String()
	}
	quotes, _ := p.peerCache.GetOrFetch("peers|"+strings.Join(keys, ","), func() ([]model.PeerQuote, error) {
		q := p.fetchPeers(ctx, peers)
		return q, ctx.Err()
	})
	return quotes
}

func (p *Provider) fetchPeers(ctx context.Context, peers []PeerSpec) []model.PeerQuote {
	end := p.now()
	start := end.AddDate(0, 0, -peerLookbackDays)

	quotes := make([]model.PeerQuote, 0, len(peers))
	for _, ps := range peers {
		quote := model.PeerQuote{Pair: ps.Pair, Value: ps.Fallback, Source: "fallback", IsFallback: true}
		for _, src := range p.sources {
			points, err := p.try(ctx, src, ps.Pair, start, end)
			if err != nil {
				p.log.Warn().Err(err).Str("source", src.Name()).Str("pair", ps.Pair.String()).Msg("peer source failed")
				continue
			}
			last := points[len(points)-1]
			quote = model.PeerQuote{Pair: ps.Pair, Value: last.Close, Source: src.Name()}
			break
		}
		if quote.IsFallback {
			p.log.Warn().Str("pair", ps.Pair.String()).Float64("value", ps.Fallback).Msg("peer degraded to last-known constant")
		}
		quotes = append(quotes, quote)
	}
	return quotes
}
