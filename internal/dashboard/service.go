package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"FXInsight/internal/calculator"
	"FXInsight/internal/collector"
	"FXInsight/internal/fairvalue"
	"FXInsight/internal/forecast"
	"FXInsight/internal/model"
)

// ErrInvalidQuery wraps every caller mistake (bad model, factor, policy, horizon).
var ErrInvalidQuery = errors.New("invalid query")

// MarketData is the part of the collector the pipeline depends on.
type MarketData interface {
	Load(ctx context.Context, req collector.Request) (*model.SourceResult, error)
	LoadPeers(ctx context.Context, peers []collector.PeerSpec) []model.PeerQuote
	Reset()
}

// Config fixes what the dashboard tracks.
type Config struct {
	Pair            model.Pair
	LookbackDays    int
	Peers           []collector.PeerSpec
	Horizon         int
	Policy          forecast.Policy
	ForecastOptions []forecast.Option
}

// Query is one user interaction: slider values plus presentation choices.
// Zero values select the configured defaults.
type Query struct {
	Model   string
	Inputs  fairvalue.Inputs
	Policy  forecast.Policy
	Horizon int
	Seed    uint64
}

// View is everything the charting collaborator needs for one render.
type View struct {
	Market    *model.SourceResult `json:"market"`
	Summary   model.SeriesSummary `json:"summary"`
	Peers     []model.PeerQuote   `json:"peers,omitempty"`
	FairValue fairvalue.Result    `json:"fair_value"`
	Gap       float64             `json:"gap"`
	Forecast  model.ForecastPath  `json:"forecast"`
	Warning   string              `json:"warning,omitempty"`
}

// Service runs provider → fair value → forecast for each query.
type Service struct {
	market MarketData
	models *fairvalue.Registry
	cfg    Config
	log    zerolog.Logger
}

// NewService creates a Service.
func NewService(market MarketData, models *fairvalue.Registry, cfg Config, log zerolog.Logger) *Service {
	if cfg.Horizon <= 0 {
		cfg.Horizon = 14
	}
	if cfg.Policy == "" {
		cfg.Policy = forecast.Linear
	}
	return &Service{
		market: market,
		models: models,
		cfg:    cfg,
		log:    log.With().Str("component", "dashboard").Logger(),
	}
}

// Models exposes the model registry.
func (s *Service) Models() *fairvalue.Registry { return s.models }

// Market returns the (memoized) historical series for the tracked pair.
func (s *Service) Market(ctx context.Context) (*model.SourceResult, error) {
	return s.market.Load(ctx, collector.Request{Pair: s.cfg.Pair, LookbackDays: s.cfg.LookbackDays})
}

// Refresh drops memoized market data and fetches it again.
func (s *Service) Refresh(ctx context.Context) (*model.SourceResult, error) {
	s.market.Reset()
	return s.Market(ctx)
}

// Snapshot computes a full view. It returns collector.ErrNoData when no
// series is available; nothing downstream runs in that case.
func (s *Service) Snapshot(ctx context.Context, q Query) (*View, error) {
	m, err := s.models.Get(q.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if err := m.Validate(q.Inputs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	policy := q.Policy
	if policy == "" {
		policy = s.cfg.Policy
	}
	if _, err := forecast.ParsePolicy(string(policy)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	horizon := q.Horizon
	if horizon == 0 {
		horizon = s.cfg.Horizon
	}
	if horizon < 0 || horizon > forecast.MaxHorizon {
		return nil, fmt.Errorf("%w: %v: %d", ErrInvalidQuery, forecast.ErrInvalidHorizon, horizon)
	}

	market, err := s.Market(ctx)
	if err != nil {
		return nil, err
	}
	if market.Empty() {
		return nil, collector.ErrNoData
	}

	peers := s.market.LoadPeers(ctx, s.cfg.Peers)
	inputs := withPeerDefaults(m, q.Inputs, peers)
	fv := m.Evaluate(inputs)

	opts := append([]forecast.Option{}, s.cfg.ForecastOptions...)
	if q.Seed != 0 {
		opts = append(opts, forecast.WithSeed(q.Seed))
	}
	path, err := forecast.Generate(forecast.Request{
		LatestPrice: market.LatestPrice,
		LatestDate:  market.LatestDate,
		Target:      fv.FairValue,
		Horizon:     horizon,
		Policy:      policy,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate forecast: %w", err)
	}

	view := &View{
		Market:    market,
		Summary:   calculator.Summarize(market.Series),
		Peers:     peers,
		FairValue: fv,
		Gap:       fv.FairValue - market.LatestPrice,
		Forecast:  path,
	}
	if market.IsSynthetic {
		view.Warning = fmt.Sprintf("live market data unavailable; showing placeholder data (source: %s), not real prices", market.SourceLabel)
	}
	s.log.Debug().Str("model", m.Version).Float64("fair_value", fv.FairValue).Str("source", market.SourceLabel).Msg("snapshot computed")
	return view, nil
}

// withPeerDefaults copies in and fills peer-backed factors the user did not
// set from the latest peer quote, clamped to the factor bounds.
func withPeerDefaults(m fairvalue.Model, in fairvalue.Inputs, peers []model.PeerQuote) fairvalue.Inputs {
	out := make(fairvalue.Inputs, len(in))
	for k, v := range in {
		out[k] = v
	}
	for _, f := range m.Factors {
		if f.PeerPair == "" {
			continue
		}
		if _, set := in[f.Key]; set {
			continue
		}
		for _, pq := range peers {
			if pq.Pair.String() == f.PeerPair {
				out[f.Key] = math.Min(math.Max(pq.Value, f.Min), f.Max)
				break
			}
		}
	}
	return out
}
