package forecast

// Option configures path generation via functional options.
type Option func(*settings)

type settings struct {
	seed              uint64
	noise             float64 // stddev of the daily Gaussian term (price units)
	driftRate         float64 // share of the remaining gap closed per step
	ceiling           float64 // soft ceiling; 0 disables
	ceilingRetain     float64 // share of any overshoot above ceiling kept
	maxDailyMove      float64 // cap on |price(t)-price(t-1)| for the capped policy
	consolidationDays int     // phased: length of the flat phase; <0 means horizon/3
}

const (
	DefaultNoise         = 3.0
	DefaultDriftRate     = 0.15
	DefaultCeilingRetain = 0.15
	DefaultMaxDailyMove  = 8.0
)

func defaults() *settings {
	return &settings{
		noise:             DefaultNoise,
		driftRate:         DefaultDriftRate,
		ceilingRetain:     DefaultCeilingRetain,
		maxDailyMove:      DefaultMaxDailyMove,
		consolidationDays: -1,
	}
}

// WithSeed makes the randomized policies reproducible. Without it, or with
// seed 0, a time-based seed is used.
func WithSeed(seed uint64) Option {
	return func(s *settings) { s.seed = seed }
}

// WithNoise sets the daily noise stddev.
func WithNoise(sigma float64) Option {
	return func(s *settings) {
		if sigma >= 0 {
			s.noise = sigma
		}
	}
}

// WithDriftRate sets the share of the remaining gap closed per damped step.
func WithDriftRate(rate float64) Option {
	return func(s *settings) {
		if rate > 0 && rate <= 1 {
			s.driftRate = rate
		}
	}
}

// WithCeiling enables the soft ceiling: any excess above level is
// compressed to retain*excess.
func WithCeiling(level, retain float64) Option {
	return func(s *settings) {
		s.ceiling = level
		if retain >= 0 && retain <= 1 {
			s.ceilingRetain = retain
		}
	}
}

// WithMaxDailyMove sets the cap used by the capped policy.
func WithMaxDailyMove(limit float64) Option {
	return func(s *settings) {
		if limit > 0 {
			s.maxDailyMove = limit
		}
	}
}

// WithConsolidationDays sets the flat phase length of the phased policy.
func WithConsolidationDays(days int) Option {
	return func(s *settings) { s.consolidationDays = days }
}
