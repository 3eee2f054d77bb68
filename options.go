package framesched

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"
)

const (
	// DefaultRootName is the root element identifier used if none is set.
	DefaultRootName = "main"

	// DefaultMaxIdleBudget caps the budget of a single idle period. Browsers
	// never grant more than 50ms, so that input remains responsive.
	DefaultMaxIdleBudget = 50 * time.Millisecond
)

// schedulerOptions holds configuration options for Scheduler creation.
type schedulerOptions struct {
	logger        *logiface.Logger[logiface.Event]
	observer      func(Phase)
	rootName      string
	maxIdleBudget time.Duration
	hydrate       bool
	metrics       bool
	fallbackTimer bool
}

// Option configures a Scheduler instance.
type Option interface {
	applyScheduler(*schedulerOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applySchedulerFunc func(*schedulerOptions) error
}

func (o *optionImpl) applyScheduler(opts *schedulerOptions) error {
	return o.applySchedulerFunc(opts)
}

// WithRootName sets the identifier of the root element, looked up in the host
// document at startup. Defaults to [DefaultRootName].
func WithRootName(name string) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if name == "" {
			return errors.New("framesched: root name must not be empty")
		}
		opts.rootName = name
		return nil
	}}
}

// WithHydrate sets whether the initial rebuild should be hydrated rather than
// applied, i.e. the document was already materialized by server-rendered
// markup.
func WithHydrate(enabled bool) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.hydrate = enabled
		return nil
	}}
}

// WithLogger sets the structured logger. A nil logger (the default) disables
// logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMetrics enables runtime metrics collection, see [Scheduler.Metrics].
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.metrics = enabled
		return nil
	}}
}

// WithMaxIdleBudget caps the budget of each idle period. Zero disables the
// cap, trusting the host estimate. Defaults to [DefaultMaxIdleBudget].
func WithMaxIdleBudget(budget time.Duration) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if budget < 0 {
			return errors.New("framesched: max idle budget must not be negative")
		}
		opts.maxIdleBudget = budget
		return nil
	}}
}

// WithFallbackTimer sets whether each idle period arms a host timer, sized to
// the advertised idle time, as an additional expiry signal. Enabled by
// default, but has no effect if the host provides no [TimerHost].
func WithFallbackTimer(enabled bool) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.fallbackTimer = enabled
		return nil
	}}
}

// WithPhaseObserver sets a function called synchronously, on the scheduler
// goroutine, upon each phase transition. It must not block.
func WithPhaseObserver(fn func(Phase)) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.observer = fn
		return nil
	}}
}

// WithConfig applies the scheduling fields of cfg. See [LoadConfig].
func WithConfig(cfg Config) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if cfg.RootName != "" {
			opts.rootName = cfg.RootName
		}
		if cfg.MaxIdleBudgetMS < 0 {
			return errors.New("framesched: max idle budget must not be negative")
		}
		opts.hydrate = cfg.Hydrate
		opts.maxIdleBudget = time.Duration(cfg.MaxIdleBudgetMS) * time.Millisecond
		opts.fallbackTimer = cfg.FallbackTimerEnabled()
		return nil
	}}
}

// resolveOptions applies Option instances to schedulerOptions.
func resolveOptions(opts []Option) (*schedulerOptions, error) {
	cfg := &schedulerOptions{
		rootName:      DefaultRootName,
		maxIdleBudget: DefaultMaxIdleBudget,
		fallbackTimer: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyScheduler(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
