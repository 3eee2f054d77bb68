package evhost

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"
)

const (
	// DefaultFrameRate is the frame rate used if none is set, in Hz.
	DefaultFrameRate = 60

	// DefaultMaxIdlePeriod caps the idle period that follows each frame.
	DefaultMaxIdlePeriod = 50 * time.Millisecond
)

type hostOptions struct {
	logger        *logiface.Logger[logiface.Event]
	document      *Document
	frameInterval time.Duration
	maxIdlePeriod time.Duration
	noIdle        bool
	noTimers      bool
}

// Option configures a [Host].
type Option interface {
	applyHost(*hostOptions) error
}

type optionImpl struct {
	applyHostFunc func(*hostOptions) error
}

func (o *optionImpl) applyHost(opts *hostOptions) error {
	return o.applyHostFunc(opts)
}

// WithFrameRate sets the frame rate, in Hz. Defaults to [DefaultFrameRate].
func WithFrameRate(hz int) Option {
	return &optionImpl{func(opts *hostOptions) error {
		if hz <= 0 || hz > 1000 {
			return errors.New("evhost: frame rate must be between 1 and 1000")
		}
		opts.frameInterval = time.Second / time.Duration(hz)
		return nil
	}}
}

// WithMaxIdlePeriod caps the idle period granted after each frame. Zero
// means the idle period always lasts until the next frame. Defaults to
// [DefaultMaxIdlePeriod].
func WithMaxIdlePeriod(d time.Duration) Option {
	return &optionImpl{func(opts *hostOptions) error {
		if d < 0 {
			return errors.New("evhost: max idle period must not be negative")
		}
		opts.maxIdlePeriod = d
		return nil
	}}
}

// WithDocument sets the document served by the host. Defaults to an empty
// document.
func WithDocument(doc *Document) Option {
	return &optionImpl{func(opts *hostOptions) error {
		opts.document = doc
		return nil
	}}
}

// WithLogger sets the structured logger.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *hostOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithoutIdle disables idle notifications, simulating a host that lacks
// them.
func WithoutIdle() Option {
	return &optionImpl{func(opts *hostOptions) error {
		opts.noIdle = true
		return nil
	}}
}

// WithoutTimers disables the timer API.
func WithoutTimers() Option {
	return &optionImpl{func(opts *hostOptions) error {
		opts.noTimers = true
		return nil
	}}
}

func resolveOptions(opts []Option) (*hostOptions, error) {
	cfg := &hostOptions{
		frameInterval: time.Second / DefaultFrameRate,
		maxIdlePeriod: DefaultMaxIdlePeriod,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyHost(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.document == nil {
		cfg.document = NewDocument()
	}
	return cfg, nil
}
