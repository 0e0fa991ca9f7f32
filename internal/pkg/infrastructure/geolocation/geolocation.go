package geolocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

type Code int

const (
	PermissionDenied    Code = 1
	PositionUnavailable Code = 2
	Timeout             Code = 3
)

type PositionError struct {
	Code    Code
	Message string
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("geolocation error %d: %s", e.Code, e.Message)
}

var ErrNotSupported = errors.New("geolocation is not supported")

type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

var (
	PreciseOptions = Options{HighAccuracy: true, Timeout: 10 * time.Second, MaximumAge: 60 * time.Second}
	CoarseOptions  = Options{HighAccuracy: false, Timeout: 15 * time.Second, MaximumAge: 5 * time.Minute}
)

type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Locator interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}

type LocatorFunc func(ctx context.Context, opts Options) (Position, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	return f(ctx, opts)
}

// New chains a precise and a coarse locator. Either may be nil. With both
// missing every request fails with ErrNotSupported.
func New(precise, coarse Locator) Locator {
	switch {
	case precise == nil && coarse == nil:
		return LocatorFunc(func(context.Context, Options) (Position, error) {
			return Position{}, ErrNotSupported
		})
	case precise == nil:
		precise = LocatorFunc(func(context.Context, Options) (Position, error) {
			return Position{}, &PositionError{Code: PositionUnavailable, Message: "no precise location source"}
		})
	}

	f := &fallback{precise: Cached(precise)}
	if coarse != nil {
		f.coarse = Cached(coarse)
	}
	return f
}

type fallback struct {
	precise Locator
	coarse  Locator
}

// CurrentPosition asks for a precise position first and retries with a
// coarse one when the precise lookup was unavailable or timed out. The
// options of the call are ignored in favour of PreciseOptions and
// CoarseOptions.
func (f *fallback) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	log := logging.GetFromContext(ctx)

	pos, err := request(ctx, f.precise, PreciseOptions)
	if err == nil {
		return pos, nil
	}

	var perr *PositionError
	if !errors.As(err, &perr) || (perr.Code != PositionUnavailable && perr.Code != Timeout) {
		return Position{}, err
	}

	if f.coarse == nil {
		return Position{}, err
	}

	log.Info().Err(err).Msg("precise position not available, falling back to coarse location")

	return request(ctx, f.coarse, CoarseOptions)
}

func request(ctx context.Context, l Locator, opts Options) (Position, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	pos, err := l.CurrentPosition(ctx, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Position{}, &PositionError{Code: Timeout, Message: "position request timed out"}
		}
		return Position{}, err
	}

	return pos, nil
}
