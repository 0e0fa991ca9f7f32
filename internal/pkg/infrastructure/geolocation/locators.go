package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Static always reports the same position, e.g. one configured for the host.
// Accuracy is in meters; zero means exact.
type Static struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

func (s Static) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	return Position{
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Accuracy:  s.Accuracy,
		Timestamp: time.Now().UTC(),
	}, nil
}

type cached struct {
	mu      sync.Mutex
	locator Locator
	last    *Position
	now     func() time.Time
}

// Cached returns positions younger than the requested MaximumAge without
// asking the wrapped locator again.
func Cached(l Locator) Locator {
	return &cached{locator: l, now: time.Now}
}

func (c *cached) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	c.mu.Lock()
	if c.last != nil && opts.MaximumAge > 0 && c.now().Sub(c.last.Timestamp) <= opts.MaximumAge {
		pos := *c.last
		c.mu.Unlock()
		return pos, nil
	}
	c.mu.Unlock()

	pos, err := c.locator.CurrentPosition(ctx, opts)
	if err != nil {
		return Position{}, err
	}

	c.mu.Lock()
	c.last = &pos
	c.mu.Unlock()

	return pos, nil
}

type ipLookupResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      string   `json:"city"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

// IPLookupAccuracy is the accuracy, in meters, reported for ip based
// positions. Lookups resolve to a city at best.
const IPLookupAccuracy float64 = 25000

// IPLocator resolves a coarse position from the public address of the host
// using an ipapi.co compatible endpoint.
type IPLocator struct {
	url    string
	client http.Client
}

func NewIPLocator(url string) *IPLocator {
	return &IPLocator{
		url: url,
		client: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (l *IPLocator) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	log := logging.GetFromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to create request")
		return Position{}, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Position{}, &PositionError{Code: Timeout, Message: "ip lookup timed out"}
		}
		log.Error().Err(err).Msg("failed to send ip lookup request")
		return Position{}, &PositionError{Code: PositionUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Position{}, &PositionError{
			Code:    PositionUnavailable,
			Message: fmt.Sprintf("ip lookup failed with status code %d", resp.StatusCode),
		}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("failed to read response body")
		return Position{}, &PositionError{Code: PositionUnavailable, Message: err.Error()}
	}

	var r ipLookupResponse
	if err = json.Unmarshal(bodyBytes, &r); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal ip lookup response")
		return Position{}, &PositionError{Code: PositionUnavailable, Message: err.Error()}
	}

	if r.Error {
		return Position{}, &PositionError{Code: PositionUnavailable, Message: r.Reason}
	}

	if r.Latitude == nil || r.Longitude == nil {
		return Position{}, &PositionError{Code: PositionUnavailable, Message: "ip lookup returned no coordinates"}
	}

	log.Debug().Msgf("resolved coarse position near %s", r.City)

	return Position{
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
		Accuracy:  IPLookupAccuracy,
		Timestamp: time.Now().UTC(),
	}, nil
}
