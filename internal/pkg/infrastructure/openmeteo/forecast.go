package openmeteo

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diwise/cloudcover/internal/pkg/cloudcover"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

const DefaultForecastURL = "https://api.open-meteo.com"

var (
	ErrCurrentUnavailable = errors.New("current cloud cover is missing from the forecast")
	ErrHourlyUnavailable  = errors.New("hourly cloud cover is missing from the forecast")
)

// Forecast holds the current cloud cover and the hourly series for one
// location. Times are expressed in the location's own time zone.
type Forecast struct {
	Latitude          float64
	Longitude         float64
	Location          *time.Location
	CurrentCloudCover float64
	Updated           time.Time
	Samples           []cloudcover.Sample
}

type ForecastClient interface {
	CloudCover(ctx context.Context, latitude, longitude float64) (*Forecast, error)
}

type forecastClient struct {
	baseURL string
	client  http.Client
}

func NewForecastClient(baseURL string) ForecastClient {
	return &forecastClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

func (c *forecastClient) CloudCover(ctx context.Context, latitude, longitude float64) (*Forecast, error) {
	log := logging.GetFromContext(ctx)

	params := url.Values{}
	params.Set("latitude", formatCoordinate(latitude))
	params.Set("longitude", formatCoordinate(longitude))
	params.Set("current", "cloud_cover")
	params.Set("hourly", "cloud_cover")
	params.Set("forecast_days", "8")
	params.Set("timezone", "auto")

	var r forecastResponse
	if err := get(ctx, &c.client, APIForecast, c.baseURL+"/v1/forecast", params, &r); err != nil {
		return nil, err
	}

	var current *float64
	var updated string
	if r.Current != nil {
		current = r.Current.CloudCover
		if current == nil {
			current = r.Current.Cloudcover
		}
		updated = r.Current.Time
	}

	if current == nil {
		return nil, ErrCurrentUnavailable
	}

	var times []string
	var values []*float64
	if r.Hourly != nil {
		times = r.Hourly.Time
		values = r.Hourly.CloudCover
		if len(values) == 0 {
			values = r.Hourly.Cloudcover
		}
	}

	if len(times) == 0 || len(values) == 0 {
		return nil, ErrHourlyUnavailable
	}

	loc := location(r.Timezone, r.TimezoneAbbreviation, r.UTCOffsetSeconds)

	samples := make([]cloudcover.Sample, 0, len(times))
	for i, ts := range times {
		s := cloudcover.Sample{Time: parseLocalTime(ts, loc)}
		if i < len(values) {
			s.CloudCover = values[i]
		}
		samples = append(samples, s)
	}

	log.Debug().Msgf("received %d hourly samples in zone %s", len(samples), loc)

	return &Forecast{
		Latitude:          latitude,
		Longitude:         longitude,
		Location:          loc,
		CurrentCloudCover: *current,
		Updated:           parseLocalTime(updated, loc),
		Samples:           samples,
	}, nil
}

// location prefers the named IANA zone so that day keys survive DST changes
// within the forecast window, and falls back to the fixed offset reported
// by the API.
func location(name, abbreviation string, offsetSeconds int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}

	if abbreviation == "" {
		abbreviation = name
	}

	return time.FixedZone(abbreviation, offsetSeconds)
}

func parseLocalTime(s string, loc *time.Location) time.Time {
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc)
	}

	return time.Time{}
}
