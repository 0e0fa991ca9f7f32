package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/diwise/cloudcover/internal/pkg/cloudcover"
	"github.com/diwise/cloudcover/internal/pkg/infrastructure/geolocation"
	"github.com/diwise/cloudcover/internal/pkg/infrastructure/openmeteo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

var (
	ErrInvalidZip         = errors.New("invalid us zip code")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

type Application interface {
	ResolveTarget(ctx context.Context, src Source) (Target, error)
	Load(ctx context.Context, src Source) Dashboard
}

type app struct {
	forecast  openmeteo.ForecastClient
	geocoding openmeteo.GeocodingClient
	locator   geolocation.Locator
	now       func() time.Time
}

func New(forecast openmeteo.ForecastClient, geocoding openmeteo.GeocodingClient, locator geolocation.Locator) Application {
	return &app{
		forecast:  forecast,
		geocoding: geocoding,
		locator:   locator,
		now:       time.Now,
	}
}

func (a *app) ResolveTarget(ctx context.Context, src Source) (Target, error) {
	if src.Mode == ModeZip {
		zip := cloudcover.SanitizeZip(src.Zip)
		if !cloudcover.IsValidUSZip(zip) {
			return Target{}, fmt.Errorf("%w: %q", ErrInvalidZip, zip)
		}

		place, err := a.geocoding.SearchZip(ctx, zip)
		if err != nil {
			return Target{}, err
		}

		return Target{Latitude: place.Latitude, Longitude: place.Longitude, Name: place.Name}, nil
	}

	if src.Latitude != nil && src.Longitude != nil {
		lat, lon := *src.Latitude, *src.Longitude
		if !ValidCoordinates(lat, lon) {
			return Target{}, fmt.Errorf("%w: %f,%f", ErrInvalidCoordinates, lat, lon)
		}
		return Target{Latitude: lat, Longitude: lon}, nil
	}

	pos, err := a.locator.CurrentPosition(ctx, geolocation.PreciseOptions)
	if err != nil {
		return Target{}, err
	}

	log := logging.GetFromContext(ctx)
	log.Debug().Msgf("located %f,%f within %.0f m", pos.Latitude, pos.Longitude, pos.Accuracy)

	return Target{Latitude: pos.Latitude, Longitude: pos.Longitude}, nil
}

// ValidCoordinates reports whether lat and lon are finite and within range.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Load resolves the location for src, fetches its cloud cover and builds the
// dashboard. Failures are reported in the returned dashboard, never as an error.
func (a *app) Load(ctx context.Context, src Source) Dashboard {
	log := logging.GetFromContext(ctx)

	d := Dashboard{
		State:  StateLoading,
		Status: "Getting location...",
		Source: src.Label(),
		Hourly: []cloudcover.HourlyItem{},
		Daily:  []cloudcover.DailyItem{},
	}

	target, err := a.ResolveTarget(ctx, src)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve target location")
		return failed(d, err)
	}

	d.Status = "Fetching cloud cover..."
	log.Info().Msgf("fetching cloud cover for %f,%f", target.Latitude, target.Longitude)

	weather, err := a.forecast.CloudCover(ctx, target.Latitude, target.Longitude)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch cloud cover")
		return failed(d, err)
	}

	place := target.Name
	if place == "" {
		place, err = a.geocoding.ReverseName(ctx, target.Latitude, target.Longitude)
		if err != nil {
			log.Warn().Err(err).Msg("reverse geocoding failed")
			place = ""
		}
	}

	rounded := cloudcover.Round(weather.CurrentCloudCover)
	sky := cloudcover.DescribeSky(rounded)

	d.State = StateSuccess
	d.Status = "Current cloud cover"
	d.Target = &target
	d.CloudCover = rounded
	d.Sky = &sky
	d.MeterWidth = cloudcover.MeterWidth(rounded)

	if place != "" {
		d.Location = place
	} else {
		d.Location = cloudcover.FormatCoordinates(target.Latitude, target.Longitude)
	}

	if !weather.Updated.IsZero() {
		d.Updated = fmt.Sprintf("Updated: %s", cloudcover.FormatTime(weather.Updated))
	}

	now := a.now()
	if weather.Location != nil {
		now = now.In(weather.Location)
	}
	d.Hourly = cloudcover.ForecastWindow(weather.Samples, now)
	d.HourlyByDay = cloudcover.HourlyByDay(weather.Samples)
	d.Daily = cloudcover.DailyForecast(weather.Samples, now)

	return d
}

func failed(d Dashboard, err error) Dashboard {
	d.State = StateError
	d.Status = "Could not load cloud cover."
	d.Error = FriendlyError(err)
	return d
}

// Day returns the hourly drill-down for one day of a loaded dashboard.
func Day(d Dashboard, key string) (DayDetail, bool) {
	hours := d.HourlyByDay[key]
	if len(hours) == 0 {
		return DayDetail{}, false
	}

	label := "Selected day"
	for _, item := range d.Daily {
		if item.Key == key {
			label = fmt.Sprintf("%s %s", item.Day, item.Date)
			break
		}
	}

	if label == "Selected day" {
		if t, err := cloudcover.ParseDateKey(key, hours[0].Time.Location()); err == nil {
			label = fmt.Sprintf("%s %s", cloudcover.FormatDayLabel(t), cloudcover.FormatDayDate(t))
		}
	}

	return DayDetail{
		Key:   key,
		Title: fmt.Sprintf("%s hourly cloud cover", label),
		Hours: hours,
	}, true
}
