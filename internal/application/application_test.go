package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/diwise/cloudcover/internal/pkg/infrastructure/geolocation"
	"github.com/diwise/cloudcover/internal/pkg/infrastructure/openmeteo"
	testhttp "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	"github.com/matryer/is"
)

func TestLoadByZip(t *testing.T) {
	is, app := testSetup(t, http.StatusOK, zipData, http.StatusOK, forecastData(), nil)

	d := app.Load(context.Background(), Source{Mode: ModeZip, Zip: " 90210 "})

	is.Equal(d.State, StateSuccess)
	is.Equal(d.Status, "Current cloud cover")
	is.Equal(d.Source, "Using: ZIP 90210")
	is.Equal(d.Location, "Beverly Hills, California, United States")
	is.Equal(d.CloudCover, 73)
	is.Equal(d.Sky.Label, "Partly cloudy")
	is.Equal(d.MeterWidth, 73)
	is.Equal(d.Updated, "Updated: 10/18/2026, 10:15:00 AM")
	is.Equal(len(d.Hourly), 24)
	is.Equal(d.Hourly[0].Time.Hour(), 11)
	is.Equal(len(d.Daily), 7)
	is.Equal(d.Daily[0].Key, "2026-10-19")
	is.Equal(len(d.HourlyByDay), 8)
}

func TestLoadWithInvalidZip(t *testing.T) {
	is, app := testSetup(t, http.StatusOK, zipData, http.StatusOK, forecastData(), nil)

	d := app.Load(context.Background(), Source{Mode: ModeZip, Zip: "9021"})

	is.Equal(d.State, StateError)
	is.Equal(d.Status, "Could not load cloud cover.")
	is.Equal(d.Error, "Please enter a valid US ZIP code (12345 or 12345-6789).")
	is.Equal(len(d.Hourly), 0)
}

func TestLoadWithUnknownZip(t *testing.T) {
	is, app := testSetup(t, http.StatusOK, `{}`, http.StatusOK, forecastData(), nil)

	d := app.Load(context.Background(), Source{Mode: ModeZip, Zip: "00000"})

	is.Equal(d.State, StateError)
	is.Equal(d.Error, "ZIP code not found.")
}

func TestLoadByLocatorFallsBackToCoordinates(t *testing.T) {
	locator := geolocation.New(geolocation.Static{Latitude: 62.3908, Longitude: 17.3069}, nil)
	is, app := testSetup(t, http.StatusNotFound, ``, http.StatusOK, forecastData(), locator)

	d := app.Load(context.Background(), Source{Mode: ModeGeo})

	is.Equal(d.State, StateSuccess)
	is.Equal(d.Source, "Using: My Location")
	is.Equal(d.Location, "62.391, 17.307")
	is.Equal(d.Target.Latitude, 62.3908)
}

func TestLoadByExplicitCoordinates(t *testing.T) {
	is, app := testSetup(t, http.StatusOK, `{"results":[{"name":"Sundsvall","country":"Sweden"}]}`, http.StatusOK, forecastData(), nil)

	lat, lon := 62.39, 17.31
	d := app.Load(context.Background(), Source{Mode: ModeGeo, Latitude: &lat, Longitude: &lon})

	is.Equal(d.State, StateSuccess)
	is.Equal(d.Location, "Sundsvall, Sweden")
}

func TestLoadRejectsNonFiniteCoordinates(t *testing.T) {
	is, app := testSetup(t, http.StatusOK, zipData, http.StatusOK, forecastData(), nil)

	for _, c := range [][2]float64{{math.NaN(), math.NaN()}, {math.Inf(1), 17.31}, {62.39, math.Inf(-1)}} {
		lat, lon := c[0], c[1]
		d := app.Load(context.Background(), Source{Mode: ModeGeo, Latitude: &lat, Longitude: &lon})

		is.Equal(d.State, StateError)
		is.Equal(d.Error, "Latitude must be within ±90 and longitude within ±180.")
	}

	is.True(!ValidCoordinates(math.NaN(), 0))
	is.True(ValidCoordinates(-90, 180))
}

func TestLoadKeysDaysInTheForecastZone(t *testing.T) {
	is, app := testSetup(t, http.StatusOK, zipData, http.StatusOK, pacificForecastData(), nil)
	// 03:00 UTC on the 19th is 20:00 on the 18th in Los Angeles.
	app.now = func() time.Time {
		return time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)
	}

	d := app.Load(context.Background(), Source{Mode: ModeZip, Zip: "90210"})

	is.Equal(d.State, StateSuccess)
	is.True(len(d.Daily) > 0)
	is.Equal(d.Daily[0].Key, "2026-10-19")
	is.Equal(d.Hourly[0].Time.Hour(), 21)
}

func TestLoadWithoutGeolocation(t *testing.T) {
	is, app := testSetup(t, http.StatusOK, zipData, http.StatusOK, forecastData(), nil)

	d := app.Load(context.Background(), Source{Mode: ModeGeo})

	is.Equal(d.State, StateError)
	is.Equal(d.Error, "Geolocation is not supported by this service.")
}

func TestLoadWhenWeatherServiceFails(t *testing.T) {
	is, app := testSetup(t, http.StatusOK, zipData, http.StatusServiceUnavailable, ``, nil)

	d := app.Load(context.Background(), Source{Mode: ModeZip, Zip: "90210"})

	is.Equal(d.State, StateError)
	is.Equal(d.Error, "Weather API error: 503")
}

func TestDayDrillDown(t *testing.T) {
	is, app := testSetup(t, http.StatusOK, zipData, http.StatusOK, forecastData(), nil)

	d := app.Load(context.Background(), Source{Mode: ModeZip, Zip: "90210"})

	day, ok := Day(d, "2026-10-19")
	is.True(ok)
	is.Equal(day.Title, "Mon 10/19 hourly cloud cover")
	is.Equal(len(day.Hours), 24)

	today, ok := Day(d, "2026-10-18")
	is.True(ok)
	is.Equal(today.Title, "Sun 10/18 hourly cloud cover")

	_, ok = Day(d, "2027-01-01")
	is.True(!ok)
}

func TestSourceLabel(t *testing.T) {
	is := is.New(t)

	is.Equal(Source{Mode: ModeZip}.Label(), "Using: ZIP code")
	is.Equal(Source{Mode: ModeZip, Zip: "12345-6789"}.Label(), "Using: ZIP 12345-6789")
	is.Equal(Source{}.Label(), "Using: My Location")
}

func TestFriendlyError(t *testing.T) {
	is := is.New(t)

	is.Equal(FriendlyError(nil), "Unexpected error while loading cloud cover.")
	is.Equal(FriendlyError(&geolocation.PositionError{Code: geolocation.PermissionDenied}), "Location permission denied. Allow location access and try again.")
	is.Equal(FriendlyError(&geolocation.PositionError{Code: geolocation.PositionUnavailable}), "Location unavailable. Try again in a moment.")
	is.Equal(FriendlyError(&geolocation.PositionError{Code: geolocation.Timeout}), "Location request timed out. Try again.")
	is.Equal(FriendlyError(&geolocation.PositionError{Code: 7}), "Could not determine your location.")
	is.Equal(FriendlyError(&openmeteo.StatusError{API: openmeteo.APIGeocoding, StatusCode: 500}), "ZIP lookup failed: 500")
	is.Equal(FriendlyError(fmt.Errorf("fetch: %w", openmeteo.ErrHourlyUnavailable)), "24-hour forecast data is unavailable right now.")
	is.Equal(FriendlyError(&url.Error{Op: "Get", URL: "https://api.open-meteo.com", Err: errors.New("connection refused")}), "Network error while contacting the weather service.")
	is.Equal(FriendlyError(errors.New("something odd")), "something odd")
	is.Equal(FriendlyError(errors.New("")), "Unexpected error while loading cloud cover.")
}

func testSetup(t *testing.T, geoCode int, geoBody string, forecastCode int, forecastBody string, locator geolocation.Locator) (*is.I, *app) {
	is := is.New(t)

	geocoding := testhttp.NewMockServiceThat(
		testhttp.Expects(is),
		testhttp.Returns(response.Code(geoCode), response.Body([]byte(geoBody))),
	)

	forecast := testhttp.NewMockServiceThat(
		testhttp.Expects(is),
		testhttp.Returns(response.Code(forecastCode), response.Body([]byte(forecastBody))),
	)

	if locator == nil {
		locator = geolocation.New(nil, nil)
	}

	a := New(
		openmeteo.NewForecastClient(forecast.URL()),
		openmeteo.NewGeocodingClient(geocoding.URL()),
		locator,
	).(*app)

	a.now = func() time.Time {
		return time.Date(2026, 10, 18, 10, 30, 0, 0, time.UTC)
	}

	return is, a
}

// forecastData returns eight days of hourly cloud cover starting at
// midnight UTC on 2026-10-18.
func forecastData() string {
	start := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	times := make([]string, 0, 8*24)
	values := make([]string, 0, 8*24)
	for i := 0; i < 8*24; i++ {
		times = append(times, fmt.Sprintf("%q", start.Add(time.Duration(i)*time.Hour).Format("2006-01-02T15:04")))
		values = append(values, fmt.Sprintf("%d", i%101))
	}

	return fmt.Sprintf(`{
		"latitude": 34.09,
		"longitude": -118.41,
		"utc_offset_seconds": 0,
		"timezone": "UTC",
		"timezone_abbreviation": "UTC",
		"current": {"time": "2026-10-18T10:15", "cloud_cover": 72.6},
		"hourly": {"time": [%s], "cloud_cover": [%s]}
	}`, strings.Join(times, ","), strings.Join(values, ","))
}

// pacificForecastData returns three days of hourly cloud cover in Los
// Angeles time where the first timestamp cannot be parsed.
func pacificForecastData() string {
	start := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	times := []string{`"not-a-time"`}
	values := []string{"10"}
	for i := 0; i < 3*24; i++ {
		times = append(times, fmt.Sprintf("%q", start.Add(time.Duration(i)*time.Hour).Format("2006-01-02T15:04")))
		values = append(values, "40")
	}

	return fmt.Sprintf(`{
		"latitude": 34.09,
		"longitude": -118.41,
		"utc_offset_seconds": -25200,
		"timezone": "America/Los_Angeles",
		"timezone_abbreviation": "PDT",
		"current": {"time": "2026-10-18T20:00", "cloud_cover": 40},
		"hourly": {"time": [%s], "cloud_cover": [%s]}
	}`, strings.Join(times, ","), strings.Join(values, ","))
}

const zipData string = `{"results":[{
	"name": "Beverly Hills",
	"latitude": 34.0901,
	"longitude": -118.4065,
	"admin1": "California",
	"country": "United States"
}]}`
