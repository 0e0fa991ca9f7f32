package application

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/diwise/cloudcover/internal/pkg/infrastructure/geolocation"
	"github.com/diwise/cloudcover/internal/pkg/infrastructure/openmeteo"
)

const unexpectedError = "Unexpected error while loading cloud cover."

var friendlyMessages = []struct {
	err     error
	message string
}{
	{geolocation.ErrNotSupported, "Geolocation is not supported by this service."},
	{ErrInvalidZip, "Please enter a valid US ZIP code (12345 or 12345-6789)."},
	{ErrInvalidCoordinates, "Latitude must be within ±90 and longitude within ±180."},
	{openmeteo.ErrZipNotFound, "ZIP code not found."},
	{openmeteo.ErrCurrentUnavailable, "Cloud cover data is unavailable right now."},
	{openmeteo.ErrHourlyUnavailable, "24-hour forecast data is unavailable right now."},
}

// FriendlyError turns err into a sentence that can be shown to the user.
func FriendlyError(err error) string {
	if err == nil {
		return unexpectedError
	}

	var perr *geolocation.PositionError
	if errors.As(err, &perr) {
		switch perr.Code {
		case geolocation.PermissionDenied:
			return "Location permission denied. Allow location access and try again."
		case geolocation.PositionUnavailable:
			return "Location unavailable. Try again in a moment."
		case geolocation.Timeout:
			return "Location request timed out. Try again."
		default:
			return "Could not determine your location."
		}
	}

	for _, m := range friendlyMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}

	var serr *openmeteo.StatusError
	if errors.As(err, &serr) {
		if serr.API == openmeteo.APIGeocoding {
			return fmt.Sprintf("ZIP lookup failed: %d", serr.StatusCode)
		}
		return fmt.Sprintf("Weather API error: %d", serr.StatusCode)
	}

	var uerr *url.Error
	var nerr net.Error
	if errors.As(err, &uerr) || errors.As(err, &nerr) {
		return "Network error while contacting the weather service."
	}

	if msg := err.Error(); msg != "" {
		return msg
	}

	return unexpectedError
}
