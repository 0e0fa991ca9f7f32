package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	APIForecast  = "forecast"
	APIGeocoding = "geocoding"
	APIReverse   = "reverse"
)

var upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cloudcover_upstream_requests_total",
	Help: "Requests sent to the Open-Meteo APIs, by api and outcome.",
}, []string{"api", "outcome"})

// StatusError is returned when an Open-Meteo endpoint answers with anything
// other than 200 OK.
type StatusError struct {
	API        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed with status code %d", e.API, e.StatusCode)
}

func newHTTPClient() http.Client {
	return http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func get(ctx context.Context, client *http.Client, api, endpoint string, params url.Values, v any) error {
	log := logging.GetFromContext(ctx)

	u := endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to create request")
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		upstreamRequests.WithLabelValues(api, "error").Inc()
		log.Error().Err(err).Msgf("failed to send %s request", api)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		upstreamRequests.WithLabelValues(api, "status").Inc()
		return &StatusError{API: api, StatusCode: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		upstreamRequests.WithLabelValues(api, "error").Inc()
		log.Error().Err(err).Msg("failed to read response body")
		return err
	}

	if err = json.Unmarshal(bodyBytes, v); err != nil {
		upstreamRequests.WithLabelValues(api, "error").Inc()
		log.Error().Err(err).Msg("failed to unmarshal response body into json")
		return fmt.Errorf("failed to decode %s response: %w", api, err)
	}

	upstreamRequests.WithLabelValues(api, "ok").Inc()

	return nil
}

func formatCoordinate(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinNonEmpty(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
