package openmeteo

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/patrickmn/go-cache"
)

const DefaultGeocodingURL = "https://geocoding-api.open-meteo.com"

var ErrZipNotFound = errors.New("zip code not found")

type Place struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

type GeocodingClient interface {
	SearchZip(ctx context.Context, zip string) (Place, error)
	ReverseName(ctx context.Context, latitude, longitude float64) (string, error)
}

type geocodingClient struct {
	baseURL string
	client  http.Client
	zips    *cache.Cache
}

func NewGeocodingClient(baseURL string) GeocodingClient {
	return &geocodingClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(),
		zips:    cache.New(24*time.Hour, 1*time.Hour),
	}
}

// SearchZip resolves a US postal code to coordinates and a display name.
// Successful lookups are remembered, postal codes do not move.
func (c *geocodingClient) SearchZip(ctx context.Context, zip string) (Place, error) {
	log := logging.GetFromContext(ctx)

	if p, ok := c.zips.Get(zip); ok {
		return p.(Place), nil
	}

	params := url.Values{}
	params.Set("name", zip)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("country_code", "US")

	var r geocodingResponse
	if err := get(ctx, &c.client, APIGeocoding, c.baseURL+"/v1/search", params, &r); err != nil {
		return Place{}, err
	}

	if len(r.Results) == 0 {
		return Place{}, ErrZipNotFound
	}

	first := r.Results[0]
	p := Place{
		Latitude:  first.Latitude,
		Longitude: first.Longitude,
		Name:      joinNonEmpty(first.Name, first.Admin1, first.Country),
	}

	log.Info().Msgf("zip %s resolved to %s", zip, p.Name)
	c.zips.SetDefault(zip, p)

	return p, nil
}

// ReverseName looks up a display name for a position. A failed lookup is
// not an error for the caller, it only means there is no name to show.
func (c *geocodingClient) ReverseName(ctx context.Context, latitude, longitude float64) (string, error) {
	params := url.Values{}
	params.Set("latitude", formatCoordinate(latitude))
	params.Set("longitude", formatCoordinate(longitude))
	params.Set("count", "1")
	params.Set("language", "en")

	var r geocodingResponse
	if err := get(ctx, &c.client, APIReverse, c.baseURL+"/v1/reverse", params, &r); err != nil {
		var serr *StatusError
		if errors.As(err, &serr) {
			return "", nil
		}
		return "", err
	}

	if len(r.Results) == 0 {
		return "", nil
	}

	first := r.Results[0]
	return joinNonEmpty(first.Name, first.Admin1, first.Country), nil
}
