package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/diwise/cloudcover/internal/application"
	"github.com/diwise/cloudcover/internal/pkg/infrastructure/geolocation"
	"github.com/diwise/cloudcover/internal/pkg/infrastructure/openmeteo"
	"github.com/diwise/cloudcover/internal/pkg/presentation/api"
	"github.com/diwise/cloudcover/internal/pkg/presentation/text"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName string = "cloudcover"

var zip, lat, lon, day string
var serve bool

func main() {
	flag.StringVar(&zip, "zip", "", "US ZIP code to show cloud cover for")
	flag.StringVar(&lat, "lat", "", "latitude to show cloud cover for (requires -lon)")
	flag.StringVar(&lon, "lon", "", "longitude to show cloud cover for (requires -lat)")
	flag.StringVar(&day, "day", "", "also show the hourly forecast for this day (YYYY-MM-DD)")
	flag.BoolVar(&serve, "serve", false, "run the dashboard as an http service")
	flag.Parse()

	serviceVersion := buildinfo.SourceVersion()
	ctx, log, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion)
	defer cleanup()

	forecastURL := env.GetVariableOrDefault(log, "OPENMETEO_FORECAST_URL", openmeteo.DefaultForecastURL)
	geocodingURL := env.GetVariableOrDefault(log, "OPENMETEO_GEOCODING_URL", openmeteo.DefaultGeocodingURL)

	app := application.New(
		openmeteo.NewForecastClient(forecastURL),
		openmeteo.NewGeocodingClient(geocodingURL),
		newLocator(log),
	)

	if serve {
		port := env.GetVariableOrDefault(log, "SERVICE_PORT", "8080")
		if err := runServer(ctx, log, app, port); err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
		return
	}

	src, err := sourceFromFlags()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid location flags")
	}

	d := app.Load(ctx, src)

	var detail *application.DayDetail
	if day != "" {
		if dd, ok := application.Day(d, day); ok {
			detail = &dd
		} else if d.State == application.StateSuccess {
			log.Warn().Msgf("no hourly forecast for day %s", day)
		}
	}

	if err = text.Render(os.Stdout, d, detail); err != nil {
		log.Error().Err(err).Msg("failed to write dashboard")
	}

	if d.State == application.StateError {
		cleanup()
		os.Exit(1)
	}
}

// newLocator builds the "my location" chain: an optional configured
// position is the precise source and an ip lookup the coarse one.
func newLocator(log zerolog.Logger) geolocation.Locator {
	var precise, coarse geolocation.Locator

	defaultLat := env.GetVariableOrDefault(log, "DEFAULT_LATITUDE", "")
	defaultLon := env.GetVariableOrDefault(log, "DEFAULT_LONGITUDE", "")
	if defaultLat != "" && defaultLon != "" {
		latitude, err := strconv.ParseFloat(defaultLat, 64)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse DEFAULT_LATITUDE")
		}
		longitude, err := strconv.ParseFloat(defaultLon, 64)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse DEFAULT_LONGITUDE")
		}
		accuracy, err := strconv.ParseFloat(env.GetVariableOrDefault(log, "DEFAULT_ACCURACY", "0"), 64)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse DEFAULT_ACCURACY")
		}
		precise = geolocation.Static{Latitude: latitude, Longitude: longitude, Accuracy: accuracy}
	}

	ipLookupURL := env.GetVariableOrDefault(log, "IPGEOLOCATION_URL", "https://ipapi.co/json/")
	if ipLookupURL != "none" {
		coarse = geolocation.NewIPLocator(ipLookupURL)
	}

	return geolocation.New(precise, coarse)
}

func sourceFromFlags() (application.Source, error) {
	if zip != "" {
		return application.Source{Mode: application.ModeZip, Zip: zip}, nil
	}

	src := application.Source{Mode: application.ModeGeo}

	if lat == "" && lon == "" {
		return src, nil
	}

	if lat == "" || lon == "" {
		return src, errors.New("both -lat and -lon must be given")
	}

	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return src, fmt.Errorf("failed to parse latitude: %w", err)
	}
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return src, fmt.Errorf("failed to parse longitude: %w", err)
	}

	src.Latitude, src.Longitude = &latitude, &longitude

	return src, nil
}

func runServer(ctx context.Context, log zerolog.Logger, app application.Application, port string) error {
	router := api.New(ctx, app)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Msgf("starting to listen for connections on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case <-stop:
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
