package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/diwise/cloudcover/internal/application"
	"github.com/diwise/cloudcover/internal/pkg/cloudcover"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"hour":       func(t time.Time) string { return cloudcover.FormatHour(t) },
	"sky":        cloudcover.DescribeSky,
	"itemStyle":  itemStyle,
	"meterStyle": meterStyle,
	"dayURL":     dayURL,
}).ParseFS(templateFS, "templates/*.html"))

var errBadSource = errors.New("bad location parameters")

type view struct {
	Title      string
	Zip        string
	Query      string
	RefreshURL string
	Chart      template.URL
	Dashboard  application.Dashboard
	Day        application.DayDetail
}

// New returns a router that serves the dashboard as HTML and JSON.
func New(ctx context.Context, app application.Application) chi.Router {
	log := logging.GetFromContext(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withLogger(log))

	r.Get("/", dashboardHandler(app))
	r.Get("/day/{date}", dayHandler(app))
	r.Get("/chart.png", chartHandler(app))

	r.Route("/api/cloudcover", func(r chi.Router) {
		r.Get("/", cloudCoverHandler(app))
		r.Get("/days/{date}", dayDetailHandler(app))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func withLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := log.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
			ctx := logging.NewContextWithLogger(r.Context(), reqLog)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func dashboardHandler(app application.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logging.GetFromContext(ctx)

		src, err := sourceFromRequest(r)
		var d application.Dashboard
		if err != nil {
			d = invalidSource(src, err)
		} else {
			d = app.Load(ctx, src)
		}

		v := newView(r, src, d)
		v.Title = "Cloud cover"

		if d.State == application.StateSuccess && len(d.Hourly) > 0 {
			if v.Chart, err = chartDataURI(d.Hourly); err != nil {
				log.Error().Err(err).Msg("failed to render chart")
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err = templates.ExecuteTemplate(w, "dashboard.html", v); err != nil {
			log.Error().Err(err).Msg("failed to render dashboard")
		}
	}
}

func dayHandler(app application.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logging.GetFromContext(ctx)

		src, err := sourceFromRequest(r)
		if err != nil {
			http.Error(w, application.FriendlyError(err), http.StatusBadRequest)
			return
		}

		d := app.Load(ctx, src)
		if d.State == application.StateError {
			http.Error(w, d.Error, http.StatusBadGateway)
			return
		}

		day, ok := application.Day(d, chi.URLParam(r, "date"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		v := newView(r, src, d)
		v.Title = day.Title
		v.Day = day

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err = templates.ExecuteTemplate(w, "day.html", v); err != nil {
			log.Error().Err(err).Msg("failed to render day")
		}
	}
}

func cloudCoverHandler(app application.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, err := sourceFromRequest(r)
		if err != nil {
			writeJSON(r.Context(), w, http.StatusBadRequest, invalidSource(src, err))
			return
		}

		d := app.Load(r.Context(), src)

		status := http.StatusOK
		if d.State == application.StateError {
			status = http.StatusBadGateway
		}

		writeJSON(r.Context(), w, status, d)
	}
}

func dayDetailHandler(app application.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, err := sourceFromRequest(r)
		if err != nil {
			writeJSON(r.Context(), w, http.StatusBadRequest, invalidSource(src, err))
			return
		}

		d := app.Load(r.Context(), src)
		if d.State == application.StateError {
			writeJSON(r.Context(), w, http.StatusBadGateway, d)
			return
		}

		day, ok := application.Day(d, chi.URLParam(r, "date"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, day)
	}
}

func chartHandler(app application.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.GetFromContext(r.Context())

		src, err := sourceFromRequest(r)
		if err != nil {
			http.Error(w, application.FriendlyError(err), http.StatusBadRequest)
			return
		}

		d := app.Load(r.Context(), src)
		if d.State == application.StateError {
			http.Error(w, d.Error, http.StatusBadGateway)
			return
		}

		if len(d.Hourly) == 0 {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		if err = renderChart(w, d.Hourly); err != nil {
			log.Error().Err(err).Msg("failed to render chart")
		}
	}
}

// sourceFromRequest reads the location query parameters. A zip parameter
// selects ZIP mode, lat and lon select explicit coordinates and no
// parameters at all mean "my location".
func sourceFromRequest(r *http.Request) (application.Source, error) {
	q := r.URL.Query()

	if q.Has("zip") || q.Get("mode") == string(application.ModeZip) {
		src := application.Source{Mode: application.ModeZip, Zip: q.Get("zip")}
		if !cloudcover.IsValidUSZip(cloudcover.SanitizeZip(src.Zip)) {
			return src, application.ErrInvalidZip
		}
		return src, nil
	}

	src := application.Source{Mode: application.ModeGeo}

	if !q.Has("lat") && !q.Has("lon") {
		return src, nil
	}

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return src, fmt.Errorf("%w: %s", errBadSource, err.Error())
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return src, fmt.Errorf("%w: %s", errBadSource, err.Error())
	}

	if !application.ValidCoordinates(lat, lon) {
		return src, application.ErrInvalidCoordinates
	}

	src.Latitude, src.Longitude = &lat, &lon

	return src, nil
}

func invalidSource(src application.Source, err error) application.Dashboard {
	msg := application.FriendlyError(err)
	if errors.Is(err, errBadSource) {
		msg = "Latitude and longitude must both be numbers."
	}

	return application.Dashboard{
		State:  application.StateError,
		Status: "Could not load cloud cover.",
		Source: src.Label(),
		Error:  msg,
		Hourly: []cloudcover.HourlyItem{},
		Daily:  []cloudcover.DailyItem{},
	}
}

func locationQuery(src application.Source) url.Values {
	q := url.Values{}
	if src.Mode == application.ModeZip {
		q.Set("zip", cloudcover.SanitizeZip(src.Zip))
	} else if src.Latitude != nil && src.Longitude != nil {
		q.Set("lat", strconv.FormatFloat(*src.Latitude, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(*src.Longitude, 'f', -1, 64))
	}
	return q
}

func newView(r *http.Request, src application.Source, d application.Dashboard) view {
	query := locationQuery(src).Encode()

	v := view{
		Query:      query,
		RefreshURL: "/",
		Dashboard:  d,
	}

	if src.Mode == application.ModeZip {
		v.Zip = cloudcover.SanitizeZip(src.Zip)
	}

	if query != "" {
		v.RefreshURL += "?" + query
	}

	return v
}

func dayURL(query, key string) string {
	u := "/day/" + url.PathEscape(key)
	if query != "" {
		u += "?" + query
	}
	return u
}

func itemStyle(cover int) template.CSS {
	sky := cloudcover.DescribeSky(cover)
	return template.CSS(fmt.Sprintf("background:%s; border-color:%s;", sky.Tint, sky.Color))
}

func meterStyle(d application.Dashboard) template.CSS {
	color := "#e2e8f0"
	if d.Sky != nil {
		color = d.Sky.Color
	}
	return template.CSS(fmt.Sprintf("width:%d%%; background:%s;", d.MeterWidth, color))
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	log := logging.GetFromContext(ctx)

	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
