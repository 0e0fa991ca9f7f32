package api

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"io"
	"strings"

	"github.com/diwise/cloudcover/internal/pkg/cloudcover"
	"github.com/wcharczuk/go-chart"
	"github.com/wcharczuk/go-chart/drawing"
)

const (
	barWidth   = 28
	barSpacing = 8
)

// renderChart draws the hourly strip as a PNG bar chart, one bar per hour
// coloured like the dashboard tiles.
func renderChart(w io.Writer, items []cloudcover.HourlyItem) error {
	bars := make([]chart.Value, 0, len(items))
	for _, item := range items {
		colour := drawing.ColorFromHex(strings.TrimPrefix(cloudcover.DescribeSky(item.CloudCover).Color, "#"))
		bars = append(bars, chart.Value{
			Label: cloudcover.FormatHour(item.Time),
			Value: float64(item.CloudCover),
			Style: chart.Style{
				Show:        true,
				FillColor:   colour,
				StrokeColor: colour,
				StrokeWidth: 1,
			},
		})
	}

	graph := chart.BarChart{
		Title:      "Cloud cover, next 24 hours (%)",
		TitleStyle: chart.StyleShow(),
		Width:      len(bars)*(barWidth+barSpacing) + 120,
		Height:     320,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		XAxis:      chart.StyleShow(),
		YAxis: chart.YAxis{
			Style: chart.StyleShow(),
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: bars,
	}

	return graph.Render(chart.PNG, w)
}

// chartDataURI renders the hourly strip into a data URI that the dashboard
// page can embed without a second load.
func chartDataURI(items []cloudcover.HourlyItem) (template.URL, error) {
	buf := &bytes.Buffer{}
	if err := renderChart(buf, items); err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}
