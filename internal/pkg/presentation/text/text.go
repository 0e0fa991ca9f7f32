package text

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/diwise/cloudcover/internal/application"
	"github.com/diwise/cloudcover/internal/pkg/cloudcover"
)

const meterCells = 20

// Render writes d as plain text, followed by the hourly detail of day when
// it is not nil.
func Render(w io.Writer, d application.Dashboard, day *application.DayDetail) error {
	fmt.Fprintln(w, d.Source)
	fmt.Fprintln(w, d.Status)

	if d.State == application.StateError {
		_, err := fmt.Fprintln(w, d.Error)
		return err
	}

	fmt.Fprintln(w, d.Location)
	fmt.Fprintf(w, "%d%%  Sky: %s %s\n", d.CloudCover, d.Sky.Icon, d.Sky.Label)
	fmt.Fprintln(w, Meter(d.MeterWidth))
	if d.Updated != "" {
		fmt.Fprintln(w, d.Updated)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next 24 hours")
	if len(d.Hourly) == 0 {
		fmt.Fprintln(w, "No hourly forecast available.")
	} else if err := hours(w, d.Hourly); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "7-day forecast")
	if len(d.Daily) == 0 {
		fmt.Fprintln(w, "No 7-day forecast available.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, item := range d.Daily {
			sky := cloudcover.DescribeSky(item.CloudCover)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%s\n", item.Day, item.Date, sky.Icon, item.CloudCover, item.Key)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if day != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, day.Title)
		return hours(w, day.Hours)
	}

	return nil
}

func hours(w io.Writer, items []cloudcover.HourlyItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, item := range items {
		sky := cloudcover.DescribeSky(item.CloudCover)
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\n", cloudcover.FormatHour(item.Time), sky.Icon, item.CloudCover, sky.Label)
	}
	return tw.Flush()
}

// Meter draws the cloud cover gauge, e.g. [#########-----------].
func Meter(width int) string {
	filled := cloudcover.Round(float64(cloudcover.MeterWidth(width)) * meterCells / 100)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", meterCells-filled) + "]"
}
