package cloudcover

import (
	"fmt"
	"time"
)

func FormatHour(t time.Time) string {
	if t.IsZero() {
		return "--"
	}
	return t.Format("3 PM")
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("1/2/2006, 3:04:05 PM")
}

func FormatDayLabel(t time.Time) string {
	return t.Format("Mon")
}

func FormatDayDate(t time.Time) string {
	return t.Format("1/2")
}

func FormatCoordinates(latitude, longitude float64) string {
	return fmt.Sprintf("%.3f, %.3f", latitude, longitude)
}
