package cloudcover

import (
	"math"
	"time"
)

const (
	WindowHours  = 24
	ForecastDays = 7
)

const dateKeyLayout = "2006-01-02"

// ForecastWindow returns the rolling 24 hour strip starting at the first
// sample that lies after now. When no sample does, the strip starts at the
// beginning of the series.
func ForecastWindow(samples []Sample, now time.Time) []HourlyItem {
	start := 0
	for i, s := range samples {
		if !s.Time.IsZero() && s.Time.After(now) {
			start = i
			break
		}
	}

	items := make([]HourlyItem, 0, WindowHours)
	for i := start; i < len(samples) && len(items) < WindowHours; i++ {
		if samples[i].CloudCover == nil {
			continue
		}

		items = append(items, HourlyItem{
			Time:       samples[i].Time,
			CloudCover: Round(*samples[i].CloudCover),
		})
	}

	return items
}

type dayBucket struct {
	sum   float64
	count int
	date  time.Time
}

// DailyForecast averages the samples of each calendar day after today.
// Days are keyed in the time zone of the samples and keep the order in
// which they first appear.
func DailyForecast(samples []Sample, now time.Time) []DailyItem {
	items := make([]DailyItem, 0, ForecastDays)
	if len(samples) == 0 {
		return items
	}

	todayKey := DateKey(now.In(sampleZone(samples, now.Location())))

	var order []string
	buckets := map[string]*dayBucket{}

	for _, s := range samples {
		if s.CloudCover == nil || s.Time.IsZero() {
			continue
		}

		key := DateKey(s.Time)
		if key <= todayKey {
			continue
		}

		b, ok := buckets[key]
		if !ok {
			b = &dayBucket{date: s.Time}
			buckets[key] = b
			order = append(order, key)
		}
		b.sum += *s.CloudCover
		b.count++
	}

	for _, key := range order {
		b := buckets[key]
		if b.count == 0 {
			continue
		}

		items = append(items, DailyItem{
			Key:        key,
			Day:        FormatDayLabel(b.date),
			Date:       FormatDayDate(b.date),
			CloudCover: Round(b.sum / float64(b.count)),
		})

		if len(items) == ForecastDays {
			break
		}
	}

	return items
}

// HourlyByDay groups every sample with a value by its calendar day.
func HourlyByDay(samples []Sample) map[string][]HourlyItem {
	byDay := map[string][]HourlyItem{}

	for _, s := range samples {
		if s.CloudCover == nil || s.Time.IsZero() {
			continue
		}

		key := DateKey(s.Time)
		byDay[key] = append(byDay[key], HourlyItem{
			Time:       s.Time,
			CloudCover: Round(*s.CloudCover),
		})
	}

	return byDay
}

func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ParseDateKey is the inverse of DateKey. The returned time is midnight in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateKeyLayout, key, loc)
}

// Round rounds half up, so 2.5 becomes 3 and -2.5 becomes -2.
func Round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// MeterWidth is the gauge fill in percent.
func MeterWidth(cover int) int {
	if cover < 0 {
		return 0
	}
	if cover > 100 {
		return 100
	}
	return cover
}

// sampleZone returns the zone of the first sample with a parsed time.
func sampleZone(samples []Sample, fallback *time.Location) *time.Location {
	for _, s := range samples {
		if !s.Time.IsZero() {
			return s.Time.Location()
		}
	}
	return fallback
}
