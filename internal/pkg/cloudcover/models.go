package cloudcover

import "time"

// Sample is one hourly value of a forecast series. A nil CloudCover marks a
// gap in the upstream data and a zero Time marks a timestamp that could not
// be parsed.
type Sample struct {
	Time       time.Time
	CloudCover *float64
}

type HourlyItem struct {
	Time       time.Time `json:"time"`
	CloudCover int       `json:"cloudCover"`
}

type DailyItem struct {
	Key        string `json:"key"`
	Day        string `json:"day"`
	Date       string `json:"date"`
	CloudCover int    `json:"cloudCover"`
}

type Sky struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Tint  string `json:"tint"`
}
