package application

import (
	"fmt"

	"github.com/diwise/cloudcover/internal/pkg/cloudcover"
)

type Mode string

const (
	ModeGeo Mode = "geo"
	ModeZip Mode = "zip"
)

// Source says where the dashboard should look for a location. In geo mode
// explicit coordinates win over the configured locator chain.
type Source struct {
	Mode      Mode
	Zip       string
	Latitude  *float64
	Longitude *float64
}

func (s Source) Label() string {
	if s.Mode == ModeZip {
		if zip := cloudcover.SanitizeZip(s.Zip); zip != "" {
			return fmt.Sprintf("Using: ZIP %s", zip)
		}
		return "Using: ZIP code"
	}
	return "Using: My Location"
}

type Target struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

type State string

const (
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

type Dashboard struct {
	State       State                              `json:"state"`
	Status      string                             `json:"status"`
	Source      string                             `json:"source"`
	Location    string                             `json:"location,omitempty"`
	Target      *Target                            `json:"target,omitempty"`
	CloudCover  int                                `json:"cloudCover"`
	Sky         *cloudcover.Sky                    `json:"sky,omitempty"`
	MeterWidth  int                                `json:"meterWidth"`
	Updated     string                             `json:"updated,omitempty"`
	Error       string                             `json:"error,omitempty"`
	Hourly      []cloudcover.HourlyItem            `json:"hourly"`
	Daily       []cloudcover.DailyItem             `json:"daily"`
	HourlyByDay map[string][]cloudcover.HourlyItem `json:"-"`
}

type DayDetail struct {
	Key   string                  `json:"key"`
	Title string                  `json:"title"`
	Hours []cloudcover.HourlyItem `json:"hours"`
}
