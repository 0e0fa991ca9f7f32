package openmeteo

type currentBlock struct {
	Time       string   `json:"time"`
	CloudCover *float64 `json:"cloud_cover"`
	Cloudcover *float64 `json:"cloudcover"`
}

type hourlyBlock struct {
	Time       []string   `json:"time"`
	CloudCover []*float64 `json:"cloud_cover"`
	Cloudcover []*float64 `json:"cloudcover"`
}

type forecastResponse struct {
	Latitude             float64       `json:"latitude"`
	Longitude            float64       `json:"longitude"`
	UTCOffsetSeconds     int           `json:"utc_offset_seconds"`
	Timezone             string        `json:"timezone"`
	TimezoneAbbreviation string        `json:"timezone_abbreviation"`
	Current              *currentBlock `json:"current"`
	Hourly               *hourlyBlock  `json:"hourly"`
}

type geocodingResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Admin1    string  `json:"admin1"`
	Country   string  `json:"country"`
}

type geocodingResponse struct {
	Results []geocodingResult `json:"results"`
}
