package cloudcover

import (
	"regexp"
	"strings"
	"unicode"
)

func DescribeSky(cover int) Sky {
	switch {
	case cover <= 20:
		return Sky{Label: "Clear", Color: "#22c55e", Icon: "🌞", Tint: "#fff7cc"}
	case cover <= 50:
		return Sky{Label: "Mostly clear", Color: "#84cc16", Icon: "🌤️", Tint: "#ecfccb"}
	case cover <= 80:
		return Sky{Label: "Partly cloudy", Color: "#f59e0b", Icon: "⛅️", Tint: "#ffedd5"}
	default:
		return Sky{Label: "Overcast", Color: "#64748b", Icon: "☁️", Tint: "#e2e8f0"}
	}
}

var usZipRegexp = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// SanitizeZip trims the input and drops any whitespace inside it.
func SanitizeZip(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

func IsValidUSZip(zip string) bool {
	return usZipRegexp.MatchString(zip)
}
