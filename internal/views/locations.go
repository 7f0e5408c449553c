package views

import (
	"net/url"
	"slices"

	"github.com/TobiSchelling/reliefboard/internal/relief"
)

// MapRegion is appended to a site name when searching for it on a map.
const MapRegion = "大埔"

// SortLocations returns the locations ordered by support priority, urgent
// first and sufficient last. Equal priorities keep their order.
func SortLocations(locations []relief.Location) []relief.Location {
	out := slices.Clone(locations)
	slices.SortStableFunc(out, func(a, b relief.Location) int {
		return b.NeedsSupport.Priority() - a.NeedsSupport.Priority()
	})
	return out
}

// Color is the status colour of a site.
type Color string

const (
	ColorRed   Color = "red"
	ColorAmber Color = "amber"
	ColorGreen Color = "green"
	ColorGrey  Color = "grey"
)

// Hex returns the RGB hex code used when drawing the colour.
func (c Color) Hex() string {
	switch c {
	case ColorRed:
		return "#dc2626"
	case ColorAmber:
		return "#d97706"
	case ColorGreen:
		return "#059669"
	default:
		return "#94a3b8"
	}
}

// SupportColor maps a support state to its status colour.
func SupportColor(s relief.SupportState) Color {
	switch s.Kind() {
	case relief.SupportUrgent:
		return ColorRed
	case relief.SupportPending:
		return ColorAmber
	case relief.SupportSufficient:
		return ColorGreen
	default:
		return ColorGrey
	}
}

// SupportText is the short board label for a support state.
func SupportText(s relief.SupportState) string {
	switch s.Kind() {
	case relief.SupportUrgent:
		return "急需支援"
	case relief.SupportPending:
		if s.Label() == "" {
			return relief.DefaultPendingLabel
		}
		return s.Label()
	case relief.SupportSufficient:
		return "暫不需要"
	default:
		return "未有資料"
	}
}

// MapURL returns a map search link for a site, or "" when it has no name.
func MapURL(name string) string {
	if name == "" {
		return ""
	}
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", name+" "+MapRegion)
	return "https://www.google.com/maps/search/?" + q.Encode()
}
