package views

import "github.com/TobiSchelling/reliefboard/internal/relief"

// TypeText is the board label for an entry type.
func TypeText(t relief.EntryType) string {
	if t == relief.TypeNeed {
		return "需求"
	}
	return "提供"
}

// StatusText is the board label for an entry status.
func StatusText(s relief.Status) string {
	if s == relief.StatusCompleted {
		return "已完成"
	}
	return "待處理"
}

// UrgencyText is the board label for an urgency tier. Unknown values are
// shown as they are.
func UrgencyText(u relief.Urgency) string {
	switch u {
	case relief.UrgencyHigh:
		return "緊急"
	case relief.UrgencyMedium:
		return "中等"
	case relief.UrgencyLow:
		return "一般"
	}
	return string(u)
}

// UrgencyColor is the badge colour of an urgency tier.
func UrgencyColor(u relief.Urgency) Color {
	switch u {
	case relief.UrgencyHigh:
		return ColorRed
	case relief.UrgencyMedium:
		return ColorAmber
	}
	return ColorGrey
}
