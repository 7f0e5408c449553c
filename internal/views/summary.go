package views

import (
	"slices"
	"strings"

	"github.com/TobiSchelling/reliefboard/internal/relief"
)

// Unclassified is the bucket for entries with a blank category.
const Unclassified = "未分類"

// Summary groups the active entries by type and then by category.
type Summary struct {
	Needs       map[string][]relief.Entry
	Offers      map[string][]relief.Entry
	TotalNeeds  int
	TotalOffers int
}

// Summarize builds the category summary of the active entries.
func Summarize(entries []relief.Entry) Summary {
	s := Summary{
		Needs:  make(map[string][]relief.Entry),
		Offers: make(map[string][]relief.Entry),
	}
	for _, e := range entries {
		if !e.Active() {
			continue
		}
		cat := CategoryKey(e.Category)
		if e.Type == relief.TypeNeed {
			s.Needs[cat] = append(s.Needs[cat], e)
			s.TotalNeeds++
		} else {
			s.Offers[cat] = append(s.Offers[cat], e)
			s.TotalOffers++
		}
	}
	return s
}

// CategoryKey is the summary bucket for a category.
func CategoryKey(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return Unclassified
}

// Group is one category bucket, for rendering in a stable order.
type Group struct {
	Category string
	Entries  []relief.Entry
}

// Groups flattens a category map into buckets, largest first, then by name.
func Groups(m map[string][]relief.Entry) []Group {
	groups := make([]Group, 0, len(m))
	for cat, entries := range m {
		groups = append(groups, Group{Category: cat, Entries: entries})
	}
	slices.SortFunc(groups, func(a, b Group) int {
		if d := len(b.Entries) - len(a.Entries); d != 0 {
			return d
		}
		return strings.Compare(a.Category, b.Category)
	})
	return groups
}
