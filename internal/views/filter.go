package views

import (
	"fmt"
	"slices"
	"strings"

	"github.com/TobiSchelling/reliefboard/internal/relief"
)

// TypeFilter narrows the entry list by entry type.
type TypeFilter string

const (
	TypeAll   TypeFilter = "ALL"
	TypeNeed  TypeFilter = "NEED"
	TypeOffer TypeFilter = "OFFER"
)

// StatusFilter narrows the entry list by status.
type StatusFilter string

const (
	StatusAll       StatusFilter = "ALL"
	StatusActive    StatusFilter = "ACTIVE"
	StatusCompleted StatusFilter = "COMPLETED"
)

// ParseTypeFilter reads a type filter, case-insensitively. Empty means ALL.
func ParseTypeFilter(s string) (TypeFilter, error) {
	switch f := TypeFilter(strings.ToUpper(strings.TrimSpace(s))); f {
	case "":
		return TypeAll, nil
	case TypeAll, TypeNeed, TypeOffer:
		return f, nil
	}
	return "", fmt.Errorf("unknown type filter %q (want ALL, NEED or OFFER)", s)
}

// ParseStatusFilter reads a status filter, case-insensitively. Empty means ALL.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToUpper(strings.TrimSpace(s))); f {
	case "":
		return StatusAll, nil
	case StatusAll, StatusActive, StatusCompleted:
		return f, nil
	}
	return "", fmt.Errorf("unknown status filter %q (want ALL, ACTIVE or COMPLETED)", s)
}

// Filter selects entries by type and status.
type Filter struct {
	Type   TypeFilter
	Status StatusFilter
}

func (f Filter) match(e relief.Entry) bool {
	switch f.Type {
	case TypeNeed:
		if e.Type != relief.TypeNeed {
			return false
		}
	case TypeOffer:
		if e.Type != relief.TypeOffer {
			return false
		}
	}
	switch f.Status {
	case StatusActive:
		return e.Active()
	case StatusCompleted:
		return !e.Active()
	}
	return true
}

// FilterEntries returns the entries matching f in board order.
func FilterEntries(entries []relief.Entry, f Filter) []relief.Entry {
	out := make([]relief.Entry, 0, len(entries))
	for _, e := range entries {
		if f.match(e) {
			out = append(out, e)
		}
	}
	SortEntries(out)
	return out
}

// SortEntries orders entries in place: completed entries last, then by
// urgency (highest first), then newest first. Equal keys keep their order.
func SortEntries(entries []relief.Entry) {
	slices.SortStableFunc(entries, compareEntries)
}

func compareEntries(a, b relief.Entry) int {
	if a.Active() != b.Active() {
		if a.Active() {
			return -1
		}
		return 1
	}
	if d := b.Urgency.Rank() - a.Urgency.Rank(); d != 0 {
		return d
	}
	switch {
	case a.Timestamp > b.Timestamp:
		return -1
	case a.Timestamp < b.Timestamp:
		return 1
	}
	return 0
}

// ExistingCategories returns the distinct non-empty categories in use,
// sorted, for category suggestions.
func ExistingCategories(entries []relief.Entry) []string {
	seen := make(map[string]struct{})
	var cats []string
	for _, e := range entries {
		if e.Category == "" {
			continue
		}
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		cats = append(cats, e.Category)
	}
	slices.Sort(cats)
	return cats
}
