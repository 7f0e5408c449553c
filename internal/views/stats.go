// Package views computes the derived, read-only views of the board. Every
// function here is pure: it reads the collections it is given and returns
// fresh values.
package views

import "github.com/TobiSchelling/reliefboard/internal/relief"

// Stats are the headline counters shown above the board.
type Stats struct {
	TotalNeeds  int `json:"totalNeeds"`
	TotalOffers int `json:"totalOffers"`
	Completed   int `json:"completed"`
	HighUrgency int `json:"highUrgency"`
}

// ComputeStats counts active needs, active offers, completed entries of
// either type and active high-urgency entries.
func ComputeStats(entries []relief.Entry) Stats {
	var s Stats
	for _, e := range entries {
		if !e.Active() {
			s.Completed++
			continue
		}
		switch e.Type {
		case relief.TypeNeed:
			s.TotalNeeds++
		case relief.TypeOffer:
			s.TotalOffers++
		}
		if e.Urgency == relief.UrgencyHigh {
			s.HighUrgency++
		}
	}
	return s
}
