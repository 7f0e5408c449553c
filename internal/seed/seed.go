// Package seed holds the demo data written to a fresh board.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TobiSchelling/reliefboard/internal/relief"
)

//go:embed locations.json
var locationsJSON []byte

// Locations returns the relief sites known when the board was set up.
func Locations() ([]relief.Location, error) {
	var locs []relief.Location
	if err := json.Unmarshal(locationsJSON, &locs); err != nil {
		return nil, fmt.Errorf("parsing seed locations: %w", err)
	}
	return locs, nil
}

// Entries returns two demo entries, one need and one offer, stamped
// relative to now.
func Entries(now time.Time) []relief.Entry {
	return []relief.Entry{
		{
			ID:              "1",
			Type:            relief.TypeNeed,
			Category:        "食品",
			Item:            "便當/熱食",
			Quantity:        "50 份",
			Location:        "大埔體育館避難中心",
			ContactInfo:     "陳社工 9123 4567",
			Urgency:         relief.UrgencyHigh,
			Status:          relief.StatusPending,
			Timestamp:       now.Add(-30 * time.Minute).UnixMilli(),
			OriginalMessage: "急！避難中心缺50個便當，老人多，需要熱食。",
			Notes:           "需包含 10 份素食",
		},
		{
			ID:              "2",
			Type:            relief.TypeOffer,
			Category:        "交通",
			Item:            "7人車義載",
			Quantity:        "2 部車",
			Location:        "大埔墟站 A 出口",
			ContactInfo:     "Gary 6666 7777",
			Urgency:         relief.UrgencyMedium,
			Status:          relief.StatusPending,
			Timestamp:       now.Add(-time.Hour).UnixMilli(),
			OriginalMessage: "我可以出兩部車幫手運物資，係火車站等。",
			Notes:           "晚上 8 點後可出車",
		},
	}
}
