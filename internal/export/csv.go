// Package export writes shareable snapshots of the board: a spreadsheet-ready
// CSV and a PNG image of the visible list.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/views"
)

// ErrNothingToExport is returned when the list to export is empty.
var ErrNothingToExport = errors.New("沒有可導出的數據")

// TimeLayout formats entry times in exports.
const TimeLayout = "2006/1/2 15:04:05"

// CSVHeader is the fixed header row.
var CSVHeader = []string{"類型", "狀態", "急迫性", "類別", "物品", "數量", "地點", "聯絡方法", "備註", "時間", "原始訊息"}

// utf8BOM lets spreadsheet programs detect the encoding.
const utf8BOM = "\uFEFF"

// WriteCSV writes entries, in the given order, as a UTF-8 CSV with a
// byte-order mark. Times are shown in loc.
func WriteCSV(w io.Writer, entries []relief.Entry, loc *time.Location) error {
	if len(entries) == 0 {
		return ErrNothingToExport
	}
	if loc == nil {
		loc = time.UTC
	}

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			views.TypeText(e.Type),
			views.StatusText(e.Status),
			views.UrgencyText(e.Urgency),
			e.Category,
			e.Item,
			e.Quantity,
			e.Location,
			e.ContactInfo,
			e.Notes,
			e.Time().In(loc).Format(TimeLayout),
			e.OriginalMessage,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
