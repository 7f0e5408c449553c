package export

import (
	"fmt"
	"time"
)

// Snapshot kinds used in file names.
const (
	KindData   = "Data"
	KindUpdate = "Update"
)

// Filename builds a sortable snapshot file name such as
// Taipo-Relief-Data-2025-11-27T08-30-00.csv. The stamp is in UTC.
func Filename(prefix, kind, ext string, t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15-04-05")
	if prefix == "" {
		return fmt.Sprintf("%s-%s.%s", kind, stamp, ext)
	}
	return fmt.Sprintf("%s-%s-%s.%s", prefix, kind, stamp, ext)
}
