package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/reliefboard/internal/database"
	"github.com/TobiSchelling/reliefboard/internal/relief"
)

// fixedClock returns a clock that starts at start and can be advanced.
type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func openTestStore(t *testing.T, opts ...Option) (*Store, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister()
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	s, err := Open(p, opts...)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return s, p
}

func entry(id string, typ relief.EntryType, urgency relief.Urgency, status relief.Status, ts int64) relief.Entry {
	return relief.Entry{
		ID: id, Type: typ, Category: "食品", Item: "便當", Quantity: "1", Location: "大埔",
		ContactInfo: "無", Urgency: urgency, Status: status, Timestamp: ts, OriginalMessage: "msg",
	}
}

func TestOpenEmpty(t *testing.T) {
	s, p := openTestStore(t)
	if len(s.Entries()) != 0 || len(s.Locations()) != 0 {
		t.Error("expected empty collections")
	}
	if len(p.Data) != 0 {
		t.Error("expected nothing saved without a seed")
	}
}

func TestOpenSeedsOnlyMissingKeys(t *testing.T) {
	p := NewMemoryPersister()
	data, _ := Encode([]relief.Entry{})
	p.Data[EntriesKey] = data

	seedEntries := func(now time.Time) []relief.Entry {
		return []relief.Entry{entry("seed", relief.TypeNeed, relief.UrgencyHigh, relief.StatusPending, now.UnixMilli())}
	}
	seedLocations := []relief.Location{{ID: "loc-1", Name: "大埔社區會堂", Contacts: []relief.Contact{}}}

	s, err := Open(p, WithSeed(seedEntries, seedLocations))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Entries()) != 0 {
		t.Error("expected stored empty entries to win over seed")
	}
	if len(s.Locations()) != 1 {
		t.Fatalf("expected seeded location, got %d", len(s.Locations()))
	}
	if _, ok := p.Data[LocationsKey]; !ok {
		t.Error("expected seeded locations to be saved")
	}
}

func TestAddEntriesPrepends(t *testing.T) {
	s, p := openTestStore(t)
	s.AddEntries(entry("a", relief.TypeNeed, relief.UrgencyLow, relief.StatusPending, 1))
	s.AddEntries(
		entry("b", relief.TypeOffer, relief.UrgencyLow, relief.StatusPending, 2),
		entry("c", relief.TypeOffer, relief.UrgencyLow, relief.StatusPending, 3),
	)

	var ids []string
	for _, e := range s.Entries() {
		ids = append(ids, e.ID)
	}
	if strings.Join(ids, ",") != "b,c,a" {
		t.Errorf("expected b,c,a, got %v", ids)
	}

	saved, _, err := Decode[relief.Entry](p.Data[EntriesKey])
	if err != nil {
		t.Fatalf("decode saved: %v", err)
	}
	if len(saved) != 3 {
		t.Errorf("expected 3 saved entries, got %d", len(saved))
	}
}

func TestAddEntriesAssignsUniqueIDs(t *testing.T) {
	s, _ := openTestStore(t)
	s.AddEntries(entry("a", relief.TypeNeed, relief.UrgencyLow, relief.StatusPending, 1))
	s.AddEntries(
		entry("a", relief.TypeNeed, relief.UrgencyLow, relief.StatusPending, 2),
		entry("", relief.TypeNeed, relief.UrgencyLow, relief.StatusPending, 3),
	)

	seen := map[string]bool{}
	for _, e := range s.Entries() {
		if e.ID == "" || seen[e.ID] {
			t.Fatalf("duplicate or empty id %q", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestAddManualEntryDefaults(t *testing.T) {
	clock := &fixedClock{t: time.UnixMilli(5000)}
	s, _ := openTestStore(t, WithClock(clock.Now))

	e, err := s.AddManualEntry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Type != relief.TypeNeed || e.Urgency != relief.UrgencyMedium || e.Status != relief.StatusPending {
		t.Errorf("unexpected enums: %+v", e)
	}
	if e.Category != ManualCategory || e.Item != ManualItem || e.OriginalMessage != ManualMessage {
		t.Errorf("unexpected text defaults: %+v", e)
	}
	if e.Timestamp != 5000 {
		t.Errorf("expected timestamp 5000, got %d", e.Timestamp)
	}
	if got := s.Entries()[0].ID; got != e.ID {
		t.Errorf("expected manual entry first, got %q", got)
	}
}

func TestUpdateEntryStatusKeepsTimestamp(t *testing.T) {
	clock := &fixedClock{t: time.UnixMilli(1000)}
	s, _ := openTestStore(t, WithClock(clock.Now))
	s.AddEntries(entry("a", relief.TypeNeed, relief.UrgencyHigh, relief.StatusPending, 100))

	clock.t = time.UnixMilli(9000)
	if err := s.UpdateEntryStatus("a", relief.StatusCompleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := s.Entry("a")
	if got.Status != relief.StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", got.Status)
	}
	if got.Timestamp != 100 {
		t.Errorf("expected timestamp untouched, got %d", got.Timestamp)
	}
}

func TestUpdateEntryStatusUnknownID(t *testing.T) {
	s, p := openTestStore(t)
	if err := s.UpdateEntryStatus("missing", relief.StatusCompleted); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if len(p.Data) != 0 {
		t.Error("expected no save for unknown id")
	}
}

func TestEditEntryEmptyPatchTouchesTimestamp(t *testing.T) {
	clock := &fixedClock{t: time.UnixMilli(100)}
	s, _ := openTestStore(t, WithClock(clock.Now))
	orig := entry("a", relief.TypeNeed, relief.UrgencyHigh, relief.StatusPending, 100)
	s.AddEntries(orig)

	// Same millisecond: the timestamp must still move forward.
	if err := s.EditEntry("a", relief.EntryPatch{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := s.Entry("a")
	if got.Timestamp <= orig.Timestamp {
		t.Errorf("expected timestamp > %d, got %d", orig.Timestamp, got.Timestamp)
	}
	got.Timestamp = orig.Timestamp
	if !reflect.DeepEqual(got, orig) {
		t.Errorf("expected only timestamp to change:\n got %+v\nwant %+v", got, orig)
	}
}

func TestEditEntryMerges(t *testing.T) {
	clock := &fixedClock{t: time.UnixMilli(100)}
	s, _ := openTestStore(t, WithClock(clock.Now))
	s.AddEntries(entry("a", relief.TypeNeed, relief.UrgencyHigh, relief.StatusPending, 100))

	clock.t = time.UnixMilli(5000)
	s.EditEntry("a", relief.EntryPatch{Item: relief.Ptr("飯盒"), Notes: relief.Ptr("10 份素食")})

	got, _ := s.Entry("a")
	if got.Item != "飯盒" || got.Notes != "10 份素食" {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.Timestamp != 5000 {
		t.Errorf("expected timestamp 5000, got %d", got.Timestamp)
	}
	if got.ID != "a" {
		t.Errorf("expected id unchanged, got %q", got.ID)
	}
}

func TestDeleteEntryIdempotent(t *testing.T) {
	s, _ := openTestStore(t)
	s.AddEntries(
		entry("a", relief.TypeNeed, relief.UrgencyHigh, relief.StatusPending, 1),
		entry("b", relief.TypeNeed, relief.UrgencyHigh, relief.StatusPending, 2),
	)
	before := s.Entries()

	if err := s.DeleteEntry("missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(before, s.Entries()) {
		t.Error("expected collection unchanged after deleting unknown id")
	}

	s.DeleteEntry("a")
	s.DeleteEntry("a")
	if got := s.Entries(); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("expected only b left, got %+v", got)
	}
}

func TestLocationLifecycle(t *testing.T) {
	s, _ := openTestStore(t)

	l, err := s.AddLocation()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Name != NewLocationName || l.NeedsSupport.Kind() != relief.SupportUnspecified {
		t.Errorf("unexpected defaults: %+v", l)
	}
	if l.Contacts == nil || len(l.Contacts) != 0 {
		t.Errorf("expected empty non-nil contacts, got %#v", l.Contacts)
	}

	contacts := []relief.Contact{{Name: "Rainie", Phone: "51219619"}}
	err = s.UpdateLocation(l.ID, relief.LocationPatch{
		Name:         relief.Ptr("廣福道油站"),
		NeedsSupport: relief.Ptr(relief.Urgent()),
		Contacts:     &contacts,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := s.Location(l.ID)
	if !ok {
		t.Fatal("expected location")
	}
	if got.Name != "廣福道油站" || got.NeedsSupport != relief.Urgent() || len(got.Contacts) != 1 {
		t.Errorf("update not applied: %+v", got)
	}
	if got.CurrentStatus != NewLocationStatusText {
		t.Errorf("expected untouched status text, got %q", got.CurrentStatus)
	}

	if err := s.UpdateLocation("missing", relief.LocationPatch{Name: relief.Ptr("x")}); err != nil {
		t.Errorf("expected no-op for unknown id, got %v", err)
	}

	s.DeleteLocation(l.ID)
	if err := s.DeleteLocation(l.ID); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
	if len(s.Locations()) != 0 {
		t.Error("expected no locations")
	}
}

func TestLocationsReturnsCopies(t *testing.T) {
	s, _ := openTestStore(t)
	l, _ := s.AddLocation()
	contacts := []relief.Contact{{Name: "Gigi"}}
	s.UpdateLocation(l.ID, relief.LocationPatch{Contacts: &contacts})

	locs := s.Locations()
	locs[0].Contacts[0].Name = "mutated"

	got, _ := s.Location(l.ID)
	if got.Contacts[0].Name != "Gigi" {
		t.Error("expected store to be isolated from caller mutation")
	}
}

func TestReplaceLocationsAssignsUniqueIDs(t *testing.T) {
	s, p := openTestStore(t)
	err := s.ReplaceLocations([]relief.Location{
		{ID: "x", Name: "A"}, {ID: "x", Name: "B"}, {ID: "", Name: "C"}, {ID: "", Name: "D"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	locs := s.Locations()
	seen := make(map[string]bool)
	for _, l := range locs {
		if l.ID == "" || seen[l.ID] {
			t.Fatalf("expected unique non-empty ids, got %+v", locs)
		}
		seen[l.ID] = true
	}
	if locs[0].ID != "x" {
		t.Errorf("expected first id kept, got %q", locs[0].ID)
	}

	s.DeleteLocation("x")
	if got := len(s.Locations()); got != 3 {
		t.Fatalf("expected 3 locations after delete, got %d", got)
	}
	for _, l := range s.Locations() {
		if l.ID == "x" {
			t.Error("expected no location left with the deleted id")
		}
	}

	stored, _, _ := Decode[relief.Location](p.Data[LocationsKey])
	if len(stored) != 3 || stored[0].ID == stored[1].ID {
		t.Errorf("expected repaired ids persisted, got %+v", stored)
	}
}

func TestOpenRepairsDuplicateIDs(t *testing.T) {
	p := NewMemoryPersister()
	p.Data[LocationsKey] = []byte(`[{"id":"loc-1","location_name":"A","contacts":[]},{"id":"loc-1","location_name":"B","contacts":[]},{"location_name":"C","contacts":[]}]`)
	p.Data[EntriesKey] = []byte(`{"version":1,"items":[{"id":"e","type":"NEED"},{"id":"e","type":"OFFER"}]}`)

	s, err := Open(p, WithIDGenerator(sequentialIDs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := []string{}
	for _, l := range s.Locations() {
		ids = append(ids, l.ID)
	}
	if !reflect.DeepEqual(ids, []string{"loc-1", "id-1", "id-2"}) {
		t.Errorf("unexpected location ids %v", ids)
	}
	entries := s.Entries()
	if entries[0].ID != "e" || entries[1].ID != "id-3" {
		t.Errorf("unexpected entry ids %q %q", entries[0].ID, entries[1].ID)
	}

	stored, _, _ := Decode[relief.Location](p.Data[LocationsKey])
	if len(stored) != 3 || stored[1].ID != "id-1" {
		t.Errorf("expected repaired locations saved, got %+v", stored)
	}
}

func TestPersistFailureKeepsState(t *testing.T) {
	s, p := openTestStore(t)
	p.Err = errors.New("quota exceeded")

	err := s.AddEntries(entry("a", relief.TypeNeed, relief.UrgencyHigh, relief.StatusPending, 1))
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if len(s.Entries()) != 1 {
		t.Error("expected in-memory state to keep the mutation")
	}

	p.Err = nil
	if err := s.UpdateEntryStatus("a", relief.StatusCompleted); err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	saved, _, _ := Decode[relief.Entry](p.Data[EntriesKey])
	if len(saved) != 1 || saved[0].Status != relief.StatusCompleted {
		t.Errorf("expected next save to carry full state, got %+v", saved)
	}
}

func TestReopenRoundTrip(t *testing.T) {
	s, p := openTestStore(t)
	s.AddEntries(entry("a", relief.TypeOffer, relief.UrgencyMedium, relief.StatusPending, 42))
	l, _ := s.AddLocation()
	s.UpdateLocation(l.ID, relief.LocationPatch{NeedsSupport: relief.Ptr(relief.Pending("稍後需要車手"))})

	reopened, err := Open(p)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reflect.DeepEqual(s.Entries(), reopened.Entries()) {
		t.Error("entries differ after reopen")
	}
	if !reflect.DeepEqual(s.Locations(), reopened.Locations()) {
		t.Error("locations differ after reopen")
	}
}

func TestOpenUpgradesLegacyArrays(t *testing.T) {
	p := NewMemoryPersister()
	p.Data[EntriesKey] = []byte(`[{"id":"1","type":"NEED","category":"食品","item":"便當/熱食","quantity":"50 份","location":"大埔體育館避難中心","contactInfo":"陳社工 9123 4567","urgency":"HIGH","status":"PENDING","timestamp":1764200000000,"originalMessage":"急！","notes":"需包含 10 份素食"}]`)
	p.Data[LocationsKey] = []byte(`[{"id":"loc-5","location_name":"廣福道油站","contacts":[{"name":"Rainie","phone":"51219619"}],"current_status":"11點後要人","needs_support":true}]`)

	s, err := Open(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Entries()) != 1 || s.Entries()[0].Notes != "需包含 10 份素食" {
		t.Errorf("unexpected entries: %+v", s.Entries())
	}
	if got := s.Locations()[0].NeedsSupport; got != relief.Urgent() {
		t.Errorf("expected urgent, got %v", got)
	}

	_, version, err := Decode[relief.Entry](p.Data[EntriesKey])
	if err != nil || version != FormatVersion {
		t.Errorf("expected upgraded format %d, got %d (%v)", FormatVersion, version, err)
	}
}

func TestOpenRejectsNewerFormat(t *testing.T) {
	p := NewMemoryPersister()
	p.Data[EntriesKey] = []byte(`{"version":99,"items":[]}`)
	_, err := Open(p)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestOpenRejectsCorruptData(t *testing.T) {
	p := NewMemoryPersister()
	p.Data[LocationsKey] = []byte(`{not json`)
	if _, err := Open(p); err == nil {
		t.Error("expected error for corrupt data")
	}
}

func TestStoreOnSQLite(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "board.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	s, err := Open(db)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s.AddEntries(entry("a", relief.TypeNeed, relief.UrgencyHigh, relief.StatusPending, 1))

	again, err := Open(db)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if len(again.Entries()) != 1 {
		t.Errorf("expected 1 entry from sqlite, got %d", len(again.Entries()))
	}
}
