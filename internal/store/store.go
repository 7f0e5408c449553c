package store

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/reliefboard/internal/relief"
)

// Defaults for records created from the board rather than from extraction.
const (
	ManualCategory        = "未分類"
	ManualItem            = "新增物品"
	ManualQuantity        = "1"
	ManualLocation        = "待定"
	ManualContact         = "無"
	ManualMessage         = "手動新增項目"
	NewLocationName       = "新救援站點"
	NewLocationStatusText = "請更新站點狀態..."
)

// Store holds the board's two collections and mirrors every mutation to
// its Persister before returning. It is the single source of truth.
type Store struct {
	mu        sync.Mutex
	persist   Persister
	entries   []relief.Entry
	locations []relief.Location

	now   func() time.Time
	newID func() string

	seedEntries   func(now time.Time) []relief.Entry
	seedLocations []relief.Location
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithSeed sets the data written when a collection has never been stored.
func WithSeed(entries func(now time.Time) []relief.Entry, locations []relief.Location) Option {
	return func(s *Store) {
		s.seedEntries = entries
		s.seedLocations = locations
	}
}

// Open loads both collections from p. Collections that were never stored
// start from the seed (if any); legacy unversioned data is rewritten in the
// current format.
func Open(p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persist: p,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	entries, err := load(p, EntriesKey, func() []relief.Entry {
		if s.seedEntries == nil {
			return nil
		}
		return s.seedEntries(s.now())
	})
	if err != nil {
		return nil, err
	}
	locations, err := load(p, LocationsKey, func() []relief.Location {
		return cloneLocations(s.seedLocations)
	})
	if err != nil {
		return nil, err
	}

	s.entries = entries
	s.locations = locations
	// Failed saves are logged; the repaired ids are written with the next mutation.
	if n := s.assignLocationIDs(s.locations); n > 0 {
		log.Printf("Assigned fresh ids to %d stored locations with empty or duplicate ids", n)
		_ = s.saveLocations()
	}
	if n := assignIDs(s.entries, nil, entryID, s.newID); n > 0 {
		log.Printf("Assigned fresh ids to %d stored entries with empty or duplicate ids", n)
		_ = s.saveEntries()
	}
	return s, nil
}

func load[T any](p Persister, key string, seed func() []T) ([]T, error) {
	data, err := p.Load(key)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}

	if data == nil {
		items := seed()
		if len(items) > 0 {
			log.Printf("No stored %s, seeding %d records", key, len(items))
			if err := save(p, key, items); err != nil {
				log.Printf("Seeding %s failed: %v", key, err)
			}
		}
		return items, nil
	}

	items, version, err := Decode[T](data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	if version < FormatVersion {
		log.Printf("Upgrading stored %s from format %d to %d", key, version, FormatVersion)
		if err := save(p, key, items); err != nil {
			log.Printf("Upgrading %s failed: %v", key, err)
		}
	}
	return items, nil
}

// Entries returns a copy of the entry collection, most recent first.
func (s *Store) Entries() []relief.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]relief.Entry{}, s.entries...)
}

// Entry returns the entry with the given id.
func (s *Store) Entry(id string) (relief.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.entryIndex(id); i >= 0 {
		return s.entries[i], true
	}
	return relief.Entry{}, false
}

// Locations returns a deep copy of the location collection.
func (s *Store) Locations() []relief.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLocations(s.locations)
}

// Location returns the location with the given id.
func (s *Store) Location(id string) (relief.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.locationIndex(id); i >= 0 {
		return s.locations[i].Clone(), true
	}
	return relief.Location{}, false
}

// AddEntries prepends entries, keeping their relative order. Entries without
// an id, or whose id is already taken, get a fresh one.
func (s *Store) AddEntries(entries ...relief.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	added := s.withUniqueIDs(entries, s.entries)
	s.entries = append(added, s.entries...)
	return s.saveEntries()
}

// AddManualEntry prepends a placeholder entry for the user to fill in.
func (s *Store) AddManualEntry() (relief.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := relief.Entry{
		ID:              s.newID(),
		Type:            relief.TypeNeed,
		Category:        ManualCategory,
		Item:            ManualItem,
		Quantity:        ManualQuantity,
		Location:        ManualLocation,
		ContactInfo:     ManualContact,
		Urgency:         relief.UrgencyMedium,
		Status:          relief.StatusPending,
		Timestamp:       s.now().UnixMilli(),
		OriginalMessage: ManualMessage,
	}
	s.entries = append([]relief.Entry{e}, s.entries...)
	return e, s.saveEntries()
}

// UpdateEntryStatus sets the status of an entry. The timestamp is not
// touched. Unknown ids are ignored.
func (s *Store) UpdateEntryStatus(id string, status relief.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.entryIndex(id)
	if i < 0 {
		return nil
	}
	s.entries[i].Status = status
	return s.saveEntries()
}

// EditEntry merges patch into an entry and refreshes its timestamp, even
// when the patch is empty. The new timestamp is always later than the old
// one. Unknown ids are ignored.
func (s *Store) EditEntry(id string, patch relief.EntryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.entryIndex(id)
	if i < 0 {
		return nil
	}
	e := &s.entries[i]
	patch.Apply(e)
	ts := s.now().UnixMilli()
	if ts <= e.Timestamp {
		ts = e.Timestamp + 1
	}
	e.Timestamp = ts
	return s.saveEntries()
}

// DeleteEntry removes an entry. Unknown ids are ignored.
func (s *Store) DeleteEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.entryIndex(id)
	if i < 0 {
		return nil
	}
	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	return s.saveEntries()
}

// ReplaceEntries swaps in a whole collection, e.g. from an import.
func (s *Store) ReplaceEntries(entries []relief.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.withUniqueIDs(entries, nil)
	return s.saveEntries()
}

// AddLocation prepends a new location with placeholder text, no contacts
// and an unspecified support state.
func (s *Store) AddLocation() (relief.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := relief.Location{
		ID:            s.newID(),
		Name:          NewLocationName,
		CurrentStatus: NewLocationStatusText,
		Contacts:      []relief.Contact{},
		NeedsSupport:  relief.Unspecified(),
	}
	s.locations = append([]relief.Location{l}, s.locations...)
	return l.Clone(), s.saveLocations()
}

// UpdateLocation merges patch into a location. Unknown ids are ignored.
func (s *Store) UpdateLocation(id string, patch relief.LocationPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.locationIndex(id)
	if i < 0 {
		return nil
	}
	patch.Apply(&s.locations[i])
	return s.saveLocations()
}

// DeleteLocation removes a location. Unknown ids are ignored.
func (s *Store) DeleteLocation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.locationIndex(id)
	if i < 0 {
		return nil
	}
	s.locations = append(s.locations[:i:i], s.locations[i+1:]...)
	return s.saveLocations()
}

// ReplaceLocations swaps in a whole collection, e.g. from an import.
// Locations with an empty or repeated id get a fresh one.
func (s *Store) ReplaceLocations(locations []relief.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := cloneLocations(locations)
	s.assignLocationIDs(out)
	s.locations = out
	return s.saveLocations()
}

// withUniqueIDs copies entries, giving a fresh id to any entry whose id is
// empty or already used by existing or by an earlier entry in the batch.
func (s *Store) withUniqueIDs(entries, existing []relief.Entry) []relief.Entry {
	out := append([]relief.Entry(nil), entries...)
	assignIDs(out, existing, entryID, s.newID)
	return out
}

func (s *Store) assignLocationIDs(locations []relief.Location) int {
	return assignIDs(locations, nil, locationID, s.newID)
}

func entryID(e *relief.Entry) *string       { return &e.ID }
func locationID(l *relief.Location) *string { return &l.ID }

// assignIDs rewrites, in place, every id in items that is empty or already
// used by existing or an earlier item. It returns how many were rewritten.
func assignIDs[T any](items, existing []T, id func(*T) *string, newID func() string) int {
	taken := make(map[string]struct{}, len(existing)+len(items))
	for i := range existing {
		taken[*id(&existing[i])] = struct{}{}
	}
	n := 0
	for i := range items {
		p := id(&items[i])
		if _, dup := taken[*p]; *p == "" || dup {
			*p = newID()
			n++
		}
		taken[*p] = struct{}{}
	}
	return n
}

func (s *Store) entryIndex(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) locationIndex(id string) int {
	for i := range s.locations {
		if s.locations[i].ID == id {
			return i
		}
	}
	return -1
}

// saveEntries and saveLocations must be called with mu held.
func (s *Store) saveEntries() error {
	if err := save(s.persist, EntriesKey, s.entries); err != nil {
		log.Printf("Saving entries failed: %v", err)
		return err
	}
	return nil
}

func (s *Store) saveLocations() error {
	if err := save(s.persist, LocationsKey, s.locations); err != nil {
		log.Printf("Saving locations failed: %v", err)
		return err
	}
	return nil
}

func cloneLocations(in []relief.Location) []relief.Location {
	if in == nil {
		return nil
	}
	out := make([]relief.Location, len(in))
	for i, l := range in {
		out[i] = l.Clone()
	}
	return out
}
