package relief

import "time"

// EntryType says whether an entry asks for help or offers it.
type EntryType string

const (
	TypeNeed  EntryType = "NEED"
	TypeOffer EntryType = "OFFER"
)

func (t EntryType) IsValid() bool {
	return t == TypeNeed || t == TypeOffer
}

// Urgency is the priority tier of an entry.
type Urgency string

const (
	UrgencyHigh   Urgency = "HIGH"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyLow    Urgency = "LOW"
)

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}

// Rank orders urgency tiers for sorting. Unknown values rank as LOW.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	default:
		return 1
	}
}

// Status is the lifecycle state of an entry.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Entry is a single need or offer.
type Entry struct {
	ID              string    `json:"id"`
	Type            EntryType `json:"type"`
	Category        string    `json:"category"`
	Item            string    `json:"item"`
	Quantity        string    `json:"quantity"`
	Location        string    `json:"location"`
	ContactInfo     string    `json:"contactInfo"`
	Urgency         Urgency   `json:"urgency"`
	Status          Status    `json:"status"`
	Timestamp       int64     `json:"timestamp"` // epoch milliseconds
	OriginalMessage string    `json:"originalMessage"`
	Notes           string    `json:"notes,omitempty"`
}

// Time returns the entry timestamp as a time.Time.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Active reports whether the entry still needs attention.
func (e Entry) Active() bool {
	return e.Status != StatusCompleted
}

// EntryPatch holds the fields an edit may change. Nil fields are left alone.
// ID and Timestamp are never patched.
type EntryPatch struct {
	Type            *EntryType
	Category        *string
	Item            *string
	Quantity        *string
	Location        *string
	ContactInfo     *string
	Urgency         *Urgency
	Status          *Status
	OriginalMessage *string
	Notes           *string
}

// Apply merges the patch into e.
func (p EntryPatch) Apply(e *Entry) {
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Item != nil {
		e.Item = *p.Item
	}
	if p.Quantity != nil {
		e.Quantity = *p.Quantity
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.ContactInfo != nil {
		e.ContactInfo = *p.ContactInfo
	}
	if p.Urgency != nil {
		e.Urgency = *p.Urgency
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.OriginalMessage != nil {
		e.OriginalMessage = *p.OriginalMessage
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
}

// Contact is a person reachable at a relief site.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Note  string `json:"note,omitempty"`
}

// Location is a relief site's entry on the status board.
type Location struct {
	ID            string       `json:"id"`
	Name          string       `json:"location_name"`
	CurrentStatus string       `json:"current_status"`
	Contacts      []Contact    `json:"contacts"`
	NeedsSupport  SupportState `json:"needs_support"`
	NeededItems   []string     `json:"needed_items,omitempty"`
}

// LocationPatch holds the fields a location update may change.
type LocationPatch struct {
	Name          *string
	CurrentStatus *string
	Contacts      *[]Contact
	NeedsSupport  *SupportState
	NeededItems   *[]string
}

// Apply merges the patch into l. Slices are copied so the caller keeps
// ownership of what it passed in.
func (p LocationPatch) Apply(l *Location) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.CurrentStatus != nil {
		l.CurrentStatus = *p.CurrentStatus
	}
	if p.Contacts != nil {
		l.Contacts = append([]Contact{}, (*p.Contacts)...)
	}
	if p.NeedsSupport != nil {
		l.NeedsSupport = *p.NeedsSupport
	}
	if p.NeededItems != nil {
		if len(*p.NeededItems) == 0 {
			l.NeededItems = nil
		} else {
			l.NeededItems = append([]string{}, (*p.NeededItems)...)
		}
	}
}

// Clone returns a deep copy of the location.
func (l Location) Clone() Location {
	c := l
	if l.Contacts != nil {
		c.Contacts = append([]Contact{}, l.Contacts...)
	}
	if l.NeededItems != nil {
		c.NeededItems = append([]string{}, l.NeededItems...)
	}
	return c
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }
