package relief

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidSupportState is returned when needs_support holds something other
// than true, false, a string or null.
var ErrInvalidSupportState = errors.New("invalid needs_support value")

// SupportKind enumerates the four cases of a site's support state.
type SupportKind int

const (
	SupportUnspecified SupportKind = iota
	SupportSufficient
	SupportPending
	SupportUrgent
)

func (k SupportKind) String() string {
	switch k {
	case SupportSufficient:
		return "sufficient"
	case SupportPending:
		return "pending"
	case SupportUrgent:
		return "urgent"
	default:
		return "unspecified"
	}
}

// DefaultPendingLabel is the label given to a pending state entered without
// one, and shown for stored pending states whose label is empty.
const DefaultPendingLabel = "Pending"

// SupportState is whether a relief site needs support. On the wire it is
// true (urgent), false (sufficient), a label string (pending) or null.
// The zero value is Unspecified.
type SupportState struct {
	kind  SupportKind
	label string
}

func Urgent() SupportState      { return SupportState{kind: SupportUrgent} }
func Sufficient() SupportState  { return SupportState{kind: SupportSufficient} }
func Unspecified() SupportState { return SupportState{} }

// Pending returns a pending state with the given label, kept verbatim so a
// stored "" reads back as "".
func Pending(label string) SupportState {
	return SupportState{kind: SupportPending, label: label}
}

func (s SupportState) Kind() SupportKind { return s.kind }

// Label is the pending label; empty for the other kinds.
func (s SupportState) Label() string { return s.label }

// Priority is the board sort key: urgent 4, pending 3, unspecified 2,
// sufficient 1.
func (s SupportState) Priority() int {
	switch s.kind {
	case SupportUrgent:
		return 4
	case SupportPending:
		return 3
	case SupportSufficient:
		return 1
	default:
		return 2
	}
}

func (s SupportState) String() string {
	if s.kind == SupportPending {
		return s.label
	}
	return s.kind.String()
}

func (s SupportState) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case SupportUrgent:
		return []byte("true"), nil
	case SupportSufficient:
		return []byte("false"), nil
	case SupportPending:
		return json.Marshal(s.label)
	default:
		return []byte("null"), nil
	}
}

func (s *SupportState) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = Unspecified()
	case bytes.Equal(data, []byte("true")):
		*s = Urgent()
	case bytes.Equal(data, []byte("false")):
		*s = Sufficient()
	case len(data) > 0 && data[0] == '"':
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSupportState, err)
		}
		*s = Pending(label)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidSupportState, data)
	}
	return nil
}

// ParseSupportState reads the CLI/form spelling of a support state:
// "true"/"urgent", "false"/"sufficient", "null"/"unspecified"/"", and
// anything else as a pending label.
func ParseSupportState(s string) SupportState {
	switch s {
	case "true", "urgent":
		return Urgent()
	case "false", "sufficient":
		return Sufficient()
	case "", "null", "unspecified":
		return Unspecified()
	case "pending":
		return Pending(DefaultPendingLabel)
	default:
		return Pending(s)
	}
}
