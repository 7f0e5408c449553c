package relief

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestSupportStateMarshal(t *testing.T) {
	cases := []struct {
		state SupportState
		want  string
	}{
		{Urgent(), "true"},
		{Sufficient(), "false"},
		{Unspecified(), "null"},
		{Pending("Pending (稍後需要車手)"), `"Pending (稍後需要車手)"`},
	}
	for _, c := range cases {
		data, err := json.Marshal(c.state)
		if err != nil {
			t.Fatalf("marshal %v: %v", c.state, err)
		}
		if string(data) != c.want {
			t.Errorf("expected %s, got %s", c.want, data)
		}
	}
}

func TestSupportStateUnmarshal(t *testing.T) {
	var loc Location
	raw := `{"id":"loc-4","location_name":"那打素醫院","current_status":"x","contacts":[],"needs_support":"Pending (稍後需要車手拎藥落區)"}`
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if loc.NeedsSupport.Kind() != SupportPending {
		t.Fatalf("expected pending, got %v", loc.NeedsSupport.Kind())
	}
	if loc.NeedsSupport.Label() != "Pending (稍後需要車手拎藥落區)" {
		t.Errorf("unexpected label %q", loc.NeedsSupport.Label())
	}

	// Missing field keeps the zero value.
	var bare Location
	if err := json.Unmarshal([]byte(`{"id":"x"}`), &bare); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if bare.NeedsSupport.Kind() != SupportUnspecified {
		t.Errorf("expected unspecified, got %v", bare.NeedsSupport.Kind())
	}
}

func TestSupportStateRejectsNumbers(t *testing.T) {
	var s SupportState
	err := json.Unmarshal([]byte("1"), &s)
	if !errors.Is(err, ErrInvalidSupportState) {
		t.Errorf("expected ErrInvalidSupportState, got %v", err)
	}
}

func TestSupportStatePriority(t *testing.T) {
	if !(Urgent().Priority() > Pending("x").Priority() &&
		Pending("x").Priority() > Unspecified().Priority() &&
		Unspecified().Priority() > Sufficient().Priority()) {
		t.Error("expected urgent > pending > unspecified > sufficient")
	}
}

func TestPendingEmptyLabelRoundTrip(t *testing.T) {
	var s SupportState
	if err := json.Unmarshal([]byte(`""`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Kind() != SupportPending || s.Label() != "" {
		t.Fatalf("expected pending with empty label, got %v %q", s.Kind(), s.Label())
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `""` {
		t.Errorf("expected empty label preserved, got %s", data)
	}
}

func TestParseSupportState(t *testing.T) {
	cases := map[string]SupportState{
		"true":        Urgent(),
		"urgent":      Urgent(),
		"false":       Sufficient(),
		"":            Unspecified(),
		"null":        Unspecified(),
		"pending":     Pending(DefaultPendingLabel),
		"稍後需要車手": Pending("稍後需要車手"),
	}
	for in, want := range cases {
		if got := ParseSupportState(in); got != want {
			t.Errorf("ParseSupportState(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLocationRoundTrip(t *testing.T) {
	in := []Location{
		{ID: "a", Name: "A", CurrentStatus: "ok", Contacts: []Contact{{Name: "Mandy", Phone: "51839582", Note: "Raydan轉介"}}, NeedsSupport: Urgent(), NeededItems: []string{"牙刷"}},
		{ID: "b", Name: "B", Contacts: []Contact{}, NeedsSupport: Pending("later")},
		{ID: "c", Name: "C", Contacts: []Contact{}, NeedsSupport: Sufficient()},
		{ID: "d", Name: "D", Contacts: []Contact{}},
		{ID: "e", Name: "E", Contacts: []Contact{}, NeedsSupport: Pending("")},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out []Location
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}
