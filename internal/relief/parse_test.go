package relief

import (
	"reflect"
	"testing"
)

func TestParseContact(t *testing.T) {
	cases := []struct {
		in   string
		want Contact
	}{
		{"Gigi | 64924846", Contact{Name: "Gigi", Phone: "64924846"}},
		{"Mandy|51839582|Raydan轉介", Contact{Name: "Mandy", Phone: "51839582", Note: "Raydan轉介"}},
		{"陳社工", Contact{Name: "陳社工"}},
		{"a | b | note | with | pipes", Contact{Name: "a", Phone: "b", Note: "note | with | pipes"}},
	}
	for _, c := range cases {
		if got := ParseContact(c.in); got != c.want {
			t.Errorf("ParseContact(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestFormatContactRoundTrip(t *testing.T) {
	for _, c := range []Contact{{Name: "Gigi", Phone: "64924846"}, {Name: "Mandy", Phone: "5183", Note: "driver"}} {
		if got := ParseContact(FormatContact(c)); got != c {
			t.Errorf("round trip of %+v gave %+v", c, got)
		}
	}
}

func TestParseContactsSkipsBlankLines(t *testing.T) {
	got := ParseContacts("Gigi | 1\n\n  \nMandy | 2\n")
	want := []Contact{{Name: "Gigi", Phone: "1"}, {Name: "Mandy", Phone: "2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v", got)
	}
	if got := ParseContacts(""); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestParseList(t *testing.T) {
	got := ParseList("紙箱、膠紙, 水\n\n 毛巾 ，口罩")
	want := []string{"紙箱", "膠紙", "水", "毛巾", "口罩"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if ParseList("  ") != nil {
		t.Error("expected nil for blank input")
	}
}
