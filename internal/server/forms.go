package server

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/TobiSchelling/reliefboard/internal/relief"
)

// formString returns a pointer to the trimmed form value, or nil when the
// field was not posted at all.
func formString(form url.Values, key string) *string {
	if _, ok := form[key]; !ok {
		return nil
	}
	v := strings.TrimSpace(form.Get(key))
	return &v
}

// entryPatchFromForm builds an edit from the posted fields. Fields that are
// absent stay untouched.
func entryPatchFromForm(form url.Values) (relief.EntryPatch, error) {
	p := relief.EntryPatch{
		Category:    formString(form, "category"),
		Item:        formString(form, "item"),
		Quantity:    formString(form, "quantity"),
		Location:    formString(form, "location"),
		ContactInfo: formString(form, "contactInfo"),
		Notes:       formString(form, "notes"),
	}
	if v := formString(form, "type"); v != nil {
		t := relief.EntryType(strings.ToUpper(*v))
		if !t.IsValid() {
			return p, fmt.Errorf("invalid type %q", *v)
		}
		p.Type = &t
	}
	if v := formString(form, "urgency"); v != nil {
		u := relief.Urgency(strings.ToUpper(*v))
		if !u.IsValid() {
			return p, fmt.Errorf("invalid urgency %q", *v)
		}
		p.Urgency = &u
	}
	return p, nil
}

// locationPatchFromForm builds a location update. Contacts are posted one
// per line as "name | phone | note"; needed items one per line or comma
// separated. A pending support state takes its label from pending_label.
func locationPatchFromForm(form url.Values) relief.LocationPatch {
	p := relief.LocationPatch{
		Name:          formString(form, "location_name"),
		CurrentStatus: formString(form, "current_status"),
	}
	if v := formString(form, "contacts"); v != nil {
		contacts := relief.ParseContacts(*v)
		p.Contacts = &contacts
	}
	if v := formString(form, "needed_items"); v != nil {
		items := relief.ParseList(*v)
		p.NeededItems = &items
	}
	if v := formString(form, "needs_support"); v != nil {
		var state relief.SupportState
		if *v == "pending" {
			label := strings.TrimSpace(form.Get("pending_label"))
			if label == "" {
				label = relief.DefaultPendingLabel
			}
			state = relief.Pending(label)
		} else {
			state = relief.ParseSupportState(*v)
		}
		p.NeedsSupport = &state
	}
	return p
}

func contactLines(contacts []relief.Contact) string {
	lines := make([]string, len(contacts))
	for i, c := range contacts {
		lines[i] = relief.FormatContact(c)
	}
	return strings.Join(lines, "\n")
}

func itemLines(items []string) string {
	return strings.Join(items, "\n")
}

// supportValue is the select option for a support state.
func supportValue(s relief.SupportState) string {
	return s.Kind().String()
}

// boardURL links back to the board keeping the encoded filter query, with
// key set to value when key is not empty.
func boardURL(query, key, value string) template.URL {
	q, _ := url.ParseQuery(query)
	if key != "" {
		q.Set(key, value)
	}
	if len(q) == 0 {
		return "/"
	}
	return template.URL("/?" + q.Encode())
}
