package relief

import "strings"

// ParseContact reads a "name | phone | note" line. Missing parts are left
// empty.
func ParseContact(s string) Contact {
	parts := strings.SplitN(s, "|", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var c Contact
	c.Name = parts[0]
	if len(parts) > 1 {
		c.Phone = parts[1]
	}
	if len(parts) > 2 {
		c.Note = parts[2]
	}
	return c
}

// FormatContact is the inverse of ParseContact.
func FormatContact(c Contact) string {
	s := c.Name + " | " + c.Phone
	if c.Note != "" {
		s += " | " + c.Note
	}
	return s
}

// ParseContacts reads one contact per non-blank line.
func ParseContacts(text string) []Contact {
	contacts := []Contact{}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		contacts = append(contacts, ParseContact(line))
	}
	return contacts
}

// ParseList splits a list of short items on newlines, commas and the
// ideographic comma, dropping blanks.
func ParseList(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ',' || r == '，' || r == '、'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
