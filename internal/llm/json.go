package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("empty LLM response")

// StripCodeFence removes a markdown code fence wrapped around a response.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	endIdx := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}

// ParseJSONArray returns the elements of a JSON array response. The array may
// be the whole response, or the single array-valued field of an object such
// as {"entries": [...]}.
func ParseJSONArray(text string) ([]json.RawMessage, error) {
	text = StripCodeFence(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	if text[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(text), &items); err != nil {
			return nil, fmt.Errorf("parsing LLM response as JSON array: %w", err)
		}
		return items, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("parsing LLM response as JSON: %w", err)
	}
	var found []json.RawMessage
	arrays := 0
	for _, raw := range obj {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '[' {
			continue
		}
		arrays++
		if err := json.Unmarshal(raw, &found); err != nil {
			return nil, fmt.Errorf("parsing LLM response array: %w", err)
		}
	}
	if arrays != 1 {
		return nil, fmt.Errorf("expected one array in LLM response object, found %d", arrays)
	}
	return found, nil
}
