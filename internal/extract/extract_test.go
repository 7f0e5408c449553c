package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/reliefboard/internal/llm"
	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/store"
)

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	response string
	err      error
	calls    int
	last     llm.Request
}

func (m *mockProvider) Generate(_ context.Context, req llm.Request) (string, error) {
	m.calls++
	m.last = req
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }
func (m *mockProvider) Name() string       { return "mock" }

func newTestExtractor(p llm.Provider) *Extractor {
	x := NewExtractor(p, Options{Temperature: 0.1, MaxTokens: 1024})
	x.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	n := 0
	x.newID = func() string {
		n++
		return fmt.Sprintf("x-%d", n)
	}
	return x
}

func itemJSON(t *testing.T, overrides map[string]any) string {
	t.Helper()
	item := map[string]any{
		"type":        "NEED",
		"category":    "食品",
		"item":        "便當",
		"quantity":    "50 份",
		"location":    "大埔體育館",
		"contactInfo": "陳社工 9123 4567",
		"urgency":     "HIGH",
	}
	for k, v := range overrides {
		if v == nil {
			delete(item, k)
			continue
		}
		item[k] = v
	}
	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestExtractSynthesizesLocalFields(t *testing.T) {
	resp := "[" + itemJSON(t, nil) + "," + itemJSON(t, map[string]any{"type": "OFFER", "urgency": "LOW", "item": "客貨車"}) + "]"
	p := &mockProvider{response: resp}
	x := newTestExtractor(p)

	msg := "急！避難中心缺50個便當\n另有客貨車可以幫手"
	entries, err := x.Extract(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	want := relief.Entry{
		ID: "x-1", Type: relief.TypeNeed, Category: "食品", Item: "便當", Quantity: "50 份",
		Location: "大埔體育館", ContactInfo: "陳社工 9123 4567", Urgency: relief.UrgencyHigh,
		Status: relief.StatusPending, Timestamp: 1_700_000_000_000, OriginalMessage: msg,
	}
	if !reflect.DeepEqual(entries[0], want) {
		t.Errorf("unexpected entry:\n got %+v\nwant %+v", entries[0], want)
	}
	if entries[1].ID == entries[0].ID {
		t.Error("expected distinct ids")
	}
	if entries[1].Type != relief.TypeOffer || entries[1].OriginalMessage != msg {
		t.Errorf("unexpected second entry %+v", entries[1])
	}
}

func TestExtractSendsSchemaAndPrompt(t *testing.T) {
	p := &mockProvider{response: "[]"}
	x := newTestExtractor(p)
	x.opts.TargetLanguage = "Traditional Chinese"

	if _, err := x.Extract(context.Background(), "Need 5 sleeping bags at Tai Po Hall"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.last.Schema != EntrySchema {
		t.Error("expected entry schema on the request")
	}
	if p.last.Temperature != 0.1 || p.last.MaxTokens != 1024 {
		t.Errorf("unexpected request tuning %+v", p.last)
	}
	if !strings.Contains(p.last.Prompt, "Need 5 sleeping bags at Tai Po Hall") {
		t.Error("expected input text in prompt")
	}
	if !strings.Contains(p.last.Prompt, "MUST be in Traditional Chinese") {
		t.Error("expected target language in prompt")
	}
}

func TestExtractBlankInputMakesNoCall(t *testing.T) {
	p := &mockProvider{response: "[]"}
	entries, err := newTestExtractor(p).Extract(context.Background(), "  \n\t")
	if err != nil || entries != nil {
		t.Errorf("expected no-op, got %v, %v", entries, err)
	}
	if p.calls != 0 {
		t.Errorf("expected no provider call, got %d", p.calls)
	}
}

func TestExtractNoProvider(t *testing.T) {
	x := NewExtractor(nil, Options{})
	entries, err := x.Extract(context.Background(), "hello")
	if !errors.Is(err, ErrNoProvider) || len(entries) != 0 {
		t.Errorf("expected ErrNoProvider and no entries, got %v, %v", entries, err)
	}
}

func TestExtractFailsClosed(t *testing.T) {
	cases := map[string]*mockProvider{
		"remote error":   {err: errors.New("connection reset")},
		"not json":       {response: "I could not find any items."},
		"missing field":  {response: "[" + itemJSON(t, nil) + "," + itemJSON(t, map[string]any{"contactInfo": nil}) + "]"},
		"null field":     {response: "[" + itemJSON(t, map[string]any{"location": json.RawMessage("null")}) + "]"},
		"bad type":       {response: "[" + itemJSON(t, map[string]any{"type": "REQUEST"}) + "]"},
		"bad urgency":    {response: "[" + itemJSON(t, map[string]any{"urgency": "CRITICAL"}) + "]"},
		"number field":   {response: "[" + itemJSON(t, map[string]any{"quantity": 50}) + "]"},
		"non-object":     {response: `["便當"]`},
		"truncated json": {response: "[" + itemJSON(t, nil)},
	}
	for name, p := range cases {
		entries, err := newTestExtractor(p).Extract(context.Background(), "急！缺便當")
		if err == nil {
			t.Errorf("%s: expected error", name)
		}
		if len(entries) != 0 {
			t.Errorf("%s: expected no entries, got %d", name, len(entries))
		}
		if p.err == nil && !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("%s: expected ErrMalformedResponse, got %v", name, err)
		}
	}
}

func TestExtractAcceptsWrappedArrayAndOtherLanguages(t *testing.T) {
	resp := `{"entries": [` + itemJSON(t, map[string]any{"item": "sleeping bags", "category": "bedding"}) + `]}`
	entries, err := newTestExtractor(&mockProvider{response: resp}).Extract(context.Background(), "need sleeping bags")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Item != "sleeping bags" {
		t.Errorf("expected text passed through untouched, got %+v", entries)
	}
}

func TestExtractFailureLeavesStoreUnchanged(t *testing.T) {
	s, err := store.Open(store.NewMemoryPersister())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s.AddEntries(relief.Entry{ID: "keep", Type: relief.TypeNeed, Urgency: relief.UrgencyLow, Status: relief.StatusPending})
	before := s.Entries()

	r := NewRunner(newTestExtractor(&mockProvider{err: errors.New("timeout")}), s)
	entries, err := r.Submit(context.Background(), "急！缺便當")
	if err == nil || len(entries) != 0 {
		t.Fatalf("expected failure with no entries, got %v, %v", entries, err)
	}
	if !reflect.DeepEqual(before, s.Entries()) {
		t.Error("expected store unchanged after failed extraction")
	}
}
