// Package extract turns free-text relief messages into board entries using
// an LLM with a fixed output schema.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/reliefboard/internal/config"
	"github.com/TobiSchelling/reliefboard/internal/llm"
	"github.com/TobiSchelling/reliefboard/internal/relief"
)

var (
	// ErrNoProvider is returned when no LLM provider is configured.
	ErrNoProvider = errors.New("no LLM provider configured")
	// ErrMalformedResponse is returned when the model's answer does not match
	// the entry schema.
	ErrMalformedResponse = errors.New("malformed extraction response")
)

const extractPrompt = `You are an emergency coordination assistant for relief work in %s.
Analyze the following unstructured text (likely forwarded from WhatsApp or WeChat).
The text may be in Cantonese, Traditional Chinese, or English.

Extract every specific need or offer. A single message might contain multiple items.
Return a JSON array of objects, one per item.

IMPORTANT:
1. All extracted text fields (category, item, quantity, location, contactInfo) MUST be in %s.
2. If the input is in another language, translate it to %s.
3. Use standard local terms where appropriate (e.g. 'Van仔' -> '客貨車', 'Lunch box' -> '便當/飯盒').

Input Text:
"%s"`

// requiredFields are the string fields every extracted item must carry.
var requiredFields = []string{"type", "category", "item", "quantity", "location", "contactInfo", "urgency"}

// EntrySchema is the response shape sent to the provider.
var EntrySchema = &llm.Schema{
	Type: llm.TypeArray,
	Items: &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"type": {
				Type:        llm.TypeString,
				Enum:        []string{string(relief.TypeNeed), string(relief.TypeOffer)},
				Description: "Whether the message is asking for help (NEED) or offering help (OFFER).",
			},
			"category": {
				Type:        llm.TypeString,
				Description: "Category of the item (e.g. 食品, 飲用水, 醫療, 交通, 衣物, 住宿).",
			},
			"item": {
				Type:        llm.TypeString,
				Description: "Specific item name (e.g. 睡袋, 必理痛, 便當).",
			},
			"quantity": {
				Type:        llm.TypeString,
				Description: "Amount or quantity mentioned (e.g. 50 盒, 2 人). Use '不明' if not specified.",
			},
			"location": {
				Type:        llm.TypeString,
				Description: "Specific location mentioned (e.g. 大埔墟站, 大埔體育館).",
			},
			"contactInfo": {
				Type:        llm.TypeString,
				Description: "Phone number, name, or social handle. Use '無' if not present.",
			},
			"urgency": {
				Type:        llm.TypeString,
				Enum:        []string{string(relief.UrgencyHigh), string(relief.UrgencyMedium), string(relief.UrgencyLow)},
				Description: "Urgency level based on context words ('Emergency', 'Urgent', 'Immediately' imply HIGH).",
			},
		},
		Required: requiredFields,
	},
}

// Options tune the extraction request.
type Options struct {
	TargetLanguage string
	RegionHint     string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
}

// OptionsFromConfig reads extraction options from the config.
func OptionsFromConfig(cfg config.Extraction) Options {
	return Options{
		TargetLanguage: cfg.TargetLanguage,
		RegionHint:     cfg.RegionHint,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		Timeout:        cfg.Timeout(),
	}
}

// Extractor converts text to entries.
type Extractor struct {
	provider llm.Provider
	opts     Options
	now      func() time.Time
	newID    func() string
}

// NewExtractor creates an extractor. provider may be nil, in which case
// every extraction fails with ErrNoProvider.
func NewExtractor(provider llm.Provider, opts Options) *Extractor {
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = "Traditional Chinese (Hong Kong)"
	}
	if opts.RegionHint == "" {
		opts.RegionHint = "Tai Po, Hong Kong"
	}
	return &Extractor{
		provider: provider,
		opts:     opts,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Extract asks the model for the needs and offers in text. The returned
// entries are new records: fresh ids, PENDING, stamped now, with text as
// their original message. On any failure no entries are returned; a partly
// valid response is rejected whole. Blank text yields no entries and no call.
func (x *Extractor) Extract(ctx context.Context, text string) ([]relief.Entry, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if x.provider == nil {
		return nil, ErrNoProvider
	}

	if x.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.opts.Timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(extractPrompt, x.opts.RegionHint, x.opts.TargetLanguage, x.opts.TargetLanguage, text)
	responseText, err := x.provider.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Schema:      EntrySchema,
		Temperature: x.opts.Temperature,
		MaxTokens:   x.opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction via %s: %w", x.provider.Name(), err)
	}

	entries, err := x.parse(responseText, text)
	if err != nil {
		return nil, err
	}
	log.Printf("Extracted %d entries via %s", len(entries), x.provider.Name())
	return entries, nil
}

func (x *Extractor) parse(responseText, original string) ([]relief.Entry, error) {
	items, err := llm.ParseJSONArray(responseText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	now := x.now().UnixMilli()
	entries := make([]relief.Entry, 0, len(items))
	for i, raw := range items {
		fields, err := decodeItem(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformedResponse, i, err)
		}
		e := relief.Entry{
			ID:              x.newID(),
			Type:            relief.EntryType(fields["type"]),
			Category:        fields["category"],
			Item:            fields["item"],
			Quantity:        fields["quantity"],
			Location:        fields["location"],
			ContactInfo:     fields["contactInfo"],
			Urgency:         relief.Urgency(fields["urgency"]),
			Status:          relief.StatusPending,
			Timestamp:       now,
			OriginalMessage: original,
		}
		if !e.Type.IsValid() {
			return nil, fmt.Errorf("%w: item %d: unknown type %q", ErrMalformedResponse, i, e.Type)
		}
		if !e.Urgency.IsValid() {
			return nil, fmt.Errorf("%w: item %d: unknown urgency %q", ErrMalformedResponse, i, e.Urgency)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// decodeItem reads the required string fields of one response item.
func decodeItem(raw json.RawMessage) (map[string]string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("not an object")
	}
	fields := make(map[string]string, len(requiredFields))
	for _, name := range requiredFields {
		v, ok := obj[name]
		if !ok || string(v) == "null" {
			return nil, fmt.Errorf("missing %q", name)
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("field %q is not a string", name)
		}
		fields[name] = s
	}
	return fields, nil
}
