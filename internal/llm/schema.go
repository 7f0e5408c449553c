package llm

import (
	"encoding/json"
	"strings"
)

// Type is a JSON schema value type.
type Type string

const (
	TypeArray  Type = "array"
	TypeObject Type = "object"
	TypeString Type = "string"
)

// Schema describes the JSON a provider must return. It covers the subset of
// JSON Schema that every provider understands.
type Schema struct {
	Type        Type
	Description string
	Enum        []string
	Items       *Schema
	Properties  map[string]*Schema
	Required    []string
}

// JSONSchema renders the schema in standard JSON Schema form.
func (s *Schema) JSONSchema() map[string]any {
	return s.render(func(t Type) string { return string(t) })
}

// geminiSchema renders the schema in Gemini's OpenAPI form (upper-case types).
func (s *Schema) geminiSchema() map[string]any {
	return s.render(func(t Type) string { return strings.ToUpper(string(t)) })
}

func (s *Schema) render(typeName func(Type) string) map[string]any {
	m := map[string]any{"type": typeName(s.Type)}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		m["enum"] = s.Enum
	}
	if s.Items != nil {
		m["items"] = s.Items.render(typeName)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.render(typeName)
		}
		m["properties"] = props
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	return m
}

// promptWithSchema appends the schema to a prompt for providers that cannot
// take it as a request parameter.
func promptWithSchema(req Request) string {
	if req.Schema == nil {
		return req.Prompt
	}
	data, err := json.MarshalIndent(req.Schema.JSONSchema(), "", "  ")
	if err != nil {
		return req.Prompt
	}
	return req.Prompt + "\n\nRespond with JSON only, no markdown, matching this JSON Schema:\n" + string(data)
}
