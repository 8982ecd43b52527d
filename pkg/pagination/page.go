package pagination

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Shape identifies how a collection response carries its items. The
// API is inconsistent across resource types, so the walker decodes the
// body polymorphically into an explicit three-variant result instead
// of guessing from schema knowledge.
type Shape int

const (
	// ShapeList is a bare JSON array of items.
	ShapeList Shape = iota

	// ShapeEnvelope is an object exposing a "value" array of items.
	ShapeEnvelope

	// ShapeSingle is one bare object; the endpoint is not paginated.
	ShapeSingle
)

// Page is one decoded collection response.
type Page struct {
	Shape Shape
	Items []json.RawMessage
}

// DecodePage interprets a response body as one of the three collection
// shapes. An empty body decodes as an empty list page.
func DecodePage(body []byte) (Page, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Page{Shape: ShapeList}, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page{}, fmt.Errorf("decode item array: %w", err)
		}
		return Page{Shape: ShapeList, Items: items}, nil
	}

	if trimmed[0] != '{' {
		return Page{}, fmt.Errorf("unexpected collection body starting with %q", trimmed[0])
	}

	var envelope struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return Page{}, fmt.Errorf("decode collection body: %w", err)
	}

	if inner := bytes.TrimSpace(envelope.Value); len(inner) > 0 && inner[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(inner, &items); err != nil {
			return Page{}, fmt.Errorf("decode value array: %w", err)
		}
		return Page{Shape: ShapeEnvelope, Items: items}, nil
	}

	return Page{Shape: ShapeSingle, Items: []json.RawMessage{trimmed}}, nil
}

// itemID extracts an item's identifier: the first string-valued field
// (in sorted field order, "id" itself winning outright) whose name
// ends in "id". The walker is schema-agnostic, so extraction is
// best-effort; ok=false means the item has no recognizable identifier.
func itemID(item json.RawMessage) (string, bool) {
	var fields map[string]any
	if err := json.Unmarshal(item, &fields); err != nil {
		return "", false
	}

	if id, ok := fields["id"].(string); ok {
		return id, true
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !strings.HasSuffix(strings.ToLower(name), "id") {
			continue
		}
		if id, ok := fields[name].(string); ok {
			return id, true
		}
	}

	return "", false
}
