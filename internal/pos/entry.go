package pos

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Entry is one element of a child-collection parameter: either a StructuredEntry
// or an IdentifierOnly.
type Entry interface {
	entry()
}

// StructuredEntry is an object element such as {"mode_of_payment":"Cash","default":1}.
type StructuredEntry map[string]json.RawMessage

// IdentifierOnly is a bare string element such as "Cash".
type IdentifierOnly string

func (StructuredEntry) entry() {}
func (IdentifierOnly) entry()  {}

// ParseEntry classifies a list element. Elements that are neither objects nor
// strings are reported as not ok.
func ParseEntry(raw json.RawMessage) (Entry, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}
	switch trimmed[0] {
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, false
		}
		return StructuredEntry(fields), true
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, false
		}
		return IdentifierOnly(s), true
	}
	return nil, false
}

// String returns a string field, or "" when absent or not a string.
func (e StructuredEntry) String(key string) string {
	raw, ok := e[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// Flag reads a check-box style field. Booleans, numbers and their string forms are
// accepted; anything else falls back to def.
func (e StructuredEntry) Flag(key string, def bool) bool {
	raw, ok := e[key]
	if !ok {
		return def
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f != 0
		}
	}
	return def
}
