package pos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// NormalizeList coerces a list-shaped parameter into its elements. The value may be
// a JSON array or a string holding an encoded array; anything else yields no elements.
// A string that is not valid JSON is the only failure.
func NormalizeList(param string, raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []json.RawMessage{}, nil
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: could not parse '%s' as JSON: %v", httpx.ErrValidation, param, err)
		}
		if items == nil {
			items = []json.RawMessage{}
		}
		return items, nil
	case '"':
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return nil, fmt.Errorf("%w: could not parse '%s' as JSON: %v", httpx.ErrValidation, param, err)
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			return []json.RawMessage{}, nil
		}
		var decoded json.RawMessage
		if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
			return nil, fmt.Errorf("%w: could not parse '%s' as JSON: %v", httpx.ErrValidation, param, err)
		}
		if d := bytes.TrimSpace(decoded); len(d) == 0 || d[0] != '[' {
			return []json.RawMessage{}, nil
		}
		return NormalizeList(param, decoded)
	default:
		return []json.RawMessage{}, nil
	}
}
