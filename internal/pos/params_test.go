package pos

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

func rawStrings(t *testing.T, items []json.RawMessage) []string {
	t.Helper()
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		require.NoError(t, json.Unmarshal(item, &s))
		out = append(out, s)
	}
	return out
}

func TestNormalizeList(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"encoded list", `"[\"a\",\"b\"]"`, []string{"a", "b"}},
		{"empty string", `""`, []string{}},
		{"blank string", `"   "`, []string{}},
		{"native list", `["a"]`, []string{"a"}},
		{"number", `42`, []string{}},
		{"object", `{"a":1}`, []string{}},
		{"null", `null`, []string{}},
		{"missing", ``, []string{}},
		{"encoded non-list", `"{\"a\":1}"`, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeList("payments", json.RawMessage(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, rawStrings(t, got))
		})
	}
}

func TestNormalizeListRejectsMalformedString(t *testing.T) {
	_, err := NormalizeList("item_groups", json.RawMessage(`"not json"`))
	require.Error(t, err)
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "could not parse 'item_groups' as JSON")
}

func TestNormalizeListIsIdempotent(t *testing.T) {
	first, err := NormalizeList("payments", json.RawMessage(`"[\"Cash\",{\"mode_of_payment\":\"Card\"}]"`))
	require.NoError(t, err)
	encoded, err := json.Marshal(first)
	require.NoError(t, err)

	second, err := NormalizeList("payments", encoded)
	require.NoError(t, err)
	require.Len(t, second, 2)
	for i := range first {
		assert.JSONEq(t, string(first[i]), string(second[i]))
	}
}
