package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeIsTotal(t *testing.T) {
	for _, in := range []string{"pt", "PT-MZ", "pt_br", "en", "", "   ", "zz-ZZ", "English", "pt-mz", " pt_PT "} {
		assert.Equal(t, Default, Canonicalize(in), "input %q", in)
	}
}

func TestResolverFromConfig(t *testing.T) {
	r, err := NewResolver("pt-mz", []string{"pt-MZ", "en-US"})
	require.NoError(t, err)

	assert.Equal(t, Code("pt-MZ"), r.Default())
	assert.Equal(t, Code("en-US"), r.Canonicalize("EN-us"))
	assert.Equal(t, Code("pt-MZ"), r.Canonicalize("fr-FR"))
	// Aliases still point at pt-MZ.
	assert.Equal(t, Code("pt-MZ"), r.Canonicalize("en"))
	assert.True(t, r.Supported("en-US"))
	assert.False(t, r.Supported("fr-FR"))
}

func TestAliasOutsideSupportedSetIsRejectable(t *testing.T) {
	r, err := NewResolver("en-US", []string{"en-US"})
	require.NoError(t, err)

	code := r.Canonicalize("pt_br")
	assert.Equal(t, Code("pt-MZ"), code)
	assert.False(t, r.Supported(code))
}

func TestNewResolverValidation(t *testing.T) {
	_, err := NewResolver("pt-MZ", nil)
	assert.Error(t, err)

	_, err = NewResolver("pt-MZ", []string{"not a tag!"})
	assert.Error(t, err)

	_, err = NewResolver("fr-FR", []string{"pt-MZ"})
	assert.Error(t, err)
}
