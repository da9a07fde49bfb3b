// Package locale resolves user language preferences to the locales the POS supports.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Code is a language-region tag such as pt-MZ.
type Code string

// Default is the locale used when nothing better is known.
const Default Code = "pt-MZ"

// aliases maps lower-cased spellings seen from browsers and older clients.
var aliases = map[string]Code{
	"pt":      "pt-MZ",
	"pt-mz":   "pt-MZ",
	"pt_mz":   "pt-MZ",
	"pt-br":   "pt-MZ",
	"pt_br":   "pt-MZ",
	"pt-pt":   "pt-MZ",
	"pt_pt":   "pt-MZ",
	"en":      "pt-MZ",
	"english": "pt-MZ",
}

// Resolver canonicalizes free-form locale strings against a supported set.
type Resolver struct {
	fallback  Code
	supported map[string]Code
}

var standard = &Resolver{fallback: Default, supported: map[string]Code{"pt-mz": Default}}

// NewResolver validates the configured locales. fallback must be one of supported.
func NewResolver(fallback string, supported []string) (*Resolver, error) {
	r := &Resolver{supported: make(map[string]Code, len(supported))}
	for _, raw := range supported {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		tag, err := language.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("locale: invalid supported locale %q: %w", raw, err)
		}
		code := Code(tag.String())
		r.supported[strings.ToLower(string(code))] = code
	}
	if len(r.supported) == 0 {
		return nil, fmt.Errorf("locale: at least one supported locale required")
	}
	def, ok := r.supported[strings.ToLower(strings.TrimSpace(fallback))]
	if !ok {
		return nil, fmt.Errorf("locale: default %q is not in the supported set", fallback)
	}
	r.fallback = def
	return r, nil
}

// Canonicalize maps input to a supported code using the built-in pt-MZ set.
func Canonicalize(input string) Code {
	return standard.Canonicalize(input)
}

// Canonicalize never fails: unknown or empty input yields the default locale.
func (r *Resolver) Canonicalize(input string) Code {
	value := strings.ToLower(strings.TrimSpace(input))
	if value == "" {
		return r.fallback
	}
	if code, ok := aliases[value]; ok {
		return code
	}
	if code, ok := r.supported[value]; ok {
		return code
	}
	return r.fallback
}

// Supported reports whether code belongs to the supported set.
func (r *Resolver) Supported(code Code) bool {
	got, ok := r.supported[strings.ToLower(string(code))]
	return ok && got == code
}

// Default returns the fallback locale.
func (r *Resolver) Default() Code {
	return r.fallback
}
