package roomcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := New()
		require.NoError(t, err)
		assert.True(t, Valid(code), "generated code %q is not valid", code)
		seen[code] = true
	}
	// 32^6 codes; 100 draws colliding would point at a broken generator
	assert.Greater(t, len(seen), 95)
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{name: "well formed", code: "ABC234", valid: true},
		{name: "all letters", code: "QWERTZ", valid: true},
		{name: "too short", code: "ABC23", valid: false},
		{name: "too long", code: "ABC2345", valid: false},
		{name: "empty", code: "", valid: false},
		{name: "lowercase", code: "abc234", valid: false},
		{name: "ambiguous zero", code: "ABC230", valid: false},
		{name: "ambiguous oh", code: "ABCO23", valid: false},
		{name: "ambiguous one", code: "ABC123", valid: false},
		{name: "ambiguous eye", code: "ABI234", valid: false},
		{name: "punctuation", code: "AB-234", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Valid(tt.code))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABC234", Normalize("abc234"))
	assert.Equal(t, "ABC234", Normalize("  ABC234\n"))
	assert.Equal(t, "ABC234", Normalize("\tabc234 "))
}

func TestAlphabet(t *testing.T) {
	assert.Len(t, Alphabet, 32)
	for _, banned := range "0O1I" {
		assert.False(t, strings.ContainsRune(Alphabet, banned))
	}
}
