package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseCached verifies cache decoding is strict.
// Invariant: only the literal "true" grants; junk values never open the gate.
func TestParseCached(t *testing.T) {
	cases := []struct {
		name  string
		value string
		found bool
		want  Decision
	}{
		{"absent", "", false, DecisionUnset},
		{"granted", "true", true, DecisionGranted},
		{"declined", "false", true, DecisionDeclined},
		{"junk value", "yes", true, DecisionUnset},
		{"empty present value", "", true, DecisionUnset},
		{"case sensitive", "TRUE", true, DecisionUnset},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseCached(tc.value, tc.found))
		})
	}
}

func TestDecisionGranted(t *testing.T) {
	assert.True(t, DecisionGranted.Granted())
	assert.False(t, DecisionDeclined.Granted())
	assert.False(t, DecisionUnset.Granted())
}

func TestCacheValueRoundTrip(t *testing.T) {
	assert.Equal(t, DecisionGranted, ParseCached(DecisionGranted.CacheValue(), true))
	assert.Equal(t, DecisionDeclined, ParseCached(DecisionDeclined.CacheValue(), true))
}
