package calendar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		planned  int
		required int
		want     Severity
	}{
		{"NothingPlanned", 0, 5, SeverityNone},
		{"NothingRequiredNothingPlanned", 0, 0, SeverityNone},
		{"ZeroQuotaAnyProgress", 1, 0, SeverityComplete},
		{"Met", 5, 5, SeverityComplete},
		{"Exceeded", 7, 5, SeverityComplete},
		{"JustOverHalf", 3, 5, SeverityHigh},
		{"UnderHalf", 2, 5, SeverityLow},
		{"ExactlyHalf", 2, 4, SeverityLow},
		{"OneOfOneHundred", 1, 100, SeverityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.planned, tt.required))
		})
	}
}

func TestSeverityText(t *testing.T) {
	assert.Equal(t, "none", SeverityNone.String())
	assert.Equal(t, "complete", SeverityComplete.String())
	assert.Equal(t, "severity(9)", Severity(9).String())

	assert.Equal(t, "red", SeverityNone.Color())
	assert.Equal(t, "", SeverityLow.Color())
	assert.Equal(t, "blue", SeverityHigh.Color())
	assert.Equal(t, "green", SeverityComplete.Color())

	b, err := json.Marshal(PlatformStatus{Platform: "Blog", Severity: SeverityHigh})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"severity":"high"`)

	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("low")))
	assert.Equal(t, SeverityLow, s)
	assert.Error(t, s.UnmarshalText([]byte("meh")))
}
