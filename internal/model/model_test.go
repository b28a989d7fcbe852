package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"Planning", StatusPlanning},
		{" design ", StatusDesign},
		{"SCHEDULED", StatusScheduled},
		{"Published", StatusPublished},
		{"Planeación", StatusPlanning},
		{"Diseño", StatusDesign},
		{"Programado", StatusScheduled},
		{"publicado", StatusPublished},
		{" Waiting ", Status("Waiting")},
		{"", Status("")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatus(tt.in))
		})
	}
}

func TestStatusIsPublished(t *testing.T) {
	assert.True(t, StatusPublished.IsPublished())
	assert.True(t, Status(" PUBLICADO").IsPublished())
	assert.False(t, StatusScheduled.IsPublished())
	assert.False(t, Status("").IsPublished())
}

func TestEventValidate(t *testing.T) {
	ok := Event{
		Date:     time.Date(2025, 4, 17, 0, 0, 0, 0, time.UTC),
		Title:    "Launch teaser",
		Platform: "Instagram",
		Status:   StatusPlanning,
	}
	require.NoError(t, ok.Validate())

	bad := Event{Status: "Waiting"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date is required")
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "platform is required")
	assert.Contains(t, err.Error(), `unknown status "Waiting"`)
}

func TestEventDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	ev := Event{Date: time.Date(2025, 12, 31, 23, 30, 0, 0, loc)}
	assert.True(t, ev.HasDate())
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), ev.Day())
	assert.False(t, Event{}.HasDate())
}

func TestQuotaSet(t *testing.T) {
	q := DefaultQuotas()
	assert.Equal(t, []string{"Blog", "Facebook", "Instagram", "TikTok"}, q.Platforms())
	require.NoError(t, q.Validate())

	c := q.Clone()
	c["Blog"] = 9
	assert.Equal(t, 1, q["Blog"])

	assert.Error(t, QuotaSet{"Blog": -1}.Validate())
	assert.Error(t, QuotaSet{" ": 1}.Validate())
}
