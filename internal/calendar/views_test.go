package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentcal/internal/model"
)

func TestBuildMonthFixed(t *testing.T) {
	in := ViewInput{
		Events:    aprilEvents(),
		Quotas:    model.DefaultQuotas(),
		Occasions: Occasions{"2025-04-22": {"Earth Day"}},
		Layout:    DefaultLayout(PolicyFixed),
		Labels:    LabelsFor("en"),
	}
	mv, err := BuildMonth(in, 2025, time.April)
	require.NoError(t, err)

	assert.Equal(t, "April", mv.Name)
	assert.Equal(t, PolicyFixed, mv.Policy)
	assert.Equal(t, 7, mv.EventCount)
	require.Len(t, mv.Weeks, 5)

	w1 := mv.Weeks[0]
	assert.Equal(t, "Week 1", w1.Label)
	require.Len(t, w1.Days, 7)
	assert.Equal(t, "2025-04-01", w1.Days[0].Date)
	assert.Equal(t, "Tuesday", w1.Days[0].Weekday)
	require.Len(t, w1.Days[1].Events, 1)
	assert.Equal(t, "Reel teaser", w1.Days[1].Events[0].Title)
	require.Len(t, w1.Statuses, 4)

	w4 := mv.Weeks[3]
	assert.Equal(t, []string{"Earth Day"}, w4.Days[0].Occasions)
	assert.Equal(t, "2025-04-22", w4.Days[0].Date)
}

func TestBuildMonthCalendarSpanish(t *testing.T) {
	in := ViewInput{
		Events: aprilEvents(),
		Quotas: model.DefaultQuotas(),
		Layout: DefaultLayout(PolicyCalendar),
		Labels: LabelsFor("es"),
	}
	mv, err := BuildMonth(in, 2025, time.April)
	require.NoError(t, err)

	assert.Equal(t, "Abril", mv.Name)
	require.NotEmpty(t, mv.Weeks)
	assert.Equal(t, "Semana 1", mv.Weeks[0].Label)
	assert.Equal(t, DayCell{}, mv.Weeks[0].Days[0])
	assert.Equal(t, "Martes", mv.Weeks[0].Days[1].Weekday)
	for _, w := range mv.Weeks {
		assert.Len(t, w.Days, 7)
	}
}

func TestBuildMonthDefaultsLabels(t *testing.T) {
	mv, err := BuildMonth(ViewInput{Layout: DefaultLayout(PolicyFixed)}, 2024, time.February)
	require.NoError(t, err)
	assert.Equal(t, "February", mv.Name)
	assert.Equal(t, "Week 5", mv.Weeks[4].Label)
	assert.Empty(t, mv.Weeks[0].Statuses)
}

func TestBuildYear(t *testing.T) {
	in := ViewInput{
		Events: aprilEvents(),
		Quotas: model.DefaultQuotas(),
		Layout: DefaultLayout(PolicyCalendar),
	}
	yv, err := BuildYear(in, 2025)
	require.NoError(t, err)
	require.Len(t, yv.Months, 12)
	assert.Equal(t, 1, yv.Months[2].EventCount)
	assert.Equal(t, 7, yv.Months[3].EventCount)
	assert.Equal(t, 0, yv.Months[11].EventCount)
}

func TestBuildMonthInvalidPolicy(t *testing.T) {
	_, err := BuildMonth(ViewInput{Layout: Layout{Policy: "weird"}}, 2025, time.April)
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestPipelineIdempotent(t *testing.T) {
	in := ViewInput{
		Events: aprilEvents(),
		Quotas: model.DefaultQuotas(),
		Layout: DefaultLayout(PolicyFixed),
	}
	first, err := BuildMonth(in, 2025, time.April)
	require.NoError(t, err)
	second, err := BuildMonth(in, 2025, time.April)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, aprilEvents(), in.Events)
}

func TestBuildDashboard(t *testing.T) {
	events := append(aprilEvents(),
		model.Event{Date: day(2024, 12, 30), Platform: "Blog", Status: model.StatusPublished},
	)
	quotas := model.DefaultQuotas()

	d := BuildDashboard(events, quotas, 0, day(2025, 6, 1))
	assert.Equal(t, 2025, d.Year)
	assert.Equal(t, []int{2024, 2025}, d.Years)
	assert.Equal(t, 52, d.WeeksInYear)
	assert.Equal(t, 8, d.Planned)
	assert.Equal(t, (5+5+3+1)*52, d.Target)
	assert.Equal(t, 8-(5+5+3+1)*52, d.Delta)
	assert.Equal(t, []StatusCount{
		{Status: model.StatusPlanning, Count: 4},
		{Status: model.StatusDesign, Count: 1},
		{Status: model.StatusScheduled, Count: 1},
		{Status: model.StatusPublished, Count: 2},
	}, d.Statuses)
	require.Len(t, d.Platforms, 4)

	// Today's year has no data: fall back to the earliest year.
	d = BuildDashboard(events, quotas, 0, day(2030, 1, 1))
	assert.Equal(t, 2024, d.Year)
	assert.Equal(t, 1, d.Planned)

	// Explicit year wins.
	d = BuildDashboard(events, quotas, 2026, day(2025, 1, 1))
	assert.Equal(t, 2026, d.Year)
	assert.Equal(t, 53, d.WeeksInYear)
	assert.Equal(t, 0, d.Planned)

	// No data at all.
	d = BuildDashboard(nil, quotas, 0, day(2025, 1, 1))
	assert.Equal(t, 2025, d.Year)
	assert.Empty(t, d.Years)
}

func TestDayEvents(t *testing.T) {
	got := DayEvents(aprilEvents(), time.Date(2025, 4, 5, 18, 0, 0, 0, time.UTC))
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
	assert.Empty(t, DayEvents(aprilEvents(), day(2025, 4, 30)))
}
