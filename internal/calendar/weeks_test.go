package calendar

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketWeeksFixedCoversMonth(t *testing.T) {
	for _, year := range []int{2023, 2024, 2025} {
		for m := time.January; m <= time.December; m++ {
			weeks, err := BucketWeeks(year, m, PolicyFixed)
			require.NoError(t, err)

			total := 0
			next := 1
			for i, w := range weeks {
				assert.Equal(t, i+1, w.Number)
				assert.Equal(t, "Week "+strconv.Itoa(i+1), w.Label)
				for _, d := range w.Days {
					assert.Equal(t, next, d, "%d-%02d week %d", year, m, w.Number)
					next++
				}
				total += len(w.Days)
			}
			n := DaysIn(year, m)
			assert.Equal(t, n, total, "%d-%02d", year, m)
			assert.Len(t, weeks, (n+6)/7)
		}
	}
}

func TestBucketWeeksFixedShortLastWeek(t *testing.T) {
	weeks, err := BucketWeeks(2023, time.February, PolicyFixed)
	require.NoError(t, err)
	require.Len(t, weeks, 4)
	assert.Equal(t, []int{22, 23, 24, 25, 26, 27, 28}, weeks[3].Days)

	weeks, err = BucketWeeks(2024, time.February, PolicyFixed)
	require.NoError(t, err)
	require.Len(t, weeks, 5)
	assert.Equal(t, []int{29}, weeks[4].Days)

	weeks, err = BucketWeeks(2025, time.January, PolicyFixed)
	require.NoError(t, err)
	require.Len(t, weeks, 5)
	assert.Equal(t, []int{29, 30, 31}, weeks[4].Days)
}

func TestBucketWeeksCalendarMondayFirst(t *testing.T) {
	// 2025-09-01 is a Monday.
	weeks, err := BucketWeeks(2025, time.September, PolicyCalendar)
	require.NoError(t, err)
	require.Len(t, weeks, 5)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, weeks[0].Days)
	assert.Equal(t, []int{29, 30, 0, 0, 0, 0, 0}, weeks[4].Days)
	assert.Equal(t, []int{29, 30}, weeks[4].ValidDays())

	// 2026-02-01 is a Sunday, so it sits in the last slot of the first row.
	weeks, err = BucketWeeks(2026, time.February, PolicyCalendar)
	require.NoError(t, err)
	require.Len(t, weeks, 5)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 1}, weeks[0].Days)
	assert.Equal(t, []int{23, 24, 25, 26, 27, 28, 0}, weeks[4].Days)
}

func TestBucketWeeksCalendarSundayFirst(t *testing.T) {
	weeks, err := Layout{Policy: PolicyCalendar, WeekStart: time.Sunday}.Weeks(2026, time.February)
	require.NoError(t, err)
	require.Len(t, weeks, 4)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, weeks[0].Days)
	assert.Equal(t, []int{22, 23, 24, 25, 26, 27, 28}, weeks[3].Days)
}

func TestBucketWeeksCalendarGridShape(t *testing.T) {
	for _, year := range []int{2023, 2024} {
		for m := time.January; m <= time.December; m++ {
			weeks, err := BucketWeeks(year, m, PolicyCalendar)
			require.NoError(t, err)

			next := 1
			for _, w := range weeks {
				assert.Len(t, w.Days, 7)
				for _, d := range w.ValidDays() {
					assert.Equal(t, next, d)
					next++
				}
			}
			assert.Equal(t, DaysIn(year, m)+1, next)
		}
	}
}

func TestBucketWeeksErrors(t *testing.T) {
	_, err := BucketWeeks(2025, time.Month(13), PolicyFixed)
	assert.ErrorIs(t, err, ErrInvalidMonth)

	_, err = BucketWeeks(2025, time.March, Policy("biweekly"))
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Calendar ")
	require.NoError(t, err)
	assert.Equal(t, PolicyCalendar, p)

	p, err = ParsePolicy("fixed")
	require.NoError(t, err)
	assert.Equal(t, PolicyFixed, p)

	_, err = ParsePolicy("")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestWeekContains(t *testing.T) {
	w := Week{Year: 2025, Month: time.September, Days: []int{29, 30, 0, 0, 0, 0, 0}}
	assert.True(t, w.Contains(time.Date(2025, 9, 30, 15, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 9, 29, 0, 0, 0, 0, time.UTC)))
}

func TestISOWeekCount(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{2015, 53},
		{2020, 53},
		{2021, 52},
		{2024, 52},
		{2025, 52},
		{2026, 53},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ISOWeekCount(tt.year), "year %d", tt.year)
	}
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 30, DaysIn(2025, time.April))
	assert.Equal(t, 31, DaysIn(2025, time.December))
}
