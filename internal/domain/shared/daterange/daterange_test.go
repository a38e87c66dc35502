package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewTruncatesTimeOfDay(t *testing.T) {
	dr, err := New(time.Date(2024, 3, 1, 17, 45, 0, 0, time.UTC), time.Date(2024, 3, 3, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, date(2024, 3, 1), dr.CheckIn)
	require.Equal(t, date(2024, 3, 3), dr.CheckOut)
	require.Equal(t, 3, dr.Days())
}

func TestNewRejectsReversedRange(t *testing.T) {
	_, err := New(date(2024, 3, 5), date(2024, 3, 4))
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestSingleDayRange(t *testing.T) {
	dr, err := New(date(2024, 2, 29), date(2024, 2, 29))
	require.NoError(t, err)
	require.Equal(t, 1, dr.Days())
}

func TestDaysOverCenturies(t *testing.T) {
	dr, err := New(date(1700, 1, 1), date(2026, 10, 16))
	require.NoError(t, err)
	require.Equal(t, 119358, dr.Days())

	var walked int
	dr.Each(func(time.Time) bool {
		walked++
		return true
	})
	require.Equal(t, walked, dr.Days())
}

func TestEachCrossesMonthBoundary(t *testing.T) {
	dr := DateRange{CheckIn: date(2023, 12, 30), CheckOut: date(2024, 1, 2)}
	var days []time.Time
	dr.Each(func(d time.Time) bool {
		days = append(days, d)
		return true
	})
	require.Equal(t, []time.Time{date(2023, 12, 30), date(2023, 12, 31), date(2024, 1, 1), date(2024, 1, 2)}, days)
}
