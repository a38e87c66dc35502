package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tinyhouse/internal/domain/shared/daterange"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReserveMarksEveryDayInclusive(t *testing.T) {
	idx, err := Reserve(New(), day(2024, 3, 1), day(2024, 3, 3))
	require.NoError(t, err)
	require.Equal(t, []time.Time{day(2024, 3, 1), day(2024, 3, 2), day(2024, 3, 3)}, idx.Days())
	require.True(t, idx[2024][2][2], "months are zero-based")
}

func TestReserveSequentialDisjointRangesNeverConflict(t *testing.T) {
	idx := New()
	start := day(2024, 1, 1)
	for i := 0; i < 20; i++ {
		in := start.AddDate(0, 0, i*4)
		out := in.AddDate(0, 0, 3)
		next, err := Reserve(idx, in, out)
		require.NoError(t, err)
		idx = next
	}
	require.Equal(t, 80, idx.Len())
}

func TestReserveOverlapReportsConflictAndKeepsIndex(t *testing.T) {
	stored, err := Reserve(New(), day(2024, 3, 1), day(2024, 3, 3))
	require.NoError(t, err)
	snapshot := stored.Clone()

	next, err := Reserve(stored, day(2024, 3, 3), day(2024, 3, 5))
	require.Nil(t, next)
	require.ErrorIs(t, err, ErrConflict)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, day(2024, 3, 3), conflict.Date)
	require.Equal(t, snapshot, stored)
	require.False(t, stored.Has(day(2024, 3, 4)))
}

func TestReserveDoesNotAliasInput(t *testing.T) {
	stored := FromDays(day(2024, 3, 10))
	snapshot := stored.Clone()

	next, err := Reserve(stored, day(2024, 3, 11), day(2024, 3, 12))
	require.NoError(t, err)
	require.Equal(t, snapshot, stored)

	next[2024][2][20] = true
	require.False(t, stored.Has(day(2024, 3, 20)))
}

func TestReserveAcrossYearBoundary(t *testing.T) {
	idx, err := Reserve(New(), day(2023, 12, 31), day(2024, 1, 1))
	require.NoError(t, err)
	require.True(t, idx[2023][11][31])
	require.True(t, idx[2024][0][1])
}

func TestReserveRejectsReversedRange(t *testing.T) {
	_, err := Reserve(New(), day(2024, 3, 5), day(2024, 3, 1))
	require.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestReserveIgnoresTimeOfDay(t *testing.T) {
	idx, err := Reserve(New(), time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC), time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, idx.Len())
}

func TestCloneOfNilIsEmpty(t *testing.T) {
	var idx Index
	clone := idx.Clone()
	require.NotNil(t, clone)
	require.Zero(t, clone.Len())
	require.Empty(t, clone.Days())
}

func TestReserveLongRangeMatchesDayCount(t *testing.T) {
	in, out := day(1700, 1, 1), day(2026, 10, 16)
	idx, err := Reserve(New(), in, out)
	require.NoError(t, err)
	dr, err := daterange.New(in, out)
	require.NoError(t, err)
	require.Equal(t, 119358, idx.Len())
	require.Equal(t, idx.Len(), dr.Days())
}
