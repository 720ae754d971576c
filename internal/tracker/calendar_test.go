package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logAt logs one entry with the engine clock pinned to at.
func logAt(t *testing.T, e *Engine, clock *time.Time, at time.Time, ticketID, duration string) {
	t.Helper()
	*clock = at
	mustLog(t, e, ticketID, duration)
}

func newCalendarEngine(t *testing.T) (*Engine, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(t, WithClock(func() time.Time { return now }))
	return e, &now
}

func TestDayTotals_BucketsByLocalDay(t *testing.T) {
	t.Parallel()
	e, clock := newCalendarEngine(t)

	day := func(d, h int) time.Time { return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC) }
	logAt(t, e, clock, day(3, 9), "42", "02:00:00")
	logAt(t, e, clock, day(3, 16), "43", "01:30:00")
	logAt(t, e, clock, day(10, 11), "42", "00:30:00")
	// different month, excluded
	logAt(t, e, clock, time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), "42", "08:00:00")

	totals := e.DayTotals(2026, time.March, time.UTC)
	require.Len(t, totals, 2)
	assert.InDelta(t, 3.5, totals["2026-03-03"], 1e-9)
	assert.InDelta(t, 0.5, totals["2026-03-10"], 1e-9)
}

func TestDayTotals_LateEveningCrossesDayInOtherZone(t *testing.T) {
	t.Parallel()
	e, clock := newCalendarEngine(t)

	// 23:30 UTC on March 3rd is already March 4th in UTC+2
	logAt(t, e, clock, time.Date(2026, 3, 3, 23, 30, 0, 0, time.UTC), "42", "01:00:00")

	utcPlus2 := time.FixedZone("UTC+2", 2*60*60)
	totals := e.DayTotals(2026, time.March, utcPlus2)
	require.Len(t, totals, 1)
	assert.InDelta(t, 1.0, totals["2026-03-04"], 1e-9)
}

func TestTicketTotals(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	mustLog(t, e, "42", "02:00:00")
	mustLog(t, e, "42", "01:00:00")
	mustLog(t, e, "43", "00:30:00")

	totals := e.TicketTotals()
	require.Len(t, totals, 2)
	assert.InDelta(t, 3.0, totals["42"], 1e-9)
	assert.InDelta(t, 0.5, totals["43"], 1e-9)
}

func TestTopTickets_OrdersByHoursDescending(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	mustLog(t, e, "a", "01:00:00")
	mustLog(t, e, "b", "05:00:00")
	mustLog(t, e, "c", "03:00:00")
	mustLog(t, e, "b", "01:00:00")

	top := e.TopTickets(2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].TicketID)
	assert.InDelta(t, 6.0, top[0].Hours, 1e-9)
	assert.Equal(t, "c", top[1].TicketID)
}

func TestTopTickets_ZeroLimitReturnsAll(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	mustLog(t, e, "a", "01:00:00")
	mustLog(t, e, "b", "02:00:00")

	assert.Len(t, e.TopTickets(0), 2)
}

func TestAverageHoursPerActiveDay(t *testing.T) {
	t.Parallel()
	e, clock := newCalendarEngine(t)

	// two active days; the empty days in between do not dilute the average
	logAt(t, e, clock, time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local), "42", "04:00:00")
	logAt(t, e, clock, time.Date(2026, 3, 2, 15, 0, 0, 0, time.Local), "42", "02:00:00")
	logAt(t, e, clock, time.Date(2026, 3, 20, 9, 0, 0, 0, time.Local), "43", "02:00:00")

	assert.InDelta(t, 4.0, e.AverageHoursPerActiveDay(), 1e-9)
}

func TestAverageHoursPerActiveDay_NoEntries(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)

	assert.Zero(t, e.AverageHoursPerActiveDay())
}
