package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTimerEngine(t *testing.T) (*Engine, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(t, WithClock(func() time.Time { return now }))
	return e, &now
}

func TestTimer_StartRequiresTicket(t *testing.T) {
	t.Parallel()
	e, _ := newTimerEngine(t)

	err := e.StartTimer("")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestTimer_OnlyOneTimerAtATime(t *testing.T) {
	t.Parallel()
	e, _ := newTimerEngine(t)

	require.NoError(t, e.StartTimer("42"))
	err := e.StartTimer("43")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestTimer_StopWithoutStart(t *testing.T) {
	t.Parallel()
	e, _ := newTimerEngine(t)

	_, _, err := e.StopTimer()
	require.Error(t, err)
}

func TestTimer_StopReturnsElapsedAndResets(t *testing.T) {
	t.Parallel()
	e, now := newTimerEngine(t)

	require.NoError(t, e.StartTimer("42"))
	*now = now.Add(1*time.Hour + 23*time.Minute + 45*time.Second)

	ticketID, elapsed, err := e.StopTimer()
	require.NoError(t, err)
	assert.Equal(t, "42", ticketID)
	assert.Equal(t, "01:23:45", elapsed)

	// stopwatch is back to idle: stop again fails, start succeeds
	_, _, err = e.StopTimer()
	require.Error(t, err)
	require.NoError(t, e.StartTimer("42"))
}

func TestTimer_ElapsedTruncatesToWholeSeconds(t *testing.T) {
	t.Parallel()
	e, now := newTimerEngine(t)

	require.NoError(t, e.StartTimer("42"))
	*now = now.Add(90*time.Second + 900*time.Millisecond)

	_, elapsed, err := e.StopTimer()
	require.NoError(t, err)
	assert.Equal(t, "00:01:30", elapsed)
}

func TestTimer_StateSnapshot(t *testing.T) {
	t.Parallel()
	e, now := newTimerEngine(t)

	assert.False(t, e.Timer().Running)

	require.NoError(t, e.StartTimer("42"))
	*now = now.Add(5 * time.Second)

	state := e.Timer()
	assert.True(t, state.Running)
	assert.Equal(t, "42", state.TicketID)
	assert.Equal(t, "00:00:05", state.Elapsed)
}

func TestTimer_StopFeedsLogDirectly(t *testing.T) {
	t.Parallel()
	e, now := newTimerEngine(t)

	require.NoError(t, e.StartTimer("42"))
	*now = now.Add(2 * time.Hour)

	ticketID, elapsed, err := e.StopTimer()
	require.NoError(t, err)

	entry, err := e.Log(LogInput{TicketID: ticketID, Duration: elapsed})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, entry.Hours, 1e-9)
}
