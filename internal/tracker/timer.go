package tracker

import "time"

// TimerState is a snapshot of the stopwatch for display.
type TimerState struct {
	Running  bool   `json:"running"`
	TicketID string `json:"ticketId,omitempty"`
	Elapsed  string `json:"elapsed,omitempty"`
}

// StartTimer starts the single global stopwatch against a ticket.
// It is rejected when no ticket is selected or a timer is already running.
func (e *Engine) StartTimer(ticketID string) error {
	if ticketID == "" {
		return &ValidationError{Field: "ticketId", Message: "a ticket must be selected"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timerTicket != "" {
		return &ValidationError{Field: "timer", Message: "a timer is already running"}
	}
	e.timerTicket = ticketID
	e.timerStart = e.now()
	return nil
}

// StopTimer stops the stopwatch and returns the ticket it ran against and the
// elapsed time as HH:MM:SS, ready to be passed to Log. The stopwatch resets
// to zero; elapsed state is not retained.
func (e *Engine) StopTimer() (ticketID, elapsed string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timerTicket == "" {
		return "", "", &ValidationError{Field: "timer", Message: "no timer is running"}
	}

	seconds := int(e.now().Sub(e.timerStart) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	ticketID = e.timerTicket
	e.timerTicket = ""
	e.timerStart = time.Time{}

	return ticketID, FormatHours(float64(seconds) / 3600), nil
}

// Timer returns the current stopwatch state, elapsed at whole seconds.
func (e *Engine) Timer() TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timerTicket == "" {
		return TimerState{}
	}
	seconds := int(e.now().Sub(e.timerStart) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return TimerState{
		Running:  true,
		TicketID: e.timerTicket,
		Elapsed:  FormatHours(float64(seconds) / 3600),
	}
}
