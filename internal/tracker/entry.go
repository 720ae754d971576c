package tracker

import (
	"fmt"
	"time"
)

// Entry is a single logged duration of work against one ticket.
// Hours and Formatted are two views of the same value and are only ever set
// together, derived from one parsed duration string.
type Entry struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticketId"`
	TicketTitle string    `json:"ticketTitle"` // snapshot at creation time, never re-synced
	Description string    `json:"description"`
	Hours       float64   `json:"timeSpent"`
	Formatted   string    `json:"timeFormatted"`
	LoggedAt    time.Time `json:"date"`
	User        string    `json:"user"`
}

// LogInput carries the fields for a new entry. Duration is an HH:MM:SS string.
type LogInput struct {
	TicketID    string
	TicketTitle string
	Description string
	Duration    string
	User        string
}

// Status is the budget consumption level of a ticket.
type Status string

const (
	StatusOK   Status = "ok"
	StatusNear Status = "near"
	StatusOver Status = "over"
)

// nearThresholdPct is the consumption percentage at which a ticket is
// reported as near its budget.
const nearThresholdPct = 80.0

// Aggregate is the derived per-ticket view over entries and budget.
// It is recomputed from current state on every query, never stored.
type Aggregate struct {
	TicketID    string  `json:"ticketId"`
	TicketTitle string  `json:"ticketTitle"`
	TotalHours  float64 `json:"totalHours"`
	Entries     []Entry `json:"entries"`
	HasBudget   bool    `json:"hasBudget"`
	BudgetHours float64 `json:"budgetHours,omitempty"`
	Percentage  float64 `json:"percentage,omitempty"`
	Remaining   float64 `json:"remaining,omitempty"`
	Status      Status  `json:"status"`
}

// ValidationError reports a rejected input. The operation that returned it
// did not mutate any state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
