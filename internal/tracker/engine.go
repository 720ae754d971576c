package tracker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kolapsis/deskbridge/internal/notify"
	"github.com/kolapsis/deskbridge/internal/store"
)

// Engine owns the time-entry list and the per-ticket budget map.
// Entries are kept newest-first. Every mutation is written through to the
// store; a failed write is logged and the in-memory state stays authoritative
// for the running session.
type Engine struct {
	mu      sync.Mutex
	entries []Entry
	budgets map[string]float64

	store store.Store
	hub   *notify.Hub
	now   func() time.Time

	// stopwatch
	timerTicket string
	timerStart  time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithHub sets the notification hub for budget threshold events.
func WithHub(h *notify.Hub) Option {
	return func(e *Engine) { e.hub = h }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine and loads persisted entries and budgets.
// Unreadable or corrupt persisted state is logged and treated as empty.
func NewEngine(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		budgets: make(map[string]float64),
		store:   st,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.load()
	return e
}

func (e *Engine) load() {
	if data, ok, err := e.store.Get(store.KeyTimeEntries); err != nil {
		slog.Warn("reading persisted entries failed", "error", err)
	} else if ok {
		if err := json.Unmarshal(data, &e.entries); err != nil {
			slog.Warn("persisted entries are corrupt, starting empty", "error", err)
			e.entries = nil
		}
	}

	if data, ok, err := e.store.Get(store.KeyBudgets); err != nil {
		slog.Warn("reading persisted budgets failed", "error", err)
	} else if ok {
		if err := json.Unmarshal(data, &e.budgets); err != nil {
			slog.Warn("persisted budgets are corrupt, starting empty", "error", err)
			e.budgets = make(map[string]float64)
		}
	}
	if e.budgets == nil {
		e.budgets = make(map[string]float64)
	}
}

// persistEntries writes the entry list through to the store.
// Failures are warnings: in-memory state is authoritative.
func (e *Engine) persistEntries() {
	data, err := json.Marshal(e.entries)
	if err != nil {
		slog.Warn("encoding entries failed", "error", err)
		return
	}
	if err := e.store.Set(store.KeyTimeEntries, data); err != nil {
		slog.Warn("persisting entries failed", "error", err)
	}
}

func (e *Engine) persistBudgets() {
	data, err := json.Marshal(e.budgets)
	if err != nil {
		slog.Warn("encoding budgets failed", "error", err)
		return
	}
	if err := e.store.Set(store.KeyBudgets, data); err != nil {
		slog.Warn("persisting budgets failed", "error", err)
	}
}

// Log validates input and prepends a new entry.
func (e *Engine) Log(input LogInput) (*Entry, error) {
	if input.TicketID == "" {
		return nil, &ValidationError{Field: "ticketId", Message: "a ticket must be selected"}
	}

	hours, err := ParseDuration(input.Duration)
	if err != nil {
		return nil, err
	}
	if hours == 0 {
		return nil, &ValidationError{Field: "duration", Message: "duration must be greater than zero"}
	}

	entry := Entry{
		ID:          uuid.NewString(),
		TicketID:    input.TicketID,
		TicketTitle: input.TicketTitle,
		Description: input.Description,
		Hours:       round2(hours),
		Formatted:   input.Duration,
		LoggedAt:    e.now(),
		User:        input.User,
	}

	e.mu.Lock()
	before := e.statusLocked(entry.TicketID)
	e.entries = append([]Entry{entry}, e.entries...)
	after := e.statusLocked(entry.TicketID)
	e.persistEntries()
	e.mu.Unlock()

	e.notifyCrossing(entry.TicketID, entry.TicketTitle, before, after)

	slog.Debug("entry logged",
		"entry_id", entry.ID,
		"ticket_id", entry.TicketID,
		"hours", entry.Hours)

	return &entry, nil
}

// Edit re-validates the duration and replaces time and description of an
// existing entry. Hours and Formatted change together or not at all.
func (e *Engine) Edit(id, duration, description string) error {
	hours, err := ParseDuration(duration)
	if err != nil {
		return err
	}
	if hours == 0 {
		return &ValidationError{Field: "duration", Message: "duration must be greater than zero"}
	}

	e.mu.Lock()
	idx := -1
	for i := range e.entries {
		if e.entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return &ValidationError{Field: "entryId", Message: fmt.Sprintf("entry %q not found", id)}
	}

	ticketID := e.entries[idx].TicketID
	ticketTitle := e.entries[idx].TicketTitle
	before := e.statusLocked(ticketID)

	e.entries[idx].Hours = round2(hours)
	e.entries[idx].Formatted = duration
	e.entries[idx].Description = description

	after := e.statusLocked(ticketID)
	e.persistEntries()
	e.mu.Unlock()

	e.notifyCrossing(ticketID, ticketTitle, before, after)
	return nil
}

// Delete removes an entry. Deleting an unknown id is a no-op.
func (e *Engine) Delete(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.entries {
		if e.entries[i].ID == id {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			e.persistEntries()
			return
		}
	}
}

// Entries returns a copy of the entry list, newest first.
func (e *Engine) Entries() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// SetBudget sets the hour budget for a ticket, replacing any prior value.
func (e *Engine) SetBudget(ticketID string, hours float64) error {
	if ticketID == "" {
		return &ValidationError{Field: "ticketId", Message: "a ticket must be selected"}
	}
	if hours <= 0 {
		return &ValidationError{Field: "budgetHours", Message: "budget must be a positive number of hours"}
	}

	e.mu.Lock()
	before := e.statusLocked(ticketID)
	e.budgets[ticketID] = hours
	after := e.statusLocked(ticketID)
	title := e.titleLocked(ticketID)
	e.persistBudgets()
	e.mu.Unlock()

	e.notifyCrossing(ticketID, title, before, after)
	return nil
}

// RemoveBudget removes the budget for a ticket. Idempotent.
func (e *Engine) RemoveBudget(ticketID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.budgets[ticketID]; !ok {
		return
	}
	delete(e.budgets, ticketID)
	e.persistBudgets()
}

// Budget returns the budget for one ticket and whether one is set.
func (e *Engine) Budget(ticketID string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	hours, ok := e.budgets[ticketID]
	return hours, ok
}

// Budgets returns a copy of the ticket→budget map.
func (e *Engine) Budgets() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]float64, len(e.budgets))
	for k, v := range e.budgets {
		out[k] = v
	}
	return out
}

// titleLocked returns the most recent title snapshot for a ticket, if any
// entry references it. Callers hold e.mu.
func (e *Engine) titleLocked(ticketID string) string {
	for i := range e.entries {
		if e.entries[i].TicketID == ticketID {
			return e.entries[i].TicketTitle
		}
	}
	return ""
}

func (e *Engine) notifyCrossing(ticketID, title string, before, after Status) {
	if before == after || e.hub == nil {
		return
	}
	switch {
	case after == StatusOver && before != StatusOver:
		e.hub.Notify(notify.Event{
			Type:        "budget.over",
			TicketID:    ticketID,
			TicketTitle: title,
			Message:     "logged time exceeds the ticket budget",
		})
	case after == StatusNear && before == StatusOK:
		e.hub.Notify(notify.Event{
			Type:        "budget.near",
			TicketID:    ticketID,
			TicketTitle: title,
			Message:     "logged time is at 80% of the ticket budget or more",
		})
	}
}
