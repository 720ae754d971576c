package tracker

import (
	"sort"
	"time"
)

// TicketHours pairs a ticket with its total logged hours.
type TicketHours struct {
	TicketID    string  `json:"ticketId"`
	TicketTitle string  `json:"ticketTitle"`
	Hours       float64 `json:"hours"`
}

// DayTotals returns per-day hour totals for one calendar month, keyed by
// "2006-01-02". Days are local midnight-to-midnight buckets in loc.
func (e *Engine) DayTotals(year int, month time.Month, loc *time.Location) map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]float64)
	for i := range e.entries {
		local := e.entries[i].LoggedAt.In(loc)
		if local.Year() != year || local.Month() != month {
			continue
		}
		key := local.Format("2006-01-02")
		out[key] = round2(out[key] + e.entries[i].Hours)
	}
	return out
}

// TicketTotals returns total hours per ticket over all entries.
func (e *Engine) TicketTotals() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]float64)
	for i := range e.entries {
		out[e.entries[i].TicketID] = round2(out[e.entries[i].TicketID] + e.entries[i].Hours)
	}
	return out
}

// TopTickets returns the n tickets with the most logged hours, descending.
// Ties break on ticket id for a stable order.
func (e *Engine) TopTickets(n int) []TicketHours {
	e.mu.Lock()
	totals := make(map[string]TicketHours)
	for i := range e.entries {
		entry := e.entries[i]
		th, ok := totals[entry.TicketID]
		if !ok {
			th = TicketHours{TicketID: entry.TicketID, TicketTitle: entry.TicketTitle}
		}
		th.Hours = round2(th.Hours + entry.Hours)
		totals[entry.TicketID] = th
	}
	e.mu.Unlock()

	out := make([]TicketHours, 0, len(totals))
	for _, th := range totals {
		out = append(out, th)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		return out[i].TicketID < out[j].TicketID
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// AverageHoursPerActiveDay returns total hours divided by the number of
// distinct local days that have at least one entry. Days with no entries do
// not count toward the denominator. Returns 0 with no entries.
func (e *Engine) AverageHoursPerActiveDay() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	days := make(map[string]struct{})
	var total float64
	for i := range e.entries {
		days[e.entries[i].LoggedAt.Local().Format("2006-01-02")] = struct{}{}
		total += e.entries[i].Hours
	}
	if len(days) == 0 {
		return 0
	}
	return round2(total / float64(len(days)))
}
