package tracker

// Aggregates computes the per-ticket view fresh from the current entries and
// budgets. It is pure given the engine state: no caching, no side effects.
func (e *Engine) Aggregates() map[string]Aggregate {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]Aggregate)
	for i := range e.entries {
		entry := e.entries[i]
		agg, ok := out[entry.TicketID]
		if !ok {
			agg = Aggregate{
				TicketID:    entry.TicketID,
				TicketTitle: entry.TicketTitle,
			}
		}
		agg.TotalHours = round2(agg.TotalHours + entry.Hours)
		agg.Entries = append(agg.Entries, entry)
		out[entry.TicketID] = agg
	}

	// Budgets without entries still produce an aggregate so the UI can show
	// an untouched budget.
	for ticketID := range e.budgets {
		if _, ok := out[ticketID]; !ok {
			out[ticketID] = Aggregate{TicketID: ticketID}
		}
	}

	for ticketID, agg := range out {
		budget, ok := e.budgets[ticketID]
		if ok {
			agg.HasBudget = true
			agg.BudgetHours = budget
			agg.Percentage = round2(agg.TotalHours / budget * 100)
			agg.Remaining = round2(budget - agg.TotalHours)
		}
		agg.Status = budgetStatus(agg.TotalHours, budget, ok)
		out[ticketID] = agg
	}

	return out
}

// statusLocked computes the budget status of one ticket. Callers hold e.mu.
func (e *Engine) statusLocked(ticketID string) Status {
	budget, ok := e.budgets[ticketID]
	var total float64
	for i := range e.entries {
		if e.entries[i].TicketID == ticketID {
			total = round2(total + e.entries[i].Hours)
		}
	}
	return budgetStatus(total, budget, ok)
}

// budgetStatus maps totals to the three-level status. Without a budget the
// status is always ok. Status is a function of the final totals only, not of
// the sequence of edits that produced them.
func budgetStatus(total, budget float64, hasBudget bool) Status {
	if !hasBudget {
		return StatusOK
	}
	if total > budget {
		return StatusOver
	}
	if total/budget*100 >= nearThresholdPct {
		return StatusNear
	}
	return StatusOK
}
