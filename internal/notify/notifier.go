package notify

import "log/slog"

// Event represents a budget threshold notification.
type Event struct {
	Type        string // "budget.near", "budget.over"
	TicketID    string
	TicketTitle string
	Message     string
}

// Notifier receives budget threshold events.
type Notifier interface {
	Notify(event Event)
}

// Hub dispatches events to multiple notifiers.
type Hub struct {
	notifiers []Notifier
}

// NewHub creates a Hub with the given notifiers.
func NewHub(notifiers ...Notifier) *Hub {
	return &Hub{notifiers: notifiers}
}

// Notify sends an event to all registered notifiers.
func (h *Hub) Notify(event Event) {
	if h == nil {
		return
	}
	for _, n := range h.notifiers {
		n.Notify(event)
	}
}

// LogNotifier writes events to the default slog logger.
type LogNotifier struct{}

func (LogNotifier) Notify(event Event) {
	slog.Warn("budget threshold crossed",
		"type", event.Type,
		"ticket_id", event.TicketID,
		"ticket_title", event.TicketTitle,
		"message", event.Message)
}
