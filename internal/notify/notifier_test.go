package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	events []Event
}

func (r *recorder) Notify(event Event) {
	r.events = append(r.events, event)
}

func TestHub_FansOutToAllNotifiers(t *testing.T) {
	t.Parallel()

	a, b := &recorder{}, &recorder{}
	hub := NewHub(a, b)

	hub.Notify(Event{Type: "budget.over", TicketID: "42"})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Equal(t, "42", a.events[0].TicketID)
}

func TestHub_NilHubIsSafe(t *testing.T) {
	t.Parallel()

	var hub *Hub
	hub.Notify(Event{Type: "budget.near"}) // must not panic
}
