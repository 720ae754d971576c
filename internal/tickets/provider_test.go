package tickets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolapsis/deskbridge/internal/api"
)

type fakeLister struct {
	tickets []api.Ticket
	err     error
}

func (f *fakeLister) List(ctx context.Context, opts api.ListOptions) ([]api.Ticket, error) {
	return f.tickets, f.err
}

func TestProvider_RefreshPopulatesCache(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{tickets: []api.Ticket{
		{ID: "2", Title: "Slow dashboard"},
		{ID: "1", Title: "Login broken"},
	}}
	p := NewProvider(lister)

	require.NoError(t, p.Refresh(context.Background()))

	assert.Equal(t, "Login broken", p.Title("1"))
	assert.Equal(t, "Slow dashboard", p.Title("2"))
	assert.Empty(t, p.Title("999"))

	all := p.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Login broken", all[0].Title) // sorted by title
}

func TestProvider_RefreshErrorKeepsOldCache(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{tickets: []api.Ticket{{ID: "1", Title: "Login broken"}}}
	p := NewProvider(lister)
	require.NoError(t, p.Refresh(context.Background()))

	lister.err = errors.New("network down")
	require.Error(t, p.Refresh(context.Background()))

	assert.Equal(t, "Login broken", p.Title("1"))
}

func TestProvider_EmptyBeforeFirstRefresh(t *testing.T) {
	t.Parallel()

	p := NewProvider(&fakeLister{})
	assert.Empty(t, p.All())
	assert.Empty(t, p.Title("1"))
}
