// Package tickets caches the remote ticket list for selection UIs and for
// resolving ticket titles at entry-creation time. It only ever reads tickets.
package tickets

import (
	"context"
	"sort"
	"sync"

	"github.com/kolapsis/deskbridge/internal/api"
)

// Ref is the id/title pair the time tracker needs.
type Ref struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Lister is the slice of the API client the provider consumes.
type Lister interface {
	List(ctx context.Context, opts api.ListOptions) ([]api.Ticket, error)
}

// Provider holds the last fetched ticket list.
type Provider struct {
	lister Lister

	mu      sync.RWMutex
	byID    map[string]Ref
	ordered []Ref
}

// NewProvider creates an empty Provider over a ticket lister.
func NewProvider(lister Lister) *Provider {
	return &Provider{
		lister: lister,
		byID:   make(map[string]Ref),
	}
}

// Refresh replaces the cache with the current remote ticket list.
func (p *Provider) Refresh(ctx context.Context) error {
	remote, err := p.lister.List(ctx, api.ListOptions{SortBy: "title"})
	if err != nil {
		return err
	}

	byID := make(map[string]Ref, len(remote))
	ordered := make([]Ref, 0, len(remote))
	for _, t := range remote {
		ref := Ref{ID: t.ID, Title: t.Title}
		byID[t.ID] = ref
		ordered = append(ordered, ref)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Title < ordered[j].Title })

	p.mu.Lock()
	p.byID = byID
	p.ordered = ordered
	p.mu.Unlock()
	return nil
}

// Title returns the cached title for a ticket id, or "" when unknown.
// The tracker snapshots this at entry creation; a later rename does not
// rewrite existing entries.
func (p *Provider) Title(id string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byID[id].Title
}

// All returns the cached ticket refs sorted by title.
func (p *Provider) All() []Ref {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Ref, len(p.ordered))
	copy(out, p.ordered)
	return out
}
