package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ListOptions narrows entity list and filter calls.
type ListOptions struct {
	SortBy string
	Limit  int
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.SortBy != "" {
		q.Set("sortBy", o.SortBy)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	return q
}

// --- Generic entity CRUD over entities/{Name}/ ---

func listEntities[T any](ctx context.Context, c *Client, name string, opts ListOptions) ([]T, error) {
	raw, err := c.Request(ctx, http.MethodGet, "entities/"+name+"/", nil, opts.query())
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", name, err)
	}
	return out, nil
}

func filterEntities[T any](ctx context.Context, c *Client, name string, conditions map[string]any, opts ListOptions) ([]T, error) {
	body := map[string]any{"conditions": conditions}
	if opts.SortBy != "" {
		body["sortBy"] = opts.SortBy
	}
	if opts.Limit > 0 {
		body["limit"] = opts.Limit
	}
	raw, err := c.Request(ctx, http.MethodPost, "entities/"+name+"/filter/", body, nil)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding filtered %s list: %w", name, err)
	}
	return out, nil
}

func getEntity[T any](ctx context.Context, c *Client, name, id string) (*T, error) {
	raw, err := c.Request(ctx, http.MethodGet, "entities/"+name+"/"+id+"/", nil, nil)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return &out, nil
}

func createEntity[T any](ctx context.Context, c *Client, name string, payload any) (*T, error) {
	raw, err := c.Request(ctx, http.MethodPost, "entities/"+name+"/", payload, nil)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding created %s: %w", name, err)
	}
	return &out, nil
}

func updateEntity[T any](ctx context.Context, c *Client, name, id string, payload any) (*T, error) {
	raw, err := c.Request(ctx, http.MethodPut, "entities/"+name+"/"+id+"/", payload, nil)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding updated %s: %w", name, err)
	}
	return &out, nil
}

func deleteEntity(ctx context.Context, c *Client, name, id string) error {
	_, err := c.Request(ctx, http.MethodDelete, "entities/"+name+"/"+id+"/", nil, nil)
	return err
}

// --- Models ---

// Ticket is a support ticket as the remote API represents it.
type Ticket struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	ProjectID string    `json:"projectId"`
	ClientID  string    `json:"clientId"`
	Assignee  string    `json:"assignee"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is one entry in a ticket's conversation thread.
type Message struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"createdAt"`
}

// Project is a client-scoped project with branding.
type Project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ClientID string `json:"clientId"`
	LogoURL  string `json:"logoUrl"`
	Color    string `json:"color"`
}

// User is an account visible to admins.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Invitation is a pending invite for onboarding a new user.
type Invitation struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ProjectID string    `json:"projectId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// --- Typed services ---

// Tickets exposes ticket CRUD.
type Tickets struct{ c *Client }

func (c *Client) Tickets() Tickets { return Tickets{c} }

func (s Tickets) List(ctx context.Context, opts ListOptions) ([]Ticket, error) {
	return listEntities[Ticket](ctx, s.c, "Ticket", opts)
}

func (s Tickets) Filter(ctx context.Context, conditions map[string]any, opts ListOptions) ([]Ticket, error) {
	return filterEntities[Ticket](ctx, s.c, "Ticket", conditions, opts)
}

func (s Tickets) Get(ctx context.Context, id string) (*Ticket, error) {
	return getEntity[Ticket](ctx, s.c, "Ticket", id)
}

func (s Tickets) Create(ctx context.Context, t *Ticket) (*Ticket, error) {
	return createEntity[Ticket](ctx, s.c, "Ticket", t)
}

func (s Tickets) Update(ctx context.Context, id string, t *Ticket) (*Ticket, error) {
	return updateEntity[Ticket](ctx, s.c, "Ticket", id, t)
}

func (s Tickets) Delete(ctx context.Context, id string) error {
	return deleteEntity(ctx, s.c, "Ticket", id)
}

// Messages exposes the ticket conversation thread.
type Messages struct{ c *Client }

func (c *Client) Messages() Messages { return Messages{c} }

func (s Messages) ForTicket(ctx context.Context, ticketID string) ([]Message, error) {
	return filterEntities[Message](ctx, s.c, "Message",
		map[string]any{"ticketId": ticketID}, ListOptions{SortBy: "createdAt"})
}

func (s Messages) Create(ctx context.Context, m *Message) (*Message, error) {
	return createEntity[Message](ctx, s.c, "Message", m)
}

// Projects exposes project CRUD for admin screens.
type Projects struct{ c *Client }

func (c *Client) Projects() Projects { return Projects{c} }

func (s Projects) List(ctx context.Context, opts ListOptions) ([]Project, error) {
	return listEntities[Project](ctx, s.c, "Project", opts)
}

func (s Projects) Get(ctx context.Context, id string) (*Project, error) {
	return getEntity[Project](ctx, s.c, "Project", id)
}

func (s Projects) Create(ctx context.Context, p *Project) (*Project, error) {
	return createEntity[Project](ctx, s.c, "Project", p)
}

func (s Projects) Update(ctx context.Context, id string, p *Project) (*Project, error) {
	return updateEntity[Project](ctx, s.c, "Project", id, p)
}

func (s Projects) Delete(ctx context.Context, id string) error {
	return deleteEntity(ctx, s.c, "Project", id)
}

// Users exposes user administration.
type Users struct{ c *Client }

func (c *Client) Users() Users { return Users{c} }

func (s Users) List(ctx context.Context, opts ListOptions) ([]User, error) {
	return listEntities[User](ctx, s.c, "User", opts)
}

func (s Users) Get(ctx context.Context, id string) (*User, error) {
	return getEntity[User](ctx, s.c, "User", id)
}

func (s Users) Update(ctx context.Context, id string, u *User) (*User, error) {
	return updateEntity[User](ctx, s.c, "User", id, u)
}

func (s Users) Delete(ctx context.Context, id string) error {
	return deleteEntity(ctx, s.c, "User", id)
}

// Invitations exposes invite management for onboarding.
type Invitations struct{ c *Client }

func (c *Client) Invitations() Invitations { return Invitations{c} }

func (s Invitations) List(ctx context.Context, opts ListOptions) ([]Invitation, error) {
	return listEntities[Invitation](ctx, s.c, "Invitation", opts)
}

func (s Invitations) Create(ctx context.Context, inv *Invitation) (*Invitation, error) {
	return createEntity[Invitation](ctx, s.c, "Invitation", inv)
}

func (s Invitations) Delete(ctx context.Context, id string) error {
	return deleteEntity(ctx, s.c, "Invitation", id)
}
