// Package server is the localhost bridge the front-end talks to: time
// tracking operations served locally, ticket data proxied through the
// authenticated API client.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kolapsis/deskbridge/internal/api"
	"github.com/kolapsis/deskbridge/internal/tickets"
	"github.com/kolapsis/deskbridge/internal/tracker"
)

// Server wires the tracker engine, the API client and the ticket provider
// behind one chi router.
type Server struct {
	engine   *tracker.Engine
	client   *api.Client
	provider *tickets.Provider
}

// New creates a bridge Server.
func New(engine *tracker.Engine, client *api.Client, provider *tickets.Provider) *Server {
	return &Server{engine: engine, client: client, provider: provider}
}

// Router builds the HTTP surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(SecurityHeaders)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/entries", s.handleListEntries)
		r.Post("/entries", s.handleLogEntry)
		r.Put("/entries/{id}", s.handleEditEntry)
		r.Delete("/entries/{id}", s.handleDeleteEntry)

		r.Get("/budgets", s.handleListBudgets)
		r.Get("/budgets/{ticketID}", s.handleGetBudget)
		r.Put("/budgets/{ticketID}", s.handleSetBudget)
		r.Delete("/budgets/{ticketID}", s.handleRemoveBudget)

		r.Get("/aggregates", s.handleAggregates)
		r.Get("/calendar/{year}/{month}", s.handleCalendar)
		r.Get("/stats", s.handleStats)

		r.Get("/timer", s.handleTimerState)
		r.Post("/timer/start", s.handleTimerStart)
		r.Post("/timer/stop", s.handleTimerStop)

		r.Get("/export.csv", s.handleExport)

		r.Get("/tickets", s.handleTickets)
		r.Post("/logout", s.handleLogout)
	})

	return r
}

// --- Entries ---

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Entries())
}

type logEntryRequest struct {
	TicketID    string `json:"ticketId"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	User        string `json:"user"`
}

func (s *Server) handleLogEntry(w http.ResponseWriter, r *http.Request) {
	var req logEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &tracker.ValidationError{Field: "body", Message: "malformed JSON"})
		return
	}

	entry, err := s.engine.Log(tracker.LogInput{
		TicketID:    req.TicketID,
		TicketTitle: s.provider.Title(req.TicketID),
		Description: req.Description,
		Duration:    req.Duration,
		User:        req.User,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type editEntryRequest struct {
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	var req editEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &tracker.ValidationError{Field: "body", Message: "malformed JSON"})
		return
	}

	if err := s.engine.Edit(chi.URLParam(r, "id"), req.Duration, req.Description); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	s.engine.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// --- Budgets ---

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Budgets())
}

type budgetResponse struct {
	TicketID    string  `json:"ticketId"`
	BudgetHours float64 `json:"budgetHours,omitempty"`
	HasBudget   bool    `json:"hasBudget"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	hours, ok := s.engine.Budget(ticketID)
	writeJSON(w, http.StatusOK, budgetResponse{
		TicketID:    ticketID,
		BudgetHours: hours,
		HasBudget:   ok,
	})
}

type setBudgetRequest struct {
	BudgetHours float64 `json:"budgetHours"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req setBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &tracker.ValidationError{Field: "body", Message: "malformed JSON"})
		return
	}

	if err := s.engine.SetBudget(chi.URLParam(r, "ticketID"), req.BudgetHours); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveBudget(w http.ResponseWriter, r *http.Request) {
	s.engine.RemoveBudget(chi.URLParam(r, "ticketID"))
	w.WriteHeader(http.StatusNoContent)
}

// --- Analytics ---

func (s *Server) handleAggregates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Aggregates())
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, &tracker.ValidationError{Field: "year", Message: "must be a number"})
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, &tracker.ValidationError{Field: "month", Message: "must be 1-12"})
		return
	}

	writeJSON(w, http.StatusOK, s.engine.DayTotals(year, time.Month(month), time.Local))
}

type statsResponse struct {
	TicketTotals  map[string]float64    `json:"ticketTotals"`
	TopTickets    []tracker.TicketHours `json:"topTickets"`
	AveragePerDay float64               `json:"averageHoursPerActiveDay"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		TicketTotals:  s.engine.TicketTotals(),
		TopTickets:    s.engine.TopTickets(5),
		AveragePerDay: s.engine.AverageHoursPerActiveDay(),
	})
}

// --- Timer ---

type timerStartRequest struct {
	TicketID string `json:"ticketId"`
}

func (s *Server) handleTimerState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Timer())
}

func (s *Server) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	var req timerStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &tracker.ValidationError{Field: "body", Message: "malformed JSON"})
		return
	}

	if err := s.engine.StartTimer(req.TicketID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTimerStop(w http.ResponseWriter, r *http.Request) {
	ticketID, elapsed, err := s.engine.StopTimer()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ticketId": ticketID,
		"duration": elapsed,
	})
}

// --- Export ---

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filename := tracker.ExportFilename(time.Now())
	w.Header().Set("Content-Type", "text/csv;charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := s.engine.ExportCSV(w); err != nil {
		slog.Error("csv export failed", "error", err)
	}
}

// --- Remote ---

func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request) {
	if err := s.provider.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.provider.All())
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.client.ClearSession()
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses: validation → 422,
// authentication required → 401, upstream API error → its status.
func writeError(w http.ResponseWriter, err error) {
	var (
		vErr    *tracker.ValidationError
		authErr *api.AuthenticationRequiredError
		apiErr  *api.APIError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
	case errors.As(err, &apiErr):
		status = apiErr.Status
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
