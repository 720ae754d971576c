package tracker

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var csvHeader = []string{"Ticket ID", "Ticket Title", "Description", "Time (HH:MM:SS)", "Hours", "Date", "User"}

// ExportCSV writes the entry list as CSV in the current in-memory order
// (newest first). Every field is double-quoted with internal quotes doubled.
// With zero entries nothing is written.
func (e *Engine) ExportCSV(w io.Writer) error {
	e.mu.Lock()
	entries := make([]Entry, len(e.entries))
	copy(entries, e.entries)
	e.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}

	if err := writeCSVRow(w, csvHeader); err != nil {
		return err
	}
	for i := range entries {
		row := []string{
			entries[i].TicketID,
			entries[i].TicketTitle,
			entries[i].Description,
			entries[i].Formatted,
			fmt.Sprintf("%.2f", entries[i].Hours),
			entries[i].LoggedAt.Format(time.RFC3339),
			entries[i].User,
		}
		if err := writeCSVRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

// writeCSVRow force-quotes every field, which encoding/csv cannot do.
func writeCSVRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	if err != nil {
		return fmt.Errorf("writing csv row: %w", err)
	}
	return nil
}

// ExportFilename returns the download filename for an export taken at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("time_entries_%d.csv", t.UnixMilli())
}
