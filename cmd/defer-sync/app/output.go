package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/ritualhelper/defer-sync/internal/deferlist"
	"github.com/ritualhelper/defer-sync/internal/plan"
	"github.com/ritualhelper/defer-sync/internal/status"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderRows(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(header)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render row: %w", err)
		}
	}
	return table.Render()
}

func renderEntries(w io.Writer, entries []deferlist.Entry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Name,
			strconv.Itoa(e.Priority),
			strconv.Itoa(e.MinStackSize),
			strconv.FormatBool(e.Enabled),
			string(e.Origin),
		})
	}
	return renderRows(w, []string{"Name", "Priority", "Min Stack", "Enabled", "Origin"}, rows)
}

func renderClicks(w io.Writer, clicks []plan.Click) error {
	rows := make([][]string, 0, len(clicks))
	for i, c := range clicks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Candidate.ID,
			c.Candidate.BaseName,
			strconv.Itoa(c.Candidate.StackSize),
			c.Entry,
			strconv.Itoa(c.Priority),
		})
	}
	return renderRows(w, []string{"#", "ID", "Item", "Stack", "Entry", "Priority"}, rows)
}

func renderStatus(w io.Writer, st *status.SyncStatus) error {
	rows := [][]string{
		{"Phase", string(st.Phase)},
		{"Message", st.Message},
		{"Run", st.RunID},
		{"Mode", st.Mode},
		{"Last attempt", formatTime(st.LastAttempt)},
		{"Failed attempts", strconv.Itoa(st.AttemptCount)},
		{"Last sync", formatTime(st.LastSyncTime)},
		{"Manual entries", strconv.Itoa(st.ManualCount)},
		{"API entries", strconv.Itoa(st.APICount)},
	}
	return renderRows(w, []string{"Field", "Value"}, rows)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
