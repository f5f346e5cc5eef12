package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/leapdash/internal/dashboard"
	"github.com/leapstack-labs/leapdash/internal/engine"
)

// renderResponse writes one question-answering result in the requested
// format.
func renderResponse(w io.Writer, resp *engine.Response, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return renderResponseText(w, resp)
}

func renderResponseText(w io.Writer, resp *engine.Response) error {
	_, _ = fmt.Fprintf(w, "SQL: %s\n", resp.SQL)
	if resp.Explanation != "" {
		_, _ = fmt.Fprintf(w, "Explanation: %s\n", resp.Explanation)
	}
	_, _ = fmt.Fprintf(w, "Rows: %d (%d ms)\n\n", resp.RowCount, resp.ElapsedMS)

	if d := resp.Dashboard; d != nil {
		renderDashboardText(w, d)
	}

	if len(resp.FollowUps) > 0 {
		_, _ = fmt.Fprintln(w, "Follow-ups:")
		for _, q := range resp.FollowUps {
			_, _ = fmt.Fprintf(w, "  - %s\n", q)
		}
	}
	return nil
}

func renderDashboardText(w io.Writer, d *dashboard.Dashboard) {
	if s := d.Summary; s != nil && len(s.Numeric) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Column", "Count", "Mean", "Std", "Min", "Median", "Max"})

		names := make([]string, 0, len(s.Numeric))
		for name := range s.Numeric {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ns := s.Numeric[name]
			t.AppendRow(table.Row{
				name, ns.Count,
				formatOptFloat(ns.Mean), formatOptFloat(ns.Std),
				ns.Min, ns.Median, ns.Max,
			})
		}
		t.Render()
		_, _ = fmt.Fprintln(w)
	}

	if s := d.Summary; s != nil && len(s.Correlations) > 0 {
		_, _ = fmt.Fprintln(w, "Correlations:")
		for _, pair := range s.Correlations {
			_, _ = fmt.Fprintf(w, "  %s ~ %s: %.2f\n", pair.ColA, pair.ColB, pair.Coefficient)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(d.Charts) > 0 {
		_, _ = fmt.Fprintln(w, "Charts:")
		for _, c := range d.Charts {
			status := ""
			if c.Failed {
				status = fmt.Sprintf(" (failed: %s)", c.Error)
			}
			_, _ = fmt.Fprintf(w, "  [%s] %s: %s%s\n", c.Category, c.Type, c.Title, status)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(d.Insights) > 0 {
		_, _ = fmt.Fprintln(w, "Insights:")
		for _, insight := range d.Insights {
			_, _ = fmt.Fprintf(w, "  - %s\n", insight)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", *v), "0"), ".")
}
