package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdash/internal/analyze"
	"github.com/leapstack-labs/leapdash/internal/viz"
)

// Advisor wraps a completion client with the analysis-side prompts:
// chart suggestions, narrative insights, and follow-up questions. It
// implements the dashboard Narrator interface.
type Advisor struct {
	client Client
	logger *slog.Logger
}

// NewAdvisor creates an Advisor. If logger is nil, a discard logger is
// used.
func NewAdvisor(client Client, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Advisor{client: client, logger: logger}
}

const suggestSystemPrompt = `You are a data visualization expert. Given a question and a statistical
summary of a query result, suggest up to 6 charts as a JSON array. Each
element is an object with keys: "viz_type" (one of line, bar, box,
scatter, histogram, heatmap, pie), "x_column", "y_column", "columns"
(for heatmap), "title", and optionally "data_transform" (count or
correlation). Use only column names that appear in the summary. Return
only the JSON array.`

// SuggestCharts asks the completion provider for chart specs tailored
// to the question. The returned specs are untrusted; callers validate
// them against the table during reconciliation.
func (a *Advisor) SuggestCharts(ctx context.Context, question string, summary *analyze.Summary) ([]viz.Spec, error) {
	desc, err := describeSummary(summary)
	if err != nil {
		return nil, err
	}

	messages := []Message{
		{Role: "system", Content: suggestSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Question: %s\n\nResult summary:\n%s", question, desc)},
	}
	text, err := a.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("chart suggestion failed: %w", err)
	}

	suggestions := viz.ParseSuggestions(text)
	specs := viz.SpecsFromSuggestions(suggestions)
	a.logger.Debug("parsed chart suggestions", slog.Int("count", len(specs)))
	return specs, nil
}

const narrateSystemPrompt = `You are a data analyst writing dashboard commentary. Given a
statistical summary of a query result and the charts being shown,
write 3 to 5 short factual insights, one per line. State numbers from
the summary; do not speculate beyond the data. Return only the insight
lines, no numbering and no markdown.`

// Narrate produces narrative insights for a dashboard. It satisfies
// the dashboard Narrator interface; the assembler falls back to
// deterministic insights when this fails.
func (a *Advisor) Narrate(ctx context.Context, summary *analyze.Summary, charts []viz.Spec) ([]string, error) {
	desc, err := describeSummary(summary)
	if err != nil {
		return nil, err
	}

	var chartNames []string
	for _, spec := range charts {
		chartNames = append(chartNames, fmt.Sprintf("%s: %s", spec.Type, spec.Title))
	}

	messages := []Message{
		{Role: "system", Content: narrateSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Result summary:\n%s\n\nCharts:\n%s", desc, strings.Join(chartNames, "\n"))},
	}
	text, err := a.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("insight narration failed: %w", err)
	}

	insights := splitLines(text)
	if len(insights) == 0 {
		return nil, fmt.Errorf("completion output contained no insights")
	}
	return insights, nil
}

// SuggestFollowUps proposes further questions to ask after a completed
// cycle. Failures are non-fatal to callers; follow-ups are garnish.
func (a *Advisor) SuggestFollowUps(ctx context.Context, question, sqlQuery string) ([]string, error) {
	messages := []Message{
		{Role: "system", Content: "You are a data analyst. Given a question and the SQL that answered it, suggest 3 natural follow-up questions, one per line, no numbering."},
		{Role: "user", Content: fmt.Sprintf("Question: %s\n\nSQL:\n%s", question, sqlQuery)},
	}
	text, err := a.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("follow-up suggestion failed: %w", err)
	}
	return splitLines(text), nil
}

// describeSummary renders the summary as indented JSON for prompt
// inclusion. The summary already contains only JSON-safe values.
func describeSummary(summary *analyze.Summary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}
	return string(data), nil
}

// splitLines breaks completion output into trimmed non-empty lines,
// dropping leading list markers the model may add despite instructions.
func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		for i := 1; i <= 9; i++ {
			line = strings.TrimPrefix(line, fmt.Sprintf("%d. ", i))
		}
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
