// Package dashboard assembles analysis results, rendered charts, and
// narrative insights into a single dashboard document. The assembler
// is the only component that knows the "skip failed charts" and
// "no data short-circuit" policies; everything it calls is a pure
// function over well-typed input.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdash/internal/analyze"
	"github.com/leapstack-labs/leapdash/internal/dataset"
	"github.com/leapstack-labs/leapdash/internal/render"
	"github.com/leapstack-labs/leapdash/internal/viz"
)

// QueryInfo carries the query metadata attached to a dashboard.
type QueryInfo struct {
	SQL        string    `json:"sql"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Dashboard is the final document produced for one question-answering
// cycle. It is not mutated after assembly and serializes to nested
// maps of strings, numbers, lists, and sub-maps only.
type Dashboard struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Summary     *analyze.Summary  `json:"summary"`
	Charts      []render.Artifact `json:"charts"`
	Insights    []string          `json:"insights,omitempty"`
	Query       QueryInfo         `json:"query_info"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Narrator is the optional external insight collaborator. The
// assembler substitutes the deterministic built-in narrator when it is
// absent or fails.
type Narrator interface {
	Narrate(ctx context.Context, summary *analyze.Summary, charts []viz.Spec) ([]string, error)
}

// Assembler builds dashboards. It is stateless across calls and safe
// for concurrent use.
type Assembler struct {
	style    *render.Style
	narrator Narrator
	logger   *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithStyle overrides the default chart style.
func WithStyle(style *render.Style) Option {
	return func(a *Assembler) { a.style = style }
}

// WithNarrator installs an external insight collaborator.
func WithNarrator(n Narrator) Option {
	return func(a *Assembler) { a.narrator = n }
}

// WithLogger sets the assembler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) { a.logger = logger }
}

// New creates an Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		style:  render.DefaultStyle(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble runs the full pipeline over one result table: classify,
// summarize, recommend, render, narrate. Suggested specs, when
// provided, take precedence over heuristics per the reconciliation
// policy. Individual chart failures are recorded as failure artifacts
// and never abort the batch; an empty table short-circuits to a
// "no data" dashboard. Assemble never returns an error.
func (a *Assembler) Assemble(ctx context.Context, t *dataset.Table, query, title string, suggested []viz.Spec) *Dashboard {
	now := time.Now().UTC()
	d := &Dashboard{
		ID:          uuid.NewString(),
		Title:       title,
		Query:       QueryInfo{SQL: query, ExecutedAt: now},
		GeneratedAt: now,
	}

	cls := analyze.Classify(t)
	summary := analyze.Summarize(t, cls)
	d.Summary = summary

	if summary.NoData {
		d.Charts = []render.Artifact{}
		d.Insights = []string{analyze.NoDataInsight}
		return d
	}

	specs := capPerCategory(viz.Reconcile(t, cls, suggested))
	d.Charts = a.renderAll(specs, t)

	for _, c := range d.Charts {
		if c.Failed {
			a.logger.Warn("chart render failed", slog.String("type", string(c.Type)), slog.String("reason", c.Error))
		}
	}

	d.Insights = a.narrate(ctx, t, summary, specs)
	return d
}

// renderAll renders every spec concurrently. Each render gets the
// shared immutable style and its own result slot, so failures never
// race and output order matches spec order.
func (a *Assembler) renderAll(specs []viz.Spec, t *dataset.Table) []render.Artifact {
	artifacts := make([]render.Artifact, len(specs))

	var g errgroup.Group
	g.SetLimit(4)
	for i, spec := range specs {
		g.Go(func() error {
			artifacts[i] = render.Chart(spec, t, a.style)
			return nil
		})
	}
	// Render goroutines never return errors; failures land in their
	// artifact slots.
	_ = g.Wait()
	return artifacts
}

func (a *Assembler) narrate(ctx context.Context, t *dataset.Table, summary *analyze.Summary, specs []viz.Spec) []string {
	if a.narrator != nil {
		insights, err := a.narrator.Narrate(ctx, summary, specs)
		if err == nil && len(insights) > 0 {
			return insights
		}
		if err != nil {
			a.logger.Warn("external narrator failed, using built-in insights", slog.Any("error", err))
		}
	}
	return analyze.Narrate(t, summary)
}

// capPerCategory drops specs beyond the per-category render cap,
// preserving order. Excess specs are dropped, not queued.
func capPerCategory(specs []viz.Spec) []viz.Spec {
	counts := make(map[viz.Category]int)
	out := specs[:0]
	for _, s := range specs {
		cat := s.Categorize()
		if counts[cat] >= viz.MaxChartsPerCategory {
			continue
		}
		counts[cat]++
		out = append(out, s)
	}
	return out
}
