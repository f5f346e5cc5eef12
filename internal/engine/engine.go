// Package engine orchestrates one question-answering cycle: schema
// context, SQL generation, query execution, and dashboard assembly.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/leapstack-labs/leapdash/internal/adapter"
	"github.com/leapstack-labs/leapdash/internal/analyze"
	"github.com/leapstack-labs/leapdash/internal/dashboard"
	"github.com/leapstack-labs/leapdash/internal/llm"
	"github.com/leapstack-labs/leapdash/internal/viz"
)

// QueryGenerator translates a natural-language question into SQL given
// a schema context and target dialect.
type QueryGenerator interface {
	Generate(ctx context.Context, question, schemaContext, dialect string) (*llm.GeneratedQuery, error)
}

// ChartSuggester proposes chart specs for a question and result
// summary. Suggestions are advisory; invalid ones are discarded during
// reconciliation and a failing suggester never fails the cycle.
type ChartSuggester interface {
	SuggestCharts(ctx context.Context, question string, summary *analyze.Summary) ([]viz.Spec, error)
}

// FollowUpSuggester proposes further questions after a completed
// cycle. Advisory like chart suggestions; a failing suggester never
// fails the cycle.
type FollowUpSuggester interface {
	SuggestFollowUps(ctx context.Context, question, sqlQuery string) ([]string, error)
}

// Explainer produces a plain-language explanation for a SQL query.
// Generators that also implement it backfill the explanation when the
// completion returned bare SQL.
type Explainer interface {
	Explain(ctx context.Context, sqlQuery string) (string, error)
}

// QueryGenError reports a failure to translate a question into SQL.
type QueryGenError struct {
	Question string
	Err      error
}

func (e *QueryGenError) Error() string {
	return fmt.Sprintf("failed to generate query for %q: %v", e.Question, e.Err)
}

func (e *QueryGenError) Unwrap() error { return e.Err }

// ExecError reports a failure to execute generated SQL.
type ExecError struct {
	SQL string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to execute query: %v", e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Response is the full outcome of one question-answering cycle.
type Response struct {
	Question    string               `json:"question"`
	SQL         string               `json:"sql"`
	Explanation string               `json:"explanation,omitempty"`
	RowCount    int                  `json:"row_count"`
	Dashboard   *dashboard.Dashboard `json:"dashboard"`
	FollowUps   []string             `json:"follow_ups,omitempty"`
	ElapsedMS   int64                `json:"elapsed_ms"`
	Status      string               `json:"status"`
}

// Engine runs question-answering cycles against one warehouse
// connection. It caches the schema context and is safe for concurrent
// use; refreshes replace the snapshot atomically.
type Engine struct {
	adapter   adapter.Adapter
	gen       QueryGenerator
	suggester ChartSuggester
	followUps FollowUpSuggester
	assembler *dashboard.Assembler
	logger    *slog.Logger

	schema atomic.Pointer[SchemaContext]
}

// Option configures an Engine.
type Option func(*Engine)

// WithSuggester installs an external chart suggestion collaborator.
func WithSuggester(s ChartSuggester) Option {
	return func(e *Engine) { e.suggester = s }
}

// WithFollowUps installs an external follow-up question collaborator.
func WithFollowUps(f FollowUpSuggester) Option {
	return func(e *Engine) { e.followUps = f }
}

// WithAssembler overrides the default dashboard assembler.
func WithAssembler(a *dashboard.Assembler) Option {
	return func(e *Engine) { e.assembler = a }
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an Engine over a connected adapter and query generator.
func New(a adapter.Adapter, gen QueryGenerator, opts ...Option) *Engine {
	e := &Engine{
		adapter:   a,
		gen:       gen,
		assembler: dashboard.New(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SchemaContext returns the cached schema snapshot, building it on
// first use.
func (e *Engine) SchemaContext(ctx context.Context) (*SchemaContext, error) {
	if sc := e.schema.Load(); sc != nil {
		return sc, nil
	}
	return e.RefreshSchema(ctx)
}

// RefreshSchema rediscovers the warehouse schema and atomically
// replaces the cached snapshot. In-flight cycles keep the snapshot
// they started with.
func (e *Engine) RefreshSchema(ctx context.Context) (*SchemaContext, error) {
	sc, err := BuildSchemaContext(ctx, e.adapter)
	if err != nil {
		return nil, err
	}
	e.schema.Store(sc)
	e.logger.Info("schema context refreshed", slog.Int("tables", len(sc.Tables)))
	return sc, nil
}

// Ask runs one full cycle for the question: generate SQL, execute it,
// and assemble a dashboard over the result.
func (e *Engine) Ask(ctx context.Context, question string) (*Response, error) {
	start := time.Now()

	sc, err := e.SchemaContext(ctx)
	if err != nil {
		return nil, err
	}

	gq, err := e.gen.Generate(ctx, question, sc.Text, e.adapter.DialectName())
	if err != nil {
		return nil, &QueryGenError{Question: question, Err: err}
	}
	if err := ensureReadOnly(gq.Query); err != nil {
		return nil, &QueryGenError{Question: question, Err: err}
	}
	e.logger.Info("executing generated query", slog.String("sql", gq.Query))

	table, err := e.adapter.Query(ctx, gq.Query)
	if err != nil {
		return nil, &ExecError{SQL: gq.Query, Err: err}
	}

	// Bare-SQL completions carry no explanation; backfill from the
	// generator when it can explain queries.
	if gq.Explanation == "" {
		if ex, ok := e.gen.(Explainer); ok {
			text, err := ex.Explain(ctx, gq.Query)
			if err != nil {
				e.logger.Warn("query explanation failed", slog.Any("error", err))
			} else {
				gq.Explanation = text
			}
		}
	}

	var suggested []viz.Spec
	if e.suggester != nil {
		cls := analyze.Classify(table)
		summary := analyze.Summarize(table, cls)
		suggested, err = e.suggester.SuggestCharts(ctx, question, summary)
		if err != nil {
			e.logger.Warn("chart suggestion failed, using heuristics", slog.Any("error", err))
			suggested = nil
		}
	}

	d := e.assembler.Assemble(ctx, table, gq.Query, question, suggested)

	var followUps []string
	if e.followUps != nil {
		followUps, err = e.followUps.SuggestFollowUps(ctx, question, gq.Query)
		if err != nil {
			e.logger.Warn("follow-up suggestion failed", slog.Any("error", err))
			followUps = nil
		}
	}

	return &Response{
		Question:    question,
		SQL:         gq.Query,
		Explanation: gq.Explanation,
		RowCount:    table.RowCount(),
		Dashboard:   d,
		FollowUps:   followUps,
		ElapsedMS:   time.Since(start).Milliseconds(),
		Status:      "success",
	}, nil
}

// LoadCSV loads a CSV file into a warehouse table and drops the cached
// schema snapshot so the new table becomes visible to query
// generation.
func (e *Engine) LoadCSV(ctx context.Context, tableName, filePath string) error {
	if err := e.adapter.LoadCSV(ctx, tableName, filePath); err != nil {
		return err
	}
	e.schema.Store(nil)
	return nil
}

// ensureReadOnly rejects generated statements that are not plain
// queries. The generator is prompted for read-only SQL; this is the
// backstop.
func ensureReadOnly(sqlQuery string) error {
	upper := strings.ToUpper(strings.TrimSpace(sqlQuery))
	if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") {
		return nil
	}
	return fmt.Errorf("generated statement is not a read-only query")
}
