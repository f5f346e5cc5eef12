package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdash/internal/adapter"
	"github.com/leapstack-labs/leapdash/internal/analyze"
	"github.com/leapstack-labs/leapdash/internal/dataset"
	"github.com/leapstack-labs/leapdash/internal/llm"
	"github.com/leapstack-labs/leapdash/internal/viz"
)

// fakeAdapter serves canned metadata and query results.
type fakeAdapter struct {
	table      *dataset.Table
	queryErr   error
	loadErr    error
	queriedSQL []string
	tableCalls int
	loadedCSVs []string
}

func (f *fakeAdapter) Connect(context.Context, adapter.Config) error { return nil }
func (f *fakeAdapter) Close() error                                  { return nil }
func (f *fakeAdapter) Exec(context.Context, string) error            { return nil }
func (f *fakeAdapter) DialectName() string                           { return "duckdb" }

func (f *fakeAdapter) Query(_ context.Context, sql string) (*dataset.Table, error) {
	f.queriedSQL = append(f.queriedSQL, sql)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.table, nil
}

func (f *fakeAdapter) TableNames(context.Context) ([]string, error) {
	f.tableCalls++
	return []string{"orders"}, nil
}

func (f *fakeAdapter) TableColumns(context.Context, string) ([]adapter.ColumnInfo, error) {
	return []adapter.ColumnInfo{
		{Name: "region", Type: "TEXT", Nullable: true, Position: 1},
		{Name: "sales", Type: "DOUBLE", Nullable: false, Position: 2},
	}, nil
}

func (f *fakeAdapter) LoadCSV(_ context.Context, tableName, _ string) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loadedCSVs = append(f.loadedCSVs, tableName)
	return nil
}

type fakeGenerator struct {
	query       string
	explanation string
	err         error
	question    string
	schema      string
	dialect     string
}

func (g *fakeGenerator) Generate(_ context.Context, question, schemaContext, dialect string) (*llm.GeneratedQuery, error) {
	g.question, g.schema, g.dialect = question, schemaContext, dialect
	if g.err != nil {
		return nil, g.err
	}
	return &llm.GeneratedQuery{Query: g.query, Explanation: g.explanation}, nil
}

// explainingGenerator also answers Explain calls, like the real query
// generator.
type explainingGenerator struct {
	fakeGenerator
	explainText  string
	explainErr   error
	explainedSQL string
}

func (g *explainingGenerator) Explain(_ context.Context, sqlQuery string) (string, error) {
	g.explainedSQL = sqlQuery
	return g.explainText, g.explainErr
}

type fakeFollowUps struct {
	questions []string
	err       error
	question  string
	sql       string
}

func (f *fakeFollowUps) SuggestFollowUps(_ context.Context, question, sqlQuery string) ([]string, error) {
	f.question, f.sql = question, sqlQuery
	return f.questions, f.err
}

type fakeSuggester struct {
	specs    []viz.Spec
	err      error
	question string
	summary  *analyze.Summary
}

func (s *fakeSuggester) SuggestCharts(_ context.Context, question string, summary *analyze.Summary) ([]viz.Spec, error) {
	s.question, s.summary = question, summary
	return s.specs, s.err
}

func resultTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New(
		dataset.Column{Name: "region", Values: []any{"n", "s", "n"}},
		dataset.Column{Name: "sales", Values: []any{10.0, 20.0, 30.0}},
	)
	require.NoError(t, err)
	return tbl
}

func TestAskHappyPath(t *testing.T) {
	fa := &fakeAdapter{table: resultTable(t)}
	gen := &fakeGenerator{query: "SELECT region, sales FROM orders", explanation: "canned"}
	e := New(fa, gen)

	resp, err := e.Ask(context.Background(), "sales by region")
	require.NoError(t, err)

	assert.Equal(t, "sales by region", resp.Question)
	assert.Equal(t, "SELECT region, sales FROM orders", resp.SQL)
	assert.Equal(t, "canned", resp.Explanation)
	assert.Equal(t, 3, resp.RowCount)
	assert.Equal(t, "success", resp.Status)
	require.NotNil(t, resp.Dashboard)
	assert.NotEmpty(t, resp.Dashboard.Charts)

	// The generator saw the rendered schema and the adapter dialect.
	assert.Contains(t, gen.schema, "Table: orders")
	assert.Contains(t, gen.schema, "region (TEXT, nullable)")
	assert.Equal(t, "duckdb", gen.dialect)
	assert.Equal(t, []string{"SELECT region, sales FROM orders"}, fa.queriedSQL)
}

func TestAskQueryGenError(t *testing.T) {
	cause := errors.New("provider down")
	e := New(&fakeAdapter{table: resultTable(t)}, &fakeGenerator{err: cause})

	_, err := e.Ask(context.Background(), "q")
	require.Error(t, err)

	var genErr *QueryGenError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "q", genErr.Question)
	assert.ErrorIs(t, err, cause)
}

func TestAskRejectsNonReadOnlySQL(t *testing.T) {
	e := New(&fakeAdapter{table: resultTable(t)}, &fakeGenerator{query: "DROP TABLE orders"})

	_, err := e.Ask(context.Background(), "q")
	require.Error(t, err)

	var genErr *QueryGenError
	require.True(t, errors.As(err, &genErr))
	assert.Contains(t, err.Error(), "not a read-only query")
}

func TestAskExecError(t *testing.T) {
	cause := errors.New("syntax error")
	fa := &fakeAdapter{queryErr: cause}
	e := New(fa, &fakeGenerator{query: "SELECT broken"})

	_, err := e.Ask(context.Background(), "q")
	require.Error(t, err)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "SELECT broken", execErr.SQL)
	assert.ErrorIs(t, err, cause)
}

func TestAskUsesSuggester(t *testing.T) {
	suggester := &fakeSuggester{specs: []viz.Spec{
		{Type: viz.ChartBar, X: "region", Y: "sales", Title: "Suggested"},
	}}
	e := New(&fakeAdapter{table: resultTable(t)}, &fakeGenerator{query: "SELECT 1"}, WithSuggester(suggester))

	resp, err := e.Ask(context.Background(), "sales by region")
	require.NoError(t, err)

	assert.Equal(t, "sales by region", suggester.question)
	require.NotNil(t, suggester.summary)
	assert.Equal(t, 3, suggester.summary.RowCount)

	require.Len(t, resp.Dashboard.Charts, 1)
	assert.Equal(t, "Suggested", resp.Dashboard.Charts[0].Title)
}

func TestAskSuggesterFailureFallsBackToHeuristics(t *testing.T) {
	suggester := &fakeSuggester{err: errors.New("timeout")}
	e := New(&fakeAdapter{table: resultTable(t)}, &fakeGenerator{query: "SELECT 1"}, WithSuggester(suggester))

	resp, err := e.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Dashboard.Charts)
	for _, c := range resp.Dashboard.Charts {
		assert.False(t, c.Failed)
	}
}

func TestAskIncludesFollowUps(t *testing.T) {
	followUps := &fakeFollowUps{questions: []string{"How about by month?", "Which region grew?"}}
	e := New(&fakeAdapter{table: resultTable(t)}, &fakeGenerator{query: "SELECT 1"}, WithFollowUps(followUps))

	resp, err := e.Ask(context.Background(), "sales by region")
	require.NoError(t, err)
	assert.Equal(t, followUps.questions, resp.FollowUps)
	assert.Equal(t, "sales by region", followUps.question)
	assert.Equal(t, "SELECT 1", followUps.sql)
}

func TestAskFollowUpFailureIsNonFatal(t *testing.T) {
	followUps := &fakeFollowUps{err: errors.New("timeout")}
	e := New(&fakeAdapter{table: resultTable(t)}, &fakeGenerator{query: "SELECT 1"}, WithFollowUps(followUps))

	resp, err := e.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Nil(t, resp.FollowUps)
}

func TestAskBackfillsMissingExplanation(t *testing.T) {
	gen := &explainingGenerator{
		fakeGenerator: fakeGenerator{query: "SELECT 1"},
		explainText:   "It selects a constant.",
	}
	e := New(&fakeAdapter{table: resultTable(t)}, gen)

	resp, err := e.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "It selects a constant.", resp.Explanation)
	assert.Equal(t, "SELECT 1", gen.explainedSQL)
}

func TestAskKeepsGeneratedExplanation(t *testing.T) {
	gen := &explainingGenerator{
		fakeGenerator: fakeGenerator{query: "SELECT 1", explanation: "already there"},
		explainText:   "should not be used",
	}
	e := New(&fakeAdapter{table: resultTable(t)}, gen)

	resp, err := e.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "already there", resp.Explanation)
	assert.Empty(t, gen.explainedSQL)
}

func TestAskExplainFailureIsNonFatal(t *testing.T) {
	gen := &explainingGenerator{
		fakeGenerator: fakeGenerator{query: "SELECT 1"},
		explainErr:    errors.New("provider down"),
	}
	e := New(&fakeAdapter{table: resultTable(t)}, gen)

	resp, err := e.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, resp.Explanation)
	assert.Equal(t, "success", resp.Status)
}

func TestSchemaContextIsCached(t *testing.T) {
	fa := &fakeAdapter{table: resultTable(t)}
	e := New(fa, &fakeGenerator{query: "SELECT 1"})

	ctx := context.Background()
	first, err := e.SchemaContext(ctx)
	require.NoError(t, err)
	second, err := e.SchemaContext(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, fa.tableCalls)
}

func TestRefreshSchemaReplacesSnapshot(t *testing.T) {
	fa := &fakeAdapter{table: resultTable(t)}
	e := New(fa, &fakeGenerator{query: "SELECT 1"})

	ctx := context.Background()
	first, err := e.SchemaContext(ctx)
	require.NoError(t, err)

	refreshed, err := e.RefreshSchema(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, refreshed)

	current, err := e.SchemaContext(ctx)
	require.NoError(t, err)
	assert.Same(t, refreshed, current)
	assert.Equal(t, 2, fa.tableCalls)
}

func TestLoadCSVInvalidatesSchemaCache(t *testing.T) {
	fa := &fakeAdapter{table: resultTable(t)}
	e := New(fa, &fakeGenerator{query: "SELECT 1"})

	ctx := context.Background()
	_, err := e.SchemaContext(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, fa.tableCalls)

	require.NoError(t, e.LoadCSV(ctx, "sales", "/tmp/sales.csv"))
	assert.Equal(t, []string{"sales"}, fa.loadedCSVs)

	_, err = e.SchemaContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fa.tableCalls)
}

func TestLoadCSVErrorKeepsCache(t *testing.T) {
	fa := &fakeAdapter{table: resultTable(t), loadErr: fmt.Errorf("bad file")}
	e := New(fa, &fakeGenerator{query: "SELECT 1"})

	ctx := context.Background()
	_, err := e.SchemaContext(ctx)
	require.NoError(t, err)

	require.Error(t, e.LoadCSV(ctx, "sales", "/tmp/sales.csv"))

	_, err = e.SchemaContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fa.tableCalls)
}

func TestEnsureReadOnly(t *testing.T) {
	assert.NoError(t, ensureReadOnly("SELECT 1"))
	assert.NoError(t, ensureReadOnly("  with t as (select 1) select * from t"))
	assert.Error(t, ensureReadOnly("DELETE FROM orders"))
	assert.Error(t, ensureReadOnly("INSERT INTO orders VALUES (1)"))
	assert.Error(t, ensureReadOnly(""))
}
