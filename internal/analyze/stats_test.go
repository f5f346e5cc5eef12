package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdash/internal/dataset"
)

func mustTable(t *testing.T, cols ...dataset.Column) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New(cols...)
	require.NoError(t, err)
	return tbl
}

func TestClassifyPartitionsColumns(t *testing.T) {
	tbl := mustTable(t,
		dataset.Column{Name: "amount", Values: []any{1.0, 2.0}},
		dataset.Column{Name: "region", Values: []any{"n", "s"}},
		dataset.Column{Name: "day", Values: []any{"2024-01-01", "2024-01-02"}},
		dataset.Column{Name: "empty", Values: []any{nil, nil}},
	)

	cls := Classify(tbl)
	assert.Equal(t, []string{"amount"}, cls.Numeric)
	assert.Equal(t, []string{"region"}, cls.Categorical)
	assert.Equal(t, []string{"day"}, cls.Temporal)
}

func TestSummarizeNumericStats(t *testing.T) {
	tbl := mustTable(t,
		dataset.Column{Name: "v", Values: []any{1.0, 2.0, 3.0, 4.0, 5.0}},
	)
	s := Summarize(tbl, Classify(tbl))

	require.Contains(t, s.Numeric, "v")
	ns := s.Numeric["v"]
	assert.Equal(t, 5, ns.Count)
	require.NotNil(t, ns.Mean)
	assert.Equal(t, 3.0, *ns.Mean)
	assert.Equal(t, 1.0, ns.Min)
	assert.Equal(t, 5.0, ns.Max)
	assert.Equal(t, 3.0, ns.Median)
	assert.Equal(t, 2.0, ns.Q1)
	assert.Equal(t, 4.0, ns.Q3)
	require.NotNil(t, ns.Std)
	assert.InDelta(t, 1.58, *ns.Std, 0.001)
}

func TestSummarizeSingleValueHasNoMeanOrStd(t *testing.T) {
	tbl := mustTable(t, dataset.Column{Name: "v", Values: []any{7.0}})
	s := Summarize(tbl, Classify(tbl))

	ns := s.Numeric["v"]
	assert.Equal(t, 1, ns.Count)
	assert.Nil(t, ns.Mean)
	assert.Nil(t, ns.Std)
	assert.Equal(t, 7.0, ns.Min)
	assert.Equal(t, 7.0, ns.Max)
}

func TestSummarizeCategoricalStats(t *testing.T) {
	tbl := mustTable(t,
		dataset.Column{Name: "region", Values: []any{"n", "n", "s", "e", "n", "s"}},
	)
	s := Summarize(tbl, Classify(tbl))

	require.Contains(t, s.Categorical, "region")
	cs := s.Categorical["region"]
	assert.Equal(t, 3, cs.Cardinality)
	require.NotEmpty(t, cs.TopValues)
	assert.Equal(t, "n", cs.TopValues[0].Value)
	assert.Equal(t, 3, cs.TopValues[0].Count)
}

func TestSummarizeHighCardinalitySkipsTopValues(t *testing.T) {
	vals := make([]any, 0, MaxCategoricalCardinality)
	for i := 0; i < MaxCategoricalCardinality; i++ {
		vals = append(vals, string(rune('a'+i)))
	}
	tbl := mustTable(t, dataset.Column{Name: "id", Values: vals})
	s := Summarize(tbl, Classify(tbl))

	cs := s.Categorical["id"]
	assert.Equal(t, MaxCategoricalCardinality, cs.Cardinality)
	assert.Nil(t, cs.TopValues)
}

func TestSummarizeMissingValues(t *testing.T) {
	tbl := mustTable(t,
		dataset.Column{Name: "a", Values: []any{1.0, nil, nil}},
		dataset.Column{Name: "b", Values: []any{"x", "y", "z"}},
	)
	s := Summarize(tbl, Classify(tbl))

	assert.Equal(t, map[string]int{"a": 2}, s.MissingValues)
}

func TestSummarizeEmptyTableFlagsNoData(t *testing.T) {
	tbl := mustTable(t, dataset.Column{Name: "a", Values: nil})
	s := Summarize(tbl, Classify(tbl))

	assert.True(t, s.NoData)
	assert.Equal(t, 0, s.RowCount)
	assert.Empty(t, s.Numeric)
}

func TestSummarizeIsDeterministic(t *testing.T) {
	tbl := mustTable(t,
		dataset.Column{Name: "x", Values: []any{1.0, 2.0, 3.0, 4.0}},
		dataset.Column{Name: "y", Values: []any{2.0, 4.0, 6.0, 8.0}},
		dataset.Column{Name: "g", Values: []any{"a", "b", "a", "b"}},
	)
	cls := Classify(tbl)

	first := Summarize(tbl, cls)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Summarize(tbl, cls))
	}
}

func TestCorrelationsThresholdAndOrder(t *testing.T) {
	// x and y are perfectly correlated, x and z perfectly
	// anti-correlated, noise is uncorrelated with everything.
	tbl := mustTable(t,
		dataset.Column{Name: "x", Values: []any{1.0, 2.0, 3.0, 4.0}},
		dataset.Column{Name: "y", Values: []any{10.0, 20.0, 30.0, 40.0}},
		dataset.Column{Name: "noise", Values: []any{5.0, -3.0, 4.0, -2.0}},
	)

	pairs := Correlations(tbl, []string{"x", "y", "noise"})
	require.NotEmpty(t, pairs)
	assert.Equal(t, "x", pairs[0].ColA)
	assert.Equal(t, "y", pairs[0].ColB)
	assert.Equal(t, 1.0, pairs[0].Coefficient)

	for _, p := range pairs {
		assert.Greater(t, abs(p.Coefficient), CorrelationThreshold)
	}
}

func TestPearson(t *testing.T) {
	xs := []any{1.0, 2.0, 3.0}

	r, ok := Pearson(xs, []any{2.0, 4.0, 6.0})
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)

	r, ok = Pearson(xs, []any{6.0, 4.0, 2.0})
	require.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-9)

	// Zero variance on one side.
	_, ok = Pearson(xs, []any{5.0, 5.0, 5.0})
	assert.False(t, ok)

	// Nulls drop the pair; fewer than two complete pairs fails.
	_, ok = Pearson([]any{1.0, nil, nil}, []any{2.0, 3.0, 4.0})
	assert.False(t, ok)
}

func TestQuantileLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.Equal(t, 2.5, Quantile(sorted, 0.5))
	assert.Equal(t, 1.75, Quantile(sorted, 0.25))
	assert.Equal(t, 4.0, Quantile(sorted, 1.0))
	assert.Equal(t, 1.0, Quantile(sorted, 0.0))
	assert.Equal(t, 9.0, Quantile([]float64{9}, 0.5))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
