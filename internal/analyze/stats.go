package analyze

import (
	"math"
	"sort"
	"time"

	"github.com/leapstack-labs/leapdash/internal/dataset"
)

const (
	// MaxCategoricalCardinality is the distinct-value limit above which
	// a categorical column gets no frequency table. High-cardinality
	// identifier columns carry no categorical signal.
	MaxCategoricalCardinality = 10

	// TopValueLimit caps the per-column frequency table.
	TopValueLimit = 5

	// CorrelationThreshold is the minimum |r| for a pair to be retained
	// in the summary at all.
	CorrelationThreshold = 0.3

	// StrongCorrelationThreshold is the stricter bar for narrating a
	// correlation in text. Kept distinct from CorrelationThreshold on
	// purpose: retention and narration answer different questions.
	StrongCorrelationThreshold = 0.7

	// NarratedCorrelationLimit caps how many pairs are surfaced in
	// narration.
	NarratedCorrelationLimit = 3
)

// NumericStats holds descriptive statistics for one numeric column.
// Mean and Std are absent (nil) when the column has fewer than two
// non-null values.
type NumericStats struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean,omitempty"`
	Std    *float64 `json:"std,omitempty"`
	Median float64  `json:"median"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Q1     float64  `json:"q1"`
	Q3     float64  `json:"q3"`
}

// CategoricalStats holds cardinality and the top value frequencies for
// one categorical column. TopValues is nil when the column's
// cardinality is at or above MaxCategoricalCardinality.
type CategoricalStats struct {
	Cardinality int                  `json:"cardinality"`
	TopValues   []dataset.ValueCount `json:"top_values,omitempty"`
}

// TemporalStats holds the observed timestamp range of one temporal
// column.
type TemporalStats struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// CorrelationPair records the Pearson coefficient between two numeric
// columns.
type CorrelationPair struct {
	ColA        string  `json:"col_a"`
	ColB        string  `json:"col_b"`
	Coefficient float64 `json:"coefficient"`
}

// Summary is the full statistical description of one result table.
type Summary struct {
	RowCount       int                         `json:"row_count"`
	ColumnCount    int                         `json:"column_count"`
	Classification Classification              `json:"column_types"`
	Numeric        map[string]NumericStats     `json:"numeric_stats,omitempty"`
	Categorical    map[string]CategoricalStats `json:"categorical_stats,omitempty"`
	Temporal       map[string]TemporalStats    `json:"temporal_stats,omitempty"`
	MissingValues  map[string]int              `json:"missing_values,omitempty"`
	Correlations   []CorrelationPair           `json:"correlations,omitempty"`
	NoData         bool                        `json:"no_data,omitempty"`
}

// Summarize computes summary statistics for the table under the given
// classification. A table with zero rows returns a minimal summary
// flagged NoData; downstream stages treat that as terminal but
// non-fatal.
func Summarize(t *dataset.Table, cls Classification) *Summary {
	s := &Summary{
		RowCount:       t.RowCount(),
		ColumnCount:    t.ColumnCount(),
		Classification: cls,
	}
	if s.RowCount == 0 {
		s.NoData = true
		return s
	}

	for _, name := range cls.Numeric {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		if s.Numeric == nil {
			s.Numeric = make(map[string]NumericStats)
		}
		s.Numeric[name] = numericStats(col.Floats())
	}

	for _, name := range cls.Categorical {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		if s.Categorical == nil {
			s.Categorical = make(map[string]CategoricalStats)
		}
		cs := CategoricalStats{Cardinality: col.Cardinality()}
		if cs.Cardinality < MaxCategoricalCardinality {
			counts := col.ValueCounts()
			if len(counts) > TopValueLimit {
				counts = counts[:TopValueLimit]
			}
			cs.TopValues = counts
		}
		s.Categorical[name] = cs
	}

	for _, name := range cls.Temporal {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		times := col.Times()
		if len(times) == 0 {
			continue
		}
		var ts TemporalStats
		first := true
		for _, tm := range times {
			if first {
				ts.Min, ts.Max = tm, tm
				first = false
				continue
			}
			if tm.Before(ts.Min) {
				ts.Min = tm
			}
			if tm.After(ts.Max) {
				ts.Max = tm
			}
		}
		if s.Temporal == nil {
			s.Temporal = make(map[string]TemporalStats)
		}
		s.Temporal[name] = ts
	}

	for i := range t.Columns {
		col := &t.Columns[i]
		if n := col.NullCount(); n > 0 {
			if s.MissingValues == nil {
				s.MissingValues = make(map[string]int)
			}
			s.MissingValues[col.Name] = n
		}
	}

	s.Correlations = Correlations(t, cls.Numeric)
	return s
}

// Correlations computes pairwise Pearson coefficients across the named
// numeric columns. Self-pairs and mirror pairs are excluded, pairs
// with |r| <= CorrelationThreshold are dropped entirely, and the
// result is sorted by |r| descending.
func Correlations(t *dataset.Table, numeric []string) []CorrelationPair {
	var pairs []CorrelationPair
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			a, aok := t.Column(numeric[i])
			b, bok := t.Column(numeric[j])
			if !aok || !bok {
				continue
			}
			r, ok := Pearson(a.Values, b.Values)
			if !ok || math.Abs(r) <= CorrelationThreshold {
				continue
			}
			pairs = append(pairs, CorrelationPair{
				ColA:        numeric[i],
				ColB:        numeric[j],
				Coefficient: Round2(r),
			})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].Coefficient) > math.Abs(pairs[j].Coefficient)
	})
	return pairs
}

// Pearson computes the Pearson correlation coefficient over rows where
// both values are non-null numbers. It returns false when fewer than
// two complete pairs exist or either side has zero variance.
func Pearson(xs, ys []any) (float64, bool) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}

	var px, py []float64
	for i := 0; i < n; i++ {
		x, xok := xs[i].(float64)
		y, yok := ys[i].(float64)
		if xok && yok {
			px = append(px, x)
			py = append(py, y)
		}
	}
	if len(px) < 2 {
		return 0, false
	}

	mx := mean(px)
	my := mean(py)
	var cov, vx, vy float64
	for i := range px {
		dx := px[i] - mx
		dy := py[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}

func numericStats(vals []float64) NumericStats {
	ns := NumericStats{Count: len(vals)}
	if len(vals) == 0 {
		return ns
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	ns.Min = Round2(sorted[0])
	ns.Max = Round2(sorted[len(sorted)-1])
	ns.Median = Round2(Quantile(sorted, 0.5))
	ns.Q1 = Round2(Quantile(sorted, 0.25))
	ns.Q3 = Round2(Quantile(sorted, 0.75))

	if len(vals) >= 2 {
		m := mean(vals)
		rm := Round2(m)
		ns.Mean = &rm
		sd := Round2(stddev(vals, m))
		ns.Std = &sd
	}
	return ns
}

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Round2 rounds to two decimal places, the fixed display precision for
// summary statistics.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(vals []float64, m float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}
