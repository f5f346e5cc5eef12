package viz

import (
	"fmt"

	"github.com/leapstack-labs/leapdash/internal/analyze"
	"github.com/leapstack-labs/leapdash/internal/dataset"
)

const (
	// Bar and box charts need a grouping column with enough categories
	// to compare but few enough to read.
	minGroupCardinality = 2
	maxGroupCardinality = 15

	// Pie charts tolerate fewer slices than bars.
	maxPieCardinality = 10

	// Histograms are proposed for the first few numeric columns only.
	maxHistogramColumns = 3

	// maxSpecs bounds the recommender's output overall; per-category
	// caps apply again at render time.
	maxSpecs = 24
)

// Recommend proposes chart specs from the table's shape using fixed
// heuristics. The rules fire independently: a table can satisfy all of
// them at once. The result is ordered, deduplicated, and bounded.
func Recommend(t *dataset.Table, cls analyze.Classification) []Spec {
	var specs []Spec

	// Temporal + numeric: time series line chart.
	if len(cls.Temporal) > 0 && len(cls.Numeric) > 0 {
		specs = append(specs, Spec{
			Type:  ChartLine,
			X:     cls.Temporal[0],
			Y:     cls.Numeric[0],
			Title: fmt.Sprintf("Time Series of %s", cls.Numeric[0]),
		})
	}

	// Categorical grouping column with readable cardinality: bar with
	// mean aggregation plus a box plot per group.
	if len(cls.Numeric) > 0 {
		if group, ok := pickGroupColumn(t, cls.Categorical); ok {
			specs = append(specs, Spec{
				Type:   ChartBar,
				X:      group,
				Y:      cls.Numeric[0],
				Title:  fmt.Sprintf("%s by %s", cls.Numeric[0], group),
				Config: map[string]any{"agg": "mean"},
			})
			specs = append(specs, Spec{
				Type:  ChartBox,
				X:     group,
				Y:     cls.Numeric[0],
				Title: fmt.Sprintf("Distribution of %s by %s", cls.Numeric[0], group),
			})
			if len(cls.Numeric) >= 2 {
				specs = append(specs, Spec{
					Type:   ChartBar,
					X:      group,
					Y:      cls.Numeric[1],
					Title:  fmt.Sprintf("%s by %s", cls.Numeric[1], group),
					Config: map[string]any{"agg": "mean"},
				})
			}
		}
	}

	// Two or more numeric columns: scatter on the first two, plus a
	// correlation heatmap over all of them when there are at least
	// three.
	if len(cls.Numeric) >= 2 {
		specs = append(specs, Spec{
			Type:  ChartScatter,
			X:     cls.Numeric[0],
			Y:     cls.Numeric[1],
			Title: fmt.Sprintf("Relationship between %s and %s", cls.Numeric[0], cls.Numeric[1]),
		})
		if len(cls.Numeric) >= 3 {
			specs = append(specs, Spec{
				Type:      ChartHeatmap,
				Columns:   append([]string(nil), cls.Numeric...),
				Transform: TransformCorrelation,
				Title:     "Correlation Heatmap",
			})
		}
	}

	// Histograms for the first few numeric columns.
	for i, name := range cls.Numeric {
		if i >= maxHistogramColumns {
			break
		}
		specs = append(specs, Spec{
			Type:  ChartHistogram,
			X:     name,
			Title: fmt.Sprintf("Distribution of %s", name),
		})
	}

	// Pies for low-cardinality categorical columns: value-weighted when
	// a numeric column exists, count-based otherwise.
	for _, name := range cls.Categorical {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		card := col.Cardinality()
		if card < minGroupCardinality || card > maxPieCardinality {
			continue
		}
		if len(cls.Numeric) > 0 {
			specs = append(specs, Spec{
				Type:  ChartPie,
				X:     name,
				Y:     cls.Numeric[0],
				Title: fmt.Sprintf("%s Distribution by %s", cls.Numeric[0], name),
			})
		} else {
			specs = append(specs, Spec{
				Type:      ChartPie,
				X:         name,
				Transform: TransformCount,
				Title:     fmt.Sprintf("Distribution of %s", name),
			})
		}
	}

	return dedupe(specs)
}

// Reconcile applies the external-first-else-fallback policy: each
// suggested spec is validated against the table and invalid ones are
// discarded; when at least one suggestion survives, the suggestions
// replace the heuristic list, otherwise the heuristics run as
// fallback.
func Reconcile(t *dataset.Table, cls analyze.Classification, suggested []Spec) []Spec {
	var valid []Spec
	for _, s := range suggested {
		if s.Type == "" {
			continue
		}
		if err := s.Validate(t); err != nil {
			continue
		}
		valid = append(valid, s)
	}
	if len(valid) > 0 {
		return dedupe(valid)
	}
	return Recommend(t, cls)
}

// pickGroupColumn returns the first categorical column whose
// cardinality falls in the readable grouping range.
func pickGroupColumn(t *dataset.Table, categorical []string) (string, bool) {
	for _, name := range categorical {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		card := col.Cardinality()
		if card >= minGroupCardinality && card <= maxGroupCardinality {
			return name, true
		}
	}
	return "", false
}

func dedupe(specs []Spec) []Spec {
	seen := make(map[string]struct{}, len(specs))
	out := specs[:0]
	for _, s := range specs {
		key := s.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
		if len(out) >= maxSpecs {
			break
		}
	}
	return out
}
