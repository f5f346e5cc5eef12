package render

import (
	"github.com/leapstack-labs/leapdash/internal/analyze"
	"github.com/leapstack-labs/leapdash/internal/dataset"
	"github.com/leapstack-labs/leapdash/internal/viz"
)

// countColumn is the synthetic value column produced by the count
// transform.
const countColumn = "count"

// applyTransform reshapes the table view before type-specific
// rendering, when the spec declares a transform. It returns the
// (possibly rebound) spec alongside the new view. The input table is
// never modified.
func applyTransform(spec viz.Spec, t *dataset.Table) (viz.Spec, *dataset.Table, error) {
	switch spec.Transform {
	case viz.TransformCorrelation:
		view, err := correlationMatrix(spec, t)
		return spec, view, err

	case viz.TransformCount:
		if spec.X == "" {
			return spec, nil, &ChartError{Type: spec.Type, Reason: "count transform requires a label column"}
		}
		col, ok := t.Column(spec.X)
		if !ok {
			return spec, nil, &ChartError{Type: spec.Type, Reason: "label column " + spec.X + " not found"}
		}
		counts := col.ValueCounts()
		labels := make([]any, len(counts))
		values := make([]any, len(counts))
		for i, vc := range counts {
			labels[i] = vc.Value
			values[i] = float64(vc.Count)
		}
		view := &dataset.Table{Columns: []dataset.Column{
			{Name: spec.X, Values: labels},
			{Name: countColumn, Values: values},
		}}
		// Rebind the value column to the synthetic count column.
		spec.Y = countColumn
		return spec, view, nil

	default:
		return spec, t, nil
	}
}

// correlationMatrix builds a square correlation table over the spec's
// column list, or over all numeric columns when the spec leaves the
// list empty and the chart kind permits guessing. Heatmaps must name
// their columns explicitly. Coefficients are clamped to [-1, 1].
func correlationMatrix(spec viz.Spec, t *dataset.Table) (*dataset.Table, error) {
	cols := spec.Columns
	if len(cols) == 0 {
		if spec.Type == viz.ChartHeatmap {
			return nil, &ChartError{Type: spec.Type, Reason: "no columns specified for correlation matrix"}
		}
		cls := analyze.Classify(t)
		cols = cls.Numeric
	}
	if len(cols) == 0 {
		return nil, &ChartError{Type: spec.Type, Reason: "no numeric columns available for correlation matrix"}
	}

	labels := make([]any, len(cols))
	for i, name := range cols {
		labels[i] = name
	}
	out := &dataset.Table{Columns: []dataset.Column{{Name: "column", Values: labels}}}

	for _, a := range cols {
		ca, ok := t.Column(a)
		if !ok {
			return nil, &ChartError{Type: spec.Type, Reason: "column " + a + " not found"}
		}
		vals := make([]any, len(cols))
		for j, b := range cols {
			if a == b {
				vals[j] = 1.0
				continue
			}
			cb, ok := t.Column(b)
			if !ok {
				return nil, &ChartError{Type: spec.Type, Reason: "column " + b + " not found"}
			}
			if r, ok := analyze.Pearson(ca.Values, cb.Values); ok {
				vals[j] = clamp(r, -1, 1)
			} else {
				vals[j] = nil
			}
		}
		out.Columns = append(out.Columns, dataset.Column{Name: a, Values: vals})
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
