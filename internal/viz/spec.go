// Package viz proposes chart specifications for a result table. Specs
// come from fixed heuristics over the column classification, or from
// an external suggestion source whose output is treated as untrusted
// and validated column-by-column before use.
package viz

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdash/internal/dataset"
)

// ChartType identifies one of the supported chart kinds.
type ChartType string

const (
	ChartLine      ChartType = "line"
	ChartBar       ChartType = "bar"
	ChartBox       ChartType = "box"
	ChartScatter   ChartType = "scatter"
	ChartHistogram ChartType = "histogram"
	ChartHeatmap   ChartType = "heatmap"
	ChartPie       ChartType = "pie"
)

// Transform names a pre-render reshaping of the table view.
type Transform string

const (
	// TransformNone renders against the raw table.
	TransformNone Transform = ""

	// TransformCorrelation replaces the view with the correlation
	// matrix of the spec's columns.
	TransformCorrelation Transform = "correlation"

	// TransformCount replaces the view with a (value, count) table
	// derived from the spec's x column and rebinds y to the count
	// column.
	TransformCount Transform = "count"
)

// Spec is a declarative description of one chart to render.
//
// Column bindings by type: line/scatter use X and Y; bar uses X
// (group) and Y (value, ignored for agg=count); box uses X (optional
// group) and Y (numeric); histogram uses X; pie uses X (labels) and Y
// (values, counts when empty); heatmap uses Columns.
type Spec struct {
	Type      ChartType      `json:"type"`
	Title     string         `json:"title"`
	X         string         `json:"x,omitempty"`
	Y         string         `json:"y,omitempty"`
	Columns   []string       `json:"columns,omitempty"`
	Transform Transform      `json:"transform,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
}

// Category groups rendered charts for display caps.
type Category string

const (
	CategoryNumerical    Category = "numerical"
	CategoryCategorical  Category = "categorical"
	CategoryRelationship Category = "relationship"
	CategoryOverview     Category = "overview"
)

// MaxChartsPerCategory bounds render cost and dashboard size. Excess
// specs are silently dropped, not queued.
const MaxChartsPerCategory = 6

// Validate checks that every column the spec references exists in the
// table. Specs failing validation are dropped, never rendered.
func (s Spec) Validate(t *dataset.Table) error {
	check := func(name string) error {
		if name != "" && !t.HasColumn(name) {
			return fmt.Errorf("chart %q references unknown column %q", s.Type, name)
		}
		return nil
	}
	if err := check(s.X); err != nil {
		return err
	}
	if err := check(s.Y); err != nil {
		return err
	}
	for _, c := range s.Columns {
		if err := check(c); err != nil {
			return err
		}
	}
	return nil
}

// Key returns a deduplication key covering the type and column
// bindings.
func (s Spec) Key() string {
	return strings.Join([]string{
		string(s.Type), s.X, s.Y, strings.Join(s.Columns, ","), string(s.Transform),
	}, "|")
}

// AggFunc returns the configured aggregation function for bar charts,
// defaulting to mean.
func (s Spec) AggFunc() string {
	if agg, ok := s.Config["agg"].(string); ok && agg != "" {
		return agg
	}
	return "mean"
}

// Categorize assigns the spec to a display category. Histograms and
// boxes describe single numeric distributions; bars and pies keyed on
// a column describe categorical composition; scatter, heatmap, and
// line describe relationships.
func (s Spec) Categorize() Category {
	switch s.Type {
	case ChartHistogram, ChartBox:
		return CategoryNumerical
	case ChartBar, ChartPie:
		return CategoryCategorical
	case ChartScatter, ChartHeatmap, ChartLine:
		return CategoryRelationship
	default:
		return CategoryOverview
	}
}
