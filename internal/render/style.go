// Package render turns chart specs and result tables into renderable
// chart artifacts. Each artifact carries an ECharts option payload for
// the display layer, or a typed failure reason when rendering that one
// chart was impossible. Failures are values: no error crosses the
// render boundary, so one bad spec never aborts its siblings.
package render

import (
	"encoding/json"

	"github.com/leapstack-labs/leapdash/internal/viz"
)

// Style is the immutable rendering configuration threaded into every
// render call. Sharing one Style across concurrent renders is safe;
// render never mutates it.
type Style struct {
	// Palette supplies series colors, cycled in order.
	Palette []string

	// Background is the chart background color.
	Background string

	// MarkerOpacity is the reduced opacity applied to histogram bars
	// and scatter markers for overlap legibility.
	MarkerOpacity float64

	// Height is the rendered chart height in pixels, carried in the
	// payload for the display layer.
	Height int

	// DefaultBins is the histogram bin count when the spec does not
	// configure one.
	DefaultBins int

	// PieTopN is the slice cap applied to pies over large views when
	// the spec does not configure one.
	PieTopN int
}

// DefaultStyle returns the standard dashboard style.
func DefaultStyle() *Style {
	return &Style{
		Palette: []string{
			"#5470c6", "#91cc75", "#fac858", "#ee6666",
			"#73c0de", "#3ba272", "#fc8452", "#9a60b4",
		},
		Background:    "#ffffff",
		MarkerOpacity: 0.7,
		Height:        400,
		DefaultBins:   10,
		PieTopN:       5,
	}
}

func (s *Style) color(i int) string {
	if len(s.Palette) == 0 {
		return "#5470c6"
	}
	return s.Palette[i%len(s.Palette)]
}

// Artifact is the outcome of rendering one chart spec: either an
// ECharts option payload, or a failure marker with a human-readable
// reason.
type Artifact struct {
	Type     viz.ChartType   `json:"type"`
	Title    string          `json:"title"`
	Category viz.Category    `json:"category"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Failed   bool            `json:"failed,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ChartError is a typed per-chart render failure.
type ChartError struct {
	Type   viz.ChartType
	Reason string
}

func (e *ChartError) Error() string {
	return "failed to render " + string(e.Type) + " chart: " + e.Reason
}
