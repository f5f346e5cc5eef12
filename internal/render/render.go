package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/leapstack-labs/leapdash/internal/dataset"
	"github.com/leapstack-labs/leapdash/internal/viz"
)

// Chart renders one spec against the table and returns the resulting
// artifact. Render failures of any kind are converted into failure
// artifacts; the function never returns an error and never panics
// across its boundary.
func Chart(spec viz.Spec, t *dataset.Table, style *Style) Artifact {
	if style == nil {
		style = DefaultStyle()
	}

	artifact := Artifact{
		Type:     spec.Type,
		Title:    spec.Title,
		Category: spec.Categorize(),
	}

	option, err := buildOption(spec, t, style)
	if err != nil {
		var chartErr *ChartError
		if errors.As(err, &chartErr) {
			artifact.Error = chartErr.Error()
		} else {
			artifact.Error = fmt.Sprintf("failed to render %s chart: %v", spec.Type, err)
		}
		artifact.Failed = true
		return artifact
	}

	payload, err := json.Marshal(option)
	if err != nil {
		artifact.Failed = true
		artifact.Error = fmt.Sprintf("failed to encode %s chart: %v", spec.Type, err)
		return artifact
	}
	artifact.Payload = payload
	return artifact
}

func buildOption(spec viz.Spec, t *dataset.Table, style *Style) (map[string]any, error) {
	if t == nil || t.RowCount() == 0 {
		return nil, &ChartError{Type: spec.Type, Reason: "no data to render"}
	}

	spec, view, err := applyTransform(spec, t)
	if err != nil {
		return nil, err
	}

	switch spec.Type {
	case viz.ChartHistogram:
		return histogramOption(spec, view, style)
	case viz.ChartBox:
		return boxOption(spec, view, style)
	case viz.ChartBar:
		return barOption(spec, view, style)
	case viz.ChartPie:
		return pieOption(spec, view, style)
	case viz.ChartScatter:
		return scatterOption(spec, view, style)
	case viz.ChartHeatmap:
		return heatmapOption(spec, view, style)
	case viz.ChartLine:
		return lineOption(spec, view, style)
	default:
		return nil, &ChartError{Type: spec.Type, Reason: "unsupported chart type"}
	}
}

func baseOption(title string, style *Style) map[string]any {
	return map[string]any{
		"backgroundColor": style.Background,
		"title":           map[string]any{"text": title},
		"tooltip":         map[string]any{"trigger": "item"},
		"grid":            map[string]any{"containLabel": true},
		"height":          style.Height,
	}
}

func numericColumn(spec viz.Spec, view *dataset.Table, name string) (*dataset.Column, error) {
	if name == "" {
		return nil, &ChartError{Type: spec.Type, Reason: "missing column binding"}
	}
	col, ok := view.Column(name)
	if !ok {
		return nil, &ChartError{Type: spec.Type, Reason: "column " + name + " not found"}
	}
	if len(col.Floats()) == 0 {
		return nil, &ChartError{Type: spec.Type, Reason: "column " + name + " has no numeric values"}
	}
	return col, nil
}

func histogramOption(spec viz.Spec, view *dataset.Table, style *Style) (map[string]any, error) {
	col, err := numericColumn(spec, view, spec.X)
	if err != nil {
		return nil, err
	}
	vals := col.Floats()

	bins := style.DefaultBins
	if b, ok := configInt(spec.Config, "bins"); ok && b > 0 {
		bins = b
	}

	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	width := (hi - lo) / float64(bins)
	if width == 0 {
		// Degenerate single-value column: one bin holds everything.
		bins, width = 1, 1
	}

	counts := make([]int, bins)
	labels := make([]string, bins)
	for _, v := range vals {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	for i := range labels {
		labels[i] = fmt.Sprintf("%.2f", lo+(float64(i)+0.5)*width)
	}

	option := baseOption(spec.Title, style)
	option["xAxis"] = map[string]any{"type": "category", "data": labels, "name": spec.X}
	option["yAxis"] = map[string]any{"type": "value", "name": "count"}
	option["series"] = []any{map[string]any{
		"type":      "bar",
		"data":      counts,
		"barGap":    "0%",
		"itemStyle": map[string]any{"color": style.color(0), "opacity": style.MarkerOpacity},
	}}
	return option, nil
}

func boxOption(spec viz.Spec, view *dataset.Table, style *Style) (map[string]any, error) {
	valueCol := spec.Y
	if valueCol == "" {
		valueCol = spec.X
	}
	col, err := numericColumn(spec, view, valueCol)
	if err != nil {
		return nil, err
	}

	var labels []string
	var boxes [][]float64

	if spec.X != "" && spec.X != valueCol {
		groups, order, err := groupValues(spec, view, spec.X, valueCol)
		if err != nil {
			return nil, err
		}
		for _, label := range order {
			box, ok := fiveNumber(groups[label])
			if !ok {
				continue
			}
			labels = append(labels, label)
			boxes = append(boxes, box)
		}
	} else {
		box, ok := fiveNumber(col.Floats())
		if !ok {
			return nil, &ChartError{Type: spec.Type, Reason: "not enough values for box plot"}
		}
		labels = []string{valueCol}
		boxes = [][]float64{box}
	}
	if len(boxes) == 0 {
		return nil, &ChartError{Type: spec.Type, Reason: "no groups with numeric values"}
	}

	option := baseOption(spec.Title, style)
	option["xAxis"] = map[string]any{"type": "category", "data": labels}
	option["yAxis"] = map[string]any{"type": "value", "name": valueCol}
	option["series"] = []any{map[string]any{
		"type":      "boxplot",
		"data":      boxes,
		"itemStyle": map[string]any{"color": style.color(0)},
	}}
	return option, nil
}

func barOption(spec viz.Spec, view *dataset.Table, style *Style) (map[string]any, error) {
	if spec.X == "" {
		return nil, &ChartError{Type: spec.Type, Reason: "missing x column binding"}
	}

	var labels []string
	var values []float64

	if spec.AggFunc() == "count" {
		col, ok := view.Column(spec.X)
		if !ok {
			return nil, &ChartError{Type: spec.Type, Reason: "column " + spec.X + " not found"}
		}
		for _, vc := range col.ValueCounts() {
			labels = append(labels, vc.Value)
			values = append(values, float64(vc.Count))
		}
	} else {
		groups, order, err := groupValues(spec, view, spec.X, spec.Y)
		if err != nil {
			return nil, err
		}
		for _, label := range order {
			agg, ok := aggregate(groups[label], spec.AggFunc())
			if !ok {
				continue
			}
			labels = append(labels, label)
			values = append(values, agg)
		}
	}
	if len(labels) == 0 {
		return nil, &ChartError{Type: spec.Type, Reason: "no groups to aggregate"}
	}

	option := baseOption(spec.Title, style)
	option["xAxis"] = map[string]any{"type": "category", "data": labels, "name": spec.X}
	option["yAxis"] = map[string]any{"type": "value", "name": spec.Y}
	option["series"] = []any{map[string]any{
		"type":      "bar",
		"data":      values,
		"itemStyle": map[string]any{"color": style.color(0)},
	}}
	return option, nil
}

func pieOption(spec viz.Spec, view *dataset.Table, style *Style) (map[string]any, error) {
	labelCol, ok := view.Column(spec.X)
	if !ok {
		return nil, &ChartError{Type: spec.Type, Reason: "label column " + spec.X + " not found"}
	}

	type slice struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	// Sum values per label.
	sums := make(map[string]float64)
	var order []string
	if spec.Y != "" {
		valueCol, ok := view.Column(spec.Y)
		if !ok {
			return nil, &ChartError{Type: spec.Type, Reason: "value column " + spec.Y + " not found"}
		}
		for i, lv := range labelCol.Values {
			if lv == nil || i >= len(valueCol.Values) {
				continue
			}
			v, ok := valueCol.Values[i].(float64)
			if !ok {
				continue
			}
			label := dataset.FormatValue(lv)
			if _, seen := sums[label]; !seen {
				order = append(order, label)
			}
			sums[label] += v
		}
	} else {
		for _, vc := range labelCol.ValueCounts() {
			order = append(order, vc.Value)
			sums[vc.Value] = float64(vc.Count)
		}
	}
	if len(order) == 0 {
		return nil, &ChartError{Type: spec.Type, Reason: "no values for pie chart"}
	}

	slices := make([]slice, 0, len(order))
	for _, label := range order {
		slices = append(slices, slice{Name: label, Value: sums[label]})
	}

	// Collapse long views to the top-N slices by value sum, folding the
	// remainder into "Other" when it contributes anything.
	if view.RowCount() > 10 {
		topN := style.PieTopN
		if n, ok := configInt(spec.Config, "top_n"); ok && n > 0 {
			topN = n
		}
		if len(slices) > topN {
			sort.SliceStable(slices, func(i, j int) bool { return slices[i].Value > slices[j].Value })
			var other float64
			for _, s := range slices[topN:] {
				other += s.Value
			}
			slices = slices[:topN]
			if other > 0 {
				slices = append(slices, slice{Name: "Other", Value: other})
			}
		}
	}

	data := make([]any, len(slices))
	for i, s := range slices {
		data[i] = s
	}

	option := baseOption(spec.Title, style)
	option["series"] = []any{map[string]any{
		"type":   "pie",
		"radius": "60%",
		"data":   data,
		"label":  map[string]any{"formatter": "{b}: {d}%"},
	}}
	option["color"] = style.Palette
	return option, nil
}

func scatterOption(spec viz.Spec, view *dataset.Table, style *Style) (map[string]any, error) {
	xcol, err := numericColumn(spec, view, spec.X)
	if err != nil {
		return nil, err
	}
	ycol, err := numericColumn(spec, view, spec.Y)
	if err != nil {
		return nil, err
	}

	var points [][]float64
	for i := range xcol.Values {
		x, xok := xcol.Values[i].(float64)
		if i >= len(ycol.Values) {
			break
		}
		y, yok := ycol.Values[i].(float64)
		if xok && yok {
			points = append(points, []float64{x, y})
		}
	}
	if len(points) == 0 {
		return nil, &ChartError{Type: spec.Type, Reason: "no complete (x, y) pairs"}
	}

	option := baseOption(spec.Title, style)
	option["xAxis"] = map[string]any{"type": "value", "name": spec.X}
	option["yAxis"] = map[string]any{"type": "value", "name": spec.Y}
	option["series"] = []any{map[string]any{
		"type":      "scatter",
		"data":      points,
		"itemStyle": map[string]any{"color": style.color(0), "opacity": style.MarkerOpacity},
	}}
	return option, nil
}

// heatmapOption renders the correlation matrix view produced by the
// correlation transform: one label column followed by one numeric
// column per matrix axis.
func heatmapOption(spec viz.Spec, view *dataset.Table, style *Style) (map[string]any, error) {
	if len(spec.Columns) == 0 {
		// Without an explicit column list the view is the raw table,
		// not a correlation matrix; refuse rather than guess.
		return nil, &ChartError{Type: spec.Type, Reason: "no columns specified"}
	}
	if view.ColumnCount() < 2 {
		return nil, &ChartError{Type: spec.Type, Reason: "correlation matrix is empty"}
	}

	labelCol := view.Columns[0]
	names := labelCol.Strings()

	var cells []any
	for xi, col := range view.Columns[1:] {
		for yi, v := range col.Values {
			f, ok := v.(float64)
			if !ok {
				continue
			}
			cells = append(cells, []any{xi, yi, math.Round(f*100) / 100})
		}
	}
	if len(cells) == 0 {
		return nil, &ChartError{Type: spec.Type, Reason: "correlation matrix has no values"}
	}

	option := baseOption(spec.Title, style)
	option["xAxis"] = map[string]any{"type": "category", "data": names}
	option["yAxis"] = map[string]any{"type": "category", "data": names}
	option["visualMap"] = map[string]any{
		"min":        -1,
		"max":        1,
		"calculable": true,
		"inRange":    map[string]any{"color": []string{"#313695", "#ffffff", "#a50026"}},
	}
	option["series"] = []any{map[string]any{
		"type":  "heatmap",
		"data":  cells,
		"label": map[string]any{"show": true},
	}}
	return option, nil
}

func lineOption(spec viz.Spec, view *dataset.Table, style *Style) (map[string]any, error) {
	xcol, ok := view.Column(spec.X)
	if !ok {
		return nil, &ChartError{Type: spec.Type, Reason: "column " + spec.X + " not found"}
	}

	// Time axes sort left to right; anything else keeps row order.
	if xcol.Kind() == dataset.KindTemporal {
		view = view.SortedByTime(spec.X)
		xcol, _ = view.Column(spec.X)
	}

	ycol, err := numericColumn(spec, view, spec.Y)
	if err != nil {
		return nil, err
	}

	var labels []string
	var values []any
	for i, xv := range xcol.Values {
		if xv == nil || i >= len(ycol.Values) {
			continue
		}
		labels = append(labels, formatAxisValue(xv))
		if y, ok := ycol.Values[i].(float64); ok {
			values = append(values, y)
		} else {
			values = append(values, nil)
		}
	}
	if len(labels) == 0 {
		return nil, &ChartError{Type: spec.Type, Reason: "no points to plot"}
	}

	option := baseOption(spec.Title, style)
	option["xAxis"] = map[string]any{"type": "category", "data": labels, "name": spec.X}
	option["yAxis"] = map[string]any{"type": "value", "name": spec.Y}
	option["series"] = []any{map[string]any{
		"type":      "line",
		"data":      values,
		"smooth":    false,
		"itemStyle": map[string]any{"color": style.color(0)},
	}}
	return option, nil
}

// groupValues collects the numeric values of valueCol keyed by the
// formatted value of groupCol, preserving first-appearance order.
func groupValues(spec viz.Spec, view *dataset.Table, groupCol, valueCol string) (map[string][]float64, []string, error) {
	gc, ok := view.Column(groupCol)
	if !ok {
		return nil, nil, &ChartError{Type: spec.Type, Reason: "column " + groupCol + " not found"}
	}
	vc, ok := view.Column(valueCol)
	if !ok {
		return nil, nil, &ChartError{Type: spec.Type, Reason: "column " + valueCol + " not found"}
	}

	groups := make(map[string][]float64)
	var order []string
	for i, gv := range gc.Values {
		if gv == nil || i >= len(vc.Values) {
			continue
		}
		v, ok := vc.Values[i].(float64)
		if !ok {
			continue
		}
		label := dataset.FormatValue(gv)
		if _, seen := groups[label]; !seen {
			order = append(order, label)
		}
		groups[label] = append(groups[label], v)
	}
	return groups, order, nil
}

func aggregate(vals []float64, fn string) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	switch fn {
	case "sum":
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum, true
	case "min":
		m := vals[0]
		for _, v := range vals {
			if v < m {
				m = v
			}
		}
		return m, true
	case "max":
		m := vals[0]
		for _, v := range vals {
			if v > m {
				m = v
			}
		}
		return m, true
	case "count":
		return float64(len(vals)), true
	default: // mean
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum / float64(len(vals)), true
	}
}

// fiveNumber returns [min, q1, median, q3, max] for a box plot.
func fiveNumber(vals []float64) ([]float64, bool) {
	if len(vals) == 0 {
		return nil, false
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return []float64{
		sorted[0],
		quantile(sorted, 0.25),
		quantile(sorted, 0.5),
		quantile(sorted, 0.75),
		sorted[len(sorted)-1],
	}, true
}

func quantile(sorted []float64, q float64) float64 {
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

func formatAxisValue(v any) string {
	if ts, ok := v.(time.Time); ok {
		return ts.Format("2006-01-02 15:04:05")
	}
	return dataset.FormatValue(v)
}

func configInt(cfg map[string]any, key string) (int, bool) {
	if cfg == nil {
		return 0, false
	}
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
