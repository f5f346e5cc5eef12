package viz

import (
	"encoding/json"
	"strings"
)

// Suggestion is the loosely-typed shape of one externally suggested
// chart. It accepts both the canonical field names and the alternates
// seen in free-form completion output. Nothing in a Suggestion is
// trusted until it survives Spec validation against the table.
type Suggestion struct {
	VizType       string         `json:"viz_type"`
	Type          string         `json:"type"`
	XColumn       string         `json:"x_column"`
	YColumn       string         `json:"y_column"`
	LabelColumn   string         `json:"label_column"`
	ValueColumn   string         `json:"value_column"`
	Columns       []string       `json:"columns"`
	Title         string         `json:"title"`
	DataTransform string         `json:"data_transform"`
	Config        map[string]any `json:"config"`
}

// ToSpec converts a suggestion into a chart spec, normalizing type
// aliases. It returns false when the suggested type is not one of the
// supported chart kinds.
func (s Suggestion) ToSpec() (Spec, bool) {
	name := s.VizType
	if name == "" {
		name = s.Type
	}
	ct, ok := normalizeChartType(name)
	if !ok {
		return Spec{}, false
	}

	spec := Spec{
		Type:    ct,
		Title:   s.Title,
		X:       s.XColumn,
		Y:       s.YColumn,
		Columns: s.Columns,
		Config:  s.Config,
	}
	if spec.Title == "" {
		spec.Title = strings.ToUpper(string(ct[0])) + string(ct[1:]) + " Visualization"
	}
	if spec.X == "" {
		spec.X = s.LabelColumn
	}
	if spec.Y == "" && s.ValueColumn != "" && s.ValueColumn != "count" {
		spec.Y = s.ValueColumn
	}
	switch s.DataTransform {
	case string(TransformCorrelation):
		spec.Transform = TransformCorrelation
	case string(TransformCount):
		spec.Transform = TransformCount
	}
	return spec, true
}

func normalizeChartType(name string) (ChartType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "line", "timeseries", "time_series":
		return ChartLine, true
	case "bar":
		return ChartBar, true
	case "box", "boxplot", "box_plot":
		return ChartBox, true
	case "scatter":
		return ChartScatter, true
	case "hist", "histogram":
		return ChartHistogram, true
	case "heatmap":
		return ChartHeatmap, true
	case "pie":
		return ChartPie, true
	default:
		return "", false
	}
}

// ParseSuggestions extracts chart suggestions from free-form
// completion output. It tries, in order: the whole text as a JSON
// array, a ```json fenced block, any ``` fenced block, and the
// outermost bracket-delimited substring. When no JSON parses, it falls
// back to scanning for chart-type keywords so that a usable (if
// column-free) suggestion list still comes back.
func ParseSuggestions(text string) []Suggestion {
	for _, candidate := range jsonCandidates(text) {
		var suggestions []Suggestion
		if err := json.Unmarshal([]byte(candidate), &suggestions); err == nil && len(suggestions) > 0 {
			return suggestions
		}
	}
	return keywordSuggestions(text)
}

// jsonCandidates returns substrings of text that might hold the JSON
// array, most specific first.
func jsonCandidates(text string) []string {
	var out []string
	trimmed := strings.TrimSpace(text)
	out = append(out, trimmed)

	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			out = append(out, strings.TrimSpace(rest[:end]))
		}
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			out = append(out, strings.TrimSpace(rest[:end]))
		}
	}
	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start >= 0 && end > start {
		out = append(out, text[start:end+1])
	}
	return out
}

// keywordSuggestions is the last-resort parse for completions that
// describe charts in prose instead of JSON.
func keywordSuggestions(text string) []Suggestion {
	lower := strings.ToLower(text)
	var out []Suggestion

	add := func(keyword, vizType, title string) {
		if strings.Contains(lower, keyword) {
			out = append(out, Suggestion{VizType: vizType, Title: title})
		}
	}
	add("line", "line", "Time Series Visualization")
	add("bar", "bar", "Bar Chart Visualization")
	add("scatter", "scatter", "Scatter Plot Visualization")
	add("hist", "histogram", "Distribution Histogram")
	add("heatmap", "heatmap", "Correlation Heatmap")
	return out
}

// SpecsFromSuggestions converts parsed suggestions into chart specs,
// dropping entries whose type is unsupported. Column validation
// happens later, in Reconcile.
func SpecsFromSuggestions(suggestions []Suggestion) []Spec {
	var specs []Spec
	for _, s := range suggestions {
		if spec, ok := s.ToSpec(); ok {
			specs = append(specs, spec)
		}
	}
	return specs
}
