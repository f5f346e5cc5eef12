package analyze

import (
	"fmt"
	"math"
	"sort"

	"github.com/leapstack-labs/leapdash/internal/dataset"
)

// NoDataInsight is the single insight emitted for an empty result.
const NoDataInsight = "No data available for analysis"

// Narrate turns a summary into ordered natural-language sentences:
// dataset shape, per-numeric central tendency and range, per-numeric
// IQR outlier counts, dominant categories, and strong correlations.
// The output is deterministic: identical input yields identical
// sentences in identical order.
func Narrate(t *dataset.Table, s *Summary) []string {
	if s == nil || s.NoData {
		return []string{NoDataInsight}
	}

	insights := []string{
		fmt.Sprintf("The dataset contains %d records with %d columns.", s.RowCount, s.ColumnCount),
	}

	for _, name := range s.Classification.Numeric {
		ns, ok := s.Numeric[name]
		if !ok || ns.Mean == nil {
			continue
		}
		insights = append(insights, fmt.Sprintf(
			"The average %s is %.2f, ranging from %.2f to %.2f.",
			name, *ns.Mean, ns.Min, ns.Max))
	}

	for _, name := range s.Classification.Numeric {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		if n := IQROutliers(col.Floats()); n > 0 {
			insights = append(insights, fmt.Sprintf(
				"There are %d potential outliers in the %s column.", n, name))
		}
	}

	for _, name := range s.Classification.Categorical {
		cs, ok := s.Categorical[name]
		if !ok || len(cs.TopValues) == 0 {
			continue
		}
		top := cs.TopValues[0]
		share := float64(top.Count) / float64(s.RowCount) * 100
		insights = append(insights, fmt.Sprintf(
			"The most common %s is '%s', appearing in %.1f%% of the data.",
			name, top.Value, share))
	}

	narrated := 0
	for _, pair := range s.Correlations {
		if math.Abs(pair.Coefficient) <= StrongCorrelationThreshold {
			continue
		}
		if narrated >= NarratedCorrelationLimit {
			break
		}
		direction := "positive"
		if pair.Coefficient < 0 {
			direction = "negative"
		}
		insights = append(insights, fmt.Sprintf(
			"There is a strong %s correlation of %.2f between %s and %s.",
			direction, pair.Coefficient, pair.ColA, pair.ColB))
		narrated++
	}

	return insights
}

// IQROutliers counts values outside the 1.5x interquartile range
// fences (below Q1 - 1.5*IQR or above Q3 + 1.5*IQR).
func IQROutliers(vals []float64) int {
	if len(vals) < 2 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	n := 0
	for _, v := range vals {
		if v < lower || v > upper {
			n++
		}
	}
	return n
}
