// Package analyze classifies result columns, computes summary
// statistics, and derives natural-language insights from query result
// tables.
package analyze

import (
	"github.com/leapstack-labs/leapdash/internal/dataset"
)

// Classification partitions a table's columns into disjoint numeric,
// categorical, and temporal sets. Columns of unclassifiable type
// (e.g., all-null) appear in none of the three.
type Classification struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
	Temporal    []string `json:"temporal"`
}

// Classify partitions the table's columns by value kind. It is derived
// fresh per table and never cached. An empty table yields three empty
// sets.
func Classify(t *dataset.Table) Classification {
	var cls Classification
	if t == nil {
		return cls
	}
	for i := range t.Columns {
		col := &t.Columns[i]
		switch col.Kind() {
		case dataset.KindNumeric:
			cls.Numeric = append(cls.Numeric, col.Name)
		case dataset.KindText:
			cls.Categorical = append(cls.Categorical, col.Name)
		case dataset.KindTemporal:
			cls.Temporal = append(cls.Temporal, col.Name)
		}
	}
	return cls
}
