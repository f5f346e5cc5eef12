// Package dataset provides the in-memory table model shared by the
// analysis and rendering pipeline. A Table is an ordered set of named
// columns holding normalized values; transforms produce new tables
// rather than mutating in place.
package dataset

import (
	"fmt"
	"sort"
	"time"
)

// Kind describes the value type of a column.
type Kind int

const (
	// KindNull marks a column with no classifiable non-null values.
	KindNull Kind = iota

	// KindNumeric marks a column whose non-null values are numbers.
	KindNumeric

	// KindText marks a column whose non-null values are strings.
	KindText

	// KindTemporal marks a column whose non-null values are timestamps,
	// or strings that all parse as timestamps.
	KindTemporal
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindTemporal:
		return "temporal"
	default:
		return "null"
	}
}

// Column is a named sequence of values. Values are normalized to
// float64, string, time.Time, or nil.
type Column struct {
	Name   string
	Values []any
}

// Table is an ordered sequence of columns of equal length.
type Table struct {
	Columns []Column
}

// New creates a table from the given columns, enforcing the row count
// invariant across columns.
func New(cols ...Column) (*Table, error) {
	if len(cols) > 0 {
		n := len(cols[0].Values)
		for _, c := range cols[1:] {
			if len(c.Values) != n {
				return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, len(c.Values), n)
			}
		}
	}
	return &Table{Columns: cols}, nil
}

// RowCount returns the number of rows in the table.
func (t *Table) RowCount() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// ColumnCount returns the number of columns in the table.
func (t *Table) ColumnCount() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Column returns the named column, or false if it does not exist.
func (t *Table) Column(name string) (*Column, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// SortedByTime returns a copy of the table with rows sorted ascending
// by the named temporal column. Rows whose sort value is null sort
// last. The receiver is not modified.
func (t *Table) SortedByTime(name string) *Table {
	col, ok := t.Column(name)
	if !ok {
		return t
	}

	n := t.RowCount()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	times := col.Times()
	sort.SliceStable(idx, func(a, b int) bool {
		ta, aok := times[idx[a]]
		tb, bok := times[idx[b]]
		if !aok {
			return false
		}
		if !bok {
			return true
		}
		return ta.Before(tb)
	})

	out := &Table{Columns: make([]Column, len(t.Columns))}
	for ci, c := range t.Columns {
		vals := make([]any, n)
		for ri, src := range idx {
			vals[ri] = c.Values[src]
		}
		out.Columns[ci] = Column{Name: c.Name, Values: vals}
	}
	return out
}

// Kind classifies the column by inspecting its non-null values.
// Numeric if all are numbers, temporal if all are timestamps or all
// parse as timestamps, text otherwise. A column with no non-null
// values is KindNull.
func (c *Column) Kind() Kind {
	var sawNumeric, sawText, sawTime, sawOther bool
	for _, v := range c.Values {
		switch v.(type) {
		case nil:
		case float64:
			sawNumeric = true
		case string:
			sawText = true
		case time.Time:
			sawTime = true
		default:
			sawOther = true
		}
	}

	switch {
	case sawOther:
		return KindNull
	case sawTime && !sawNumeric && !sawText:
		return KindTemporal
	case sawNumeric && !sawText && !sawTime:
		return KindNumeric
	case sawText && !sawNumeric && !sawTime:
		if c.allParseAsTime() {
			return KindTemporal
		}
		return KindText
	default:
		return KindNull
	}
}

// timeLayouts are the accepted formats for string-typed temporal columns.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01-02T15:04:05",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func (c *Column) allParseAsTime() bool {
	any := false
	for _, v := range c.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if _, ok := parseTime(s); !ok {
			return false
		}
		any = true
	}
	return any
}

// Floats returns the column's non-null numeric values in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if f, ok := v.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}

// Strings returns the column's non-null values formatted as strings,
// in row order.
func (c *Column) Strings() []string {
	out := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		out = append(out, FormatValue(v))
	}
	return out
}

// Times returns a map from row index to timestamp for the column's
// non-null temporal values. String values that parse as timestamps
// are included.
func (c *Column) Times() map[int]time.Time {
	out := make(map[int]time.Time)
	for i, v := range c.Values {
		switch tv := v.(type) {
		case time.Time:
			out[i] = tv
		case string:
			if ts, ok := parseTime(tv); ok {
				out[i] = ts
			}
		}
	}
	return out
}

// NullCount returns the number of null values in the column.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// Cardinality returns the number of distinct non-null values.
func (c *Column) Cardinality() int {
	seen := make(map[string]struct{})
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		seen[FormatValue(v)] = struct{}{}
	}
	return len(seen)
}

// ValueCounts returns distinct non-null values with their occurrence
// counts, sorted by count descending then value ascending for a
// deterministic order.
func (c *Column) ValueCounts() []ValueCount {
	counts := make(map[string]int)
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		counts[FormatValue(v)]++
	}

	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// ValueCount pairs a distinct column value with its occurrence count.
type ValueCount struct {
	Value string
	Count int
}

// FormatValue renders a single table value for display.
func FormatValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case float64:
		// Trim trailing zeros for whole numbers
		if tv == float64(int64(tv)) {
			return fmt.Sprintf("%d", int64(tv))
		}
		return fmt.Sprintf("%g", tv)
	case time.Time:
		return tv.Format(time.RFC3339)
	case string:
		return tv
	default:
		return fmt.Sprintf("%v", tv)
	}
}
