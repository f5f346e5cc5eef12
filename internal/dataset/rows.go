package dataset

import (
	"database/sql"
	"fmt"
	"time"
)

// FromRows materializes a sql.Rows result set into a Table, consuming
// the rows fully. Driver values are normalized: integer and float
// kinds become float64, []byte becomes string, timestamps stay
// time.Time, NULL stays nil. The caller retains responsibility for
// closing rows.
func FromRows(rows *sql.Rows) (*Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	values := make([][]any, len(cols))
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range raw {
			values[i] = append(values[i], normalize(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	table := &Table{Columns: make([]Column, len(cols))}
	for i, name := range cols {
		table.Columns[i] = Column{Name: name, Values: values[i]}
	}
	return table, nil
}

// normalize converts a driver value into one of the four table value
// types: float64, string, time.Time, or nil.
func normalize(v any) any {
	switch tv := v.(type) {
	case nil:
		return nil
	case float64:
		return tv
	case float32:
		return float64(tv)
	case int:
		return float64(tv)
	case int8:
		return float64(tv)
	case int16:
		return float64(tv)
	case int32:
		return float64(tv)
	case int64:
		return float64(tv)
	case uint8:
		return float64(tv)
	case uint16:
		return float64(tv)
	case uint32:
		return float64(tv)
	case uint64:
		return float64(tv)
	case bool:
		if tv {
			return "true"
		}
		return "false"
	case []byte:
		return string(tv)
	case string:
		return tv
	case time.Time:
		return tv
	default:
		return fmt.Sprintf("%v", tv)
	}
}
