package scanner

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/nlimpid/gosqlbind/typeconv"
)

var (
	// ErrNoRow reports a column read before Next or after the cursor ended.
	ErrNoRow = errors.New("no current row")
	// ErrOrdinalOutOfRange reports a column ordinal outside 1..ColumnCount.
	ErrOrdinalOutOfRange = errors.New("column ordinal out of range")
)

// Cursor is a forward-only, single-consumer sequence of rows.
type Cursor interface {
	// Next advances to the next row, reporting false once rows run out.
	Next() (bool, error)
	// ColumnCount reports the number of columns in each row.
	ColumnCount() (int, error)
	// Column converts the value at the 1-based ordinal of the current row.
	Column(ordinal int, conv typeconv.Converter) (any, error)
	// Close releases the underlying result set.
	Close() error
}

// RowsCursor is a Cursor over *sql.Rows. Each row is scanned into a reused
// buffer of driver values; conversion happens on Column.
type RowsCursor struct {
	rows    *sql.Rows
	columns []string
	values  []any
	targets []any
	current bool
}

// Rows wraps rows as a Cursor. Closing the cursor closes rows.
func Rows(rows *sql.Rows) *RowsCursor {
	return &RowsCursor{rows: rows}
}

// ColumnCount reports the number of result columns, cached after the first
// call.
func (c *RowsCursor) ColumnCount() (int, error) {
	if c.columns == nil {
		columns, err := c.rows.Columns()
		if err != nil {
			return 0, fmt.Errorf("failed to get columns: %w", err)
		}
		c.columns = columns
	}
	return len(c.columns), nil
}

// Next advances to the next row and scans it into the buffer.
func (c *RowsCursor) Next() (bool, error) {
	c.current = false
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return false, fmt.Errorf("rows iteration error: %w", err)
		}
		return false, nil
	}

	if c.targets == nil {
		n, err := c.ColumnCount()
		if err != nil {
			return false, err
		}
		c.values = make([]any, n)
		c.targets = make([]any, n)
		for i := range c.values {
			c.targets[i] = &c.values[i]
		}
	}

	if err := c.rows.Scan(c.targets...); err != nil {
		return false, fmt.Errorf("failed to scan row: %w", err)
	}
	c.current = true
	return true, nil
}

// Column converts the buffered value at the 1-based ordinal with conv.
func (c *RowsCursor) Column(ordinal int, conv typeconv.Converter) (any, error) {
	if !c.current {
		return nil, ErrNoRow
	}
	if ordinal < 1 || ordinal > len(c.values) {
		return nil, fmt.Errorf("%w: %d not in 1..%d", ErrOrdinalOutOfRange, ordinal, len(c.values))
	}

	val, err := conv.Convert(c.values[ordinal-1])
	if err != nil {
		return nil, fmt.Errorf("failed to convert column %d (%s): %w", ordinal, c.columns[ordinal-1], err)
	}
	return val, nil
}

// Close closes the underlying rows.
func (c *RowsCursor) Close() error {
	c.current = false
	return c.rows.Close()
}
