// Package scanner exposes database/sql result sets as forward-only cursors
// with typed, ordinal column reads.
//
// A Cursor is consumed one row at a time. Each column of the current row is
// read by its 1-based ordinal through a typeconv.Converter, so the caller
// decides the Go type of every column independently:
//
//	rows, err := db.QueryContext(ctx, "INSERT INTO users (name) VALUES ($1) RETURNING id", "kirk")
//	if err != nil {
//	    return err
//	}
//	cur := scanner.Rows(rows)
//	defer cur.Close()
//
//	conv, _ := typeconv.NewRegistry().Lookup(reflect.TypeFor[int64]())
//	for {
//	    ok, err := cur.Next()
//	    if err != nil || !ok {
//	        return err
//	    }
//	    id, err := cur.Column(1, conv)
//	    ...
//	}
//
// # Ownership
//
// A cursor is single-consumer. It must not be shared between goroutines, and
// it must be closed exactly once by whoever finishes with it.
package scanner
