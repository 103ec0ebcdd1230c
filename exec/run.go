package exec

import (
	"context"
	"strings"

	"github.com/dbterm/dbterm/adapter"
)

var rowReturningPrefixes = []string{
	"SELECT", "WITH", "SHOW", "PRAGMA", "EXPLAIN", "DESCRIBE", "DESC",
	"VALUES", "TABLE",
}

// IsRowReturning guesses whether a statement produces a result set. Drivers
// in database/sql force the choice between Query and Exec up front.
func IsRowReturning(sql string) bool {
	head := strings.ToUpper(adapter.StripLeadingComments(sql))
	for _, p := range rowReturningPrefixes {
		if strings.HasPrefix(head, p) {
			rest := head[len(p):]
			if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '(' || rest[0] == '*' {
				return true
			}
		}
	}
	return false
}

// Run executes one statement on a cursor and shapes the outcome. Row output
// is capped at maxRows (maxRows+1 rows are fetched to detect truncation);
// maxRows <= 0 means unlimited. The cursor stays open.
func Run(ctx context.Context, cur *adapter.Cursor, sql string, maxRows int) (Result, error) {
	if !IsRowReturning(sql) {
		res, err := cur.Exec(ctx, sql)
		if err != nil {
			return nil, err
		}
		affected, _ := res.RowsAffected()
		return NonQueryResult{RowsAffected: affected}, nil
	}

	rows, err := cur.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := QueryResult{Columns: cols}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		if maxRows > 0 && len(out.Rows) == maxRows {
			out.Truncated = true
			break
		}
		out.Rows = append(out.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out.RowCount = len(out.Rows)
	return out, nil
}
