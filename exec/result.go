// Package exec runs SQL statements: single cancellable queries, sticky
// transaction execution and multi-statement scripts with per-statement
// results.
package exec

// Result is the tagged outcome of one statement.
type Result interface{ isResult() }

// QueryResult is a row-returning statement's outcome.
type QueryResult struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	RowCount  int      `json:"row_count"`
	Truncated bool     `json:"truncated"`
}

// NonQueryResult is a statement outcome without a result set.
type NonQueryResult struct {
	RowsAffected int64 `json:"rows_affected"`
}

// ErrorResult records a failed statement inside a multi-statement stack.
type ErrorResult struct {
	Message string `json:"message"`
}

func (QueryResult) isResult()    {}
func (NonQueryResult) isResult() {}
func (ErrorResult) isResult()    {}

// MultiStatementResult is the stacked outcome of a script. Results holds one
// entry per executed statement; statements after the first failure are
// absent. ErrorIndex is -1 when every statement succeeded.
type MultiStatementResult struct {
	Results         []Result
	ErrorIndex      int
	SuccessfulCount int
}

// Failed reports whether the script stopped at an error.
func (m MultiStatementResult) Failed() bool { return m.ErrorIndex >= 0 }
