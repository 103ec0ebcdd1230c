package exec

import "context"

// MultiStatementExecutor splits a script and runs each statement through
// the transaction executor, stopping at the first failure.
type MultiStatementExecutor struct {
	tx *TransactionExecutor
}

// NewMultiStatementExecutor wraps a transaction executor.
func NewMultiStatementExecutor(tx *TransactionExecutor) *MultiStatementExecutor {
	return &MultiStatementExecutor{tx: tx}
}

// Execute runs the script sequentially. Errors are reported in place: the
// failing statement contributes an ErrorResult and processing stops, so the
// caller sees the partial stack.
func (m *MultiStatementExecutor) Execute(ctx context.Context, script string, maxRows int) MultiStatementResult {
	out := MultiStatementResult{ErrorIndex: -1}

	for i, stmt := range m.tx.dialer.SplitStatements(script) {
		res, err := m.tx.Execute(ctx, stmt, maxRows)
		if err != nil {
			out.Results = append(out.Results, ErrorResult{Message: err.Error()})
			out.ErrorIndex = i
			out.SuccessfulCount = i
			return out
		}
		out.Results = append(out.Results, res)
	}
	out.SuccessfulCount = len(out.Results)
	return out
}

// IsMultiStatement reports whether a script splits into more than one
// statement.
func IsMultiStatement(dialer Dialer, script string) bool {
	return len(dialer.SplitStatements(script)) > 1
}
