package shell

import (
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/dbterm/dbterm/exec"
)

func TestRenderErrorSingleRowTable(t *testing.T) {
	out := RenderError(errors.New("relation \"users\" does not exist"))

	require.Contains(t, out, "│ Error")
	require.Contains(t, out, `relation "users" does not exist`)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5, "header rule, header, separator, one row, footer rule")
}

func TestRenderQueryResult(t *testing.T) {
	o := Outcome{
		Result: exec.QueryResult{
			Columns:  []string{"id", "name"},
			Rows:     [][]any{{int64(1), "ada"}, {int64(2), nil}},
			RowCount: 2,
		},
		Elapsed: 12 * time.Millisecond,
	}

	out := RenderOutcome(o)
	require.Contains(t, out, "│ id │ name │")
	require.Contains(t, out, "│ 1  │ ada  │")
	require.Contains(t, out, "NULL")
	require.Contains(t, out, "(2 rows)")
	require.Contains(t, out, "Time: 12ms")
}

func TestRenderTruncatedResult(t *testing.T) {
	o := Outcome{
		Result: exec.QueryResult{
			Columns:   []string{"n"},
			Rows:      [][]any{{int64(1)}},
			RowCount:  1,
			Truncated: true,
		},
	}

	require.Contains(t, RenderOutcome(o), "result truncated")
}

func TestRenderNonQueryAndWarning(t *testing.T) {
	o := Outcome{
		Result:  exec.NonQueryResult{RowsAffected: 3},
		Warning: "process worker unavailable, query ran in-process",
	}

	out := RenderOutcome(o)
	require.Contains(t, out, "OK, 3 rows affected")
	require.Contains(t, out, "Warning: process worker unavailable")
}

func TestRenderMultiStatementStack(t *testing.T) {
	o := Outcome{
		Multi: &exec.MultiStatementResult{
			Results: []exec.Result{
				exec.NonQueryResult{RowsAffected: 1},
				exec.ErrorResult{Message: "syntax error"},
			},
			ErrorIndex:      1,
			SuccessfulCount: 1,
		},
	}

	out := RenderOutcome(o)
	require.Contains(t, out, "OK, 1 rows affected")
	require.Contains(t, out, "│ Error")
	require.Contains(t, out, "syntax error")
}
