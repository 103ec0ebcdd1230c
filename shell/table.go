package shell

import (
	"fmt"
	"strings"
	"time"

	"github.com/dbterm/dbterm/exec"
)

const nullDisplay = "NULL"

// RenderOutcome formats an execution outcome for the scrollback.
func RenderOutcome(o Outcome) string {
	var sb strings.Builder

	switch {
	case o.Multi != nil:
		for i, res := range o.Multi.Results {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(renderResult(res))
		}
	case o.Result != nil:
		sb.WriteString(renderResult(o.Result))
	}

	if o.Warning != "" {
		fmt.Fprintf(&sb, "Warning: %s\n", o.Warning)
	}
	fmt.Fprintf(&sb, "Time: %s\n", o.Elapsed.Round(time.Millisecond))
	return sb.String()
}

// RenderError formats a query failure as a single-row table so errors land
// in the same place results do.
func RenderError(err error) string {
	return renderTable([]string{"Error"}, [][]string{{err.Error()}})
}

func renderResult(res exec.Result) string {
	switch res := res.(type) {
	case exec.QueryResult:
		out := renderTable(res.Columns, stringRows(res.Rows))
		if res.Truncated {
			out += fmt.Sprintf("(%d rows shown, result truncated)\n", res.RowCount)
		} else {
			out += fmt.Sprintf("(%d rows)\n", res.RowCount)
		}
		return out
	case exec.NonQueryResult:
		return fmt.Sprintf("OK, %d rows affected\n", res.RowsAffected)
	case exec.ErrorResult:
		return renderTable([]string{"Error"}, [][]string{{res.Message}})
	default:
		return ""
	}
}

func stringRows(rows [][]any) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = displayValue(v)
		}
		out[i] = cells
	}
	return out
}

func displayValue(v any) string {
	switch v := v.(type) {
	case nil:
		return nullDisplay
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// renderTable draws a box-drawing grid sized to the widest cell per column.
func renderTable(columns []string, rows [][]string) string {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	rule := func(left, mid, right string) {
		sb.WriteString(left)
		for i, w := range widths {
			if i > 0 {
				sb.WriteString(mid)
			}
			sb.WriteString(strings.Repeat("─", w+2))
		}
		sb.WriteString(right + "\n")
	}
	line := func(cells []string) {
		sb.WriteString("│")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			fmt.Fprintf(&sb, " %-*s │", w, cell)
		}
		sb.WriteString("\n")
	}

	rule("┌", "┬", "┐")
	line(columns)
	rule("├", "┼", "┤")
	for _, row := range rows {
		line(row)
	}
	rule("└", "┴", "┘")
	return sb.String()
}
