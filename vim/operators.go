package vim

// flatSpan converts a normalized range into a [start, end) rune window over
// the flat text. Linewise ranges cover whole lines and swallow the trailing
// newline of the last line (or the preceding one at end of buffer).
func flatSpan(lines [][]rune, r Range) (int, int) {
	r = r.Normalized()

	if r.Type == Linewise {
		startRow := r.Start.Row
		endRow := r.End.Row
		if startRow < 0 {
			startRow = 0
		}
		if endRow > len(lines)-1 {
			endRow = len(lines) - 1
		}
		a := offsetOf(lines, Position{startRow, 0})
		b := offsetOf(lines, Position{endRow, len(lines[endRow])})
		total := offsetOf(lines, Position{len(lines) - 1, len(lines[len(lines)-1])})
		if b < total {
			b++ // trailing newline of the last deleted line
		} else if a > 0 {
			a-- // last lines of the buffer: take the preceding newline
		}
		return a, b
	}

	a := offsetOf(lines, r.Start)
	b := offsetOf(lines, r.End)
	if r.Inclusive {
		lineLen := len(lines[r.End.Row])
		if r.End.Col < lineLen {
			b++
		}
	}
	if b < a {
		b = a
	}
	return a, b
}

func applyRemove(text string, r Range) (string, Position, string) {
	lines := splitLines(text)
	a, b := flatSpan(lines, r)
	runes := []rune(text)
	// Guard against ranges built from stale text.
	if a > len(runes) {
		a = len(runes)
	}
	if b > len(runes) {
		b = len(runes)
	}
	yanked := string(runes[a:b])
	out := string(runes[:a]) + string(runes[b:])

	outLines := splitLines(out)
	cursor := positionOf(outLines, a)
	if r.Normalized().Type == Linewise {
		cursor.Col = 0
	}
	return out, cursor, yanked
}

// Delete removes the range and returns the new text, cursor and yanked text.
func Delete(text string, r Range) OperatorResult {
	out, cursor, yanked := applyRemove(text, r)
	return OperatorResult{Text: out, Cursor: cursor, Yanked: yanked}
}

// Yank copies the range without modifying the text.
func Yank(text string, r Range) OperatorResult {
	lines := splitLines(text)
	a, b := flatSpan(lines, r)
	runes := []rune(text)
	if a > len(runes) {
		a = len(runes)
	}
	if b > len(runes) {
		b = len(runes)
	}
	nr := r.Normalized()
	cursor := nr.Start
	if cursor.Row > len(lines)-1 {
		cursor.Row = len(lines) - 1
	}
	if cursor.Col > len(lines[cursor.Row]) {
		cursor.Col = len(lines[cursor.Row])
	}
	return OperatorResult{Text: text, Cursor: cursor, Yanked: string(runes[a:b])}
}

// Change deletes the range and requests INSERT mode.
func Change(text string, r Range) OperatorResult {
	// Changing a linewise range keeps the line open for typing.
	nr := r.Normalized()
	if nr.Type == Linewise {
		lines := splitLines(text)
		startRow := nr.Start.Row
		endRow := nr.End.Row
		if endRow > len(lines)-1 {
			endRow = len(lines) - 1
		}
		a := offsetOf(lines, Position{startRow, 0})
		b := offsetOf(lines, Position{endRow, len(lines[endRow])})
		runes := []rune(text)
		yanked := string(runes[a:b])
		out := string(runes[:a]) + string(runes[b:])
		return OperatorResult{
			Text:        out,
			Cursor:      Position{startRow, 0},
			Yanked:      yanked,
			EnterInsert: true,
		}
	}

	out, cursor, yanked := applyRemove(text, r)
	return OperatorResult{Text: out, Cursor: cursor, Yanked: yanked, EnterInsert: true}
}

// OperatorFunc applies an operator to a range.
type OperatorFunc func(text string, r Range) OperatorResult

// Operators maps operator keys to implementations.
var Operators = map[string]OperatorFunc{
	"d": Delete,
	"y": Yank,
	"c": Change,
}
