package vim

import "strings"

// The helpers below build ranges from motions and apply Delete, covering the
// editor's delete menu and clipboard actions.

// DeleteLine removes the whole current line.
func DeleteLine(text string, row, col int) OperatorResult {
	lines, row, _ := normalize(text, row, col)
	return Delete(text, Range{
		Start: Position{row, 0},
		End:   Position{row, len(lines[row])},
		Type:  Linewise,
	})
}

// DeleteToLineEnd removes from the cursor to the end of the line (D).
func DeleteToLineEnd(text string, row, col int) OperatorResult {
	res := LineEnd(text, row, col, 0)
	return Delete(text, *res.Range)
}

// DeleteToLineStart removes from the line start to the cursor.
func DeleteToLineStart(text string, row, col int) OperatorResult {
	res := LineStart(text, row, col, 0)
	return Delete(text, *res.Range)
}

// DeleteToEnd removes from the current line to the end of the buffer (dG).
func DeleteToEnd(text string, row, col int) OperatorResult {
	res := LastLine(text, row, col, 0)
	return Delete(text, *res.Range)
}

// DeleteAll clears the buffer.
func DeleteAll(text string, row, col int) OperatorResult {
	return Delete(text, SelectAllRange(text))
}

// DeleteChar removes the character under the cursor (x).
func DeleteChar(text string, row, col int) OperatorResult {
	lines, row, col := normalize(text, row, col)
	if col >= len(lines[row]) {
		return OperatorResult{Text: text, Cursor: Position{row, col}}
	}
	return Delete(text, Range{
		Start:     Position{row, col},
		End:       Position{row, col},
		Type:      Charwise,
		Inclusive: true,
	})
}

// DeleteCharBack removes the character before the cursor (X).
func DeleteCharBack(text string, row, col int) OperatorResult {
	_, row, col = normalize(text, row, col)
	if col == 0 {
		return OperatorResult{Text: text, Cursor: Position{row, col}}
	}
	return Delete(text, Range{
		Start:     Position{row, col - 1},
		End:       Position{row, col - 1},
		Type:      Charwise,
		Inclusive: true,
	})
}

// DeleteMotion applies delete over a named motion, e.g. "w" for dw.
func DeleteMotion(name, text string, row, col int, ch rune) (OperatorResult, bool) {
	m, ok := Motions[name]
	if !ok {
		return OperatorResult{}, false
	}
	res := m(text, row, col, ch)
	if res.Range == nil {
		return OperatorResult{}, false
	}
	return Delete(text, *res.Range), true
}

// SelectAllRange covers the whole buffer.
func SelectAllRange(text string) Range {
	lines := splitLines(text)
	last := len(lines) - 1
	return Range{
		Start: Position{0, 0},
		End:   Position{last, len(lines[last])},
		Type:  Linewise,
	}
}

// SelectionText extracts the text covered by a range.
func SelectionText(text string, r Range) string {
	return Yank(text, r).Yanked
}

// PasteResult is the outcome of inserting text at the cursor.
type PasteResult struct {
	Text   string
	Cursor Position
}

// Paste inserts clip at the cursor position. The cursor lands just past the
// inserted text.
func Paste(text string, row, col int, clip string) PasteResult {
	lines, row, col := normalize(text, row, col)
	off := offsetOf(lines, Position{row, col})
	runes := []rune(text)
	out := string(runes[:off]) + clip + string(runes[off:])

	outLines := splitLines(out)
	cursor := positionOf(outLines, off+len([]rune(clip)))
	return PasteResult{Text: out, Cursor: cursor}
}

// LineCount returns the number of lines in text.
func LineCount(text string) int {
	return strings.Count(text, "\n") + 1
}
