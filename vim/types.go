// Package vim implements the motion, text object and operator engine used by
// the query editor. Everything here is a pure transformation over text; the
// widget layer owns rendering and input.
package vim

import "strings"

// Mode is the editor mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
)

func (m Mode) String() string {
	if m == ModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

// MotionType describes how a range spans the text.
type MotionType int

const (
	Charwise MotionType = iota
	Linewise
	Blockwise
)

// Position is a zero-based (row, col) location. Col is measured in runes and
// may equal the line length (cursor past the last character).
type Position struct {
	Row int
	Col int
}

// Before reports whether p sorts before q in document order.
func (p Position) Before(q Position) bool {
	if p.Row != q.Row {
		return p.Row < q.Row
	}
	return p.Col < q.Col
}

// Range is a span of text. Inclusive ranges contain End; exclusive ranges
// stop just before it. Linewise ranges cover whole lines regardless of cols.
type Range struct {
	Start     Position
	End       Position
	Type      MotionType
	Inclusive bool
}

// Normalized returns the range with Start <= End.
func (r Range) Normalized() Range {
	if r.End.Before(r.Start) {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

// MotionResult carries the target position of a motion and, when the motion
// is usable as an operator target, the covered range.
type MotionResult struct {
	Position Position
	Range    *Range
}

// OperatorResult is the outcome of applying an operator to a range.
type OperatorResult struct {
	Text        string
	Cursor      Position
	Yanked      string
	EnterInsert bool
}

// splitLines splits text into rune slices, one per line. Text always has at
// least one (possibly empty) line.
func splitLines(text string) [][]rune {
	parts := strings.Split(text, "\n")
	lines := make([][]rune, len(parts))
	for i, p := range parts {
		lines[i] = []rune(p)
	}
	return lines
}

func joinLines(lines [][]rune) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(l))
	}
	return sb.String()
}

// normalize clamps (row, col) into the text and returns its lines.
func normalize(text string, row, col int) ([][]rune, int, int) {
	lines := splitLines(text)
	if row < 0 {
		row = 0
	}
	if row > len(lines)-1 {
		row = len(lines) - 1
	}
	if col < 0 {
		col = 0
	}
	if col > len(lines[row]) {
		col = len(lines[row])
	}
	return lines, row, col
}

// offsetOf converts a clamped position to a rune offset into the flat text.
func offsetOf(lines [][]rune, pos Position) int {
	off := 0
	for r := 0; r < pos.Row; r++ {
		off += len(lines[r]) + 1 // +1 for the newline
	}
	col := pos.Col
	if col > len(lines[pos.Row]) {
		col = len(lines[pos.Row])
	}
	return off + col
}

// positionOf converts a rune offset back to (row, col).
func positionOf(lines [][]rune, off int) Position {
	for r := range lines {
		if off <= len(lines[r]) {
			return Position{Row: r, Col: off}
		}
		off -= len(lines[r]) + 1
	}
	last := len(lines) - 1
	return Position{Row: last, Col: len(lines[last])}
}
