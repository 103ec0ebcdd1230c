package vim

import "unicode"

// MotionFunc computes the target of a motion from (text, row, col). The char
// argument is only consulted by the f/F/t/T family; other motions ignore it.
type MotionFunc func(text string, row, col int, ch rune) MotionResult

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isWORDChar(r rune) bool {
	return !unicode.IsSpace(r)
}

func charRange(start, end Position, inclusive bool) *Range {
	return &Range{Start: start, End: end, Type: Charwise, Inclusive: inclusive}
}

func lineRange(start, end Position) *Range {
	return &Range{Start: start, End: end, Type: Linewise}
}

// Left moves one column left (h).
func Left(text string, row, col int, _ rune) MotionResult {
	_, row, col = normalize(text, row, col)
	nc := col - 1
	if nc < 0 {
		nc = 0
	}
	return MotionResult{
		Position: Position{row, nc},
		Range:    charRange(Position{row, nc}, Position{row, col}, false),
	}
}

// Down moves one row down (j).
func Down(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	nr := row + 1
	if nr > len(lines)-1 {
		nr = len(lines) - 1
	}
	nc := col
	if nc > len(lines[nr]) {
		nc = len(lines[nr])
	}
	return MotionResult{
		Position: Position{nr, nc},
		Range:    lineRange(Position{row, 0}, Position{nr, len(lines[nr])}),
	}
}

// Up moves one row up (k).
func Up(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	nr := row - 1
	if nr < 0 {
		nr = 0
	}
	nc := col
	if nc > len(lines[nr]) {
		nc = len(lines[nr])
	}
	return MotionResult{
		Position: Position{nr, nc},
		Range:    lineRange(Position{nr, 0}, Position{row, len(lines[row])}),
	}
}

// Right moves one column right (l).
func Right(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	nc := col + 1
	if nc > len(lines[row]) {
		nc = len(lines[row])
	}
	return MotionResult{
		Position: Position{row, nc},
		Range:    charRange(Position{row, col}, Position{row, nc}, true),
	}
}

// Word moves to the start of the next word (w).
func Word(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	start := Position{row, col}
	line := lines[row]

	for col < len(line) && isWordChar(line[col]) {
		col++
	}
	for col < len(line) && !isWordChar(line[col]) && !unicode.IsSpace(line[col]) {
		col++
	}
	for col < len(line) && unicode.IsSpace(line[col]) {
		col++
	}

	if col >= len(line) && row < len(lines)-1 {
		row++
		col = 0
		line = lines[row]
		for col < len(line) && unicode.IsSpace(line[col]) {
			col++
		}
	}

	end := Position{row, col}
	return MotionResult{Position: end, Range: charRange(start, end, false)}
}

// BigWord moves to the start of the next WORD (W).
func BigWord(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	start := Position{row, col}
	line := lines[row]

	for col < len(line) && isWORDChar(line[col]) {
		col++
	}
	for col < len(line) && unicode.IsSpace(line[col]) {
		col++
	}

	if col >= len(line) && row < len(lines)-1 {
		row++
		col = 0
		line = lines[row]
		for col < len(line) && unicode.IsSpace(line[col]) {
			col++
		}
	}

	end := Position{row, col}
	return MotionResult{Position: end, Range: charRange(start, end, false)}
}

// WordBack moves to the start of the previous word (b).
func WordBack(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	end := Position{row, col}
	line := lines[row]

	if col == 0 && row > 0 {
		row--
		line = lines[row]
		col = len(line)
	}

	for col > 0 && unicode.IsSpace(line[col-1]) {
		col--
	}

	if col > 0 {
		if isWordChar(line[col-1]) {
			for col > 0 && isWordChar(line[col-1]) {
				col--
			}
		} else {
			for col > 0 && !isWordChar(line[col-1]) && !unicode.IsSpace(line[col-1]) {
				col--
			}
		}
	}

	start := Position{row, col}
	return MotionResult{Position: start, Range: charRange(start, end, false)}
}

// BigWordBack moves to the start of the previous WORD (B).
func BigWordBack(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	end := Position{row, col}
	line := lines[row]

	if col == 0 && row > 0 {
		row--
		line = lines[row]
		col = len(line)
	}

	for col > 0 && unicode.IsSpace(line[col-1]) {
		col--
	}
	for col > 0 && isWORDChar(line[col-1]) {
		col--
	}

	start := Position{row, col}
	return MotionResult{Position: start, Range: charRange(start, end, false)}
}

// WordEnd moves to the end of the current or next word (e).
func WordEnd(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	start := Position{row, col}
	line := lines[row]

	if col < len(line) {
		col++
	}
	for col < len(line) && unicode.IsSpace(line[col]) {
		col++
	}
	if col >= len(line) && row < len(lines)-1 {
		row++
		col = 0
		line = lines[row]
		for col < len(line) && unicode.IsSpace(line[col]) {
			col++
		}
	}
	if col < len(line) {
		if isWordChar(line[col]) {
			for col < len(line)-1 && isWordChar(line[col+1]) {
				col++
			}
		} else {
			for col < len(line)-1 && !isWordChar(line[col+1]) && !unicode.IsSpace(line[col+1]) {
				col++
			}
		}
	}

	end := Position{row, col}
	return MotionResult{Position: end, Range: charRange(start, end, true)}
}

// BigWordEnd moves to the end of the current or next WORD (E).
func BigWordEnd(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	start := Position{row, col}
	line := lines[row]

	if col < len(line) {
		col++
	}
	for col < len(line) && unicode.IsSpace(line[col]) {
		col++
	}
	if col >= len(line) && row < len(lines)-1 {
		row++
		col = 0
		line = lines[row]
		for col < len(line) && unicode.IsSpace(line[col]) {
			col++
		}
	}
	for col < len(line)-1 && isWORDChar(line[col+1]) {
		col++
	}

	end := Position{row, col}
	return MotionResult{Position: end, Range: charRange(start, end, true)}
}

// WordEndBack moves to the end of the previous word (ge).
func WordEndBack(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	end := Position{row, col}
	line := lines[row]

	if col > 0 {
		col--
	} else if row > 0 {
		row--
		line = lines[row]
		col = len(line)
		if col > 0 {
			col--
		}
	}

	// Back over the tail of the current word, then over whitespace, landing
	// on the last character of the previous word.
	for (col > 0 || row > 0) && (col >= len(line) || unicode.IsSpace(line[col]) || !isWordChar(line[col])) {
		if col == 0 {
			if row == 0 {
				break
			}
			row--
			line = lines[row]
			col = len(line)
			if col > 0 {
				col--
			}
			continue
		}
		col--
	}

	pos := Position{row, col}
	return MotionResult{Position: pos, Range: charRange(pos, end, false)}
}

// BigWordEndBack moves to the end of the previous WORD (gE).
func BigWordEndBack(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	end := Position{row, col}
	line := lines[row]

	if col > 0 {
		col--
	} else if row > 0 {
		row--
		line = lines[row]
		col = len(line)
		if col > 0 {
			col--
		}
	}

	for (col > 0 || row > 0) && (col >= len(line) || unicode.IsSpace(line[col])) {
		if col == 0 {
			if row == 0 {
				break
			}
			row--
			line = lines[row]
			col = len(line)
			if col > 0 {
				col--
			}
			continue
		}
		col--
	}

	pos := Position{row, col}
	return MotionResult{Position: pos, Range: charRange(pos, end, false)}
}

// LineStart moves to column 0 (0).
func LineStart(text string, row, col int, _ rune) MotionResult {
	_, row, col = normalize(text, row, col)
	return MotionResult{
		Position: Position{row, 0},
		Range:    charRange(Position{row, 0}, Position{row, col}, false),
	}
}

// LineEnd moves past the last character of the line ($).
func LineEnd(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	end := len(lines[row])
	return MotionResult{
		Position: Position{row, end},
		Range:    charRange(Position{row, col}, Position{row, end}, true),
	}
}

// LastLine moves to the first column of the last line (G).
func LastLine(text string, row, col int, _ rune) MotionResult {
	lines, row, _ := normalize(text, row, col)
	last := len(lines) - 1
	return MotionResult{
		Position: Position{last, 0},
		Range:    lineRange(Position{row, 0}, Position{last, len(lines[last])}),
	}
}

// FirstLine moves to (0, 0) (gg).
func FirstLine(text string, row, col int, _ rune) MotionResult {
	lines, row, _ := normalize(text, row, col)
	return MotionResult{
		Position: Position{0, 0},
		Range:    lineRange(Position{0, 0}, Position{row, len(lines[row])}),
	}
}

// FindChar moves to the next occurrence of ch on the line (f{char}).
func FindChar(text string, row, col int, ch rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	start := Position{row, col}
	if ch == 0 {
		return MotionResult{Position: start}
	}
	line := lines[row]
	for i := col + 1; i < len(line); i++ {
		if line[i] == ch {
			return MotionResult{
				Position: Position{row, i},
				Range:    charRange(start, Position{row, i}, true),
			}
		}
	}
	return MotionResult{Position: start}
}

// FindCharBack moves to the previous occurrence of ch on the line (F{char}).
func FindCharBack(text string, row, col int, ch rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	end := Position{row, col}
	if ch == 0 {
		return MotionResult{Position: end}
	}
	line := lines[row]
	for i := col - 1; i >= 0; i-- {
		if line[i] == ch {
			return MotionResult{
				Position: Position{row, i},
				Range:    charRange(Position{row, i}, end, true),
			}
		}
	}
	return MotionResult{Position: end}
}

// TillChar moves to just before the next occurrence of ch (t{char}).
func TillChar(text string, row, col int, ch rune) MotionResult {
	_, row, col = normalize(text, row, col)
	start := Position{row, col}
	if ch == 0 {
		return MotionResult{Position: start}
	}
	res := FindChar(text, row, col, ch)
	if res.Position.Col > col {
		nc := res.Position.Col - 1
		return MotionResult{
			Position: Position{row, nc},
			Range:    charRange(start, Position{row, nc}, true),
		}
	}
	return res
}

// TillCharBack moves to just after the previous occurrence of ch (T{char}).
func TillCharBack(text string, row, col int, ch rune) MotionResult {
	_, row, col = normalize(text, row, col)
	end := Position{row, col}
	if ch == 0 {
		return MotionResult{Position: end}
	}
	res := FindCharBack(text, row, col, ch)
	if res.Position.Col < col {
		nc := res.Position.Col + 1
		return MotionResult{
			Position: Position{row, nc},
			Range:    charRange(Position{row, nc}, end, true),
		}
	}
	return res
}

var bracketPairs = map[rune]rune{
	'(': ')', ')': '(',
	'[': ']', ']': '[',
	'{': '}', '}': '{',
}

// MatchingBracket jumps between matching brackets with nesting (%). If the
// cursor is not on a bracket, the rest of the line is searched forward first.
func MatchingBracket(text string, row, col int, _ rune) MotionResult {
	lines, row, col := normalize(text, row, col)
	start := Position{row, col}
	if col >= len(lines[row]) {
		return MotionResult{Position: start}
	}

	line := lines[row]
	ch := line[col]
	if _, ok := bracketPairs[ch]; !ok {
		found := false
		for i := col; i < len(line); i++ {
			if _, ok := bracketPairs[line[i]]; ok {
				col = i
				ch = line[i]
				found = true
				break
			}
		}
		if !found {
			return MotionResult{Position: start}
		}
	}

	target := bracketPairs[ch]
	forward := ch == '(' || ch == '[' || ch == '{'
	depth := 1

	if forward {
		r, c := row, col+1
		for r < len(lines) {
			for c < len(lines[r]) {
				switch lines[r][c] {
				case ch:
					depth++
				case target:
					depth--
					if depth == 0 {
						return MotionResult{
							Position: Position{r, c},
							Range:    charRange(start, Position{r, c}, true),
						}
					}
				}
				c++
			}
			r++
			c = 0
		}
	} else {
		r, c := row, col-1
		for r >= 0 {
			for c >= 0 {
				switch lines[r][c] {
				case ch:
					depth++
				case target:
					depth--
					if depth == 0 {
						return MotionResult{
							Position: Position{r, c},
							Range:    charRange(Position{r, c}, start, true),
						}
					}
				}
				c--
			}
			r--
			if r >= 0 {
				c = len(lines[r]) - 1
			}
		}
	}

	return MotionResult{Position: start}
}

// Motions maps motion keys to their implementations. Multi-rune keys ("gg",
// "ge", "gE") are reached through the g leader menu.
var Motions = map[string]MotionFunc{
	"h":  Left,
	"j":  Down,
	"k":  Up,
	"l":  Right,
	"w":  Word,
	"W":  BigWord,
	"b":  WordBack,
	"B":  BigWordBack,
	"e":  WordEnd,
	"E":  BigWordEnd,
	"0":  LineStart,
	"$":  LineEnd,
	"G":  LastLine,
	"gg": FirstLine,
	"ge": WordEndBack,
	"gE": BigWordEndBack,
	"f":  FindChar,
	"F":  FindCharBack,
	"t":  TillChar,
	"T":  TillCharBack,
	"%":  MatchingBracket,
}

// CharMotions are the motions that consume a following character argument.
var CharMotions = map[string]bool{"f": true, "F": true, "t": true, "T": true}
