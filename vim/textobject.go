package vim

import "unicode"

// TextObjectChars are the object selectors accepted after i/a.
var TextObjectChars = map[rune]bool{
	'(': true, ')': true, 'b': true,
	'[': true, ']': true,
	'{': true, '}': true, 'B': true,
	'"': true, '\'': true, '`': true,
	'w': true, 'W': true,
}

func objectBrackets(obj rune) (open, close rune, ok bool) {
	switch obj {
	case '(', ')', 'b':
		return '(', ')', true
	case '[', ']':
		return '[', ']', true
	case '{', '}', 'B':
		return '{', '}', true
	}
	return 0, 0, false
}

// TextObject resolves an object selector at the cursor into a range. Pairs
// select the innermost enclosing block, quotes the enclosing span on the
// current line, w/W the word or WORD at the cursor. around selects the
// delimiters (pairs, quotes) or the trailing whitespace (words) as well.
func TextObject(obj rune, text string, row, col int, around bool) (Range, bool) {
	lines, row, col := normalize(text, row, col)

	if open, close, ok := objectBrackets(obj); ok {
		return bracketObject(lines, row, col, open, close, around)
	}

	switch obj {
	case '"', '\'', '`':
		return quoteObject(lines, row, col, obj, around)
	case 'w':
		return wordObject(lines, row, col, around, isWordChar)
	case 'W':
		return wordObject(lines, row, col, around, isWORDChar)
	}

	return Range{}, false
}

// bracketObject finds the innermost block enclosing the cursor. The open
// bracket is searched backwards counting depth; the close forwards.
func bracketObject(lines [][]rune, row, col int, open, close rune, around bool) (Range, bool) {
	// A cursor sitting on the open bracket itself counts as inside.
	if col < len(lines[row]) && lines[row][col] == open {
		col++
	}

	depth := 0
	or, oc := -1, -1
	r, c := row, col-1
	for r >= 0 {
		for c >= 0 {
			if c < len(lines[r]) {
				switch lines[r][c] {
				case close:
					depth++
				case open:
					if depth == 0 {
						or, oc = r, c
					} else {
						depth--
					}
				}
			}
			if or >= 0 {
				break
			}
			c--
		}
		if or >= 0 {
			break
		}
		r--
		if r >= 0 {
			c = len(lines[r]) - 1
		}
	}
	if or < 0 {
		return Range{}, false
	}

	depth = 0
	cr, cc := -1, -1
	r, c = or, oc+1
	for r < len(lines) {
		for c < len(lines[r]) {
			switch lines[r][c] {
			case open:
				depth++
			case close:
				if depth == 0 {
					cr, cc = r, c
				} else {
					depth--
				}
			}
			if cr >= 0 {
				break
			}
			c++
		}
		if cr >= 0 {
			break
		}
		r++
		c = 0
	}
	if cr < 0 {
		return Range{}, false
	}

	if around {
		return Range{
			Start:     Position{or, oc},
			End:       Position{cr, cc},
			Type:      Charwise,
			Inclusive: true,
		}, true
	}

	// Inner span: just past the open bracket, just before the close.
	start := Position{or, oc + 1}
	end := Position{cr, cc}
	return Range{Start: start, End: end, Type: Charwise, Inclusive: false}, true
}

// quoteObject finds the quoted span enclosing (or following) the cursor on
// the current line.
func quoteObject(lines [][]rune, row, col int, quote rune, around bool) (Range, bool) {
	line := lines[row]
	var idx []int
	for i, r := range line {
		if r == quote {
			idx = append(idx, i)
		}
	}
	if len(idx) < 2 {
		return Range{}, false
	}

	for i := 0; i+1 < len(idx); i += 2 {
		o, c := idx[i], idx[i+1]
		if col > c {
			continue
		}
		if around {
			end := c
			// Around takes the trailing whitespace run after the close quote.
			for end+1 < len(line) && unicode.IsSpace(line[end+1]) {
				end++
			}
			return Range{
				Start:     Position{row, o},
				End:       Position{row, end},
				Type:      Charwise,
				Inclusive: true,
			}, true
		}
		return Range{
			Start:     Position{row, o + 1},
			End:       Position{row, c},
			Type:      Charwise,
			Inclusive: false,
		}, true
	}

	return Range{}, false
}

// wordObject selects the run at the cursor using the given character class.
// On whitespace it selects the whitespace run.
func wordObject(lines [][]rune, row, col int, around bool, class func(rune) bool) (Range, bool) {
	line := lines[row]
	if len(line) == 0 {
		return Range{}, false
	}
	if col >= len(line) {
		col = len(line) - 1
	}

	sameRun := class
	if unicode.IsSpace(line[col]) {
		sameRun = unicode.IsSpace
	} else if !class(line[col]) {
		// Punctuation run under the narrow word class.
		sameRun = func(r rune) bool { return !unicode.IsSpace(r) && !class(r) }
	}

	start := col
	for start > 0 && sameRun(line[start-1]) {
		start--
	}
	end := col
	for end+1 < len(line) && sameRun(line[end+1]) {
		end++
	}

	if around {
		ext := end
		for ext+1 < len(line) && unicode.IsSpace(line[ext+1]) {
			ext++
		}
		if ext == end {
			for start > 0 && unicode.IsSpace(line[start-1]) {
				start--
			}
		}
		end = ext
	}

	return Range{
		Start:     Position{row, start},
		End:       Position{row, end},
		Type:      Charwise,
		Inclusive: true,
	}, true
}
