package vim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeleteInnerParens(t *testing.T) {
	text := "foo (bar baz) qux"

	r, ok := TextObject('(', text, 0, 6, false)
	require.True(t, ok)

	res := Delete(text, r)
	require.Equal(t, "foo () qux", res.Text)
	require.Equal(t, "bar baz", res.Yanked)
	require.Equal(t, Position{0, 5}, res.Cursor)
}

func TestTextObjects(t *testing.T) {
	tests := []struct {
		name   string
		obj    rune
		text   string
		row    int
		col    int
		around bool
		found  bool
		want   string // expected yanked text after delete
	}{
		{"inner parens", '(', "a (b c) d", 0, 4, false, true, "b c"},
		{"around parens", ')', "a (b c) d", 0, 4, true, true, "(b c)"},
		{"inner nested picks innermost", '(', "f(g(x), y)", 0, 4, false, true, "x"},
		{"inner braces", '{', "do { it }", 0, 5, false, true, " it "},
		{"inner brackets", '[', "a[idx]b", 0, 3, false, true, "idx"},
		{"inner quotes", '"', `say "hi there" now`, 0, 7, false, true, "hi there"},
		{"around quotes takes space", '"', `say "hi" now`, 0, 6, true, true, `"hi" `},
		{"inner single quotes", '\'', "x = 'val'", 0, 6, false, true, "val"},
		{"inner word", 'w', "alpha beta gamma", 0, 7, false, true, "beta"},
		{"around word", 'w', "alpha beta gamma", 0, 7, true, true, "beta "},
		{"inner WORD", 'W', "a foo.bar b", 0, 5, false, true, "foo.bar"},
		{"no enclosing pair", '(', "plain text", 0, 3, false, false, ""},
		{"unclosed quote", '"', `only "one`, 0, 2, false, false, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, ok := TextObject(test.obj, test.text, test.row, test.col, test.around)
			require.Equal(t, test.found, ok)
			if !ok {
				return
			}
			res := Delete(test.text, r)
			require.Equal(t, test.want, res.Yanked)
		})
	}
}

func TestDeleteLengthInvariant(t *testing.T) {
	text := "select a,\n  b\nfrom t\nwhere x = 'y'"

	ranges := []Range{
		{Start: Position{0, 0}, End: Position{0, 6}, Type: Charwise},
		{Start: Position{0, 7}, End: Position{2, 4}, Type: Charwise, Inclusive: true},
		{Start: Position{1, 0}, End: Position{2, 0}, Type: Linewise},
		{Start: Position{3, 0}, End: Position{3, 12}, Type: Linewise},
		{Start: Position{2, 3}, End: Position{0, 2}, Type: Charwise}, // reversed
	}

	for _, r := range ranges {
		res := Delete(text, r)
		require.Equal(t, len(text)-len(res.Yanked), len(res.Text), "range %+v", r)
	}
}

func TestDeleteLinewise(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		r      Range
		want   string
		yanked string
	}{
		{
			"middle line",
			"one\ntwo\nthree",
			Range{Start: Position{1, 0}, End: Position{1, 3}, Type: Linewise},
			"one\nthree",
			"two\n",
		},
		{
			"last line takes preceding newline",
			"one\ntwo",
			Range{Start: Position{1, 0}, End: Position{1, 3}, Type: Linewise},
			"one",
			"\ntwo",
		},
		{
			"whole buffer",
			"one\ntwo",
			Range{Start: Position{0, 0}, End: Position{1, 3}, Type: Linewise},
			"",
			"one\ntwo",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res := Delete(test.text, test.r)
			require.Equal(t, test.want, res.Text)
			require.Equal(t, test.yanked, res.Yanked)
		})
	}
}

func TestYankLeavesTextUntouched(t *testing.T) {
	text := "alpha beta"
	res := Yank(text, Range{Start: Position{0, 0}, End: Position{0, 5}, Type: Charwise})
	require.Equal(t, text, res.Text)
	require.Equal(t, "alpha", res.Yanked)
}

func TestChangeEntersInsert(t *testing.T) {
	text := "delete me now"
	r, ok := TextObject('w', text, 0, 8, false)
	require.True(t, ok)

	res := Change(text, r)
	require.True(t, res.EnterInsert)
	require.Equal(t, "delete  now", res.Text)
	require.Equal(t, "me", res.Yanked)

	// Linewise change keeps the line open.
	lres := Change("one\ntwo\nthree", Range{Start: Position{1, 0}, End: Position{1, 3}, Type: Linewise})
	require.True(t, lres.EnterInsert)
	require.Equal(t, "one\n\nthree", lres.Text)
	require.Equal(t, Position{1, 0}, lres.Cursor)
}

func TestDeleteHelpers(t *testing.T) {
	res := DeleteLine("one\ntwo\nthree", 1, 2)
	require.Equal(t, "one\nthree", res.Text)

	res = DeleteToLineEnd("hello world", 0, 5)
	require.Equal(t, "hello", res.Text)

	res = DeleteToLineStart("hello world", 0, 6)
	require.Equal(t, "world", res.Text)

	res = DeleteChar("abc", 0, 1)
	require.Equal(t, "ac", res.Text)
	require.Equal(t, "b", res.Yanked)

	res = DeleteCharBack("abc", 0, 1)
	require.Equal(t, "bc", res.Text)

	res = DeleteAll("a\nb", 0, 0)
	require.Equal(t, "", res.Text)

	dw, ok := DeleteMotion("w", "alpha beta", 0, 0, 0)
	require.True(t, ok)
	require.Equal(t, "beta", dw.Text)
	require.Equal(t, "alpha ", dw.Yanked)
}

func TestPaste(t *testing.T) {
	res := Paste("hello world", 0, 5, ",")
	require.Equal(t, "hello, world", res.Text)
	require.Equal(t, Position{0, 6}, res.Cursor)

	multi := Paste("ab", 0, 1, "x\ny")
	require.Equal(t, "ax\nyb", multi.Text)
	require.Equal(t, Position{1, 1}, multi.Cursor)
}
