package adapter

import "strings"

// SplitStatements splits a script on semicolons, honoring single-quoted,
// double-quoted and backtick-quoted literals and `--` line comments. It is a
// deliberately naive character walker; dollar-quoted bodies and nested
// BEGIN/END blocks are not understood.
func SplitStatements(script string) []string {
	var (
		out     []string
		cur     strings.Builder
		quote   rune // active quote char, 0 when outside a literal
		comment bool // inside a -- line comment
	)

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if comment {
			cur.WriteRune(ch)
			if ch == '\n' {
				comment = false
			}
			continue
		}

		if quote != 0 {
			cur.WriteRune(ch)
			if ch == quote {
				// Doubled quote inside a literal stays in the literal.
				if i+1 < len(runes) && runes[i+1] == quote {
					cur.WriteRune(runes[i+1])
					i++
				} else {
					quote = 0
				}
			}
			continue
		}

		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			cur.WriteRune(ch)
		case ch == '-' && i+1 < len(runes) && runes[i+1] == '-':
			comment = true
			cur.WriteRune(ch)
		case ch == ';':
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}

	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// StripLeadingComments removes leading whitespace, `--` line comments and
// `/* */` block comments, so sentinel keywords can be matched at the front
// of a statement.
func StripLeadingComments(sql string) string {
	s := sql
	for {
		s = strings.TrimLeft(s, " \t\r\n")
		switch {
		case strings.HasPrefix(s, "--"):
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = s[i+1:]
			} else {
				return ""
			}
		case strings.HasPrefix(s, "/*"):
			if i := strings.Index(s, "*/"); i >= 0 {
				s = s[i+2:]
			} else {
				return ""
			}
		default:
			return s
		}
	}
}
