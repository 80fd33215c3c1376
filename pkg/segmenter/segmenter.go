// Package segmenter splits raw SQL text into individual statements.
//
// Semicolons terminate statements only outside string literals, quoted
// identifiers and comments. Splitting is best-effort: an unterminated quote
// or comment never fails, the remainder of the input simply becomes the
// final statement.
package segmenter

import (
	"strings"

	"github.com/slowql/slowql/pkg/types"
)

// Segment splits sql into an ordered sequence of statements. Line numbers
// are 1-based and counted from the start of the whole input. Statements
// containing only whitespace and comments are dropped.
func Segment(sql string) []types.Statement {
	var out []types.Statement

	line := 1
	start := -1  // offset of the first significant byte of the current statement
	startLine := 0

	emit := func(end int) {
		if start < 0 {
			return
		}
		text := strings.TrimRight(sql[start:end], " \t\r\n")
		if text != "" {
			out = append(out, types.Statement{
				Text:  text,
				Line:  startLine,
				Kind:  types.Classify(text),
				Index: len(out),
			})
		}
		start = -1
	}

	i := 0
	for i < len(sql) {
		c := sql[i]

		switch c {
		case '\n':
			line++
			i++
			continue
		case ' ', '\t', '\r':
			i++
			continue
		case '-':
			if i+1 < len(sql) && sql[i+1] == '-' {
				// Line comment. Does not open a statement on its own.
				for i < len(sql) && sql[i] != '\n' {
					i++
				}
				continue
			}
		case '/':
			if i+1 < len(sql) && sql[i+1] == '*' {
				end := strings.Index(sql[i+2:], "*/")
				if end < 0 {
					// Unterminated block comment: swallow the rest.
					line += strings.Count(sql[i:], "\n")
					i = len(sql)
					continue
				}
				line += strings.Count(sql[i:i+2+end+2], "\n")
				i += 2 + end + 2
				continue
			}
		case '#':
			// MySQL-style line comment.
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			continue
		case '\'', '"', '`':
			if start < 0 {
				start, startLine = i, line
			}
			n, newlines := scanQuoted(sql[i:], c)
			line += newlines
			i += n
			continue
		case ';':
			emit(i)
			i++
			continue
		}

		if start < 0 {
			start, startLine = i, line
		}
		i++
	}

	// Trailing statement without terminator, including any best-effort
	// remainder after an unterminated quote.
	emit(len(sql))

	return out
}

// scanQuoted consumes a quoted literal or identifier starting at src[0],
// which must be the opening quote. It returns the number of bytes consumed
// and the number of newlines inside. Backslash escapes and doubled quotes
// are honored. An unterminated literal consumes the rest of the input.
func scanQuoted(src string, quote byte) (n int, newlines int) {
	i := 1
	for i < len(src) {
		c := src[i]
		if c == '\n' {
			newlines++
		}
		if c == '\\' && quote != '`' && i+1 < len(src) {
			i += 2
			continue
		}
		if c == quote {
			// Doubled quote is an escaped quote, not a terminator.
			if i+1 < len(src) && src[i+1] == quote {
				i += 2
				continue
			}
			return i + 1, newlines
		}
		i++
	}
	return len(src), newlines
}
