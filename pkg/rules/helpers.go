package rules

import (
	"regexp"
	"strings"

	"github.com/slowql/slowql/pkg/tokenizer"
)

const maxExcerptLen = 120

// excerpt collapses whitespace and truncates long offending text so
// findings stay readable in terminal and CSV output.
func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxExcerptLen {
		return s[:maxExcerptLen-3] + "..."
	}
	return s
}

// sqlKeywords are words never treated as column or table identifiers.
var sqlKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "JOIN": true, "ON": true,
	"AND": true, "OR": true, "NOT": true, "IN": true, "EXISTS": true,
	"LIKE": true, "BETWEEN": true, "IS": true, "NULL": true, "AS": true,
	"GROUP": true, "ORDER": true, "BY": true, "HAVING": true, "LIMIT": true,
	"OFFSET": true, "UNION": true, "ALL": true, "DISTINCT": true,
	"INSERT": true, "INTO": true, "VALUES": true, "UPDATE": true, "SET": true,
	"DELETE": true, "CREATE": true, "ALTER": true, "DROP": true, "TABLE": true,
	"INDEX": true, "LEFT": true, "RIGHT": true, "INNER": true, "OUTER": true,
	"FULL": true, "CROSS": true, "NATURAL": true, "USING": true, "CASE": true,
	"WHEN": true, "THEN": true, "ELSE": true, "END": true, "ASC": true,
	"DESC": true, "TRUE": true, "FALSE": true,
}

var (
	reQualifiedRef = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)\b`)
	reLikeLiteral  = regexp.MustCompile(`(?i)\bLIKE\s+(N?'(?:[^'\\]|\\.|'')*')`)
	reStringLit    = regexp.MustCompile(`'(?:[^'\\]|\\.|'')*'`)
)

// stripQuotes removes the surrounding quotes of a string literal.
func stripQuotes(lit string) string {
	lit = strings.TrimPrefix(lit, "N")
	lit = strings.TrimPrefix(lit, "n")
	if len(lit) >= 2 && lit[0] == '\'' && lit[len(lit)-1] == '\'' {
		return lit[1 : len(lit)-1]
	}
	return lit
}

// likeExpr is one LIKE predicate found in a clause: the full matched text
// plus the pattern literal with quotes removed.
type likeExpr struct {
	Text    string
	Pattern string
}

// likePatterns extracts the LIKE predicates with string-literal patterns
// from the given clause text.
func likePatterns(clause string) []likeExpr {
	var out []likeExpr
	for _, m := range reLikeLiteral.FindAllStringSubmatch(clause, -1) {
		out = append(out, likeExpr{Text: m[0], Pattern: stripQuotes(m[1])})
	}
	return out
}

// inList is one IN (...) predicate: the full expression text, the
// comma-separated items at paren depth zero, and whether the list is a
// subquery rather than literals.
type inList struct {
	Text     string
	Items    []string
	Subquery bool
	Negated  bool
}

var reInOpen = regexp.MustCompile(`(?i)\b(NOT\s+)?IN\s*\(`)

// inLists extracts the IN predicates from the clause text.
func inLists(clause string) []inList {
	var out []inList
	for _, loc := range reInOpen.FindAllStringSubmatchIndex(clause, -1) {
		open := loc[1] - 1 // position of '('
		closeIdx := matchingParen(clause, open)
		if closeIdx < 0 {
			continue
		}
		body := clause[open+1 : closeIdx]
		entry := inList{
			Text:    clause[loc[0] : closeIdx+1],
			Negated: loc[2] >= 0,
		}
		if reLeadingSelect.MatchString(body) {
			entry.Subquery = true
		} else {
			entry.Items = splitTopLevel(body, ',')
		}
		out = append(out, entry)
	}
	return out
}

var reLeadingSelect = regexp.MustCompile(`(?i)^\s*\(*\s*SELECT\b`)

// matchingParen returns the index of the ')' closing the '(' at open, or
// -1 when unbalanced. String literals are skipped.
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if m := reStringLit.FindStringIndex(s[i:]); m != nil {
				i += m[1] - 1
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits s on sep at parenthesis depth zero, trimming each
// part and dropping empties.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if m := reStringLit.FindStringIndex(s[i:]); m != nil {
				i += m[1] - 1
			}
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				if p := strings.TrimSpace(s[last:i]); p != "" {
					parts = append(parts, p)
				}
				last = i + 1
			}
		}
	}
	if p := strings.TrimSpace(s[last:]); p != "" {
		parts = append(parts, p)
	}
	return parts
}

// target is one FROM or JOIN relation: the table name and the alias it is
// referenced by (the alias defaults to the table name).
type target struct {
	Table string
	Alias string
}

var reJoinTail = regexp.MustCompile(`(?i)\s+(ON|USING)\b.*$`)

// fromTargets collects the relations of a node's FROM and JOIN clauses.
func fromTargets(n *tokenizer.Node) []target {
	var out []target
	if from, ok := n.Clause(tokenizer.ClauseFrom); ok {
		for _, part := range splitTopLevel(n.SpanText(from), ',') {
			if t, ok := parseTarget(part); ok {
				out = append(out, t)
			}
		}
	}
	for _, span := range n.Spans(tokenizer.ClauseJoin) {
		part := reJoinTail.ReplaceAllString(n.SpanText(span), "")
		if t, ok := parseTarget(part); ok {
			out = append(out, t)
		}
	}
	return out
}

func parseTarget(part string) (target, bool) {
	words := strings.Fields(part)
	if len(words) == 0 || strings.HasPrefix(words[0], "(") {
		// Derived table; its alias still counts when present.
		if len(words) >= 2 {
			alias := words[len(words)-1]
			if !sqlKeywords[strings.ToUpper(alias)] && reBareIdent.MatchString(alias) {
				return target{Table: alias, Alias: alias}, true
			}
		}
		return target{}, false
	}
	t := target{Table: strings.Trim(words[0], "`\"")}
	t.Alias = t.Table
	if len(words) >= 2 {
		alias := words[1]
		if strings.EqualFold(alias, "AS") && len(words) >= 3 {
			alias = words[2]
		}
		if !sqlKeywords[strings.ToUpper(alias)] && reBareIdent.MatchString(alias) {
			t.Alias = strings.Trim(alias, "`\"")
		}
	}
	return t, true
}

var reBareIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// qualifiers returns the distinct qualifier names (the X in X.col) used in
// the text, lowercased.
func qualifiers(text string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range reQualifiedRef.FindAllStringSubmatch(text, -1) {
		out[strings.ToLower(m[1])] = true
	}
	return out
}

// aliasSet returns the lowercased alias and table names of the targets.
func aliasSet(targets []target) map[string]bool {
	out := make(map[string]bool, len(targets)*2)
	for _, t := range targets {
		out[strings.ToLower(t.Alias)] = true
		out[strings.ToLower(t.Table)] = true
	}
	return out
}

// stripStrings replaces string literals with empty quotes so keyword and
// identifier scans cannot match inside literal text.
func stripStrings(text string) string {
	return reStringLit.ReplaceAllString(text, "''")
}
