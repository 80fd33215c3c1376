// Package tokenizer performs lightweight structural tokenization of a SQL
// statement: it locates top-level clause spans and nested subqueries without
// building a full syntax tree.
//
// Clause keywords are recognized only at parenthesis depth zero relative to
// the statement (or subquery) being scanned, and quoted literals and
// identifiers are opaque, so a string containing the word "FROM" is never
// mistaken for a clause boundary. Span boundaries are exact character
// offsets into the statement text, which lets detection rules extract
// verbatim excerpts.
package tokenizer

import (
	"strings"

	"github.com/slowql/slowql/pkg/types"
)

// ClauseKind identifies a top-level clause within a statement.
type ClauseKind int32

const (
	ClauseSelectList ClauseKind = iota
	ClauseDistinct
	ClauseFrom
	ClauseJoin
	ClauseWhere
	ClauseGroupBy
	ClauseHaving
	ClauseOrderBy
	ClauseLimit
	ClauseOffset
	ClauseSet
	ClauseValues
	ClauseSubquery
)

func (k ClauseKind) String() string {
	switch k {
	case ClauseSelectList:
		return "SELECT_LIST"
	case ClauseDistinct:
		return "DISTINCT"
	case ClauseFrom:
		return "FROM"
	case ClauseJoin:
		return "JOIN"
	case ClauseWhere:
		return "WHERE"
	case ClauseGroupBy:
		return "GROUP_BY"
	case ClauseHaving:
		return "HAVING"
	case ClauseOrderBy:
		return "ORDER_BY"
	case ClauseLimit:
		return "LIMIT"
	case ClauseOffset:
		return "OFFSET"
	case ClauseSet:
		return "SET"
	case ClauseValues:
		return "VALUES"
	case ClauseSubquery:
		return "SUBQUERY"
	default:
		return "UNKNOWN"
	}
}

// Span is a character range within the statement text. Start and End are
// byte offsets into the root statement's text; Depth is the subquery
// nesting depth the span belongs to (0 for the top-level statement).
type Span struct {
	Start int
	End   int
	Depth int
}

// Tree is the tokenized view of one statement: an arena of nodes where
// node 0 is the statement itself and further nodes are subqueries. Nodes
// reference each other by index, never by pointer cycles.
type Tree struct {
	Statement types.Statement
	Nodes     []*Node
}

// Node is one statement scope: either the whole statement or a subquery.
type Node struct {
	Index    int
	Parent   int // -1 for the root
	Children []int
	Kind     types.StatementKind
	Span     Span
	Clauses  map[ClauseKind][]Span

	tree *Tree
}

// Tokenize builds the tokenized view of stmt. It never fails: malformed or
// absent clauses are simply missing from the clause map.
func Tokenize(stmt types.Statement) *Tree {
	t := &Tree{Statement: stmt}
	root := t.newNode(-1, Span{Start: 0, End: len(stmt.Text), Depth: 0})
	root.Kind = stmt.Kind
	t.scan(root)
	return t
}

// Root returns the node covering the whole statement.
func (t *Tree) Root() *Node { return t.Nodes[0] }

// Text returns the full statement text.
func (t *Tree) Text() string { return t.Statement.Text }

func (t *Tree) newNode(parent int, span Span) *Node {
	n := &Node{
		Index:   len(t.Nodes),
		Parent:  parent,
		Span:    span,
		Clauses: make(map[ClauseKind][]Span),
		tree:    t,
	}
	t.Nodes = append(t.Nodes, n)
	if parent >= 0 {
		t.Nodes[parent].Children = append(t.Nodes[parent].Children, n.Index)
	}
	return n
}

// Text returns the verbatim text covered by the node.
func (n *Node) Text() string {
	return n.tree.Statement.Text[n.Span.Start:n.Span.End]
}

// Spans returns all spans recorded for the clause kind.
func (n *Node) Spans(kind ClauseKind) []Span {
	return n.Clauses[kind]
}

// Clause returns the first span of the clause kind, if present.
func (n *Node) Clause(kind ClauseKind) (Span, bool) {
	spans := n.Clauses[kind]
	if len(spans) == 0 {
		return Span{}, false
	}
	return spans[0], true
}

// Has reports whether at least one span of the clause kind exists.
func (n *Node) Has(kind ClauseKind) bool {
	return len(n.Clauses[kind]) > 0
}

// ClauseText returns the verbatim text of the first span of the clause
// kind, or the empty string when the clause is absent.
func (n *Node) ClauseText(kind ClauseKind) string {
	span, ok := n.Clause(kind)
	if !ok {
		return ""
	}
	return n.tree.Statement.Text[span.Start:span.End]
}

// SpanText returns the verbatim text of a span.
func (n *Node) SpanText(span Span) string {
	return n.tree.Statement.Text[span.Start:span.End]
}

// ScopedClauseText returns the text of the first span of the clause kind
// with nested subquery bodies blanked out, so a scan over the result stays
// within this node's own scope. Each subquery keeps its leading SELECT
// keyword, which keeps constructs like IN (SELECT ...) recognizable.
// Length and offsets match ClauseText.
func (n *Node) ScopedClauseText(kind ClauseKind) string {
	span, ok := n.Clause(kind)
	if !ok {
		return ""
	}
	return n.ScopedSpanText(span)
}

// ScopedSpanText returns the span text with the ranges covered by child
// subqueries replaced by spaces, except each subquery's leading SELECT.
func (n *Node) ScopedSpanText(span Span) string {
	subs := n.Clauses[ClauseSubquery]
	if len(subs) == 0 {
		return n.SpanText(span)
	}
	buf := []byte(n.SpanText(span))
	for _, sub := range subs {
		start := sub.Start + len("SELECT")
		if start < span.Start {
			start = span.Start
		}
		end := sub.End
		if end > span.End {
			end = span.End
		}
		for i := start; i < end; i++ {
			buf[i-span.Start] = ' '
		}
	}
	return string(buf)
}

// Preceding returns the statement text before the node's span. Rules use
// it to inspect what introduced a subquery (EXISTS, IN, a select-list
// position) without losing offsets.
func (n *Node) Preceding() string {
	return n.tree.Statement.Text[:n.Span.Start]
}

// Subqueries returns the direct child subquery nodes.
func (n *Node) Subqueries() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, idx := range n.Children {
		out = append(out, n.tree.Nodes[idx])
	}
	return out
}

// Enclosing returns the parent node, or nil for the root. Walking up by
// parent index is how correlated-subquery detection resolves columns
// against enclosing scopes.
func (n *Node) Enclosing() *Node {
	if n.Parent < 0 {
		return nil
	}
	return n.tree.Nodes[n.Parent]
}

// token kinds produced by the lexer.
const (
	tokWord = iota
	tokString
	tokNumber
	tokPunct
	tokLParen
	tokRParen
)

type token struct {
	kind  int
	start int
	end   int
	depth int // parenthesis depth relative to the scanned range
}

// lex tokenizes src[start:end]. Comments are skipped; quoted literals and
// identifiers become single opaque tokens. Depth counts parentheses opened
// within the range.
func lex(src string, start, end int) []token {
	var toks []token
	depth := 0
	i := start
	for i < end {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '-' && i+1 < end && src[i+1] == '-':
			for i < end && src[i] != '\n' {
				i++
			}
		case c == '#':
			for i < end && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < end && src[i+1] == '*':
			off := strings.Index(src[i+2:end], "*/")
			if off < 0 {
				i = end
			} else {
				i += 2 + off + 2
			}
		case c == '\'' || c == '"' || c == '`':
			n := scanQuoted(src[i:end], c)
			toks = append(toks, token{kind: tokString, start: i, end: i + n, depth: depth})
			i += n
		case c == '(':
			toks = append(toks, token{kind: tokLParen, start: i, end: i + 1, depth: depth})
			depth++
			i++
		case c == ')':
			if depth > 0 {
				depth--
			}
			toks = append(toks, token{kind: tokRParen, start: i, end: i + 1, depth: depth})
			i++
		case isWordStart(c):
			j := i + 1
			for j < end && isWordByte(src[j]) {
				j++
			}
			toks = append(toks, token{kind: tokWord, start: i, end: j, depth: depth})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < end && (src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			toks = append(toks, token{kind: tokNumber, start: i, end: j, depth: depth})
			i = j
		default:
			toks = append(toks, token{kind: tokPunct, start: i, end: i + 1, depth: depth})
			i++
		}
	}
	return toks
}

func scanQuoted(src string, quote byte) int {
	i := 1
	for i < len(src) {
		c := src[i]
		if c == '\\' && quote != '`' && i+1 < len(src) {
			i += 2
			continue
		}
		if c == quote {
			if i+1 < len(src) && src[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(src)
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// clause boundary description produced while walking depth-0 tokens.
type boundary struct {
	kind         ClauseKind
	keywordStart int // offset of the first keyword token of the boundary
	contentStart int // offset where the clause content begins
}

// scan locates clause boundaries and subqueries for the node's span.
func (t *Tree) scan(n *Node) {
	src := t.Statement.Text
	toks := lex(src, n.Span.Start, n.Span.End)

	n.Kind = types.Classify(src[n.Span.Start:n.Span.End])

	var bounds []boundary
	word := func(tk token) string { return strings.ToUpper(src[tk.start:tk.end]) }

	for i := 0; i < len(toks); i++ {
		tk := toks[i]

		// Subquery discovery: a depth-0 paren group whose first
		// significant token is SELECT (possibly behind further parens)
		// becomes a child node. Other groups are searched for nested
		// subqueries that still belong to this scope.
		if tk.kind == tokLParen && tk.depth == 0 {
			close := matchParen(toks, i)
			t.scanParenGroup(n, toks, i, close)
			i = close
			continue
		}

		if tk.kind != tokWord || tk.depth != 0 {
			continue
		}

		switch word(tk) {
		case "SELECT":
			content := tk.end
			kind := ClauseSelectList
			// A DISTINCT marker directly after SELECT gets its own span.
			if next, ok := nextWord(toks, i); ok && word(toks[next]) == "DISTINCT" {
				n.Clauses[ClauseDistinct] = append(n.Clauses[ClauseDistinct],
					Span{Start: toks[next].start, End: toks[next].end, Depth: n.Span.Depth})
				content = toks[next].end
				i = next
			}
			bounds = append(bounds, boundary{kind: kind, keywordStart: tk.start, contentStart: content})
		case "FROM":
			bounds = append(bounds, boundary{kind: ClauseFrom, keywordStart: tk.start, contentStart: tk.end})
		case "WHERE":
			bounds = append(bounds, boundary{kind: ClauseWhere, keywordStart: tk.start, contentStart: tk.end})
		case "HAVING":
			bounds = append(bounds, boundary{kind: ClauseHaving, keywordStart: tk.start, contentStart: tk.end})
		case "LIMIT":
			bounds = append(bounds, boundary{kind: ClauseLimit, keywordStart: tk.start, contentStart: tk.end})
		case "OFFSET":
			bounds = append(bounds, boundary{kind: ClauseOffset, keywordStart: tk.start, contentStart: tk.end})
		case "SET":
			bounds = append(bounds, boundary{kind: ClauseSet, keywordStart: tk.start, contentStart: tk.end})
		case "VALUES", "VALUE":
			bounds = append(bounds, boundary{kind: ClauseValues, keywordStart: tk.start, contentStart: tk.end})
		case "GROUP", "ORDER":
			kw := word(tk)
			next, ok := nextWord(toks, i)
			if !ok || word(toks[next]) != "BY" {
				continue // malformed, clause simply not recorded
			}
			kind := ClauseGroupBy
			if kw == "ORDER" {
				kind = ClauseOrderBy
			}
			bounds = append(bounds, boundary{kind: kind, keywordStart: tk.start, contentStart: toks[next].end})
			i = next
		case "JOIN":
			bounds = append(bounds, boundary{kind: ClauseJoin, keywordStart: joinStart(toks, i, src), contentStart: tk.end})
		case "UNION", "INTERSECT", "EXCEPT":
			// Set operators end the current clause but are not clauses
			// themselves; the following SELECT opens its own spans.
			bounds = append(bounds, boundary{kind: -1, keywordStart: tk.start, contentStart: tk.end})
		}
	}

	for bi, b := range bounds {
		if b.kind < 0 {
			continue
		}
		end := n.Span.End
		if bi+1 < len(bounds) {
			end = bounds[bi+1].keywordStart
		}
		start, stop := trimRange(src, b.contentStart, end)
		n.Clauses[b.kind] = append(n.Clauses[b.kind],
			Span{Start: start, End: stop, Depth: n.Span.Depth})
	}
}

// scanParenGroup handles one depth-0 parenthesized group: record it as a
// subquery child when it starts with SELECT, otherwise look inside for
// deeper subqueries that belong to the current node.
func (t *Tree) scanParenGroup(n *Node, toks []token, open, close int) {
	src := t.Statement.Text
	first := open + 1
	// Strip immediately nested parens: ((SELECT ...)).
	for first < close && toks[first].kind == tokLParen {
		first++
	}
	if first < close && toks[first].kind == tokWord &&
		strings.EqualFold(src[toks[first].start:toks[first].end], "SELECT") {
		inner := Span{Start: toks[first].start, End: innerEnd(toks, open, close), Depth: n.Span.Depth + 1}
		n.Clauses[ClauseSubquery] = append(n.Clauses[ClauseSubquery], inner)
		child := t.newNode(n.Index, inner)
		t.scan(child)
		return
	}
	// Not a subquery group: scan its contents for subqueries opened at
	// deeper paren levels, e.g. WHERE (a IN (SELECT ...)).
	for i := open + 1; i < close; i++ {
		if toks[i].kind == tokLParen && toks[i].depth == toks[open].depth+1 {
			sub := matchParen(toks, i)
			t.scanParenGroup(n, toks, i, sub)
			i = sub
		}
	}
}

// matchParen returns the index of the token closing the paren opened at
// toks[open], or the last token index when unbalanced.
func matchParen(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].kind {
		case tokLParen:
			depth++
		case tokRParen:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(toks) - 1
}

// innerEnd returns the offset just before the closing paren of the group,
// falling back to the end of the last token for unbalanced input.
func innerEnd(toks []token, open, close int) int {
	if close < len(toks) && toks[close].kind == tokRParen {
		return toks[close].start
	}
	return toks[len(toks)-1].end
}

// nextWord returns the index of the next word token after i.
func nextWord(toks []token, i int) (int, bool) {
	for j := i + 1; j < len(toks); j++ {
		if toks[j].kind == tokWord {
			return j, true
		}
		if toks[j].kind != tokString {
			return 0, false
		}
	}
	return 0, false
}

// joinStart walks back over join modifiers (LEFT OUTER, INNER, CROSS, ...)
// so the previous clause span ends before them.
func joinStart(toks []token, joinIdx int, src string) int {
	start := toks[joinIdx].start
	for j := joinIdx - 1; j >= 0; j-- {
		if toks[j].kind != tokWord || toks[j].depth != toks[joinIdx].depth {
			break
		}
		switch strings.ToUpper(src[toks[j].start:toks[j].end]) {
		case "LEFT", "RIGHT", "FULL", "INNER", "OUTER", "CROSS", "NATURAL", "STRAIGHT_JOIN":
			start = toks[j].start
		default:
			return start
		}
	}
	return start
}

// trimRange narrows [start, end) to exclude surrounding whitespace.
func trimRange(src string, start, end int) (int, int) {
	for start < end {
		c := src[start]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			start++
			continue
		}
		break
	}
	for end > start {
		c := src[end-1]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			end--
			continue
		}
		break
	}
	return start, end
}
