package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/slowql/slowql/pkg/segmenter"
	"github.com/slowql/slowql/pkg/tokenizer"
	"github.com/slowql/slowql/pkg/types"
)

// IndexSuggestion is a candidate index derived from filter columns observed
// in the analyzed statements. Suggestions are heuristic: they ignore
// existing indexes, cardinality and write load, so they are a starting point
// for review rather than a migration to apply blindly.
type IndexSuggestion struct {
	Table   string   `json:"table" yaml:"table"`
	Columns []string `json:"columns" yaml:"columns"`
	// DDL is a ready-to-edit CREATE INDEX statement.
	DDL string `json:"ddl" yaml:"ddl"`
}

var (
	reSuggestCol  = regexp.MustCompile(`(?i)([A-Za-z_][A-Za-z0-9_]*)\s*(?:=|>|<|>=|<=|\bIN\b|\bLIKE\b|\bBETWEEN\b)`)
	reSuggestLit  = regexp.MustCompile(`'(?:[^'\\]|\\.|'')*'`)
	reSuggestWord = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

var suggestStopWords = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "IS": true, "NULL": true,
	"IN": true, "LIKE": true, "BETWEEN": true, "EXISTS": true,
	"SELECT": true, "WHERE": true, "TRUE": true, "FALSE": true,
}

// SuggestIndexes scans the statements for single-table filters and proposes
// one composite index per table covering the filtered columns.
func (e *Engine) SuggestIndexes(sql string) []IndexSuggestion {
	byTable := make(map[string]map[string]bool)

	for _, stmt := range segmenter.Segment(sql) {
		switch stmt.Kind {
		case types.KindSelect, types.KindUpdate, types.KindDelete:
		default:
			continue
		}
		root := tokenizer.Tokenize(stmt).Root()
		table, ok := soleTable(root, stmt)
		if !ok || !root.Has(tokenizer.ClauseWhere) {
			continue
		}
		where := reSuggestLit.ReplaceAllString(root.ClauseText(tokenizer.ClauseWhere), "''")
		for _, m := range reSuggestCol.FindAllStringSubmatch(where, -1) {
			col := m[1]
			if suggestStopWords[strings.ToUpper(col)] {
				continue
			}
			if byTable[table] == nil {
				byTable[table] = make(map[string]bool)
			}
			byTable[table][strings.ToLower(col)] = true
		}
	}

	tables := make([]string, 0, len(byTable))
	for t := range byTable {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	out := make([]IndexSuggestion, 0, len(tables))
	for _, t := range tables {
		cols := make([]string, 0, len(byTable[t]))
		for c := range byTable[t] {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		out = append(out, IndexSuggestion{
			Table:   t,
			Columns: cols,
			DDL: fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s (%s);",
				t, strings.Join(cols, "_"), t, strings.Join(cols, ", ")),
		})
	}
	return out
}

// soleTable returns the single relation a statement operates on, when there
// is exactly one. Multi-table statements are skipped; attributing their
// filter columns to the right table needs schema knowledge.
func soleTable(root *tokenizer.Node, stmt types.Statement) (string, bool) {
	var source string
	switch stmt.Kind {
	case types.KindSelect:
		if len(root.Spans(tokenizer.ClauseJoin)) > 0 {
			return "", false
		}
		source = root.ClauseText(tokenizer.ClauseFrom)
	case types.KindUpdate:
		fields := strings.Fields(stmt.Text)
		if len(fields) >= 2 {
			source = fields[1]
		}
	case types.KindDelete:
		source = root.ClauseText(tokenizer.ClauseFrom)
	}
	fields := strings.Fields(source)
	if len(fields) == 0 {
		return "", false
	}
	table := strings.Trim(fields[0], "`\"")
	if strings.Contains(table, ",") || !reSuggestWord.MatchString(table) {
		return "", false
	}
	return strings.ToLower(table), true
}

// Comparison is the finding-level diff between two versions of the same SQL.
type Comparison struct {
	// Resolved findings exist in the old version only.
	Resolved []types.Finding `json:"resolved" yaml:"resolved"`
	// Introduced findings exist in the new version only.
	Introduced []types.Finding `json:"introduced" yaml:"introduced"`
	// Persisting findings exist in both versions.
	Persisting []types.Finding `json:"persisting" yaml:"persisting"`
}

// Improved reports whether the rewrite is a net win: nothing new appeared
// and at least one old finding went away.
func (c *Comparison) Improved() bool {
	return len(c.Introduced) == 0 && len(c.Resolved) > 0
}

// Compare analyzes two versions of the same SQL and diffs the findings.
// Findings are matched by rule and excerpt, not statement position, so
// reordering statements does not show up as churn.
func (e *Engine) Compare(ctx context.Context, before, after string, opts ...Option) (*Comparison, error) {
	oldRes, err := e.Analyze(ctx, before, opts...)
	if err != nil {
		return nil, err
	}
	newRes, err := e.Analyze(ctx, after, opts...)
	if err != nil {
		return nil, err
	}

	key := func(f types.Finding) string {
		return f.RuleID + "\x00" + f.Excerpt
	}
	oldKeys := make(map[string]bool, len(oldRes.Findings))
	for _, f := range oldRes.Findings {
		oldKeys[key(f)] = true
	}
	newKeys := make(map[string]bool, len(newRes.Findings))
	for _, f := range newRes.Findings {
		newKeys[key(f)] = true
	}

	cmp := &Comparison{}
	for _, f := range oldRes.Findings {
		if !newKeys[key(f)] {
			cmp.Resolved = append(cmp.Resolved, f)
		}
	}
	for _, f := range newRes.Findings {
		if oldKeys[key(f)] {
			cmp.Persisting = append(cmp.Persisting, f)
		} else {
			cmp.Introduced = append(cmp.Introduced, f)
		}
	}
	return cmp, nil
}
