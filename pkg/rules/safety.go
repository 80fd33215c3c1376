package rules

import (
	"regexp"

	"github.com/slowql/slowql/pkg/tokenizer"
	"github.com/slowql/slowql/pkg/types"
)

// walk visits the node and all its subqueries, depth first.
func walk(n *tokenizer.Node, fn func(*tokenizer.Node)) {
	fn(n)
	for _, c := range n.Subqueries() {
		walk(c, fn)
	}
}

// whereOf returns the node's WHERE text with string literals and nested
// subquery bodies blanked out: predicate scans never match inside literal
// values, and each scope is scanned exactly once (a subquery's predicates
// are picked up by its own node, never again through the enclosing WHERE).
func whereOf(n *tokenizer.Node) (string, bool) {
	if !n.Has(tokenizer.ClauseWhere) {
		return "", false
	}
	return stripStrings(n.ScopedClauseText(tokenizer.ClauseWhere)), true
}

var (
	reNullCompare    = regexp.MustCompile(`(?i)[A-Za-z0-9_.)'"\x60]\s*(=|!=|<>)\s*NULL\b`)
	reFloatEquality  = regexp.MustCompile(`(?i)\b\w*(price|amount|total|cost|value|rate|balance)\w*\s*=\s*\d+\.\d+`)
	reImplicitConv   = regexp.MustCompile(`(?i)\b\w*(name|email|code|status|uuid|phone|zip)\w*\s*=\s*\d+\b`)
	reBetweenDates   = regexp.MustCompile(`(?i)\bBETWEEN\s+'(\d{4}-\d{2}-\d{2})[^']*'\s+AND\s+'(\d{4}-\d{2}-\d{2})[^']*'`)
	reDropTable      = regexp.MustCompile(`(?i)^\s*DROP\s+TABLE\b`)
	reTruncate       = regexp.MustCompile(`(?i)^\s*TRUNCATE\b`)
	reDropColumn     = regexp.MustCompile(`(?i)\bALTER\s+TABLE\b.*\bDROP\s+(COLUMN\s+)?[A-Za-z_]`)
	reInsertNoCols   = regexp.MustCompile(`(?i)^\s*INSERT\s+(IGNORE\s+)?INTO\s+[^\s(]+\s+VALUES?\b`)
	reAlwaysTrue     = regexp.MustCompile(`(?i)\b1\s*=\s*1\b|\bTRUE\s*=\s*TRUE\b`)
	reNotNullNoDflt  = regexp.MustCompile(`(?i)\bADD\s+(COLUMN\s+)?\x60?[A-Za-z_][A-Za-z0-9_]*\x60?\s+[A-Za-z]+[^,;]*\bNOT\s+NULL\b[^,;]*`)
	reDefaultKeyword = regexp.MustCompile(`(?i)\bDEFAULT\b`)
)

func registerSafetyRules() {
	Register(&Rule{
		ID:       "statement.where.missing",
		Severity: types.SeverityCritical,
		Title:    "Missing WHERE in UPDATE/DELETE",
		Fix:      "Add a WHERE clause, or use TRUNCATE if rewriting the whole table is intentional",
		Impact:   "Affects every row in the table",
		Kinds:    []types.StatementKind{types.KindUpdate, types.KindDelete},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if stmt.Has(tokenizer.ClauseWhere) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "predicate.null-comparison",
		Severity: types.SeverityHigh,
		Title:    "NULL compared with = or <>",
		Fix:      "Use IS NULL or IS NOT NULL",
		Impact:   "Comparison with NULL yields UNKNOWN, so the condition never matches",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			var out []Match
			walk(stmt, func(n *tokenizer.Node) {
				where, ok := whereOf(n)
				if !ok {
					return
				}
				for _, m := range reNullCompare.FindAllString(where, -1) {
					out = append(out, NewMatch(excerpt(m)))
				}
			})
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.not-in-subquery",
		Severity: types.SeverityHigh,
		Title:    "NOT IN with subquery",
		Fix:      "Use NOT EXISTS instead",
		Impact:   "A single NULL in the subquery result makes the predicate match nothing",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			var out []Match
			walk(stmt, func(n *tokenizer.Node) {
				where, ok := whereOf(n)
				if !ok {
					return
				}
				for _, in := range inLists(where) {
					if in.Negated && in.Subquery {
						out = append(out, NewMatch(excerpt(in.Text)))
					}
				}
			})
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.float-equality",
		Severity: types.SeverityMedium,
		Title:    "Floating point equality",
		Fix:      "Use a range comparison or a DECIMAL column",
		Impact:   "Precision loss can make exact matches silently miss rows",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			where, ok := whereOf(stmt)
			if !ok {
				return nil
			}
			var out []Match
			for _, m := range reFloatEquality.FindAllString(where, -1) {
				out = append(out, NewMatch(excerpt(m)))
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.implicit-conversion",
		Severity: types.SeverityHigh,
		Title:    "Implicit type conversion",
		Fix:      "Quote string values so the column type matches the literal",
		Impact:   "Type coercion on the column prevents index usage",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			where, ok := whereOf(stmt)
			if !ok {
				return nil
			}
			var out []Match
			for _, m := range reImplicitConv.FindAllString(where, -1) {
				out = append(out, NewMatch(excerpt(m)))
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.between-dates",
		Severity: types.SeverityMedium,
		Title:    "BETWEEN with date boundaries",
		Fix:      "Use col >= start AND col < end-plus-one-day",
		Impact:   "BETWEEN is inclusive and misses end-of-day rows with time components",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			where, ok := stmt.ClauseText(tokenizer.ClauseWhere), stmt.Has(tokenizer.ClauseWhere)
			if !ok {
				return nil
			}
			var out []Match
			for _, m := range reBetweenDates.FindAllString(where, -1) {
				out = append(out, NewMatch(excerpt(m)))
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "statement.drop-table",
		Severity: types.SeverityCritical,
		Title:    "DROP TABLE statement",
		Fix:      "Double-check the target and keep a backup or soft-delete path",
		Impact:   "Irreversibly removes the table and all of its data",
		Kinds:    []types.StatementKind{types.KindDDL},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if !reDropTable.MatchString(stmt.Text()) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "statement.truncate",
		Severity: types.SeverityHigh,
		Title:    "TRUNCATE statement",
		Fix:      "Prefer DELETE with WHERE unless a full, unlogged wipe is intended",
		Impact:   "Removes all rows without row-level undo",
		Kinds:    []types.StatementKind{types.KindDDL},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if !reTruncate.MatchString(stmt.Text()) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "ddl.drop-column",
		Severity: types.SeverityHigh,
		Title:    "ALTER TABLE drops a column",
		Fix:      "Deprecate the column first and drop it in a later migration",
		Impact:   "Destroys column data and breaks readers still referencing it",
		Kinds:    []types.StatementKind{types.KindDDL},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			text := stripStrings(stmt.Text())
			if !reDropColumn.MatchString(text) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "ddl.not-null-no-default",
		Severity: types.SeverityMedium,
		Title:    "NOT NULL column added without DEFAULT",
		Fix:      "Add a DEFAULT so existing rows can satisfy the constraint",
		Impact:   "The migration fails or locks while backfilling on populated tables",
		Kinds:    []types.StatementKind{types.KindDDL},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			text := stripStrings(stmt.Text())
			var out []Match
			for _, m := range reNotNullNoDflt.FindAllString(text, -1) {
				if !reDefaultKeyword.MatchString(m) {
					out = append(out, NewMatch(excerpt(m)))
				}
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "statement.insert.no-columns",
		Severity: types.SeverityMedium,
		Title:    "INSERT without column list",
		Fix:      "Specify the column list explicitly",
		Impact:   "Breaks silently when the table layout changes",
		Kinds:    []types.StatementKind{types.KindInsert},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if !reInsertNoCols.MatchString(stripStrings(stmt.Text())) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "predicate.always-true",
		Severity: types.SeverityLow,
		Title:    "Tautological condition",
		Fix:      "Remove the 1=1 filler or build the predicate conditionally",
		Impact:   "Obscures the real filter and hints at string-built SQL",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			where, ok := whereOf(stmt)
			if !ok {
				return nil
			}
			var out []Match
			for _, m := range reAlwaysTrue.FindAllString(where, -1) {
				out = append(out, NewMatch(excerpt(m)))
			}
			return out
		},
	})
}
