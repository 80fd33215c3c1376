package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/slowql/slowql/pkg/tokenizer"
	"github.com/slowql/slowql/pkg/types"
)

var (
	reCreateTable   = regexp.MustCompile(`(?i)^\s*CREATE\s+(TEMPORARY\s+)?TABLE\b`)
	reCreateSelect  = regexp.MustCompile(`(?i)\)\s*(AS\s+)?SELECT\b|\bTABLE\s+\S+\s+(AS\s+)?SELECT\b`)
	rePrimaryKey    = regexp.MustCompile(`(?i)\bPRIMARY\s+KEY\b`)
	reDropIndex     = regexp.MustCompile(`(?i)^\s*DROP\s+INDEX\b|\bALTER\s+TABLE\b.*\bDROP\s+INDEX\b`)
	reIndexHint     = regexp.MustCompile(`(?i)\b(FORCE|USE|IGNORE)\s+(INDEX|KEY)\s*\(`)
	reIntoOutfile   = regexp.MustCompile(`(?i)\bINTO\s+(OUTFILE|DUMPFILE)\b`)
	reOrderExprCall = regexp.MustCompile(`(?i)^[A-Za-z_][A-Za-z0-9_]*\s*\(`)
)

const bulkInsertMaxRows = 100

func registerMaintainabilityRules() {
	Register(&Rule{
		ID:       "orderby.ordinal",
		Severity: types.SeverityLow,
		Title:    "ORDER BY column position",
		Fix:      "Order by column names instead of positions",
		Impact:   "The sort silently changes when the select list is edited",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			return ordinalMatches(stmt, tokenizer.ClauseOrderBy, "ORDER BY")
		},
	})

	Register(&Rule{
		ID:       "groupby.ordinal",
		Severity: types.SeverityLow,
		Title:    "GROUP BY column position",
		Fix:      "Group by column names instead of positions",
		Impact:   "The grouping silently changes when the select list is edited",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			return ordinalMatches(stmt, tokenizer.ClauseGroupBy, "GROUP BY")
		},
	})

	Register(&Rule{
		ID:       "predicate.like.no-wildcard",
		Severity: types.SeverityLow,
		Title:    "LIKE without wildcards",
		Fix:      "Use = for exact matching",
		Impact:   "Misleads readers and may skip index equality paths",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			var out []Match
			walk(stmt, func(n *tokenizer.Node) {
				if !n.Has(tokenizer.ClauseWhere) {
					return
				}
				for _, lk := range likePatterns(n.ScopedClauseText(tokenizer.ClauseWhere)) {
					if !strings.ContainsAny(lk.Pattern, "%_") {
						out = append(out, NewMatch(excerpt(lk.Text)))
					}
				}
			})
			return out
		},
	})

	Register(&Rule{
		ID:       "select.duplicate-columns",
		Severity: types.SeverityLow,
		Title:    "Duplicate columns in select list",
		Fix:      "Select each column once",
		Impact:   "Wastes bandwidth and confuses positional consumers",
		Kinds:    []types.StatementKind{types.KindSelect},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			list := stmt.ClauseText(tokenizer.ClauseSelectList)
			if list == "" {
				return nil
			}
			seen := make(map[string]bool)
			for _, item := range splitTopLevel(stripStrings(list), ',') {
				key := strings.ToLower(strings.Join(strings.Fields(item), " "))
				if key == "" || key == "*" {
					continue
				}
				if seen[key] {
					return []Match{NewMatch(excerpt(item))}
				}
				seen[key] = true
			}
			return nil
		},
	})

	Register(&Rule{
		ID:       "ddl.create-table.no-primary-key",
		Severity: types.SeverityMedium,
		Title:    "CREATE TABLE without PRIMARY KEY",
		Fix:      "Declare a primary key in the table definition",
		Impact:   "Replication and row lookups degrade without a unique row identity",
		Kinds:    []types.StatementKind{types.KindDDL},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			text := stripStrings(stmt.Text())
			if !reCreateTable.MatchString(text) {
				return nil
			}
			// CREATE TABLE ... AS SELECT inherits no keys either way; the
			// definition to fix lives elsewhere.
			if reCreateSelect.MatchString(text) {
				return nil
			}
			if rePrimaryKey.MatchString(text) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "ddl.drop-index",
		Severity: types.SeverityMedium,
		Title:    "Index dropped",
		Fix:      "Verify no query plan still relies on the index before dropping",
		Impact:   "Queries that used the index fall back to scans immediately",
		Kinds:    []types.StatementKind{types.KindDDL},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if !reDropIndex.MatchString(stripStrings(stmt.Text())) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "insert.values.bulk",
		Severity: types.SeverityMedium,
		Title:    "Oversized multi-row INSERT",
		Fix:      "Split into smaller batches or use the engine's bulk-load path",
		Impact:   "Giant statements hold locks longer and can exceed packet limits",
		Kinds:    []types.StatementKind{types.KindInsert},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			values := stmt.ClauseText(tokenizer.ClauseValues)
			if values == "" {
				return nil
			}
			rows := len(splitTopLevel(stripStrings(values), ','))
			if rows <= bulkInsertMaxRows {
				return nil
			}
			return []Match{NewMatch(excerpt(fmt.Sprintf("INSERT with %d value rows", rows)))}
		},
	})

	Register(&Rule{
		ID:       "statement.index-hint",
		Severity: types.SeverityMedium,
		Title:    "Hard-coded index hint",
		Fix:      "Remove the hint and let the optimizer choose, or document why it must stay",
		Impact:   "The hint pins a plan that goes stale as data distribution shifts",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			text := stripStrings(stmt.Text())
			var out []Match
			for _, m := range reIndexHint.FindAllString(text, -1) {
				out = append(out, NewMatch(excerpt(m)))
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "statement.into-outfile",
		Severity: types.SeverityHigh,
		Title:    "SELECT INTO OUTFILE",
		Fix:      "Export through the application or a dump tool instead",
		Impact:   "Writes files on the database host and needs FILE privileges",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			text := stripStrings(stmt.Text())
			if !reIntoOutfile.MatchString(text) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "orderby.expression",
		Severity: types.SeverityMedium,
		Title:    "ORDER BY on a computed expression",
		Fix:      "Sort on a stored or indexed column, or add a functional index",
		Impact:   "The expression is evaluated per row and the sort cannot use an index",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if !stmt.Has(tokenizer.ClauseOrderBy) {
				return nil
			}
			order := stripStrings(stmt.ClauseText(tokenizer.ClauseOrderBy))
			if reRandOrder.MatchString(order) {
				return nil // orderby.rand reports this one
			}
			var out []Match
			for _, item := range splitTopLevel(order, ',') {
				if reOrderExprCall.MatchString(strings.TrimSpace(item)) {
					out = append(out, NewMatch(excerpt("ORDER BY "+item)))
				}
			}
			return out
		},
	})
}

// ordinalMatches reports positional references in an ORDER BY or GROUP BY
// clause.
func ordinalMatches(stmt *tokenizer.Node, kind tokenizer.ClauseKind, label string) []Match {
	if !stmt.Has(kind) {
		return nil
	}
	clause := stripStrings(stmt.ClauseText(kind))
	var out []Match
	for _, item := range splitTopLevel(clause, ',') {
		fields := strings.Fields(item)
		if len(fields) == 0 {
			continue
		}
		if reNumber.MatchString(fields[0]) {
			out = append(out, NewMatch(excerpt(label+" "+item)))
		}
	}
	return out
}
