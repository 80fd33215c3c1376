package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/slowql/slowql/pkg/tokenizer"
	"github.com/slowql/slowql/pkg/types"
)

var (
	reSelectStar      = regexp.MustCompile(`^(\*|[A-Za-z_][A-Za-z0-9_]*\.\*)$`)
	reArithOnColumn   = regexp.MustCompile(`(?i)\b[A-Za-z_][A-Za-z0-9_.]*\s*[-+*/]\s*\d+(\.\d+)?\s*(=|!=|<>|<=|>=|<|>)`)
	reFuncOnColumn    = regexp.MustCompile(`(?i)\b(LOWER|UPPER|TRIM|LTRIM|RTRIM|SUBSTRING|SUBSTR|DATE|YEAR|MONTH|DAY|CAST|CONVERT|COALESCE|IFNULL|ABS|ROUND|CONCAT|DATE_FORMAT)\s*\(\s*[A-Za-z_][A-Za-z0-9_.]*\s*[,)][^=<>!]*?(=|!=|<>|<=|>=|<|>|\bLIKE\b|\bIN\b|\bBETWEEN\b)`)
	reOrColumns       = regexp.MustCompile(`(?i)\b([A-Za-z_][A-Za-z0-9_.]*)\s*(?:=|<|>|<=|>=|\bLIKE\b)\s*[^()]*?\bOR\s+([A-Za-z_][A-Za-z0-9_.]*)\s*(?:=|<|>|<=|>=|\bLIKE\b)`)
	reOrSameColumnEq  = regexp.MustCompile(`(?i)\b([A-Za-z_][A-Za-z0-9_.]*)\s*=\s*[^()\s]+\s+OR\s+([A-Za-z_][A-Za-z0-9_.]*)\s*=`)
	reCountStarExists = regexp.MustCompile(`(?i)\bCOUNT\s*\(\s*\*\s*\)\s*>\s*0`)
	reCountStar       = regexp.MustCompile(`(?i)^\s*SELECT\s+COUNT\s*\(\s*\*\s*\)\s+FROM\b`)
	reCaseInWhere     = regexp.MustCompile(`(?i)\bCASE\s+WHEN\b`)
	reAggregate       = regexp.MustCompile(`(?i)\b(COUNT|SUM|AVG|MIN|MAX|GROUP_CONCAT|STRING_AGG)\s*\(`)
	reUnion           = regexp.MustCompile(`(?i)\bUNION\b(\s+ALL\b)?`)
	reParamJoinKey    = regexp.MustCompile(`(?i)\b\w+_id\s*=\s*(\?|\$\d+|:\w+|%s)`)
	reRandOrder       = regexp.MustCompile(`(?i)\b(RAND|RANDOM)\s*\(\s*\)`)
	reCrossJoin       = regexp.MustCompile(`(?i)\bCROSS\s+JOIN\b`)
	reNaturalJoin     = regexp.MustCompile(`(?i)\bNATURAL\s+(LEFT\s+|RIGHT\s+|INNER\s+)?JOIN\b`)
	reJoinPredicate   = regexp.MustCompile(`(?i)\b(ON|USING)\b`)
	reQualifiedEq     = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.[A-Za-z_][A-Za-z0-9_]*\s*=\s*([A-Za-z_][A-Za-z0-9_]*)\.[A-Za-z_][A-Za-z0-9_]*`)
	reExistsBefore    = regexp.MustCompile(`(?i)\bEXISTS\s*\($`)
	reNumber          = regexp.MustCompile(`^\d+$`)
)

func registerPerformanceRules() {
	Register(&Rule{
		ID:       "select.star",
		Severity: types.SeverityMedium,
		Title:    "SELECT * usage",
		Fix:      "Select only the columns the caller needs",
		Impact:   "Transfers unneeded data and defeats covering indexes",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			var out []Match
			walk(stmt, func(n *tokenizer.Node) {
				list := strings.TrimSpace(n.ScopedClauseText(tokenizer.ClauseSelectList))
				if reSelectStar.MatchString(list) {
					out = append(out, NewMatch(excerpt(n.Text())))
				}
			})
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.like.leading-wildcard",
		Severity: types.SeverityHigh,
		Title:    "Leading wildcard in LIKE",
		Fix:      "Anchor the pattern or use a full-text index",
		Impact:   "A leading % or _ defeats index range scans and forces a full scan",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			var out []Match
			walk(stmt, func(n *tokenizer.Node) {
				if !n.Has(tokenizer.ClauseWhere) {
					return
				}
				for _, lk := range likePatterns(n.ScopedClauseText(tokenizer.ClauseWhere)) {
					if strings.HasPrefix(lk.Pattern, "%") || strings.HasPrefix(lk.Pattern, "_") {
						out = append(out, NewMatch(excerpt(lk.Text)))
					}
				}
			})
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.non-sargable",
		Severity: types.SeverityHigh,
		Title:    "Non-SARGable predicate",
		Fix:      "Move the arithmetic to the literal side of the comparison",
		Impact:   "Computing on the column defeats index seeks",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			where, ok := whereOf(stmt)
			if !ok {
				return nil
			}
			var out []Match
			for _, m := range reArithOnColumn.FindAllString(where, -1) {
				out = append(out, NewMatch(excerpt(m)))
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.function-on-column",
		Severity: types.SeverityHigh,
		Title:    "Function applied to a column in WHERE",
		Fix:      "Create a functional index or rewrite the condition on the raw column",
		Impact:   "Wrapping the column in a function forces a full scan",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			var out []Match
			walk(stmt, func(n *tokenizer.Node) {
				where, ok := whereOf(n)
				if !ok {
					return
				}
				for _, m := range reFuncOnColumn.FindAllString(where, -1) {
					out = append(out, NewMatch(excerpt(m)))
				}
			})
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.or-different-columns",
		Severity: types.SeverityMedium,
		Title:    "OR across different columns",
		Fix:      "Rewrite as UNION of indexable branches or redesign the filter",
		Impact:   "The optimizer cannot combine separate indexes for the OR branches",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			where, ok := whereOf(stmt)
			if !ok {
				return nil
			}
			var out []Match
			for _, m := range reOrColumns.FindAllStringSubmatch(where, -1) {
				if !strings.EqualFold(m[1], m[2]) {
					out = append(out, NewMatch(excerpt(m[0])))
				}
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.or-same-column",
		Severity: types.SeverityLow,
		Title:    "OR chain on one column",
		Fix:      "Use IN (...) instead of repeated equality branches",
		Impact:   "Harder to read and often slower to plan than a single IN list",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			where, ok := whereOf(stmt)
			if !ok {
				return nil
			}
			var out []Match
			for _, m := range reOrSameColumnEq.FindAllStringSubmatch(where, -1) {
				if strings.EqualFold(m[1], m[2]) {
					out = append(out, NewMatch(excerpt(m[0])))
				}
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.in-list.size",
		Severity: types.SeverityMedium,
		Title:    "Huge IN list",
		Fix:      "Load the values into a temp table and JOIN against it",
		Impact:   "Large literal lists bloat the plan cache and slow parsing",
		Match: func(ctx *Context, stmt *tokenizer.Node) []Match {
			var out []Match
			walk(stmt, func(n *tokenizer.Node) {
				where, ok := whereOf(n)
				if !ok {
					return
				}
				for _, in := range inLists(where) {
					if !in.Subquery && len(in.Items) > ctx.Thresholds.InListMaxLiterals {
						m := NewMatch(excerpt(fmt.Sprintf("IN list with %d literals", len(in.Items))))
						out = append(out, m)
					}
				}
			})
			return out
		},
	})

	Register(&Rule{
		ID:       "in-list.duplicates",
		Severity: types.SeverityLow,
		Title:    "Duplicate values in IN list",
		Fix:      "Deduplicate the literal list at the call site",
		Impact:   "Redundant literals inflate the statement for no gain",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			where := stmt.ClauseText(tokenizer.ClauseWhere)
			if where == "" {
				return nil
			}
			var out []Match
			for _, in := range inLists(where) {
				seen := make(map[string]bool, len(in.Items))
				for _, item := range in.Items {
					key := strings.ToUpper(item)
					if seen[key] {
						out = append(out, NewMatch(excerpt(in.Text)))
						break
					}
					seen[key] = true
				}
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.in-subquery",
		Severity: types.SeverityLow,
		Title:    "IN with subquery",
		Fix:      "Consider EXISTS or a JOIN, which optimizers handle better",
		Impact:   "Some planners materialize the whole subquery result first",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			where, ok := whereOf(stmt)
			if !ok {
				return nil
			}
			var out []Match
			for _, in := range inLists(where) {
				if in.Subquery && !in.Negated {
					out = append(out, NewMatch(excerpt(in.Text)))
				}
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "join.cartesian-product",
		Severity: types.SeverityHigh,
		Title:    "Cartesian product",
		Fix:      "Add a join predicate relating the tables",
		Impact:   "The result set grows with the product of the table sizes",
		Kinds:    []types.StatementKind{types.KindSelect, types.KindDelete, types.KindUpdate},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			targets := fromTargets(stmt)
			if len(targets) < 2 {
				return nil
			}
			text := stripStrings(stmt.Text())
			if reCrossJoin.MatchString(text) {
				return nil // explicit CROSS JOIN is handled by its own rule
			}
			for _, span := range stmt.Spans(tokenizer.ClauseJoin) {
				if reJoinPredicate.MatchString(stmt.SpanText(span)) {
					return nil
				}
			}
			if where, ok := whereOf(stmt); ok {
				aliases := aliasSet(targets)
				for _, m := range reQualifiedEq.FindAllStringSubmatch(where, -1) {
					left, right := strings.ToLower(m[1]), strings.ToLower(m[2])
					if left != right && aliases[left] && aliases[right] {
						return nil
					}
				}
				// Unqualified equality between two plausible columns is
				// treated as a join predicate to keep the heuristic quiet.
				if len(stmt.Spans(tokenizer.ClauseJoin)) == 0 && strings.Contains(where, "=") {
					return nil
				}
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "join.cross-explicit",
		Severity: types.SeverityMedium,
		Title:    "Explicit CROSS JOIN",
		Fix:      "Confirm the full product is intended, otherwise add a join condition",
		Impact:   "Produces every row combination of both tables",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			text := stripStrings(stmt.Text())
			if !reCrossJoin.MatchString(text) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "join.natural",
		Severity: types.SeverityMedium,
		Title:    "NATURAL JOIN",
		Fix:      "Spell out the join columns with ON or USING",
		Impact:   "The join key set silently changes when columns are added",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			text := stripStrings(stmt.Text())
			if !reNaturalJoin.MatchString(text) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "join.count.excessive",
		Severity: types.SeverityMedium,
		Title:    "Too many join targets",
		Fix:      "Split the query or precompute intermediate results",
		Impact:   "Join-order planning deteriorates rapidly past a handful of tables",
		Kinds:    []types.StatementKind{types.KindSelect},
		Match: func(ctx *Context, stmt *tokenizer.Node) []Match {
			targets := fromTargets(stmt)
			if len(targets) <= ctx.Thresholds.MaxJoinTables {
				return nil
			}
			return []Match{NewMatch(excerpt(fmt.Sprintf("%d join targets", len(targets))))}
		},
	})

	Register(&Rule{
		ID:       "subquery.correlated",
		Severity: types.SeverityMedium,
		Title:    "Correlated subquery",
		Fix:      "Rewrite as a JOIN or precompute the values",
		Impact:   "The subquery re-executes for every outer row",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			var out []Match
			walk(stmt, func(n *tokenizer.Node) {
				if n.Parent < 0 {
					return
				}
				where, ok := whereOf(n)
				if !ok {
					return
				}
				own := aliasSet(fromTargets(n))
				for q := range qualifiers(where) {
					if own[q] {
						continue
					}
					// Resolved from an enclosing statement's targets?
					for up := n.Enclosing(); up != nil; up = up.Enclosing() {
						if aliasSet(fromTargets(up))[q] {
							out = append(out, NewMatch(excerpt(n.Text())))
							return
						}
					}
				}
			})
			return out
		},
	})

	Register(&Rule{
		ID:       "subquery.select-list",
		Severity: types.SeverityHigh,
		Title:    "Subquery in SELECT list",
		Fix:      "Convert to a JOIN or compute the value once",
		Impact:   "Executes once per output row",
		Kinds:    []types.StatementKind{types.KindSelect},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			list, ok := stmt.Clause(tokenizer.ClauseSelectList)
			if !ok {
				return nil
			}
			var out []Match
			for _, sub := range stmt.Subqueries() {
				if sub.Span.Start >= list.Start && sub.Span.End <= list.End {
					out = append(out, NewMatch(excerpt(sub.Text())))
				}
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "subquery.depth",
		Severity: types.SeverityMedium,
		Title:    "Deeply nested subqueries",
		Fix:      "Flatten with JOINs or CTEs",
		Impact:   "Each nesting level multiplies planning and execution cost",
		Match: func(ctx *Context, stmt *tokenizer.Node) []Match {
			deepest := 0
			var deepText string
			walk(stmt, func(n *tokenizer.Node) {
				if n.Span.Depth > deepest {
					deepest = n.Span.Depth
					deepText = n.Text()
				}
			})
			if deepest <= ctx.Thresholds.MaxSubqueryDepth {
				return nil
			}
			return []Match{NewMatch(excerpt(deepText))}
		},
	})

	Register(&Rule{
		ID:       "subquery.exists.no-limit",
		Severity: types.SeverityLow,
		Title:    "EXISTS subquery without LIMIT",
		Fix:      "Add LIMIT 1 inside the EXISTS subquery",
		Impact:   "Engines without early-out semantics scan past the first match",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			var out []Match
			walk(stmt, func(n *tokenizer.Node) {
				if n.Parent < 0 || n.Has(tokenizer.ClauseLimit) {
					return
				}
				before := strings.TrimRight(n.Preceding(), " \t\n\r")
				if reExistsBefore.MatchString(before) {
					out = append(out, NewMatch(excerpt(n.Text())))
				}
			})
			return out
		},
	})

	Register(&Rule{
		ID:       "subquery.orderby",
		Severity: types.SeverityLow,
		Title:    "ORDER BY inside subquery",
		Fix:      "Drop the inner ORDER BY unless paired with LIMIT",
		Impact:   "The sort is wasted work; outer ordering is what counts",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			var out []Match
			walk(stmt, func(n *tokenizer.Node) {
				if n.Parent < 0 {
					return
				}
				if n.Has(tokenizer.ClauseOrderBy) && !n.Has(tokenizer.ClauseLimit) {
					out = append(out, NewMatch(excerpt(n.Text())))
				}
			})
			return out
		},
	})

	Register(&Rule{
		ID:       "select.distinct.unnecessary",
		Severity: types.SeverityLow,
		Title:    "Unnecessary DISTINCT",
		Fix:      "Drop DISTINCT when selecting an already-unique key column",
		Impact:   "Adds a sort or hash pass for rows that are already unique",
		Kinds:    []types.StatementKind{types.KindSelect},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if !stmt.Has(tokenizer.ClauseDistinct) || stmt.Has(tokenizer.ClauseGroupBy) {
				return nil
			}
			items := splitTopLevel(stmt.ClauseText(tokenizer.ClauseSelectList), ',')
			if len(items) != 1 {
				return nil
			}
			col := strings.ToLower(items[0])
			if dot := strings.LastIndex(col, "."); dot >= 0 {
				col = col[dot+1:]
			}
			// Single primary-key-like column: heuristic only, no schema
			// knowledge backs this up.
			if col != "id" && !strings.HasSuffix(col, "_id") && !strings.HasSuffix(col, "uuid") {
				return nil
			}
			return []Match{NewMatch(excerpt("DISTINCT " + items[0]))}
		},
	})

	Register(&Rule{
		ID:       "select.distinct.with-groupby",
		Severity: types.SeverityLow,
		Title:    "DISTINCT combined with GROUP BY",
		Fix:      "Remove DISTINCT; GROUP BY already deduplicates the groups",
		Impact:   "Requests the same deduplication twice",
		Kinds:    []types.StatementKind{types.KindSelect},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if stmt.Has(tokenizer.ClauseDistinct) && stmt.Has(tokenizer.ClauseGroupBy) {
				return []Match{NewMatch(excerpt(stmt.Text()))}
			}
			return nil
		},
	})

	Register(&Rule{
		ID:       "limit.offset.large",
		Severity: types.SeverityHigh,
		Title:    "Deep OFFSET pagination",
		Fix:      "Use keyset pagination: WHERE id > last_seen ORDER BY id",
		Impact:   "The server reads and discards every skipped row on each page",
		Match: func(ctx *Context, stmt *tokenizer.Node) []Match {
			offset, text, ok := offsetValue(stmt)
			if !ok || offset <= ctx.Thresholds.OffsetMaxRows {
				return nil
			}
			return []Match{NewMatch(excerpt(text))}
		},
	})

	Register(&Rule{
		ID:       "limit.offset.no-orderby",
		Severity: types.SeverityHigh,
		Title:    "OFFSET without ORDER BY",
		Fix:      "Add ORDER BY so pages are deterministic",
		Impact:   "Row order is undefined, so pages overlap or skip rows",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if _, _, ok := offsetValue(stmt); !ok {
				return nil
			}
			if stmt.Has(tokenizer.ClauseOrderBy) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "limit.no-orderby",
		Severity: types.SeverityLow,
		Title:    "LIMIT without ORDER BY",
		Fix:      "Add ORDER BY if the caller depends on which rows survive",
		Impact:   "The kept rows are arbitrary and can differ between runs",
		Kinds:    []types.StatementKind{types.KindSelect},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if !stmt.Has(tokenizer.ClauseLimit) || stmt.Has(tokenizer.ClauseOrderBy) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "predicate.count-star-existence",
		Severity: types.SeverityMedium,
		Title:    "COUNT(*) used as existence check",
		Fix:      "Use EXISTS, which stops at the first matching row",
		Impact:   "Counts the whole set when a single row would answer the question",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			text := stripStrings(stmt.Text())
			var out []Match
			for _, m := range reCountStarExists.FindAllString(text, -1) {
				out = append(out, NewMatch(excerpt(m)))
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "select.count-star-unfiltered",
		Severity: types.SeverityLow,
		Title:    "Unfiltered COUNT(*)",
		Fix:      "Filter the count or keep a counter table for hot paths",
		Impact:   "Full scan on engines without cheap row-count metadata",
		Kinds:    []types.StatementKind{types.KindSelect},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if stmt.Has(tokenizer.ClauseWhere) {
				return nil
			}
			if !reCountStar.MatchString(stmt.Text()) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})

	Register(&Rule{
		ID:       "set.union.missing-all",
		Severity: types.SeverityMedium,
		Title:    "UNION without ALL",
		Fix:      "Use UNION ALL when duplicates are acceptable",
		Impact:   "Plain UNION adds a deduplication sort over the combined set",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			text := stripStrings(stmt.Text())
			var out []Match
			for _, m := range reUnion.FindAllStringSubmatch(text, -1) {
				if m[1] == "" {
					out = append(out, NewMatch(excerpt(stmt.Text())))
				}
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "predicate.case-expression",
		Severity: types.SeverityMedium,
		Title:    "CASE expression in WHERE",
		Fix:      "Simplify the predicate or move branching to the application",
		Impact:   "Blocks predicate pushdown and index selection",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			where, ok := whereOf(stmt)
			if !ok {
				return nil
			}
			var out []Match
			for _, m := range reCaseInWhere.FindAllString(where, -1) {
				out = append(out, NewMatch(excerpt(m)))
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "having.without-aggregate",
		Severity: types.SeverityMedium,
		Title:    "HAVING used for row filtering",
		Fix:      "Move non-aggregate conditions into WHERE",
		Impact:   "Rows are grouped first and filtered afterwards",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if !stmt.Has(tokenizer.ClauseHaving) || stmt.Has(tokenizer.ClauseWhere) {
				return nil
			}
			having := stripStrings(stmt.ClauseText(tokenizer.ClauseHaving))
			if reAggregate.MatchString(having) {
				return nil
			}
			return []Match{NewMatch(excerpt("HAVING " + stmt.ClauseText(tokenizer.ClauseHaving)))}
		},
	})

	Register(&Rule{
		ID:       "predicate.like.multiple-wildcards",
		Severity: types.SeverityHigh,
		Title:    "Wildcard-heavy LIKE pattern",
		Fix:      "Use full-text search for multi-wildcard matching",
		Impact:   "Each extra % multiplies the scan work per row",
		Match: func(ctx *Context, stmt *tokenizer.Node) []Match {
			var out []Match
			walk(stmt, func(n *tokenizer.Node) {
				if !n.Has(tokenizer.ClauseWhere) {
					return
				}
				for _, lk := range likePatterns(n.ScopedClauseText(tokenizer.ClauseWhere)) {
					if strings.Count(lk.Pattern, "%") > ctx.Thresholds.MaxWildcards {
						out = append(out, NewMatch(excerpt(lk.Text)))
					}
				}
			})
			return out
		},
	})

	Register(&Rule{
		ID:       "statement.n-plus-one",
		Severity: types.SeverityHigh,
		Title:    "Potential N+1 query pattern",
		Fix:      "Batch with JOIN or WHERE key IN (...) instead of per-row lookups",
		Impact:   "Network round trips multiply by the number of parent rows",
		Kinds:    []types.StatementKind{types.KindSelect},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			where, ok := whereOf(stmt)
			if !ok {
				return nil
			}
			var out []Match
			for _, m := range reParamJoinKey.FindAllString(where, -1) {
				out = append(out, NewMatch(excerpt(m)))
			}
			return out
		},
	})

	Register(&Rule{
		ID:       "orderby.rand",
		Severity: types.SeverityHigh,
		Title:    "ORDER BY random",
		Fix:      "Pick a random key range or sample in the application",
		Impact:   "Assigns a random value to every row and sorts the whole table",
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if !stmt.Has(tokenizer.ClauseOrderBy) {
				return nil
			}
			order := stmt.ClauseText(tokenizer.ClauseOrderBy)
			if !reRandOrder.MatchString(order) {
				return nil
			}
			return []Match{NewMatch(excerpt("ORDER BY " + order))}
		},
	})

	Register(&Rule{
		ID:       "select.unbounded",
		Severity: types.SeverityLow,
		Title:    "Unbounded SELECT",
		Fix:      "Add a WHERE filter or a LIMIT",
		Impact:   "Returns the entire table to the client",
		Kinds:    []types.StatementKind{types.KindSelect},
		Match: func(_ *Context, stmt *tokenizer.Node) []Match {
			if !stmt.Has(tokenizer.ClauseFrom) {
				return nil
			}
			if stmt.Has(tokenizer.ClauseWhere) || stmt.Has(tokenizer.ClauseLimit) || stmt.Has(tokenizer.ClauseGroupBy) {
				return nil
			}
			if reAggregate.MatchString(stripStrings(stmt.ClauseText(tokenizer.ClauseSelectList))) {
				return nil
			}
			return []Match{NewMatch(excerpt(stmt.Text()))}
		},
	})
}

// offsetValue extracts the OFFSET row count from either an OFFSET clause or
// the two-argument LIMIT form (LIMIT offset, count).
func offsetValue(stmt *tokenizer.Node) (int, string, bool) {
	if stmt.Has(tokenizer.ClauseOffset) {
		text := strings.TrimSpace(stmt.ClauseText(tokenizer.ClauseOffset))
		first := strings.Fields(text)
		if len(first) > 0 && reNumber.MatchString(first[0]) {
			v, err := strconv.Atoi(first[0])
			if err == nil {
				return v, "OFFSET " + first[0], true
			}
		}
		return 0, "", false
	}
	if stmt.Has(tokenizer.ClauseLimit) {
		parts := splitTopLevel(stmt.ClauseText(tokenizer.ClauseLimit), ',')
		if len(parts) == 2 && reNumber.MatchString(parts[0]) {
			v, err := strconv.Atoi(parts[0])
			if err == nil {
				return v, "LIMIT " + parts[0] + ", " + parts[1], true
			}
		}
	}
	return 0, "", false
}
