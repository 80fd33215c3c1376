package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slowql/slowql/pkg/segmenter"
	"github.com/slowql/slowql/pkg/types"
)

func tokenize(t *testing.T, sql string) *Node {
	t.Helper()
	stmts := segmenter.Segment(sql)
	require.Len(t, stmts, 1)
	return Tokenize(stmts[0]).Root()
}

func TestTokenize_AllClauses(t *testing.T) {
	root := tokenize(t, `SELECT DISTINCT a, b FROM t1 JOIN t2 ON t1.id = t2.id WHERE a = 1 GROUP BY a HAVING COUNT(a) > 1 ORDER BY b LIMIT 10 OFFSET 5`)

	require.True(t, root.Has(ClauseDistinct))
	require.Equal(t, "a, b", root.ClauseText(ClauseSelectList))
	require.Equal(t, "t1", root.ClauseText(ClauseFrom))
	require.Equal(t, "t2 ON t1.id = t2.id", root.ClauseText(ClauseJoin))
	require.Equal(t, "a = 1", root.ClauseText(ClauseWhere))
	require.Equal(t, "a", root.ClauseText(ClauseGroupBy))
	require.Equal(t, "COUNT(a) > 1", root.ClauseText(ClauseHaving))
	require.Equal(t, "b", root.ClauseText(ClauseOrderBy))
	require.Equal(t, "10", root.ClauseText(ClauseLimit))
	require.Equal(t, "5", root.ClauseText(ClauseOffset))
	require.Equal(t, types.KindSelect, root.Kind)
}

func TestTokenize_SpansAreExactOffsets(t *testing.T) {
	sql := `SELECT name FROM users WHERE id = 42`
	root := tokenize(t, sql)

	span, ok := root.Clause(ClauseWhere)
	require.True(t, ok)
	require.Equal(t, "id = 42", sql[span.Start:span.End])
	require.Equal(t, 0, span.Depth)
}

func TestTokenize_Subquery(t *testing.T) {
	root := tokenize(t, `SELECT id FROM users WHERE id IN (SELECT user_id FROM orders WHERE total > 100)`)

	subs := root.Subqueries()
	require.Len(t, subs, 1)

	sub := subs[0]
	require.Equal(t, "SELECT user_id FROM orders WHERE total > 100", sub.Text())
	require.Equal(t, "total > 100", sub.ClauseText(ClauseWhere))
	require.Equal(t, 1, sub.Span.Depth)
	require.Equal(t, root.Index, sub.Enclosing().Index)
	require.True(t, strings.HasSuffix(strings.TrimSpace(sub.Preceding()), "IN ("))

	// The outer WHERE still covers the whole predicate.
	require.Contains(t, root.ClauseText(ClauseWhere), "id IN (SELECT")
}

func TestTokenize_SubqueryBehindExtraParens(t *testing.T) {
	root := tokenize(t, `SELECT a FROM t WHERE (a IN (SELECT b FROM u))`)
	require.Len(t, root.Subqueries(), 1)
	require.Equal(t, "SELECT b FROM u", root.Subqueries()[0].Text())
}

func TestTokenize_NestedSubqueryDepth(t *testing.T) {
	root := tokenize(t, `SELECT a FROM t WHERE x IN (SELECT b FROM u WHERE y IN (SELECT c FROM v))`)

	require.Len(t, root.Subqueries(), 1)
	inner := root.Subqueries()[0]
	require.Len(t, inner.Subqueries(), 1)
	require.Equal(t, 2, inner.Subqueries()[0].Span.Depth)
}

func TestTokenize_KeywordInsideStringIgnored(t *testing.T) {
	root := tokenize(t, `SELECT 'FROM WHERE LIMIT' AS s FROM t`)

	require.Equal(t, "t", root.ClauseText(ClauseFrom))
	require.False(t, root.Has(ClauseWhere))
	require.False(t, root.Has(ClauseLimit))
	require.Equal(t, `'FROM WHERE LIMIT' AS s`, root.ClauseText(ClauseSelectList))
}

func TestTokenize_KeywordInsideCommentIgnored(t *testing.T) {
	root := tokenize(t, "SELECT a /* WHERE b = 1 */ FROM t")
	require.False(t, root.Has(ClauseWhere))
	require.Equal(t, "t", root.ClauseText(ClauseFrom))
}

func TestTokenize_Update(t *testing.T) {
	root := tokenize(t, `UPDATE accounts SET balance = 0, updated_at = NOW() WHERE id = 7`)

	require.Equal(t, types.KindUpdate, root.Kind)
	require.Equal(t, "balance = 0, updated_at = NOW()", root.ClauseText(ClauseSet))
	require.Equal(t, "id = 7", root.ClauseText(ClauseWhere))
}

func TestTokenize_InsertValues(t *testing.T) {
	root := tokenize(t, `INSERT INTO t (a, b) VALUES (1, 'x'), (2, 'y')`)

	require.Equal(t, types.KindInsert, root.Kind)
	require.Equal(t, "(1, 'x'), (2, 'y')", root.ClauseText(ClauseValues))
}

func TestTokenize_JoinModifiers(t *testing.T) {
	root := tokenize(t, `SELECT a FROM t1 LEFT OUTER JOIN t2 ON t1.x = t2.y WHERE a = 1`)

	// The FROM span must end before the join modifiers.
	require.Equal(t, "t1", root.ClauseText(ClauseFrom))
	require.Equal(t, "t2 ON t1.x = t2.y", root.ClauseText(ClauseJoin))
}

func TestTokenize_MultipleJoins(t *testing.T) {
	root := tokenize(t, `SELECT a FROM t1 JOIN t2 ON x = y JOIN t3 ON y = z`)
	require.Len(t, root.Spans(ClauseJoin), 2)
}

func TestTokenize_Union(t *testing.T) {
	root := tokenize(t, `SELECT a FROM t1 UNION SELECT b FROM t2`)

	lists := root.Spans(ClauseSelectList)
	require.Len(t, lists, 2)
	require.Equal(t, "a", root.SpanText(lists[0]))
	require.Equal(t, "b", root.SpanText(lists[1]))

	froms := root.Spans(ClauseFrom)
	require.Len(t, froms, 2)
	require.Equal(t, "t1", root.SpanText(froms[0]))
}

func TestTokenize_SubqueryKeywordsStayInChild(t *testing.T) {
	// The subquery's WHERE must not leak into the outer scope.
	root := tokenize(t, `SELECT id FROM t WHERE a IN (SELECT b FROM u WHERE c = 1)`)

	require.Len(t, root.Spans(ClauseWhere), 1)
	require.Len(t, root.Spans(ClauseFrom), 1)
	require.Equal(t, "t", root.ClauseText(ClauseFrom))
}

func TestScopedClauseText(t *testing.T) {
	root := tokenize(t, `SELECT a FROM t WHERE id IN (SELECT id FROM u WHERE deleted_at = NULL)`)

	scoped := root.ScopedClauseText(ClauseWhere)
	// Same length as the plain clause text, so offsets still line up.
	require.Len(t, scoped, len(root.ClauseText(ClauseWhere)))
	// The subquery body is blanked; only its leading SELECT survives.
	require.Equal(t, "id IN (SELECT )", strings.Join(strings.Fields(scoped), " "))
	require.NotContains(t, scoped, "deleted_at")
	// The subquery's own clause map is untouched.
	require.Equal(t, "deleted_at = NULL", root.Subqueries()[0].ClauseText(ClauseWhere))
}

func TestScopedClauseText_NoSubquery(t *testing.T) {
	root := tokenize(t, `SELECT a FROM t WHERE id = 42`)
	require.Equal(t, root.ClauseText(ClauseWhere), root.ScopedClauseText(ClauseWhere))
}

func TestTokenize_MalformedNeverPanics(t *testing.T) {
	inputs := []string{
		"SELECT (((",
		"SELECT a FROM",
		"WHERE",
		")))((",
		"SELECT 'unterminated",
		"GROUP",
		"ORDER LIMIT",
	}
	for _, sql := range inputs {
		stmts := segmenter.Segment(sql)
		for _, stmt := range stmts {
			require.NotPanics(t, func() { Tokenize(stmt) }, sql)
		}
	}
}
