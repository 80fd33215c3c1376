package segmenter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slowql/slowql/pkg/types"
)

func TestSegment_Basic(t *testing.T) {
	stmts := Segment("SELECT 1;\nDELETE FROM users;")
	require.Len(t, stmts, 2)

	require.Equal(t, "SELECT 1", stmts[0].Text)
	require.Equal(t, 1, stmts[0].Line)
	require.Equal(t, types.KindSelect, stmts[0].Kind)
	require.Equal(t, 0, stmts[0].Index)

	require.Equal(t, "DELETE FROM users", stmts[1].Text)
	require.Equal(t, 2, stmts[1].Line)
	require.Equal(t, types.KindDelete, stmts[1].Kind)
	require.Equal(t, 1, stmts[1].Index)
}

func TestSegment_SemicolonInString(t *testing.T) {
	stmts := Segment(`INSERT INTO t VALUES ('a;b');`)
	require.Len(t, stmts, 1)
	require.Equal(t, `INSERT INTO t VALUES ('a;b')`, stmts[0].Text)
	require.Equal(t, types.KindInsert, stmts[0].Kind)
}

func TestSegment_SemicolonInComment(t *testing.T) {
	stmts := Segment("SELECT 1 /* not; here */ FROM t;\nSELECT 2 -- nor; here\nFROM u;")
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[0].Text, "not; here")
	require.Equal(t, 2, stmts[1].Line)
}

func TestSegment_QuotedIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"backtick", "SELECT `a;b` FROM t;"},
		{"double quote", `SELECT "a;b" FROM t;`},
		{"doubled single quote", `SELECT 'it''s; fine' FROM t;`},
		{"backslash escape", `SELECT 'a\';b' FROM t;`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts := Segment(tt.sql)
			require.Len(t, stmts, 1)
		})
	}
}

func TestSegment_CommentOnlyInputDropped(t *testing.T) {
	require.Empty(t, Segment("-- just a comment\n/* and another */"))
	require.Empty(t, Segment("# mysql comment"))
	require.Empty(t, Segment("   \n\t  "))
	require.Empty(t, Segment(""))
	require.Empty(t, Segment(";;;"))
}

func TestSegment_LeadingCommentLineNumber(t *testing.T) {
	stmts := Segment("-- migration 042\n-- adds the index\nCREATE INDEX i ON t (a);")
	require.Len(t, stmts, 1)
	require.Equal(t, 3, stmts[0].Line)
	require.Equal(t, types.KindDDL, stmts[0].Kind)
}

func TestSegment_MultilineBlockComment(t *testing.T) {
	stmts := Segment("/* header\nspanning\nlines */\nUPDATE t SET x = 1;")
	require.Len(t, stmts, 1)
	require.Equal(t, 4, stmts[0].Line)
	require.Equal(t, types.KindUpdate, stmts[0].Kind)
}

func TestSegment_NoTrailingSemicolon(t *testing.T) {
	stmts := Segment("SELECT a FROM t")
	require.Len(t, stmts, 1)
	require.Equal(t, "SELECT a FROM t", stmts[0].Text)
}

func TestSegment_UnterminatedQuoteBestEffort(t *testing.T) {
	stmts := Segment("SELECT 'unterminated; SELECT 2")
	require.Len(t, stmts, 1)
	require.Equal(t, "SELECT 'unterminated; SELECT 2", stmts[0].Text)
}

func TestSegment_UnterminatedBlockComment(t *testing.T) {
	stmts := Segment("SELECT 1;\n/* never closed\nSELECT 2;")
	require.Len(t, stmts, 1)
	require.Equal(t, "SELECT 1", stmts[0].Text)
}

func TestSegment_MultilineStatementLine(t *testing.T) {
	stmts := Segment("SELECT a,\n  b,\n  c\nFROM t;\nSELECT 1;")
	require.Len(t, stmts, 2)
	require.Equal(t, 1, stmts[0].Line)
	require.Equal(t, 5, stmts[1].Line)
}

func TestSegment_KindClassification(t *testing.T) {
	tests := []struct {
		sql  string
		kind types.StatementKind
	}{
		{"WITH x AS (SELECT 1) SELECT * FROM x", types.KindSelect},
		{"REPLACE INTO t VALUES (1)", types.KindInsert},
		{"TRUNCATE TABLE t", types.KindDDL},
		{"EXPLAIN SELECT 1", types.KindOther},
		{"drop table t", types.KindDDL},
	}
	for _, tt := range tests {
		stmts := Segment(tt.sql)
		require.Len(t, stmts, 1, tt.sql)
		require.Equal(t, tt.kind, stmts[0].Kind, tt.sql)
	}
}
