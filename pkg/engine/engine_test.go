package engine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowql/slowql/pkg/config"
	"github.com/slowql/slowql/pkg/rules"
	"github.com/slowql/slowql/pkg/tokenizer"
	"github.com/slowql/slowql/pkg/types"
)

const fixtureSQL = `
SELECT * FROM orders;
DELETE FROM users;
SELECT name FROM t WHERE email = NULL;
SELECT id FROM big ORDER BY id LIMIT 10 OFFSET 50000;
`

func TestAnalyze_Basic(t *testing.T) {
	e := New()
	res, err := e.Analyze(context.Background(), fixtureSQL)
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Equal(t, 4, res.Summary.TotalStatements)
	require.False(t, res.Incomplete)
	require.True(t, res.HasCritical())

	assert.Len(t, res.FilterByRule("statement.where.missing"), 1)
	assert.Len(t, res.FilterByRule("select.star"), 1)
	assert.Len(t, res.FilterByRule("predicate.null-comparison"), 1)
	assert.Len(t, res.FilterByRule("limit.offset.large"), 1)
}

func TestAnalyze_FindingFields(t *testing.T) {
	e := New()
	res, err := e.Analyze(context.Background(), "DELETE FROM users;")
	require.NoError(t, err)

	found := res.FilterByRule("statement.where.missing")
	require.Len(t, found, 1)
	f := found[0]
	assert.Equal(t, types.SeverityCritical, f.Severity)
	assert.Equal(t, 0, f.StatementIndex)
	assert.Equal(t, 1, f.Line)
	assert.Equal(t, "DELETE FROM users", f.Excerpt)
	assert.NotEmpty(t, f.Title)
	assert.NotEmpty(t, f.Fix)
	assert.NotEmpty(t, f.Impact)
}

func TestAnalyze_Empty(t *testing.T) {
	e := New()
	for _, sql := range []string{"", "   ", "-- comment only\n"} {
		res, err := e.Analyze(context.Background(), sql)
		require.NoError(t, err)
		assert.True(t, res.IsClean())
		assert.Equal(t, 0, res.Summary.TotalStatements)
	}
}

func TestAnalyze_SortedBySeverity(t *testing.T) {
	e := New()
	res, err := e.Analyze(context.Background(), fixtureSQL)
	require.NoError(t, err)
	require.NotEmpty(t, res.Findings)

	for i := 1; i < len(res.Findings); i++ {
		prev, cur := res.Findings[i-1], res.Findings[i]
		require.GreaterOrEqual(t, prev.Severity, cur.Severity)
		if prev.Severity == cur.Severity {
			require.LessOrEqual(t, prev.Line, cur.Line)
		}
	}
}

func TestAnalyze_ParallelMatchesSerial(t *testing.T) {
	e := New()
	ctx := context.Background()

	serial, err := e.Analyze(ctx, fixtureSQL)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		parallel, err := e.Analyze(ctx, fixtureSQL, WithWorkers(4))
		require.NoError(t, err)
		require.Equal(t, serial.Findings, parallel.Findings)
		require.Equal(t, serial.Summary, parallel.Summary)
	}
}

func TestAnalyze_UnknownRuleID(t *testing.T) {
	e := New()
	_, err := e.Analyze(context.Background(), "SELECT 1;", WithRules("no.such.rule"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no.such.rule")
}

func TestAnalyze_RuleSubset(t *testing.T) {
	e := New()
	res, err := e.Analyze(context.Background(), fixtureSQL, WithRules("select.star"))
	require.NoError(t, err)

	require.NotEmpty(t, res.Findings)
	for _, f := range res.Findings {
		require.Equal(t, "select.star", f.RuleID)
	}
}

func TestAnalyze_FastMode(t *testing.T) {
	e := New()
	// limit.no-orderby reports LOW and must be absent in fast mode.
	sql := "SELECT id FROM t WHERE a = 1 LIMIT 10;\nDELETE FROM users;"

	full, err := e.Analyze(context.Background(), sql)
	require.NoError(t, err)
	require.NotEmpty(t, full.FilterByRule("limit.no-orderby"))

	fast, err := e.Analyze(context.Background(), sql, WithFast())
	require.NoError(t, err)
	require.Empty(t, fast.FilterByRule("limit.no-orderby"))
	require.NotEmpty(t, fast.FilterByRule("statement.where.missing"))
	for _, f := range fast.Findings {
		require.GreaterOrEqual(t, f.Severity, types.SeverityHigh)
	}
}

func TestAnalyze_CancelledContext(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Analyze(ctx, fixtureSQL)
	require.NoError(t, err)
	require.True(t, res.Incomplete)
	require.Empty(t, res.Findings)
}

func TestAnalyze_TimeoutKeepsPartialResult(t *testing.T) {
	e := New()
	// Enough statements that the deadline is guaranteed to expire mid-run.
	sql := strings.Repeat("SELECT * FROM t1 JOIN t2 ON t1.id = t2.id WHERE LOWER(t1.name) LIKE '%x%';\n", 5000)
	res, err := e.Analyze(context.Background(), sql, WithTimeout(time.Nanosecond))
	require.NoError(t, err)
	require.True(t, res.Incomplete)
}

func TestAnalyze_ConfigDisablesRule(t *testing.T) {
	cfg := config.Default()
	cfg.Rules = []config.RuleOverride{{ID: "select.star", Disabled: true}}
	e := New().WithConfigObject(cfg)

	res, err := e.Analyze(context.Background(), "SELECT * FROM t WHERE id = 1;")
	require.NoError(t, err)
	require.Empty(t, res.FilterByRule("select.star"))
}

func TestAnalyze_ConfigOverridesSeverity(t *testing.T) {
	cfg := config.Default()
	cfg.Rules = []config.RuleOverride{{ID: "select.star", Severity: "critical"}}
	e := New().WithConfigObject(cfg)

	res, err := e.Analyze(context.Background(), "SELECT * FROM t WHERE id = 1;")
	require.NoError(t, err)
	found := res.FilterByRule("select.star")
	require.Len(t, found, 1)
	require.Equal(t, types.SeverityCritical, found[0].Severity)
}

var registerPanicRule sync.Once

// panicRuleID only applies to statements the fixture rules ignore, so the
// other engine tests stay unaffected.
const panicRuleID = "test.panic"

func setupPanicRule() {
	registerPanicRule.Do(func() {
		rules.Register(&rules.Rule{
			ID:       panicRuleID,
			Severity: types.SeverityLow,
			Title:    "always panics",
			Fix:      "n/a",
			Impact:   "n/a",
			Kinds:    []types.StatementKind{types.KindOther},
			Match: func(_ *rules.Context, _ *tokenizer.Node) []rules.Match {
				panic("boom")
			},
		})
	})
}

func TestAnalyze_PanicIsolation(t *testing.T) {
	setupPanicRule()
	e := New()

	// EXPLAIN classifies as Other, so the panicking rule runs on it.
	sql := "EXPLAIN SELECT 1;\nDELETE FROM users;"
	res, err := e.Analyze(context.Background(), sql)
	require.NoError(t, err)

	// The panic surfaces as a diagnostic, not an error or a crash.
	require.NotEmpty(t, res.Diagnostics)
	var diag *types.Diagnostic
	for i := range res.Diagnostics {
		if res.Diagnostics[i].RuleID == panicRuleID {
			diag = &res.Diagnostics[i]
		}
	}
	require.NotNil(t, diag)
	require.Equal(t, 0, diag.StatementIndex)
	require.Contains(t, diag.Err, "boom")

	// Other rules on other statements are unaffected.
	require.Len(t, res.FilterByRule("statement.where.missing"), 1)
}

func TestSuggestIndexes(t *testing.T) {
	e := New()
	sql := `
SELECT name FROM users WHERE email = 'a@b.c' AND status = 'active';
SELECT id FROM orders WHERE user_id = 7;
SELECT a.x FROM a JOIN b ON a.id = b.id WHERE a.y = 1;
`
	suggestions := e.SuggestIndexes(sql)
	require.Len(t, suggestions, 2)

	require.Equal(t, "orders", suggestions[0].Table)
	require.Equal(t, []string{"user_id"}, suggestions[0].Columns)
	require.Contains(t, suggestions[0].DDL, "CREATE INDEX idx_orders_user_id ON orders (user_id);")

	require.Equal(t, "users", suggestions[1].Table)
	require.Equal(t, []string{"email", "status"}, suggestions[1].Columns)
}

func TestCompare(t *testing.T) {
	e := New()
	ctx := context.Background()

	before := "SELECT * FROM t WHERE id = 1;"
	after := "SELECT id FROM t WHERE id = 1;"

	cmp, err := e.Compare(ctx, before, after)
	require.NoError(t, err)

	require.Empty(t, cmp.Introduced)
	require.True(t, cmp.Improved())

	var resolved []string
	for _, f := range cmp.Resolved {
		resolved = append(resolved, f.RuleID)
	}
	require.Contains(t, resolved, "select.star")
}

func TestCompare_Identical(t *testing.T) {
	e := New()
	sql := "SELECT * FROM t WHERE id = 1;"
	cmp, err := e.Compare(context.Background(), sql, sql)
	require.NoError(t, err)
	require.Empty(t, cmp.Resolved)
	require.Empty(t, cmp.Introduced)
	require.NotEmpty(t, cmp.Persisting)
	require.False(t, cmp.Improved())
}

func TestWithConfig_MissingFile(t *testing.T) {
	e := New()
	require.Error(t, e.WithConfig("/nonexistent/path.yaml"))
}
