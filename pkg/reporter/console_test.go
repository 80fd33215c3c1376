package reporter

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/slowql/slowql/pkg/engine"
	"github.com/slowql/slowql/pkg/types"
)

func init() {
	// Deterministic output regardless of the test terminal.
	color.NoColor = true
}

func analyze(t *testing.T, sql string) *types.AnalysisResult {
	t.Helper()
	res, err := engine.New().Analyze(context.Background(), sql)
	require.NoError(t, err)
	return res
}

func TestReport_Clean(t *testing.T) {
	var buf bytes.Buffer
	res := analyze(t, "SELECT id FROM t WHERE id = 1;")
	require.NoError(t, NewConsoleWriter(&buf).Report(res))
	require.Contains(t, buf.String(), "No issues found")
}

func TestReport_Table(t *testing.T) {
	var buf bytes.Buffer
	res := analyze(t, "DELETE FROM users;")
	require.NoError(t, NewConsoleWriter(&buf).Report(res))

	out := buf.String()
	require.Contains(t, out, "statement.where.missing")
	require.Contains(t, out, "CRITICAL")
	require.Contains(t, out, "1 finding(s) in 1 statement(s)")
}

func TestReport_Compact(t *testing.T) {
	var buf bytes.Buffer
	res := analyze(t, "DELETE FROM users;")
	require.NoError(t, NewConsoleWriter(&buf).Compact().Report(res))

	out := buf.String()
	require.Contains(t, out, "line 1: [CRITICAL]")
	require.Contains(t, out, "Code: DELETE FROM users")
	require.Contains(t, out, "Fix:")
}

func TestReport_Incomplete(t *testing.T) {
	var buf bytes.Buffer
	res := analyze(t, "DELETE FROM users;")
	res.Incomplete = true
	require.NoError(t, NewConsoleWriter(&buf).Report(res))
	require.Contains(t, buf.String(), "results are partial")
}

func TestReportSuggestions(t *testing.T) {
	var buf bytes.Buffer
	sugg := engine.New().SuggestIndexes("SELECT a FROM users WHERE email = 'x';")
	require.NoError(t, NewConsoleWriter(&buf).ReportSuggestions(sugg))
	require.Contains(t, buf.String(), "idx_users_email")
}

func TestReportSuggestions_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleWriter(&buf).ReportSuggestions(nil))
	require.Contains(t, buf.String(), "No index suggestions")
}

func TestReportComparison(t *testing.T) {
	var buf bytes.Buffer
	cmp, err := engine.New().Compare(context.Background(),
		"SELECT * FROM t WHERE id = 1;",
		"SELECT id FROM t WHERE id = 1;")
	require.NoError(t, err)
	require.NoError(t, NewConsoleWriter(&buf).ReportComparison(cmp))

	out := buf.String()
	require.Contains(t, out, "Resolved (1):")
	require.Contains(t, out, "select.star")
	require.Contains(t, out, "is an improvement")
}
