package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/slowql/slowql/pkg/engine"
	"github.com/slowql/slowql/pkg/types"
)

func fixtureResult(t *testing.T) *types.AnalysisResult {
	t.Helper()
	res, err := engine.New().Analyze(context.Background(), "DELETE FROM users;\nSELECT * FROM t WHERE id = 1;")
	require.NoError(t, err)
	require.NotEmpty(t, res.Findings)
	return res
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"json", "yaml", "yml", "csv", "html"} {
		_, err := ParseFormat(name)
		require.NoError(t, err, name)
	}
	_, err := ParseFormat("pdf")
	require.Error(t, err)
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	res := fixtureResult(t)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))

	var decoded types.AnalysisResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, res.Summary.TotalFindings, decoded.Summary.TotalFindings)
	require.Equal(t, res.Findings[0].RuleID, decoded.Findings[0].RuleID)
	require.Equal(t, res.Findings[0].Severity, decoded.Findings[0].Severity)

	// Severities render as names, not numbers.
	require.Contains(t, buf.String(), `"CRITICAL"`)
}

func TestWriteYAML(t *testing.T) {
	res := fixtureResult(t)
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, res))

	var decoded types.AnalysisResult
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, len(res.Findings), len(decoded.Findings))
}

func TestWriteCSV(t *testing.T) {
	res := fixtureResult(t)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(res.Findings)+1)
	require.Equal(t, "severity", rows[0][0])
	require.Equal(t, res.Findings[0].Severity.String(), rows[1][0])
	require.Equal(t, res.Findings[0].RuleID, rows[1][3])
}

func TestWriteHTML(t *testing.T) {
	res := fixtureResult(t)
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, res))

	out := buf.String()
	require.Contains(t, out, "<!DOCTYPE html>")
	require.Contains(t, out, res.Findings[0].RuleID)
	require.Contains(t, out, "CRITICAL")
}

func TestWriteHTML_EscapesContent(t *testing.T) {
	res := &types.AnalysisResult{
		Findings: []types.Finding{{
			RuleID:   "select.star",
			Severity: types.SeverityMedium,
			Excerpt:  `SELECT * FROM t WHERE a = '<script>alert(1)</script>'`,
			Title:    "SELECT * usage",
		}},
		Summary: types.Summary{TotalStatements: 1, TotalFindings: 1},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, res))
	require.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

func TestExport_CreatesTimestampedFile(t *testing.T) {
	res := fixtureResult(t)
	dir := t.TempDir()

	path, err := Export(dir, res, FormatJSON)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(path, dir))
	require.True(t, strings.HasSuffix(path, ".json"))
	require.Contains(t, path, "slowql-report-")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &types.AnalysisResult{}))
}

func TestExport_CreatesDirectory(t *testing.T) {
	res := fixtureResult(t)
	dir := t.TempDir() + "/nested/reports"
	_, err := Export(dir, res, FormatCSV)
	require.NoError(t, err)
}
