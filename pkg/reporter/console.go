// Package reporter renders analysis results for terminals.
package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/slowql/slowql/pkg/engine"
	"github.com/slowql/slowql/pkg/types"
)

// Console writes human-readable reports. It is not safe for concurrent use;
// create one per output stream.
type Console struct {
	out io.Writer
	// compact switches from the table layout to one line per finding,
	// which works better in CI logs.
	compact bool
}

// NewConsole reports to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter reports to the given writer.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Compact switches to one-line-per-finding output and returns the reporter
// for chaining.
func (c *Console) Compact() *Console {
	c.compact = true
	return c
}

func severityColor(sev types.Severity) *color.Color {
	switch sev {
	case types.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case types.SeverityHigh:
		return color.New(color.FgRed)
	case types.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgBlue)
	}
}

// Report renders the analysis result.
func (c *Console) Report(res *types.AnalysisResult) error {
	if res.IsClean() && len(res.Diagnostics) == 0 {
		fmt.Fprintln(c.out, color.GreenString("✔ No issues found in %d statement(s).", res.Summary.TotalStatements))
		return nil
	}

	if c.compact {
		c.reportCompact(res)
	} else {
		c.reportTable(res)
	}

	c.reportDiagnostics(res)
	c.reportSummary(res)
	return nil
}

func (c *Console) reportCompact(res *types.AnalysisResult) {
	for _, f := range res.Findings {
		sev := severityColor(f.Severity).Sprint(f.Severity)
		fmt.Fprintf(c.out, "line %d: [%s] %s (%s)\n", f.Line, sev, f.Title, f.RuleID)
		fmt.Fprintf(c.out, "\tCode: %s\n", color.CyanString(f.Excerpt))
		fmt.Fprintf(c.out, "\tFix: %s\n", f.Fix)
	}
}

func (c *Console) reportTable(res *types.AnalysisResult) {
	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Severity", "Line", "Rule", "Issue", "Code"})
	for _, f := range res.Findings {
		t.AppendRow(table.Row{
			severityColor(f.Severity).Sprint(f.Severity),
			f.Line,
			f.RuleID,
			f.Title,
			truncate(f.Excerpt, 60),
		})
	}
	t.Render()
}

func (c *Console) reportDiagnostics(res *types.AnalysisResult) {
	for _, d := range res.Diagnostics {
		fmt.Fprintf(c.out, "%s rule %s failed on statement %d: %s\n",
			color.YellowString("⚠"), d.RuleID, d.StatementIndex, d.Err)
	}
}

func (c *Console) reportSummary(res *types.AnalysisResult) {
	parts := make([]string, 0, 4)
	for _, sev := range types.Severities() {
		if n := res.Summary.BySeverity[sev]; n > 0 {
			parts = append(parts, severityColor(sev).Sprintf("%d %s", n, sev))
		}
	}
	fmt.Fprintf(c.out, "\n%s %d finding(s) in %d statement(s)",
		color.RedString("✘"), res.Summary.TotalFindings, res.Summary.TotalStatements)
	if len(parts) > 0 {
		fmt.Fprintf(c.out, ": %s", strings.Join(parts, ", "))
	}
	fmt.Fprintln(c.out)
	if res.Incomplete {
		fmt.Fprintln(c.out, color.YellowString("⚠ Analysis was interrupted; results are partial."))
	}
}

// ReportSuggestions renders index suggestions as a table.
func (c *Console) ReportSuggestions(suggestions []engine.IndexSuggestion) error {
	if len(suggestions) == 0 {
		fmt.Fprintln(c.out, "No index suggestions.")
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Columns", "Suggested DDL"})
	for _, s := range suggestions {
		t.AppendRow(table.Row{s.Table, strings.Join(s.Columns, ", "), s.DDL})
	}
	t.Render()
	return nil
}

// ReportComparison renders a before/after diff.
func (c *Console) ReportComparison(cmp *engine.Comparison) error {
	section := func(label string, col func(format string, a ...interface{}) string, findings []types.Finding) {
		if len(findings) == 0 {
			return
		}
		fmt.Fprintln(c.out, col("%s (%d):", label, len(findings)))
		for _, f := range findings {
			fmt.Fprintf(c.out, "  [%s] %s: %s\n", f.Severity, f.RuleID, f.Excerpt)
		}
	}
	section("Resolved", color.GreenString, cmp.Resolved)
	section("Introduced", color.RedString, cmp.Introduced)
	section("Persisting", color.YellowString, cmp.Persisting)
	if cmp.Improved() {
		fmt.Fprintln(c.out, color.GreenString("✔ The rewrite is an improvement."))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
