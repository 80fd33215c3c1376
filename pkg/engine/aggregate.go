package engine

import (
	"fmt"
	"sort"

	"github.com/slowql/slowql/pkg/types"
)

// aggregate merges per-statement outcomes into the final result: duplicates
// collapsed, findings in deterministic order, summary counters filled in.
func aggregate(statements []types.Statement, slots []stmtOutcome, incomplete bool) *types.AnalysisResult {
	res := &types.AnalysisResult{
		Incomplete: incomplete,
		Summary: types.Summary{
			TotalStatements: len(statements),
			BySeverity:      make(map[types.Severity]int),
			ByRule:          make(map[string]int),
		},
	}

	seen := make(map[string]bool)
	for _, slot := range slots {
		if !slot.done {
			res.Incomplete = true
			continue
		}
		for _, f := range slot.findings {
			key := fmt.Sprintf("%s\x00%d\x00%s", f.RuleID, f.StatementIndex, f.Excerpt)
			if seen[key] {
				continue
			}
			seen[key] = true
			res.Findings = append(res.Findings, f)
		}
		res.Diagnostics = append(res.Diagnostics, slot.diagnostics...)
	}

	// Highest severity first; within a severity, source order, then rule ID
	// so equal positions still compare stably.
	sort.SliceStable(res.Findings, func(i, j int) bool {
		a, b := res.Findings[i], res.Findings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.StatementIndex != b.StatementIndex {
			return a.StatementIndex < b.StatementIndex
		}
		return a.RuleID < b.RuleID
	})

	sort.SliceStable(res.Diagnostics, func(i, j int) bool {
		a, b := res.Diagnostics[i], res.Diagnostics[j]
		if a.StatementIndex != b.StatementIndex {
			return a.StatementIndex < b.StatementIndex
		}
		return a.RuleID < b.RuleID
	})

	res.Summary.TotalFindings = len(res.Findings)
	for _, f := range res.Findings {
		res.Summary.BySeverity[f.Severity]++
		res.Summary.ByRule[f.RuleID]++
	}
	return res
}
