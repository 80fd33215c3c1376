// Package types defines the data model shared by the slowql analysis
// pipeline: statements, findings, severities and the final analysis result.
package types

import (
	"fmt"
	"strings"
)

// Severity classifies the impact of a finding. The order is total:
// CRITICAL > HIGH > MEDIUM > LOW.
type Severity int32

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler so severities render as
// their names in JSON, YAML and CSV exports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a severity name to its Severity value.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "CRITICAL":
		return SeverityCritical, nil
	case "HIGH":
		return SeverityHigh, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "LOW":
		return SeverityLow, nil
	default:
		return SeverityLow, fmt.Errorf("unknown severity: %q", name)
	}
}

// Severities lists all severities from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// StatementKind is the top-level kind of a SQL statement, determined from
// its leading keyword.
type StatementKind int32

const (
	KindOther StatementKind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindDDL
)

func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindDDL:
		return "DDL"
	default:
		return "OTHER"
	}
}

// Classify determines the statement kind from the leading keyword,
// case-insensitive. A WITH prefix is treated as a SELECT since CTEs
// introduce query statements.
func Classify(text string) StatementKind {
	word := leadingWord(text)
	switch strings.ToUpper(word) {
	case "SELECT", "WITH":
		return KindSelect
	case "INSERT", "REPLACE":
		return KindInsert
	case "UPDATE":
		return KindUpdate
	case "DELETE":
		return KindDelete
	case "CREATE", "ALTER", "DROP", "TRUNCATE", "RENAME":
		return KindDDL
	default:
		return KindOther
	}
}

func leadingWord(text string) string {
	i := 0
	for i < len(text) {
		c := text[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}
		// Skip leading comments so "-- note\nSELECT" classifies as SELECT.
		if c == '-' && i+1 < len(text) && text[i+1] == '-' {
			for i < len(text) && text[i] != '\n' {
				i++
			}
			continue
		}
		if c == '/' && i+1 < len(text) && text[i+1] == '*' {
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return ""
			}
			i += end + 4
			continue
		}
		break
	}
	start := i
	for i < len(text) && (isWordByte(text[i])) {
		i++
	}
	return text[start:i]
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Statement is one SQL statement extracted from the input text.
// It is immutable once created by the segmenter.
type Statement struct {
	// Text is the statement text without the trailing semicolon.
	Text string `json:"text" yaml:"text"`

	// Line is the 1-based line number of the statement's first
	// significant character, counted from the start of the whole input.
	Line int `json:"line" yaml:"line"`

	// Kind is the statement kind derived from the leading keyword.
	Kind StatementKind `json:"kind" yaml:"kind"`

	// Index is the ordinal position of the statement within the input.
	Index int `json:"index" yaml:"index"`
}

// Finding is one detected issue tied to a rule, a statement and an excerpt.
type Finding struct {
	RuleID   string   `json:"rule" yaml:"rule"`
	Severity Severity `json:"severity" yaml:"severity"`
	// StatementIndex is the ordinal of the offending statement.
	StatementIndex int `json:"statement" yaml:"statement"`
	// Line is the 1-based source line of the offending statement.
	Line    int    `json:"line" yaml:"line"`
	Excerpt string `json:"excerpt" yaml:"excerpt"`
	Title   string `json:"title" yaml:"title"`
	Fix     string `json:"fix" yaml:"fix"`
	Impact  string `json:"impact" yaml:"impact"`
}

// Diagnostic records a rule evaluation failure. It is not a finding: a
// failing rule must not abort the analysis, so the failure is surfaced
// alongside the result instead.
type Diagnostic struct {
	RuleID         string `json:"rule" yaml:"rule"`
	StatementIndex int    `json:"statement" yaml:"statement"`
	Err            string `json:"error" yaml:"error"`
}

// Summary holds aggregate counts for one analysis run.
type Summary struct {
	TotalStatements int              `json:"totalStatements" yaml:"totalStatements"`
	TotalFindings   int              `json:"totalFindings" yaml:"totalFindings"`
	BySeverity      map[Severity]int `json:"bySeverity" yaml:"bySeverity"`
	ByRule          map[string]int   `json:"byRule" yaml:"byRule"`
}

// AnalysisResult is the sole return value of the engine: the ordered
// findings plus summary counts and any rule evaluation diagnostics.
type AnalysisResult struct {
	Findings    []Finding    `json:"findings" yaml:"findings"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Summary     Summary      `json:"summary" yaml:"summary"`

	// Incomplete is set when the run was cancelled or timed out and the
	// findings cover only the statements analyzed before cancellation.
	Incomplete bool `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
}

// HasCritical returns true if any CRITICAL finding was reported.
func (r *AnalysisResult) HasCritical() bool {
	return r.Summary.BySeverity[SeverityCritical] > 0
}

// IsClean returns true if the analysis produced no findings at all.
func (r *AnalysisResult) IsClean() bool {
	return r.Summary.TotalFindings == 0
}

// AtOrAbove returns the number of findings at or above the given severity.
func (r *AnalysisResult) AtOrAbove(sev Severity) int {
	n := 0
	for _, s := range Severities() {
		if s >= sev {
			n += r.Summary.BySeverity[s]
		}
	}
	return n
}

// FilterBySeverity returns the findings with exactly the given severity.
func (r *AnalysisResult) FilterBySeverity(sev Severity) []Finding {
	filtered := make([]Finding, 0)
	for _, f := range r.Findings {
		if f.Severity == sev {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// FilterByRule returns the findings reported by the given rule.
func (r *AnalysisResult) FilterByRule(ruleID string) []Finding {
	filtered := make([]Finding, 0)
	for _, f := range r.Findings {
		if f.RuleID == ruleID {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// String returns a human-readable one-line summary.
func (r *AnalysisResult) String() string {
	return fmt.Sprintf(
		"Analysis: %d finding(s) across %d statement(s) (%d critical, %d high, %d medium, %d low)",
		r.Summary.TotalFindings,
		r.Summary.TotalStatements,
		r.Summary.BySeverity[SeverityCritical],
		r.Summary.BySeverity[SeverityHigh],
		r.Summary.BySeverity[SeverityMedium],
		r.Summary.BySeverity[SeverityLow],
	)
}
