// Package export serializes analysis results to files for dashboards and
// CI artifacts.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/slowql/slowql/pkg/types"
)

// Format is a supported export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatCSV, FormatHTML}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatYAML, FormatCSV, FormatHTML:
		return Format(name), nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errors.Errorf("unsupported export format %q (supported: json, yaml, csv, html)", name)
	}
}

// Write serializes the result to w in the given format.
func Write(w io.Writer, res *types.AnalysisResult, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatYAML:
		return WriteYAML(w, res)
	case FormatCSV:
		return WriteCSV(w, res)
	case FormatHTML:
		return WriteHTML(w, res)
	default:
		return errors.Errorf("unsupported export format %q", format)
	}
}

// Export writes the result into dir using a timestamped filename and
// returns the path. The directory is created when missing.
func Export(dir string, res *types.AnalysisResult, format Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create export dir %s", dir)
	}
	name := fmt.Sprintf("slowql-report-%s.%s", time.Now().Format("20060102-150405"), format)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create export file %s", path)
	}
	defer f.Close()

	if err := Write(f, res, format); err != nil {
		return "", errors.Wrapf(err, "write %s export", format)
	}
	return path, nil
}

// WriteJSON writes an indented JSON document.
func WriteJSON(w io.Writer, res *types.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteYAML writes a YAML document.
func WriteYAML(w io.Writer, res *types.AnalysisResult) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(res)
}

// WriteCSV writes one row per finding.
func WriteCSV(w io.Writer, res *types.AnalysisResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"severity", "line", "statement", "rule", "title", "excerpt", "fix", "impact"}); err != nil {
		return err
	}
	for _, f := range res.Findings {
		row := []string{
			f.Severity.String(),
			strconv.Itoa(f.Line),
			strconv.Itoa(f.StatementIndex),
			f.RuleID,
			f.Title,
			f.Excerpt,
			f.Fix,
			f.Impact,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>slowql report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
th { background: #f0f0f0; }
.sev-CRITICAL { color: #fff; background: #c0392b; }
.sev-HIGH { color: #c0392b; }
.sev-MEDIUM { color: #b7950b; }
.sev-LOW { color: #2471a3; }
.incomplete { color: #b7950b; font-weight: bold; }
code { background: #f7f7f7; padding: 1px 4px; }
</style>
</head>
<body>
<h1>slowql report</h1>
<p>{{ .Summary.TotalFindings }} finding(s) across {{ .Summary.TotalStatements }} statement(s).</p>
{{ if .Incomplete }}<p class="incomplete">Analysis was interrupted; results are partial.</p>{{ end }}
{{ if .Findings }}
<table>
<tr><th>Severity</th><th>Line</th><th>Rule</th><th>Issue</th><th>Code</th><th>Fix</th></tr>
{{ range .Findings }}
<tr>
<td class="sev-{{ .Severity }}">{{ .Severity }}</td>
<td>{{ .Line }}</td>
<td>{{ .RuleID }}</td>
<td>{{ .Title }}</td>
<td><code>{{ .Excerpt }}</code></td>
<td>{{ .Fix }}</td>
</tr>
{{ end }}
</table>
{{ else }}
<p>No issues found.</p>
{{ end }}
{{ if .Diagnostics }}
<h2>Diagnostics</h2>
<ul>
{{ range .Diagnostics }}<li>rule {{ .RuleID }} failed on statement {{ .StatementIndex }}: {{ .Err }}</li>{{ end }}
</ul>
{{ end }}
</body>
</html>
`))

// WriteHTML writes a self-contained HTML report.
func WriteHTML(w io.Writer, res *types.AnalysisResult) error {
	return htmlTmpl.Execute(w, res)
}
