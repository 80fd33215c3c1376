package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slowql/slowql/pkg/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, 50, cfg.Thresholds.InListMaxLiterals)
	require.Equal(t, 1000, cfg.Thresholds.OffsetMaxRows)
	require.Empty(t, cfg.Rules)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
thresholds:
  inListMaxLiterals: 10
rules:
  - id: select.star
    disabled: true
  - id: limit.no-orderby
    severity: high
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	require.Equal(t, 10, cfg.Thresholds.InListMaxLiterals)
	// Unset thresholds keep their defaults.
	require.Equal(t, 1000, cfg.Thresholds.OffsetMaxRows)

	require.True(t, cfg.Disabled("select.star"))
	require.False(t, cfg.Disabled("limit.no-orderby"))
	require.Equal(t, types.SeverityHigh, cfg.SeverityFor("limit.no-orderby", types.SeverityLow))
	require.Equal(t, types.SeverityLow, cfg.SeverityFor("unlisted.rule", types.SeverityLow))
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := writeFile(t, "cfg.json", `{"thresholds": {"maxJoinTables": 3}}`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Thresholds.MaxJoinTables)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/cfg.yaml")
	require.Error(t, err)
}

func TestLoadFromFile_BadSeverity(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
rules:
  - id: select.star
    severity: catastrophic
`)
	_, err := LoadFromFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "severity")
}

func TestValidate_DuplicateOverride(t *testing.T) {
	cfg := Default()
	cfg.Rules = []RuleOverride{{ID: "a.b"}, {ID: "a.b"}}
	require.Error(t, cfg.Validate())
}

func TestValidate_EmptyID(t *testing.T) {
	cfg := Default()
	cfg.Rules = []RuleOverride{{ID: ""}}
	require.Error(t, cfg.Validate())
}
