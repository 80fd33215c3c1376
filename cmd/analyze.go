package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/slowql/slowql/pkg/engine"
	"github.com/slowql/slowql/pkg/export"
	"github.com/slowql/slowql/pkg/logger"
	"github.com/slowql/slowql/pkg/reporter"
	"github.com/slowql/slowql/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <sql-file>",
	Short: "Analyze SQL statements for performance and safety issues",
	Long: `Analyze the SQL statements in a file and report detected issues.

Pass "-" as the file to read SQL from standard input. The exit code is
non-zero when findings at or above the --fail-on severity exist, so the
command slots directly into CI pipelines.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("rules-config", "r", "", "path to rules configuration file")
	analyzeCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	analyzeCmd.Flags().Bool("fast", false, "run only high and critical severity rules")
	analyzeCmd.Flags().Bool("parallel", false, "analyze statements concurrently")
	analyzeCmd.Flags().Int("workers", 0, "worker count for --parallel (default: number of CPUs)")
	analyzeCmd.Flags().StringSlice("rules", nil, "restrict the run to the given rule IDs")
	analyzeCmd.Flags().Duration("timeout", 0, "abort the analysis after this duration, keeping partial results")
	analyzeCmd.Flags().String("min-severity", "low", "hide findings below this severity (low, medium, high, critical)")
	analyzeCmd.Flags().String("fail-on", "critical", "exit non-zero when findings at or above this severity exist (use 'never' to disable)")
	analyzeCmd.Flags().String("export", "", "also export the report in this format (json, yaml, csv, html)")
	analyzeCmd.Flags().String("out", "reports", "directory for exported reports")
	analyzeCmd.Flags().Bool("non-interactive", false, "plain output without colors or tables")

	_ = viper.BindPFlag("rules-config", analyzeCmd.Flags().Lookup("rules-config"))
	_ = viper.BindPFlag("min-severity", analyzeCmd.Flags().Lookup("min-severity"))
	_ = viper.BindPFlag("fail-on", analyzeCmd.Flags().Lookup("fail-on"))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	setupLogging()

	sql, err := readInput(args[0])
	if err != nil {
		return err
	}

	eng := engine.New()
	if path := viper.GetString("rules-config"); path != "" {
		if err := eng.WithConfig(path); err != nil {
			return err
		}
	}

	opts, err := analysisOptions(cmd)
	if err != nil {
		return err
	}

	res, err := eng.Analyze(context.Background(), sql, opts...)
	if err != nil {
		return err
	}

	minSev, err := types.ParseSeverity(viper.GetString("min-severity"))
	if err != nil {
		return err
	}
	filterResult(res, minSev)

	format, _ := cmd.Flags().GetString("output")
	nonInteractive, _ := cmd.Flags().GetBool("non-interactive")
	if err := outputResult(res, format, nonInteractive); err != nil {
		return err
	}

	if exportFormat, _ := cmd.Flags().GetString("export"); exportFormat != "" {
		f, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("out")
		path, err := export.Export(outDir, res, f)
		if err != nil {
			return err
		}
		slog.Info("report exported", "path", path)
	}

	return checkFailOn(res)
}

func setupLogging() {
	level := slog.LevelWarn
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	} else if viper.GetBool("verbose") {
		level = slog.LevelInfo
	}
	slog.SetDefault(logger.NewWithLevel(level).GetSlogLogger())
}

// readInput reads the SQL source: a file path, or stdin when path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "read SQL from stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read SQL file %s", path)
	}
	return string(data), nil
}

func analysisOptions(cmd *cobra.Command) ([]engine.Option, error) {
	var opts []engine.Option
	if fast, _ := cmd.Flags().GetBool("fast"); fast {
		opts = append(opts, engine.WithFast())
	}
	if parallel, _ := cmd.Flags().GetBool("parallel"); parallel {
		if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
			opts = append(opts, engine.WithWorkers(workers))
		} else {
			opts = append(opts, engine.WithParallel())
		}
	}
	if ids, _ := cmd.Flags().GetStringSlice("rules"); len(ids) > 0 {
		opts = append(opts, engine.WithRules(ids...))
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		opts = append(opts, engine.WithTimeout(timeout))
	}
	return opts, nil
}

// filterResult drops findings below the minimum severity, keeping the
// summary consistent with what is shown.
func filterResult(res *types.AnalysisResult, minSev types.Severity) {
	if minSev == types.SeverityLow {
		return
	}
	kept := res.Findings[:0]
	for _, f := range res.Findings {
		if f.Severity >= minSev {
			kept = append(kept, f)
		}
	}
	res.Findings = kept
	res.Summary.TotalFindings = len(kept)
	res.Summary.BySeverity = make(map[types.Severity]int)
	res.Summary.ByRule = make(map[string]int)
	for _, f := range kept {
		res.Summary.BySeverity[f.Severity]++
		res.Summary.ByRule[f.RuleID]++
	}
}

func outputResult(res *types.AnalysisResult, format string, nonInteractive bool) error {
	switch format {
	case "json":
		return export.WriteJSON(os.Stdout, res)
	case "yaml":
		return export.WriteYAML(os.Stdout, res)
	case "text":
		con := reporter.NewConsole()
		if nonInteractive {
			color.NoColor = true
			con.Compact()
		}
		return con.Report(res)
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

func checkFailOn(res *types.AnalysisResult) error {
	failOn := viper.GetString("fail-on")
	if failOn == "" || failOn == "never" {
		return nil
	}
	sev, err := types.ParseSeverity(failOn)
	if err != nil {
		return errors.Wrap(err, "--fail-on")
	}
	if n := res.AtOrAbove(sev); n > 0 {
		return fmt.Errorf("%d finding(s) at or above %s severity", n, sev)
	}
	return nil
}
