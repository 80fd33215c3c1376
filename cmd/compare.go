package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/slowql/slowql/pkg/engine"
	"github.com/slowql/slowql/pkg/reporter"
)

var compareCmd = &cobra.Command{
	Use:   "compare [flags] <before-file> <after-file>",
	Short: "Compare the findings of two versions of the same SQL",
	Long: `Analyze two versions of the same SQL and show which findings the
rewrite resolved, introduced or left in place. Useful for verifying that
a query optimization actually removed the problems it set out to fix.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	setupLogging()

	before, err := readInput(args[0])
	if err != nil {
		return err
	}
	after, err := readInput(args[1])
	if err != nil {
		return err
	}

	cmp, err := engine.New().Compare(context.Background(), before, after)
	if err != nil {
		return err
	}
	return reporter.NewConsole().ReportComparison(cmp)
}
