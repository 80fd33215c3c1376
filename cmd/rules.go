package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/slowql/slowql/pkg/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the detection rule catalog",
	Long: `List every registered detection rule with its ID, default severity
and a short description. Rule IDs are the values accepted by the
--rules flag and by rule overrides in the configuration file.`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Severity", "Issue"})
	for _, r := range rules.All() {
		t.AppendRow(table.Row{r.ID, r.Severity, r.Title})
	}
	t.Render()
	return nil
}
