package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/slowql/slowql/pkg/engine"
	"github.com/slowql/slowql/pkg/reporter"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [flags] <sql-file>",
	Short: "Suggest indexes for the filtered columns in the given SQL",
	Long: `Suggest candidate indexes based on the columns the statements filter
on. Suggestions are heuristic and should be validated against the real
schema and workload before applying.`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
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

	return reporter.NewConsole().ReportSuggestions(eng.SuggestIndexes(sql))
}
