package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Run one search and print the matching workers",
	Long:  "Run one search and print the matching workers. Without a query every worker is shown.",
	Run: func(cmd *cobra.Command, args []string) {
		runSearch(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("output", "o", outputTable, "output format: table or json")
	searchCmd.Flags().Duration("timeout", 30*time.Second, "how long to wait for the classifier")
}

func runSearch(cmd *cobra.Command, query string) {
	ctx := context.Background()

	d := bootstrap(ctx, "stderr")
	defer d.Close()

	format, _ := cmd.Flags().GetString("output")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	d.orchestrator.Search(query)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := d.orchestrator.Wait(waitCtx); err != nil {
		d.logger.Fatal("waiting for the search result", zap.Error(err))
	}

	if err := printState(cmd.OutOrStdout(), d.orchestrator.State(), format); err != nil {
		d.logger.Fatal("printing results", zap.Error(err))
	}
}
