package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/hire-labor/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Print the skill categories and their keywords",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), taxonomy.Describe())
	},
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)
}
