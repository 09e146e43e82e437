package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var countsCmd = &cobra.Command{
	Use:   "update-counts",
	Short: "Refresh sequence, GO, probe and cluster counts",
	RunE:  runCounts,
}

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the tables used by conekt-build if they are missing",
	RunE:  runInitDB,
}

func init() {
	rootCmd.AddCommand(countsCmd)
	rootCmd.AddCommand(initDBCmd)
}

func runCounts(cmd *cobra.Command, _ []string) error {
	report, err := env.builder.UpdateCounts(cmd.Context())
	if err != nil {
		return fmt.Errorf("updating counts: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s species, %s network methods, %s clustering methods, %s GO terms updated\n",
		humanize.Comma(report.Species),
		humanize.Comma(report.NetworkMethods),
		humanize.Comma(report.ClusteringMethods),
		humanize.Comma(int64(report.GOTerms)))
	return nil
}

func runInitDB(cmd *cobra.Command, _ []string) error {
	if err := env.db.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "schema ready in %s\n", env.db.Path)
	return nil
}
