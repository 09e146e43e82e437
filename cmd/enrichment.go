package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var enrichKeepExisting bool

var enrichCmd = &cobra.Command{
	Use:   "enrich-clusters",
	Short: "Calculate GO enrichment for all coexpression clusters",
	Long: `Run a hypergeometric test for every GO term found in each coexpression cluster
and correct the p-values per cluster (Benjamini-Hochberg). Existing results are
removed first unless --keep-existing is given.`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().BoolVar(&enrichKeepExisting, "keep-existing", false, "do not empty cluster_go_enrichment first")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	report, err := env.builder.ClusterGOEnrichment(cmd.Context(), !enrichKeepExisting)
	if err != nil {
		return fmt.Errorf("cluster enrichment: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s clusters tested (%s skipped), %s enrichment rows added, %s removed\n",
		humanize.Comma(int64(report.Clusters)),
		humanize.Comma(int64(report.SkippedClusters)),
		humanize.Comma(int64(report.Rows)),
		humanize.Comma(report.Deleted))
	return nil
}
