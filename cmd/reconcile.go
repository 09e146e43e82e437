package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var reconcileTreeMethod int64

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile the gene trees of a tree method",
	Long: `Label every binary node of the trees of a tree method as duplication or
speciation, assign the smallest clade holding its species and store the clade
associations between the sequences it joins.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().Int64Var(&reconcileTreeMethod, "tree-method", 0, "tree method id")
	reconcileCmd.MarkFlagRequired("tree-method")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	report, err := env.builder.ReconcileTrees(cmd.Context(), reconcileTreeMethod)
	if err != nil {
		return fmt.Errorf("reconciling tree method %d: %w", reconcileTreeMethod, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s trees (%s skipped), %s nodes labelled, %s associations added\n",
		humanize.Comma(int64(report.Trees)),
		humanize.Comma(int64(report.SkippedTrees)),
		humanize.Comma(int64(report.LabelledNodes)),
		humanize.Comma(int64(report.Associations)))
	return nil
}
