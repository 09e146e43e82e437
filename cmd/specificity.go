package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var specificitySpecies string

var specificityCmd = &cobra.Command{
	Use:   "specificity",
	Short: "Calculate expression specificities for a species",
	Long: `Calculate Tau, SPM and entropy for every expression profile of a species.
One specificity method is added per literature source and sample category with at
least two conditions, holding the most specific condition of each profile.

Example:
  conekt-build specificity --species ath`,
	RunE: runSpecificity,
}

func init() {
	specificityCmd.Flags().StringVar(&specificitySpecies, "species", "", "species code")
	specificityCmd.MarkFlagRequired("species")
	rootCmd.AddCommand(specificityCmd)
}

func runSpecificity(cmd *cobra.Command, _ []string) error {
	report, err := env.builder.Specificity(cmd.Context(), specificitySpecies)
	if err != nil {
		return fmt.Errorf("specificity for %s: %w", specificitySpecies, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s profiles, %s methods, %s specificities added (%s profiles skipped)\n",
		humanize.Comma(int64(report.Profiles)),
		humanize.Comma(int64(report.Methods)),
		humanize.Comma(int64(report.Specificities)),
		humanize.Comma(int64(report.SkippedProfiles)))
	return nil
}
