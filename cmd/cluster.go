package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	clusterNetworkMethod int64
	clusterDescription   string
	clusterStepSize      int
	clusterHRRCutoff     int
	clusterMinSize       int
	clusterMaxSize       int
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster a coexpression network with HCCA",
	Long: `Cut the rank based coexpression network of a network method into clusters with
the Highly Connected Clustering Algorithm and store them as a new clustering method.

Example:
  conekt-build cluster --network-method 1 --description "HCCA clusters"`,
	RunE: runCluster,
}

func init() {
	flags := clusterCmd.Flags()
	flags.Int64Var(&clusterNetworkMethod, "network-method", 0, "expression network method id")
	flags.StringVar(&clusterDescription, "description", "", "description of the clustering method")
	flags.IntVar(&clusterStepSize, "step-size", 3, "neighbourhood expansion steps")
	flags.IntVar(&clusterHRRCutoff, "hrr-cutoff", 30, "edges with an HRR at or above this value are ignored")
	flags.IntVar(&clusterMinSize, "min-size", 40, "clusters must be larger than this")
	flags.IntVar(&clusterMaxSize, "max-size", 200, "clusters must be smaller than this")
	clusterCmd.MarkFlagRequired("network-method")
	clusterCmd.MarkFlagRequired("description")
	rootCmd.AddCommand(clusterCmd)
}

func runCluster(cmd *cobra.Command, _ []string) error {
	// flags win over the settings file
	params := env.cfg.HCCA
	flags := cmd.Flags()
	if flags.Changed("step-size") {
		params.StepSize = clusterStepSize
	}
	if flags.Changed("hrr-cutoff") {
		params.HRRCutoff = clusterHRRCutoff
	}
	if flags.Changed("min-size") {
		params.MinClusterSize = clusterMinSize
	}
	if flags.Changed("max-size") {
		params.MaxClusterSize = clusterMaxSize
	}

	report, err := env.builder.Clusters(cmd.Context(), clusterNetworkMethod, clusterDescription, params)
	if err != nil {
		return fmt.Errorf("clustering network method %d: %w", clusterNetworkMethod, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s nodes: %s clusters, %s clustets, %s members, %s loners, %s unassigned\n",
		humanize.Comma(int64(report.Nodes)),
		humanize.Comma(int64(report.Clusters)),
		humanize.Comma(int64(report.Clustets)),
		humanize.Comma(int64(report.Members)),
		humanize.Comma(int64(report.Loners)),
		humanize.Comma(int64(report.Unassigned)))
	return nil
}
