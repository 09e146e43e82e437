package build

import (
	"context"
	"fmt"
	"sort"

	"github.com/yumyai/conektbuild/logger"
	"github.com/yumyai/conektbuild/pkg/model"
	"github.com/yumyai/conektbuild/pkg/stats"
	"go.uber.org/zap"
)

type EnrichmentReport struct {
	Clusters        int
	SkippedClusters int
	Deleted         int64
	Rows            int
}

// ClusterGOEnrichment tests every coexpression cluster for overrepresented GO terms.
// With empty set, previous results are removed first.
func (b *Builder) ClusterGOEnrichment(ctx context.Context, empty bool) (*EnrichmentReport, error) {
	report := &EnrichmentReport{}

	if empty {
		deleted, err := model.DeleteClusterGOEnrichment(ctx, b.DB.SQL)
		if err != nil {
			return nil, fmt.Errorf("failed to empty cluster_go_enrichment: %w", err)
		}
		report.Deleted = deleted
		logger.Info("Removed previous enrichment results", zap.Int64("rows", deleted))
	}

	clusters, err := model.GetClusters(ctx, b.DB.SQL)
	if err != nil {
		return nil, fmt.Errorf("failed to load clusters: %w", err)
	}
	members, err := model.GetClusterSequences(ctx, b.DB.SQL)
	if err != nil {
		return nil, fmt.Errorf("failed to load cluster members: %w", err)
	}
	terms, err := model.GetGOTerms(ctx, b.DB.SQL)
	if err != nil {
		return nil, fmt.Errorf("failed to load go terms: %w", err)
	}

	species := make(map[int64]*model.Species)

	var rows []*model.ClusterGOEnrichment
	for _, c := range clusters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Clusters++

		sp, ok := species[c.SpeciesID]
		if !ok {
			sp, err = model.GetSpeciesByID(ctx, b.DB.SQL, c.SpeciesID)
			if err != nil {
				return nil, fmt.Errorf("cluster %d: %w", c.ID, err)
			}
			species[c.SpeciesID] = sp
		}

		sequences := members[c.ID]
		if len(sequences) == 0 || sp.SequenceCount < len(sequences) {
			logger.Warn("Cluster cannot be tested, skipping",
				zap.Int64("cluster_id", c.ID),
				zap.Int("cluster_size", len(sequences)),
				zap.Int("species_sequences", sp.SequenceCount))
			report.SkippedClusters++
			continue
		}

		counts, err := model.GetGOAssociationCounts(ctx, b.DB.SQL, sequences)
		if err != nil {
			return nil, fmt.Errorf("failed to count go associations of cluster %d: %w", c.ID, err)
		}

		rows = append(rows, clusterEnrichment(c, sp, len(sequences), counts, terms)...)
	}

	batch := b.newBatch()
	defer batch.Rollback()

	for _, r := range rows {
		if err := model.InsertClusterGOEnrichment(ctx, batch, r); err != nil {
			return nil, fmt.Errorf("failed to add enrichment for cluster %d: %w", r.ClusterID, err)
		}
	}
	if err := batch.Flush(); err != nil {
		return nil, err
	}
	report.Rows = len(rows)

	return report, nil
}

// clusterEnrichment computes one result per GO term found in a cluster of size
// clusterSize. P-values are corrected within the cluster.
func clusterEnrichment(c *model.CoexpressionCluster, sp *model.Species, clusterSize int,
	counts map[int64]int, terms map[int64]*model.GOTerm) []*model.ClusterGOEnrichment {

	goIDs := make([]int64, 0, len(counts))
	for goID := range counts {
		goIDs = append(goIDs, goID)
	}
	sort.Slice(goIDs, func(i, j int) bool { return goIDs[i] < goIDs[j] })

	var rows []*model.ClusterGOEnrichment
	var pValues []float64
	for _, goID := range goIDs {
		total := 0
		if term, ok := terms[goID]; ok {
			total = term.SpeciesCounts[sp.ID]
		}
		if total <= 0 || total > sp.SequenceCount {
			logger.Warn("No valid species count for go term, skipping",
				zap.Int64("go_id", goID), zap.Int64("species_id", sp.ID), zap.Int("count", total))
			continue
		}

		k := counts[goID]
		p := stats.HypergeoSF(k, clusterSize, total, sp.SequenceCount)

		rows = append(rows, &model.ClusterGOEnrichment{
			ClusterID:    c.ID,
			GOID:         goID,
			ClusterCount: k,
			ClusterSize:  clusterSize,
			GOCount:      total,
			GOSize:       sp.SequenceCount,
			Enrichment:   stats.Enrichment(k, clusterSize, total, sp.SequenceCount),
			PValue:       p,
		})
		pValues = append(pValues, p)
	}

	corrected := stats.FDRCorrection(pValues)
	for i, r := range rows {
		r.CorrectedPValue = corrected[i]
	}

	return rows
}
