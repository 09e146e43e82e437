package build

import (
	"context"
	"fmt"
	"sort"

	"github.com/yumyai/conektbuild/logger"
	"github.com/yumyai/conektbuild/pkg/model"
	"go.uber.org/zap"
)

type CountsReport struct {
	Species           int64
	NetworkMethods    int64
	ClusteringMethods int64
	GOTerms           int
}

// UpdateCounts refreshes the cached counts the other jobs depend on.
func (b *Builder) UpdateCounts(ctx context.Context) (*CountsReport, error) {
	report := &CountsReport{}

	terms, err := model.GetGOTerms(ctx, b.DB.SQL)
	if err != nil {
		return nil, fmt.Errorf("failed to load go terms: %w", err)
	}
	goCounts, err := model.GetGOSpeciesCounts(ctx, b.DB.SQL)
	if err != nil {
		return nil, fmt.Errorf("failed to count go associations: %w", err)
	}

	if report.Species, err = model.UpdateSpeciesCounts(ctx, b.DB.SQL); err != nil {
		return nil, fmt.Errorf("failed to update species counts: %w", err)
	}
	if report.NetworkMethods, err = model.UpdateNetworkProbeCounts(ctx, b.DB.SQL); err != nil {
		return nil, fmt.Errorf("failed to update network counts: %w", err)
	}
	if report.ClusteringMethods, err = model.UpdateClusterCounts(ctx, b.DB.SQL); err != nil {
		return nil, fmt.Errorf("failed to update cluster counts: %w", err)
	}

	goIDs := make([]int64, 0, len(terms))
	for id := range terms {
		goIDs = append(goIDs, id)
	}
	sort.Slice(goIDs, func(i, j int) bool { return goIDs[i] < goIDs[j] })

	batch := b.newBatch()
	defer batch.Rollback()

	for _, id := range goIDs {
		counts := goCounts[id]
		if counts == nil {
			counts = map[int64]int{}
		}
		if err := model.UpdateGOSpeciesCounts(ctx, batch, id, counts); err != nil {
			return nil, fmt.Errorf("failed to update go term %d: %w", id, err)
		}
	}
	if err := batch.Flush(); err != nil {
		return nil, err
	}
	report.GOTerms = len(goIDs)

	logger.Info("Counts updated",
		zap.Int64("species", report.Species),
		zap.Int64("network_methods", report.NetworkMethods),
		zap.Int64("clustering_methods", report.ClusteringMethods),
		zap.Int("go_terms", report.GOTerms))

	return report, nil
}
