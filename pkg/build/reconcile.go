package build

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yumyai/conektbuild/logger"
	"github.com/yumyai/conektbuild/pkg/model"
	"github.com/yumyai/conektbuild/pkg/phylo"
	"go.uber.org/zap"
)

type ReconcileReport struct {
	Trees         int
	SkippedTrees  int
	LabelledNodes int
	SkippedNodes  int
	Associations  int
}

// ReconcileTrees labels the nodes of every tree of a tree method as duplication or
// speciation and stores the clade associations between the sequences they join.
func (b *Builder) ReconcileTrees(ctx context.Context, treeMethodID int64) (*ReconcileReport, error) {
	if err := model.CheckTreeMethod(ctx, b.DB.SQL, treeMethodID); err != nil {
		return nil, err
	}

	sequences, err := model.GetSequencesByType(ctx, b.DB.SQL, "protein_coding")
	if err != nil {
		return nil, fmt.Errorf("failed to load sequences: %w", err)
	}
	seqToSpecies := make(map[string]string, len(sequences))
	seqToID := make(map[string]int64, len(sequences))
	for _, s := range sequences {
		seqToSpecies[s.Name] = s.SpeciesCode
		seqToID[s.Name] = s.ID
	}

	clades, err := model.GetClades(ctx, b.DB.SQL)
	if err != nil {
		return nil, fmt.Errorf("failed to load clades: %w", err)
	}
	catalogueClades := make([]phylo.Clade, len(clades))
	for i, c := range clades {
		catalogueClades[i] = phylo.Clade{ID: c.ID, Name: c.Name, Species: c.Species}
	}
	catalogue, err := phylo.NewCatalogue(catalogueClades, b.CladeCacheSize)
	if err != nil {
		return nil, err
	}

	trees, err := model.GetTreesByMethod(ctx, b.DB.SQL, treeMethodID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trees: %w", err)
	}

	report := &ReconcileReport{}

	var associations []*model.SequenceSequenceClade
	relabelled := make(map[int64]string, len(trees))
	for _, t := range trees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tree, err := phylo.Parse(t.DataNewick)
		if err != nil {
			logger.Warn("Failed to parse tree", zap.Int64("tree_id", t.ID), zap.String("label", t.Label), zap.Error(err))
			report.SkippedTrees++
			continue
		}

		rec := catalogue.Reconcile(fmt.Sprintf("%d, %s", t.ID, t.Label), tree, seqToSpecies)
		report.Trees++
		report.LabelledNodes += rec.Labelled
		report.SkippedNodes += rec.Skipped

		for _, a := range rec.Associations {
			row := &model.SequenceSequenceClade{
				SequenceOneID: seqToID[a.SequenceOne],
				SequenceTwoID: seqToID[a.SequenceTwo],
				TreeID:        t.ID,
				CladeID:       a.CladeID,
				Duplication:   a.Duplication,
			}
			if a.Duplication {
				row.Consistency = sql.NullFloat64{Float64: a.Consistency, Valid: true}
			}
			associations = append(associations, row)
		}

		relabelled[t.ID] = tree.String()
	}

	batch := b.newBatch()
	defer batch.Rollback()

	for _, a := range associations {
		if err := model.InsertSequenceSequenceClade(ctx, batch, a); err != nil {
			return nil, fmt.Errorf("failed to add association for tree %d: %w", a.TreeID, err)
		}
	}
	if err := batch.Flush(); err != nil {
		return nil, err
	}
	report.Associations = len(associations)

	for _, t := range trees {
		data, ok := relabelled[t.ID]
		if !ok {
			continue
		}
		if err := model.UpdateTreePhyloXML(ctx, batch, t.ID, data); err != nil {
			return nil, fmt.Errorf("failed to update tree %d: %w", t.ID, err)
		}
	}
	if err := batch.Flush(); err != nil {
		return nil, err
	}

	return report, nil
}
