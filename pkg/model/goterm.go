package model

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/yumyai/conektbuild/pkg/db"
)

// GetGOTerms returns every GO term with its decoded per species counts.
func GetGOTerms(ctx context.Context, db *sql.DB) (map[int64]*GOTerm, error) {

	qstring := `SELECT id, label, name, type, species_counts FROM go ORDER BY id`

	rows, err := db.QueryContext(ctx, qstring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := make(map[int64]*GOTerm)
	for rows.Next() {
		var g GOTerm
		var counts sql.NullString
		if err := rows.Scan(&g.ID, &g.Label, &g.Name, &g.Type, &counts); err != nil {
			return nil, fmt.Errorf("error scanning go term: %w", err)
		}

		g.SpeciesCounts, err = decodeSpeciesCounts(counts.String)
		if err != nil {
			return nil, fmt.Errorf("go term %s: %w", g.Label, err)
		}
		terms[g.ID] = &g
	}

	return terms, rows.Err()
}

// species_counts is stored as {"<species id>": count}
func decodeSpeciesCounts(raw string) (map[int64]int, error) {
	counts := make(map[int64]int)
	if raw == "" {
		return counts, nil
	}

	var stored map[string]int
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("invalid species counts: %w", err)
	}

	for k, v := range stored {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid species id %q: %w", k, err)
		}
		counts[id] = v
	}

	return counts, nil
}

func encodeSpeciesCounts(counts map[int64]int) (string, error) {
	stored := make(map[string]int, len(counts))
	for id, v := range counts {
		stored[strconv.FormatInt(id, 10)] = v
	}

	b, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetGOAssociationCounts counts the distinct (sequence, go) pairs of non predicted
// associations for the given sequences, per GO term.
func GetGOAssociationCounts(ctx context.Context, db *sql.DB, sequenceIDs []int64) (map[int64]int, error) {

	counts := make(map[int64]int)
	if len(sequenceIDs) == 0 {
		return counts, nil
	}

	stm, err := db.PrepareContext(ctx, `
		SELECT DISTINCT go_id
		FROM sequence_go
		WHERE sequence_id = ? AND predicted = 0
	`)
	if err != nil {
		return nil, err
	}
	defer stm.Close()

	seen := make(map[int64]struct{}, len(sequenceIDs))
	for _, seqID := range sequenceIDs {
		if _, dup := seen[seqID]; dup {
			continue
		}
		seen[seqID] = struct{}{}

		if err := func() error {
			rows, err := stm.QueryContext(ctx, seqID)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var goID int64
				if err := rows.Scan(&goID); err != nil {
					return fmt.Errorf("error scanning go association: %w", err)
				}
				counts[goID]++
			}
			return rows.Err()
		}(); err != nil {
			return nil, err
		}
	}

	return counts, nil
}

func DeleteClusterGOEnrichment(ctx context.Context, db *sql.DB) (int64, error) {

	res, err := db.ExecContext(ctx, `DELETE FROM cluster_go_enrichment`)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func InsertClusterGOEnrichment(ctx context.Context, b *db.Batch, e *ClusterGOEnrichment) error {

	_, err := b.Exec(ctx, `
		INSERT INTO cluster_go_enrichment
			(cluster_id, go_id, cluster_count, cluster_size, go_count, go_size, enrichment, p_value, corrected_p_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ClusterID, e.GOID, e.ClusterCount, e.ClusterSize, e.GOCount, e.GOSize,
		e.Enrichment, e.PValue, e.CorrectedPValue)

	return err
}
