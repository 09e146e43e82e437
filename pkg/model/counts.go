package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yumyai/conektbuild/pkg/db"
)

// UpdateSpeciesCounts sets, for each species, sequence_count to the number of protein
// coding sequences, profile_count to its expression profiles and network_count to its
// network methods.
func UpdateSpeciesCounts(ctx context.Context, db *sql.DB) (int64, error) {

	res, err := db.ExecContext(ctx, `
		UPDATE species SET
			sequence_count = (
				SELECT COUNT(*) FROM sequences s
				WHERE s.species_id = species.id AND s.type = 'protein_coding'
			),
			profile_count = (
				SELECT COUNT(*) FROM expression_profiles p
				WHERE p.species_id = species.id
			),
			network_count = (
				SELECT COUNT(*) FROM expression_network_methods m
				WHERE m.species_id = species.id
			)`)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func UpdateNetworkProbeCounts(ctx context.Context, db *sql.DB) (int64, error) {

	res, err := db.ExecContext(ctx, `
		UPDATE expression_network_methods SET probe_count = (
			SELECT COUNT(*) FROM expression_networks n
			WHERE n.method_id = expression_network_methods.id
		)`)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func UpdateClusterCounts(ctx context.Context, db *sql.DB) (int64, error) {

	res, err := db.ExecContext(ctx, `
		UPDATE coexpression_clustering_methods SET cluster_count = (
			SELECT COUNT(*) FROM coexpression_clusters c
			WHERE c.method_id = coexpression_clustering_methods.id
		)`)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// GetGOSpeciesCounts counts, per GO term and species, the distinct sequences with a
// non predicted association. Terms without any association are absent.
func GetGOSpeciesCounts(ctx context.Context, db *sql.DB) (map[int64]map[int64]int, error) {

	qstring := `
		SELECT sg.go_id, s.species_id, COUNT(DISTINCT sg.sequence_id)
		FROM sequence_go sg
		JOIN sequences s ON s.id = sg.sequence_id
		WHERE sg.predicted = 0
		GROUP BY sg.go_id, s.species_id
	`

	rows, err := db.QueryContext(ctx, qstring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]map[int64]int)
	for rows.Next() {
		var goID, speciesID int64
		var n int
		if err := rows.Scan(&goID, &speciesID, &n); err != nil {
			return nil, fmt.Errorf("error scanning go species count: %w", err)
		}
		if _, ok := counts[goID]; !ok {
			counts[goID] = make(map[int64]int)
		}
		counts[goID][speciesID] = n
	}

	return counts, rows.Err()
}

func UpdateGOSpeciesCounts(ctx context.Context, b *db.Batch, goID int64, counts map[int64]int) error {

	encoded, err := encodeSpeciesCounts(counts)
	if err != nil {
		return err
	}

	_, err = b.Exec(ctx, `UPDATE go SET species_counts = ? WHERE id = ?`, encoded, goID)

	return err
}
