package model

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yumyai/conektbuild/pkg/db"
)

func CheckTreeMethod(ctx context.Context, db *sql.DB, id int64) error {

	var found int64
	err := db.QueryRowContext(ctx, `SELECT id FROM tree_methods WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: id %d", ErrTreeMethodNotFound, id)
	}
	return err
}

func GetTreesByMethod(ctx context.Context, db *sql.DB, methodID int64) ([]*Tree, error) {

	qstring := `
		SELECT id, label, data_newick, method_id
		FROM trees
		WHERE method_id = ?
		ORDER BY id
	`

	rows, err := db.QueryContext(ctx, qstring, methodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trees []*Tree
	for rows.Next() {
		var t Tree
		if err := rows.Scan(&t.ID, &t.Label, &t.DataNewick, &t.MethodID); err != nil {
			return nil, fmt.Errorf("error scanning tree: %w", err)
		}
		trees = append(trees, &t)
	}

	return trees, rows.Err()
}

func GetClades(ctx context.Context, db *sql.DB) ([]*Clade, error) {

	rows, err := db.QueryContext(ctx, `SELECT id, name, species FROM clades ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clades []*Clade
	for rows.Next() {
		var c Clade
		var species string
		if err := rows.Scan(&c.ID, &c.Name, &species); err != nil {
			return nil, fmt.Errorf("error scanning clade: %w", err)
		}
		if err := json.Unmarshal([]byte(species), &c.Species); err != nil {
			return nil, fmt.Errorf("clade %s has invalid species list: %w", c.Name, err)
		}
		clades = append(clades, &c)
	}

	return clades, rows.Err()
}

func InsertSequenceSequenceClade(ctx context.Context, b *db.Batch, a *SequenceSequenceClade) error {

	duplication := 0
	if a.Duplication {
		duplication = 1
	}

	_, err := b.Exec(ctx, `
		INSERT INTO sequence_sequence_clade
			(sequence_one_id, sequence_two_id, tree_id, clade_id, duplication, duplication_consistency_score)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.SequenceOneID, a.SequenceTwoID, a.TreeID, a.CladeID, duplication, a.Consistency)

	return err
}

func UpdateTreePhyloXML(ctx context.Context, b *db.Batch, treeID int64, data string) error {

	_, err := b.Exec(ctx, `UPDATE trees SET data_phyloxml = ? WHERE id = ?`, data, treeID)

	return err
}
