package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yumyai/conektbuild/pkg/db"
)

// GetClusters returns every coexpression cluster with the species of the network it
// was built from (cluster -> clustering method -> network method -> species).
func GetClusters(ctx context.Context, db *sql.DB) ([]*CoexpressionCluster, error) {

	qstring := `
		SELECT c.id, c.method_id, c.name, nm.species_id
		FROM coexpression_clusters c
		JOIN coexpression_clustering_methods cm ON cm.id = c.method_id
		JOIN expression_network_methods nm ON nm.id = cm.network_method_id
		ORDER BY c.id
	`

	rows, err := db.QueryContext(ctx, qstring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clusters []*CoexpressionCluster
	for rows.Next() {
		var c CoexpressionCluster
		if err := rows.Scan(&c.ID, &c.MethodID, &c.Name, &c.SpeciesID); err != nil {
			return nil, fmt.Errorf("error scanning cluster: %w", err)
		}
		clusters = append(clusters, &c)
	}

	return clusters, rows.Err()
}

// GetClusterSequences returns the distinct sequence ids of every cluster.
func GetClusterSequences(ctx context.Context, db *sql.DB) (map[int64][]int64, error) {

	qstring := `
		SELECT DISTINCT coexpression_cluster_id, sequence_id
		FROM sequence_coexpression_cluster
		ORDER BY coexpression_cluster_id, sequence_id
	`

	rows, err := db.QueryContext(ctx, qstring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make(map[int64][]int64)
	for rows.Next() {
		var clusterID, sequenceID int64
		if err := rows.Scan(&clusterID, &sequenceID); err != nil {
			return nil, fmt.Errorf("error scanning cluster member: %w", err)
		}
		members[clusterID] = append(members[clusterID], sequenceID)
	}

	return members, rows.Err()
}

func InsertClusteringMethod(ctx context.Context, b *db.Batch, m *ClusteringMethod) (int64, error) {

	res, err := b.Exec(ctx, `
		INSERT INTO coexpression_clustering_methods (network_method_id, method, cluster_count)
		VALUES (?, ?, ?)`,
		m.NetworkMethodID, m.Method, m.ClusterCount)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func InsertCluster(ctx context.Context, b *db.Batch, methodID int64, name string) (int64, error) {

	res, err := b.Exec(ctx, `INSERT INTO coexpression_clusters (method_id, name) VALUES (?, ?)`, methodID, name)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func InsertClusterMember(ctx context.Context, b *db.Batch, m *ClusterMember) error {

	_, err := b.Exec(ctx, `
		INSERT INTO sequence_coexpression_cluster (probe, sequence_id, coexpression_cluster_id)
		VALUES (?, ?, ?)`,
		m.Probe, m.SequenceID, m.ClusterID)

	return err
}
