package build

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yumyai/conektbuild/logger"
	"github.com/yumyai/conektbuild/pkg/hcca"
	"github.com/yumyai/conektbuild/pkg/model"
	"go.uber.org/zap"
)

type ClusterReport struct {
	ClusteringMethodID int64
	Nodes              int
	Clusters           int
	Clustets           int
	Members            int
	Loners             int
	Unassigned         int
	SkippedEntries     int
}

// Clusters runs HCCA over the network of a network method and stores the result as a
// new clustering method.
func (b *Builder) Clusters(ctx context.Context, networkMethodID int64, description string, params hcca.Params) (*ClusterReport, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	method, err := model.GetNetworkMethod(ctx, b.DB.SQL, networkMethodID)
	if err != nil {
		return nil, err
	}

	entries, err := model.GetNetworksByMethod(ctx, b.DB.SQL, method.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expression networks: %w", err)
	}
	logger.Info("Loaded expression network", zap.Int64("network_method_id", method.ID), zap.Int("probes", len(entries)))

	report := &ClusterReport{}

	network := make(hcca.Network)
	probes := make(map[int64]string)
	for _, e := range entries {
		if !e.SequenceID.Valid {
			continue
		}
		links, err := e.Links()
		if err != nil {
			logger.Warn("Failed to parse network entry", zap.Int64("entry_id", e.ID), zap.Error(err))
			report.SkippedEntries++
			continue
		}

		node := e.SequenceID.Int64
		if _, ok := network[node]; !ok {
			network[node] = make(map[int64]float64)
		}
		for _, l := range links {
			network.AddEdge(node, l.GeneID, l.HRR)
		}
		probes[node] = e.Probe
	}

	added := network.EnsureReciprocity()
	logger.Debug("Network reciprocity ensured", zap.Int("added_edges", added))
	report.Nodes = len(network)

	h := hcca.New(params)
	h.Load(network)
	res, err := h.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("hcca clustering failed: %w", err)
	}

	report.Clusters = len(res.Clusters)
	report.Clustets = len(res.Clustets)
	report.Loners = len(res.Loners)
	report.Unassigned = len(res.Unassigned)
	if report.Unassigned > 0 {
		logger.Warn("Nodes not stored, no cluster could take them",
			zap.Int("count", report.Unassigned),
			zap.Int64s("nodes", res.Unassigned))
	}

	names := res.ClusterNames()
	if len(names) == 0 {
		logger.Warn("No clusters found, nothing added to the database")
		return report, nil
	}

	batch := b.newBatch()
	defer batch.Rollback()

	methodID, err := model.InsertClusteringMethod(ctx, batch, &model.ClusteringMethod{
		NetworkMethodID: method.ID,
		Method:          description,
		ClusterCount:    len(names),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add clustering method: %w", err)
	}
	report.ClusteringMethodID = methodID

	clusterIDs := make(map[string]int64, len(names))
	for _, name := range names {
		id, err := model.InsertCluster(ctx, batch, methodID, name)
		if err != nil {
			return nil, fmt.Errorf("failed to add cluster %s: %w", name, err)
		}
		clusterIDs[name] = id
	}

	for _, a := range res.Assignments {
		probe, ok := probes[a.Node]
		member := &model.ClusterMember{
			Probe:      sql.NullString{String: probe, Valid: ok},
			SequenceID: a.Node,
			ClusterID:  clusterIDs[a.Cluster],
		}
		if err := model.InsertClusterMember(ctx, batch, member); err != nil {
			return nil, fmt.Errorf("failed to add sequence %d to %s: %w", a.Node, a.Cluster, err)
		}
		report.Members++
	}

	if err := batch.Flush(); err != nil {
		return nil, err
	}

	logger.Info("Clustering stored",
		zap.Int64("clustering_method_id", methodID),
		zap.Int("clusters", len(names)),
		zap.Int("members", report.Members))

	return report, nil
}
