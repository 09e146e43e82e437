package hcca

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addClique(n Network, ids []int64, hrr float64) {
	for _, a := range ids {
		for _, b := range ids {
			if a != b {
				n.AddEdge(a, b, hrr)
			}
		}
	}
}

func addChain(n Network, ids []int64, hrr float64) {
	for i := 1; i < len(ids); i++ {
		n.AddEdge(ids[i-1], ids[i], hrr)
		n.AddEdge(ids[i], ids[i-1], hrr)
	}
}

func idRange(from, to int64) []int64 {
	var ids []int64
	for i := from; i <= to; i++ {
		ids = append(ids, i)
	}
	return ids
}

// testNetwork holds two 25 node cliques joined by a single edge, a separate triangle,
// a small tail hanging off the first clique and a pair of nodes linked above the cutoff.
func testNetwork() Network {
	n := make(Network)

	addClique(n, idRange(1, 25), 1)
	addClique(n, idRange(101, 125), 1)
	n.AddEdge(1, 101, 1)

	addClique(n, []int64{201, 202, 203}, 2)

	addClique(n, []int64{300, 301, 302}, 1)
	n.AddEdge(300, 2, 1)

	n.AddEdge(400, 401, 50)

	n.EnsureReciprocity()
	return n
}

func testParams() Params {
	return Params{StepSize: 1, HRRCutoff: 30, MinClusterSize: 5, MaxClusterSize: 40}
}

func TestEnsureReciprocity(t *testing.T) {
	n := make(Network)
	n.AddEdge(1, 2, 3)
	n.AddEdge(2, 3, 4)
	n.AddEdge(3, 2, 4)

	added := n.EnsureReciprocity()

	assert.Equal(t, 1, added)
	assert.Equal(t, 3.0, n[2][1])
	assert.Equal(t, []int64{1, 2, 3}, n.Nodes())
}

func TestLoadKeepsStrongerDirection(t *testing.T) {
	n := make(Network)
	n.AddEdge(1, 2, 9)
	n.AddEdge(2, 1, 3)

	h := New(testParams())
	h.Load(n)

	w, ok := h.score.Weight(1, 2)
	require.True(t, ok)
	assert.InDelta(t, 0.25, w, 1e-12)
}

func TestBuild(t *testing.T) {
	h := New(testParams())
	h.Load(testNetwork())

	res, err := h.Build(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Clusters, 2)
	require.Len(t, res.Clustets, 1)

	// the second clique only leaks through the bridge and wins the ranking
	assert.Equal(t, idRange(101, 125), res.Clusters[0])

	first := append(idRange(1, 25), 300, 301, 302)
	assert.ElementsMatch(t, first, res.Clusters[1])

	assert.Equal(t, []int64{201, 202, 203}, res.Clustets[0])
	assert.Equal(t, []int64{400, 401}, res.Loners)
	assert.Empty(t, res.Unassigned)
	assert.Equal(t, []string{"Cluster_1", "Cluster_2", "Cluster_3"}, res.ClusterNames())

	byNode := make(map[int64]Assignment)
	for _, a := range res.Assignments {
		_, dup := byNode[a.Node]
		require.False(t, dup, "node %d assigned twice", a.Node)
		byNode[a.Node] = a
	}

	assert.Equal(t, "Cluster_1", byNode[110].Cluster)
	assert.Equal(t, "Cluster_2", byNode[301].Cluster)
	assert.Equal(t, "Cluster_3", byNode[202].Cluster)
	assert.True(t, byNode[202].Clustet)
	assert.False(t, byNode[5].Clustet)

	_, found := byNode[400]
	assert.False(t, found)
}

func TestBuildOnlyClustets(t *testing.T) {
	n := make(Network)
	addClique(n, []int64{1, 2, 3}, 1)
	addClique(n, []int64{10, 11}, 1)

	h := New(testParams())
	h.Load(n)

	res, err := h.Build(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Clusters)
	assert.Equal(t, [][]int64{{1, 2, 3}, {10, 11}}, res.Clustets)
	assert.Len(t, res.Assignments, 5)
	assert.Equal(t, 1, res.Iterations)
}

// Components too large for a clustet that never yield a cluster, or that have no
// edge to any cluster, end up in Unassigned instead of looping in the filler.
func TestBuildUnassigned(t *testing.T) {
	t.Run("NoClusters", func(t *testing.T) {
		n := make(Network)
		addChain(n, idRange(1, 50), 1)

		h := New(testParams())
		h.Load(n)

		res, err := h.Build(context.Background())
		require.NoError(t, err)

		assert.Empty(t, res.Clusters)
		assert.Empty(t, res.Clustets)
		assert.Empty(t, res.Assignments)
		assert.Equal(t, idRange(1, 50), res.Unassigned)
		assert.Equal(t, 1, res.Iterations)
	})

	t.Run("DisconnectedLeftovers", func(t *testing.T) {
		n := make(Network)
		addClique(n, idRange(1, 30), 1)
		addChain(n, append([]int64{1}, idRange(31, 45)...), 1)
		addChain(n, idRange(501, 550), 1)

		h := New(testParams())
		h.Load(n)

		res, err := h.Build(context.Background())
		require.NoError(t, err)

		require.Len(t, res.Clusters, 1)
		assert.Empty(t, res.Clustets)
		// the tail is pulled in by the filler, the far chain cannot be
		assert.Equal(t, idRange(1, 45), res.Clusters[0])
		assert.Equal(t, idRange(501, 550), res.Unassigned)
		assert.Len(t, res.Assignments, 45)
		assert.Equal(t, []string{"Cluster_1"}, res.ClusterNames())
		assert.Equal(t, 2, res.Iterations)
	})
}

func TestBuildCancelled(t *testing.T) {
	h := New(testParams())
	h.Load(testNetwork())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())
	assert.Error(t, Params{StepSize: 1, MinClusterSize: 10, MaxClusterSize: 10}.Validate())
	assert.Error(t, Params{StepSize: -1, MinClusterSize: 1, MaxClusterSize: 10}.Validate())
}

func TestChisel(t *testing.T) {
	h := New(testParams())
	h.Load(testNetwork())

	// 101 is tied to the second clique far more than to the first
	got := h.chisel(append(idRange(1, 25), 101))
	assert.Equal(t, idRange(1, 25), got)
}
