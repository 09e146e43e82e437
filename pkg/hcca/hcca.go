// Package hcca implements the Highly Connected Clustering Algorithm used to cut a rank
// based coexpression network into coexpression clusters.
package hcca

import (
	"context"
	"fmt"
	"math"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/yumyai/conektbuild/logger"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Chiseled neighbourhoods must be larger than this to be searched for a cluster.
const minChiselSize = 20

type Params struct {
	StepSize       int `yaml:"step_size"`
	HRRCutoff      int `yaml:"hrr_cutoff"`
	MinClusterSize int `yaml:"min_cluster_size"`
	MaxClusterSize int `yaml:"max_cluster_size"`
}

func DefaultParams() Params {
	return Params{
		StepSize:       3,
		HRRCutoff:      30,
		MinClusterSize: 40,
		MaxClusterSize: 200,
	}
}

func (p Params) Validate() error {
	if p.StepSize < 0 {
		return fmt.Errorf("step size must not be negative, got %d", p.StepSize)
	}
	if p.MinClusterSize < 0 || p.MaxClusterSize <= p.MinClusterSize {
		return fmt.Errorf("invalid cluster size range (%d, %d)", p.MinClusterSize, p.MaxClusterSize)
	}
	return nil
}

// Assignment places a node in a named cluster. Clustet marks the small components
// removed before the main clustering.
type Assignment struct {
	Node    int64
	Cluster string
	Clustet bool
}

type Result struct {
	Assignments []Assignment
	Clusters    [][]int64
	Clustets    [][]int64
	// Nodes without a single edge under the HRR cutoff
	Loners []int64
	// Nodes the filler could not connect to any cluster
	Unassigned []int64
	Iterations int
}

// ClusterNames returns the distinct cluster names in assignment order.
func (r *Result) ClusterNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, a := range r.Assignments {
		if _, ok := seen[a.Cluster]; ok {
			continue
		}
		seen[a.Cluster] = struct{}{}
		names = append(names, a.Cluster)
	}
	return names
}

type HCCA struct {
	params Params

	// score holds every edge under the cutoff and never changes.
	score *simple.WeightedUndirectedGraph
	// working loses the nodes of every accepted cluster and clustet.
	working *simple.UndirectedGraph

	loners    []int64
	clustered [][]int64
	clustets  [][]int64
}

func New(params Params) *HCCA {
	return &HCCA{
		params:  params,
		score:   simple.NewWeightedUndirectedGraph(0, 0),
		working: simple.NewUndirectedGraph(),
	}
}

// Load builds the graphs from network. Edges with an HRR at or above the cutoff are
// dropped and the rest are weighted 1/(hrr+1). If both directions of an edge are stored
// with different ranks the stronger one is kept.
func (h *HCCA) Load(network Network) {
	h.score = simple.NewWeightedUndirectedGraph(0, 0)
	h.working = simple.NewUndirectedGraph()
	h.loners = nil
	h.clustered = nil
	h.clustets = nil

	cutoff := float64(h.params.HRRCutoff)

	for _, node := range network.Nodes() {
		for neighbour, hrr := range network[node] {
			if neighbour == node || hrr >= cutoff {
				continue
			}

			w := 1 / (hrr + 1)
			if existing, ok := h.score.Weight(node, neighbour); ok && existing >= w {
				continue
			}

			h.score.SetWeightedEdge(h.score.NewWeightedEdge(simple.Node(node), simple.Node(neighbour), w))
			h.working.SetEdge(h.working.NewEdge(simple.Node(node), simple.Node(neighbour)))
		}
	}

	for _, node := range network.Nodes() {
		if h.working.Node(node) == nil {
			h.loners = append(h.loners, node)
		}
	}

	logger.Debug("HCCA network loaded",
		zap.Int("nodes", h.working.Nodes().Len()),
		zap.Int("loners", len(h.loners)))
}

// Build runs the clustering to completion.
func (h *HCCA) Build(ctx context.Context) (*Result, error) {
	if err := h.params.Validate(); err != nil {
		return nil, err
	}

	h.removeClustets()

	iteration := 0
	for {
		iteration++
		logger.Info("HCCA iteration",
			zap.Int("iteration", iteration),
			zap.Int("remaining_nodes", h.working.Nodes().Len()))

		found, err := h.iterate(ctx)
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
	}

	unassigned := h.fill(h.workingNodes())

	return h.result(iteration, unassigned), nil
}

// removeClustets takes every connected component that fits in a cluster out of the
// working graph before the main iterations.
func (h *HCCA) removeClustets() {
	total := h.working.Nodes().Len()

	var clustets [][]int64
	for _, component := range topo.ConnectedComponents(h.working) {
		if len(component) > h.params.MaxClusterSize {
			continue
		}
		clustets = append(clustets, idsOf(component))
	}
	sort.Slice(clustets, func(i, j int) bool { return lessIDs(clustets[i], clustets[j]) })

	removed := 0
	for _, c := range clustets {
		for _, node := range c {
			h.working.RemoveNode(node)
			removed++
		}
	}
	h.clustets = clustets

	logger.Info("Detected loners", zap.Int("clustet_nodes", removed), zap.Int("nodes", total))
}

// iterate searches one round of candidate clusters and removes the accepted ones from
// the working graph. found is false once no candidate is left.
func (h *HCCA) iterate(ctx context.Context) (found bool, err error) {
	var candidates [][]int64

	nodes := h.workingNodes()
	for i, node := range nodes {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if i > 0 && i%1000 == 0 {
			logger.Debug("HCCA progress", zap.Int("node", i), zap.Int("of", len(nodes)))
		}

		stable := h.chisel(h.surrounding(node))
		if len(stable) <= minChiselSize {
			continue
		}

		clusterSet := mapset.NewThreadUnsafeSet(stable...)
		checked := mapset.NewThreadUnsafeSet[int64]()
		for _, member := range stable {
			if checked.ContainsOne(member) {
				continue
			}

			isle := h.biggestIsle(member, clusterSet)
			checked.Append(isle...)
			if len(isle) > h.params.MinClusterSize && len(isle) < h.params.MaxClusterSize {
				candidates = append(candidates, isle)
				break
			}
		}
	}

	if len(candidates) == 0 {
		return false, nil
	}

	accepted := h.findNonOverlapping(candidates)
	h.clustered = append(h.clustered, accepted...)
	for _, c := range accepted {
		for _, node := range c {
			h.working.RemoveNode(node)
		}
	}

	return true, nil
}

// surrounding expands node through the working graph StepSize times.
func (h *HCCA) surrounding(node int64) []int64 {
	reached := mapset.NewThreadUnsafeSet(node)
	frontier := []int64{node}

	for step := 0; step < h.params.StepSize && len(frontier) > 0; step++ {
		var next []int64
		for _, n := range frontier {
			for _, nb := range h.workingNeighbours(n) {
				if reached.Add(nb) {
					next = append(next, nb)
				}
			}
		}
		frontier = next
	}

	return mapset.Sorted(reached)
}

// chisel drops every node that is tied more strongly to the outside of the set than to
// the inside, until the set no longer changes.
func (h *HCCA) chisel(nodes []int64) []int64 {
	for {
		inside := mapset.NewThreadUnsafeSet(nodes...)
		kept := make([]int64, 0, len(nodes))

		for _, n := range nodes {
			var inScore, outScore float64
			for _, nb := range h.workingNeighbours(n) {
				w, _ := h.score.Weight(n, nb)
				if inside.ContainsOne(nb) {
					inScore += w
				} else {
					outScore += w
				}
			}
			if inScore > outScore {
				kept = append(kept, n)
			}
		}

		if len(kept) == len(nodes) {
			return kept
		}
		nodes = kept
	}
}

// biggestIsle returns the nodes of clusterSet reachable from seed in the score graph.
func (h *HCCA) biggestIsle(seed int64, clusterSet mapset.Set[int64]) []int64 {
	isle := mapset.NewThreadUnsafeSet(seed)
	frontier := []int64{seed}

	for len(frontier) > 0 {
		var next []int64
		for _, n := range frontier {
			it := h.score.From(n)
			for it.Next() {
				nb := it.Node().ID()
				if !clusterSet.ContainsOne(nb) || !isle.Add(nb) {
					continue
				}
				next = append(next, nb)
			}
		}
		frontier = next
	}

	return mapset.Sorted(isle)
}

// connectivity sums the score weights from the members of cluster to the inside and the outside.
func (h *HCCA) connectivity(cluster []int64) (inScore, outScore float64) {
	members := mapset.NewThreadUnsafeSet(cluster...)
	for _, node := range cluster {
		it := h.score.From(node)
		for it.Next() {
			nb := it.Node().ID()
			w, _ := h.score.Weight(node, nb)
			if members.ContainsOne(nb) {
				inScore += w
			} else {
				outScore += w
			}
		}
	}
	return inScore, outScore
}

// findNonOverlapping ranks candidates by out/in score. The best one is always taken,
// the rest only if they overlap nothing taken so far and their ratio is below 1.
func (h *HCCA) findNonOverlapping(candidates [][]int64) [][]int64 {
	type ranked struct {
		ratio   float64
		members []int64
	}

	ranks := make([]ranked, 0, len(candidates))
	for _, c := range candidates {
		in, out := h.connectivity(c)
		ratio := math.Inf(1)
		if in != 0 {
			ratio = out / in
		}
		ranks = append(ranks, ranked{ratio: ratio, members: c})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].ratio != ranks[j].ratio {
			return ranks[i].ratio < ranks[j].ratio
		}
		return lessIDs(ranks[i].members, ranks[j].members)
	})

	best := [][]int64{ranks[0].members}
	taken := mapset.NewThreadUnsafeSet(ranks[0].members...)

	for _, r := range ranks {
		if r.ratio >= 1 || taken.ContainsAny(r.members...) {
			continue
		}
		best = append(best, r.members)
		taken.Append(r.members...)
	}

	return best
}

// fill attaches leftover nodes to the cluster they are most connected to, smallest
// cluster first on ties. Clusters grow during a pass, so later nodes can follow
// earlier ones. It returns the nodes that could not be placed.
func (h *HCCA) fill(leftovers []int64) []int64 {
	clusterOf := make(map[int64]int)
	for j, c := range h.clustered {
		for _, node := range c {
			clusterOf[node] = j
		}
	}

	for len(leftovers) > 0 && len(h.clustered) > 0 {
		assigned := mapset.NewThreadUnsafeSet[int64]()

		for _, node := range leftovers {
			scores := make([]float64, len(h.clustered))
			it := h.score.From(node)
			for it.Next() {
				nb := it.Node().ID()
				j, ok := clusterOf[nb]
				if !ok {
					continue
				}
				w, _ := h.score.Weight(node, nb)
				scores[j] += w
			}

			top := 0.0
			for _, s := range scores {
				top = math.Max(top, s)
			}
			if top == 0 {
				continue
			}

			target := -1
			for j, s := range scores {
				if s != top {
					continue
				}
				if target == -1 || len(h.clustered[j]) < len(h.clustered[target]) {
					target = j
				}
			}

			h.clustered[target] = append(h.clustered[target], node)
			clusterOf[node] = target
			assigned.Add(node)
		}

		if assigned.IsEmpty() {
			break
		}

		remaining := leftovers[:0:0]
		for _, node := range leftovers {
			if !assigned.ContainsOne(node) {
				remaining = append(remaining, node)
			}
		}
		leftovers = remaining
	}

	if len(leftovers) > 0 {
		logger.Warn("HCCA left nodes without a cluster", zap.Int("count", len(leftovers)))
	}
	return leftovers
}

func (h *HCCA) result(iterations int, unassigned []int64) *Result {
	res := &Result{
		Clusters:   h.clustered,
		Clustets:   h.clustets,
		Loners:     h.loners,
		Unassigned: unassigned,
		Iterations: iterations,
	}

	count := 1
	for _, c := range h.clustered {
		name := fmt.Sprintf("Cluster_%d", count)
		for _, node := range c {
			res.Assignments = append(res.Assignments, Assignment{Node: node, Cluster: name})
		}
		count++
	}
	for _, c := range h.clustets {
		name := fmt.Sprintf("Cluster_%d", count)
		for _, node := range c {
			res.Assignments = append(res.Assignments, Assignment{Node: node, Cluster: name, Clustet: true})
		}
		count++
	}

	return res
}

func (h *HCCA) workingNodes() []int64 {
	return idsOf(graph.NodesOf(h.working.Nodes()))
}

func (h *HCCA) workingNeighbours(node int64) []int64 {
	return idsOf(graph.NodesOf(h.working.From(node)))
}

func idsOf(nodes []graph.Node) []int64 {
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	sortIDs(ids)
	return ids
}
