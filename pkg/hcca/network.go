package hcca

import (
	"sort"
)

// Network is a rank based coexpression network: node -> neighbour -> HRR.
// Rows are usually stored one way only, see EnsureReciprocity.
type Network map[int64]map[int64]float64

// AddEdge stores the HRR from node to neighbour.
func (n Network) AddEdge(node, neighbour int64, hrr float64) {
	if _, ok := n[node]; !ok {
		n[node] = make(map[int64]float64)
	}
	n[node][neighbour] = hrr
}

// EnsureReciprocity adds the reverse of every edge that was only stored in one
// direction, with the same HRR. It returns the number of added edges.
func (n Network) EnsureReciprocity() int {
	added := 0
	for _, node := range n.Nodes() {
		for neighbour, hrr := range n[node] {
			if _, ok := n[neighbour][node]; ok {
				continue
			}
			n.AddEdge(neighbour, node, hrr)
			added++
		}
	}
	return added
}

// Nodes returns the node ids in ascending order.
func (n Network) Nodes() []int64 {
	ids := make([]int64, 0, len(n))
	for id := range n {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// lessIDs orders two sorted id lists lexicographically.
func lessIDs(a, b []int64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
