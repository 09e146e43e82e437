package phylo

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/yumyai/conektbuild/logger"
	"github.com/yumyai/conektbuild/pkg/stats"
	"go.uber.org/zap"
)

const DefaultCladeCacheSize = 1024

// Clade is a named group of species from the clade catalogue.
type Clade struct {
	ID      int64
	Name    string
	Species []string
}

// GetClade returns the name of the smallest clade whose species include all of
// species. Clades of equal size are compared by name.
func GetClade(species []string, cladeToSpecies map[string][]string) (string, bool) {
	if len(species) == 0 {
		return "", false
	}
	wanted := mapset.NewThreadUnsafeSet(species...)

	names := make([]string, 0, len(cladeToSpecies))
	for name := range cladeToSpecies {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	bestSize := -1
	for _, name := range names {
		members := mapset.NewThreadUnsafeSet(cladeToSpecies[name]...)
		if !members.IsSuperset(wanted) {
			continue
		}
		if bestSize == -1 || members.Cardinality() < bestSize {
			best = name
			bestSize = members.Cardinality()
		}
	}

	return best, bestSize != -1
}

// IsDuplication reports whether both branches contain a common species.
func IsDuplication(branchOne, branchTwo []string) bool {
	return mapset.NewThreadUnsafeSet(branchTwo...).ContainsAny(branchOne...)
}

// DuplicationConsistency is the share of species found in both branches.
func DuplicationConsistency(branchOne, branchTwo []string) float64 {
	return stats.Jaccard(branchOne, branchTwo)
}

// Association links two sequences through the clade of the node that joins them.
// Consistency is only meaningful when Duplication is set.
type Association struct {
	SequenceOne string
	SequenceTwo string
	CladeID     int64
	Duplication bool
	Consistency float64
}

// Reconciliation summarises the reconciliation of a single tree.
type Reconciliation struct {
	Associations []Association
	Labelled     int
	Skipped      int
}

// Catalogue answers clade lookups for a fixed set of clades.
type Catalogue struct {
	cladeToSpecies map[string][]string
	byName         map[string]Clade
	cache          *lru.Cache[string, string]
}

func NewCatalogue(clades []Clade, cacheSize int) (*Catalogue, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCladeCacheSize
	}

	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create clade cache: %w", err)
	}

	c := &Catalogue{
		cladeToSpecies: make(map[string][]string, len(clades)),
		byName:         make(map[string]Clade, len(clades)),
		cache:          cache,
	}
	for _, clade := range clades {
		c.cladeToSpecies[clade.Name] = clade.Species
		c.byName[clade.Name] = clade
	}

	return c, nil
}

// Clade looks up the smallest clade holding species, see GetClade.
func (c *Catalogue) Clade(species []string) (Clade, bool) {
	key := speciesKey(species)
	if name, ok := c.cache.Get(key); ok {
		clade, found := c.byName[name]
		return clade, found
	}

	name, ok := GetClade(species, c.cladeToSpecies)
	if !ok {
		name = ""
	}
	c.cache.Add(key, name)

	clade, found := c.byName[name]
	return clade, ok && found
}

// Reconcile labels every binary node of tree with "<clade id>_<D|S>_<consistency>"
// and returns the sequence pairs joined by nodes that fall in a clade. Leaves missing
// from seqToSpecies are ignored. Other nodes with children are left untouched.
func (c *Catalogue) Reconcile(label string, tree *Node, seqToSpecies map[string]string) Reconciliation {
	var rec Reconciliation

	tree.Walk(func(n *Node) {
		if n.IsLeaf() {
			return
		}
		if len(n.Children) != 2 {
			logger.Warn("Skipping node, can only reconcile binary nodes",
				zap.String("tree", label),
				zap.Int("children", len(n.Children)))
			rec.Skipped++
			return
		}

		seqOne := knownSequences(n.Children[0].LeafNames(), seqToSpecies)
		seqTwo := knownSequences(n.Children[1].LeafNames(), seqToSpecies)

		speciesOne := speciesOf(seqOne, seqToSpecies)
		speciesTwo := speciesOf(seqTwo, seqToSpecies)
		all := append(append([]string{}, speciesOne...), speciesTwo...)

		clade, hasClade := c.Clade(all)
		duplication := IsDuplication(speciesOne, speciesTwo)

		var cladeID int64
		if hasClade {
			cladeID = clade.ID
		}

		consistency := 0.0
		if duplication {
			consistency = DuplicationConsistency(speciesOne, speciesTwo)
			n.Name = fmt.Sprintf("%d_D_%s", cladeID, FormatScore(consistency))
		} else {
			n.Name = fmt.Sprintf("%d_S_0", cladeID)
		}
		rec.Labelled++

		if !hasClade {
			return
		}
		for _, a := range seqOne {
			for _, b := range seqTwo {
				rec.Associations = append(rec.Associations,
					Association{SequenceOne: a, SequenceTwo: b, CladeID: cladeID, Duplication: duplication, Consistency: consistency},
					Association{SequenceOne: b, SequenceTwo: a, CladeID: cladeID, Duplication: duplication, Consistency: consistency},
				)
			}
		}
	})

	return rec
}

func knownSequences(names []string, seqToSpecies map[string]string) []string {
	known := names[:0]
	for _, name := range names {
		if _, ok := seqToSpecies[name]; ok {
			known = append(known, name)
		}
	}
	return known
}

// speciesOf returns the distinct species of sequences, sorted.
func speciesOf(sequences []string, seqToSpecies map[string]string) []string {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, s := range sequences {
		set.Add(seqToSpecies[s])
	}
	return mapset.Sorted(set)
}

func speciesKey(species []string) string {
	return strings.Join(mapset.Sorted(mapset.NewThreadUnsafeSet(species...)), "\x00")
}
