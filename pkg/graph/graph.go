// Package graph stores the net signed debt between unordered pairs of
// persons.
//
// Each unordered pair {a,b} occupies a single cell keyed by the sorted
// pair (lo, hi). The stored weight w follows one convention: w > 0 means
// hi owes lo. Directional reads and writes flip the sign as needed, so
// (a,b) and (b,a) are two views of the same cell and skew-symmetry
// Get(a,b) == -Get(b,a) holds by construction.
package graph

import (
	"fmt"
	"sort"

	"github.com/quirinpa/sem/pkg/model"
)

type pair struct {
	lo, hi model.PersonID
}

// Edge is one non-zero debt graph cell in canonical (lo, hi) form.
type Edge struct {
	Lo    model.PersonID
	Hi    model.PersonID
	Cents model.Cents
}

// Graph is the debt graph. Cells are created lazily on first write.
type Graph struct {
	edges map[pair]model.Cents
}

// New returns an empty debt graph.
func New() *Graph {
	return &Graph{edges: make(map[pair]model.Cents)}
}

func canon(from, to model.PersonID) (pair, model.Cents) {
	if from == to {
		panic(fmt.Sprintf("graph: self edge for person %d", from))
	}
	if from > to {
		return pair{to, from}, -1
	}
	return pair{from, to}, 1
}

// Get returns the signed debt from one person toward another, 0 when no
// cell exists. Reading in the opposite direction negates the value.
func (g *Graph) Get(from, to model.PersonID) model.Cents {
	p, sign := canon(from, to)
	return sign * g.edges[p]
}

// Add applies a signed increment to the pair's cell. Additivity holds:
// after Add(a, b, v), Get(a, b) is its previous value plus v.
func (g *Graph) Add(from, to model.PersonID, v model.Cents) {
	p, sign := canon(from, to)
	g.edges[p] += sign * v
}

// NonZero returns every cell with a non-zero weight, sorted by (lo, hi)
// so that iteration order is deterministic for a given input.
func (g *Graph) NonZero() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for p, w := range g.edges {
		if w != 0 {
			out = append(out, Edge{Lo: p.lo, Hi: p.hi, Cents: w})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lo != out[j].Lo {
			return out[i].Lo < out[j].Lo
		}
		return out[i].Hi < out[j].Hi
	})
	return out
}
