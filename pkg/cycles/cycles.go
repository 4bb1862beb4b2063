package cycles

import (
	"sort"

	"github.com/ritzau/ic-analyzer/pkg/hierarchy"
	"gonum.org/v1/gonum/graph/topo"
)

// Cycle represents a set of hierarchy terms that are mutually descendants of each other
type Cycle struct {
	Terms []string // Sorted term ids in the cycle
}

// Find finds all cycles in the child/parent relation of a hierarchy.
// A term that is its own child forms a cycle of length one.
func Find(h *hierarchy.Hierarchy) []Cycle {
	cycles := make([]Cycle, 0)

	sccs := topo.TarjanSCC(h.Graph())
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}

		// Convert node IDs back to term ids
		terms := make([]string, 0, len(scc))
		for _, node := range scc {
			terms = append(terms, h.TermAt(node.ID()))
		}
		sort.Strings(terms)
		cycles = append(cycles, Cycle{Terms: terms})
	}

	for _, term := range h.Terms() {
		for _, child := range h.Children(term) {
			if child == term {
				cycles = append(cycles, Cycle{Terms: []string{term}})
				break
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Terms[0] < cycles[j].Terms[0]
	})
	return cycles
}

// Terms returns the union of all terms taking part in a cycle
func Terms(cycles []Cycle) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, c := range cycles {
		for _, term := range c.Terms {
			if !seen[term] {
				seen[term] = true
				terms = append(terms, term)
			}
		}
	}
	sort.Strings(terms)
	return terms
}
