package cycles

import (
	"testing"

	"github.com/ritzau/ic-analyzer/pkg/graph"
	"github.com/ritzau/ic-analyzer/pkg/hierarchy"
	"github.com/ritzau/ic-analyzer/pkg/model"
)

// phenotypeHierarchy builds a hierarchy where every edge points from child to parent
func phenotypeHierarchy(t *testing.T, terms []string, edges [][2]string) *hierarchy.Hierarchy {
	t.Helper()

	g := graph.NewOntology()
	for _, term := range terms {
		if err := g.AddTerm(term, model.NodeTypePhenotype); err != nil {
			t.Fatalf("AddTerm(%s) error = %v", term, err)
		}
	}
	for _, e := range edges {
		if err := g.AddRelation(e[0], e[1]); err != nil {
			t.Fatalf("AddRelation(%s, %s) error = %v", e[0], e[1], err)
		}
	}

	h, err := hierarchy.Derive(g, model.NodeTypePhenotype)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	return h
}

func TestFind_NoCycles(t *testing.T) {
	// A simple acyclic chain: C is_a B is_a A
	h := phenotypeHierarchy(t, []string{"A", "B", "C"}, [][2]string{{"C", "B"}, {"B", "A"}})

	cycles := Find(h)

	if len(cycles) != 0 {
		t.Errorf("Expected no cycles, but found %d", len(cycles))
	}
}

func TestFind_SimpleCycle(t *testing.T) {
	// Each term is the other's child
	h := phenotypeHierarchy(t, []string{"A", "B"}, [][2]string{{"A", "B"}, {"B", "A"}})

	cycles := Find(h)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}

	cycle := cycles[0]
	if len(cycle.Terms) != 2 {
		t.Errorf("Expected cycle of length 2, got %d", len(cycle.Terms))
	}
	if cycle.Terms[0] != "A" || cycle.Terms[1] != "B" {
		t.Errorf("Expected cycle to contain A and B, got %v", cycle.Terms)
	}
}

func TestFind_SelfLoop(t *testing.T) {
	h := phenotypeHierarchy(t, []string{"A", "B"}, [][2]string{{"A", "A"}, {"B", "A"}})

	cycles := Find(h)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}
	if len(cycles[0].Terms) != 1 || cycles[0].Terms[0] != "A" {
		t.Errorf("Expected self loop on A, got %v", cycles[0].Terms)
	}
}

func TestFind_MultipleCycles(t *testing.T) {
	// Cycle 1: A -> B -> A
	// Cycle 2: C -> D -> E -> C
	h := phenotypeHierarchy(t,
		[]string{"A", "B", "C", "D", "E"},
		[][2]string{{"A", "B"}, {"B", "A"}, {"C", "D"}, {"D", "E"}, {"E", "C"}},
	)

	cycles := Find(h)

	if len(cycles) != 2 {
		t.Fatalf("Expected 2 cycles, but found %d", len(cycles))
	}

	// Cycles are sorted by their first term
	if len(cycles[0].Terms) != 2 || len(cycles[1].Terms) != 3 {
		t.Errorf("Expected a 2-term and a 3-term cycle, got %v", cycles)
	}

	terms := Terms(cycles)
	if len(terms) != 5 {
		t.Errorf("Expected 5 terms in cycles, got %v", terms)
	}
}

func TestFind_CycleWithAcyclicParts(t *testing.T) {
	// A -> B -> C is acyclic, D -> E -> D is cyclic, and F hangs below the cycle
	h := phenotypeHierarchy(t,
		[]string{"A", "B", "C", "D", "E", "F"},
		[][2]string{{"A", "B"}, {"B", "C"}, {"D", "E"}, {"E", "D"}, {"F", "D"}},
	)

	cycles := Find(h)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}
	if len(cycles[0].Terms) != 2 {
		t.Errorf("Expected cycle of length 2, got %d", len(cycles[0].Terms))
	}
}
