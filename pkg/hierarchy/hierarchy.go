// Package hierarchy derives the parent/child structure among terms of one type.
package hierarchy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ritzau/ic-analyzer/pkg/graph"
	"github.com/ritzau/ic-analyzer/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrUnorderable is wrapped by UnorderableError
var ErrUnorderable = errors.New("hierarchy cannot be ordered")

// UnorderableError lists the terms that could not be placed in a
// children-first order because they depend on a cycle.
type UnorderableError struct {
	Remaining []string
}

func (e *UnorderableError) Error() string {
	preview := e.Remaining
	if len(preview) > 5 {
		preview = preview[:5]
	}
	return fmt.Sprintf("%d terms never had all children processed (%s)", len(e.Remaining), strings.Join(preview, ", "))
}

func (e *UnorderableError) Unwrap() error {
	return ErrUnorderable
}

// Hierarchy holds the children and parents of every term of one type.
// Children are the same-typed predecessors of a term, parents the same-typed successors.
type Hierarchy struct {
	Type     model.NodeType
	terms    []string
	index    map[string]int
	children map[string][]string
	parents  map[string][]string
}

func newHierarchy(nodeType model.NodeType, terms []string) *Hierarchy {
	h := &Hierarchy{
		Type:     nodeType,
		terms:    terms,
		index:    make(map[string]int, len(terms)),
		children: make(map[string][]string, len(terms)),
		parents:  make(map[string][]string, len(terms)),
	}
	for i, term := range terms {
		h.index[term] = i
		h.children[term] = []string{}
		h.parents[term] = []string{}
	}
	return h
}

// Derive builds the hierarchy for nodeType from the raw edges of the graph.
func Derive(g *graph.Ontology, nodeType model.NodeType) (*Hierarchy, error) {
	h := newHierarchy(nodeType, g.TermsOfType(nodeType))

	for _, term := range h.terms {
		predecessors, err := g.Predecessors(term)
		if err != nil {
			return nil, err
		}
		children, err := sameType(g, predecessors, nodeType)
		if err != nil {
			return nil, err
		}

		successors, err := g.Successors(term)
		if err != nil {
			return nil, err
		}
		parents, err := sameType(g, successors, nodeType)
		if err != nil {
			return nil, err
		}

		h.children[term] = children
		h.parents[term] = parents
	}

	return h, nil
}

// sameType filters neighbours down to nodeType. The graph already collapses multi-edges.
func sameType(g *graph.Ontology, neighbours []string, nodeType model.NodeType) ([]string, error) {
	result := make([]string, 0, len(neighbours))
	for _, n := range neighbours {
		t, err := g.Type(n)
		if err != nil {
			return nil, err
		}
		if t == nodeType {
			result = append(result, n)
		}
	}
	return result, nil
}

// Terms returns the hierarchy terms in graph order
func (h *Hierarchy) Terms() []string {
	terms := make([]string, len(h.terms))
	copy(terms, h.terms)
	return terms
}

// Len returns the number of hierarchy terms
func (h *Hierarchy) Len() int {
	return len(h.terms)
}

// Has reports whether term belongs to the hierarchy
func (h *Hierarchy) Has(term string) bool {
	_, ok := h.index[term]
	return ok
}

// Children returns the direct children of a term
func (h *Hierarchy) Children(term string) []string {
	return h.children[term]
}

// Parents returns the direct parents of a term
func (h *Hierarchy) Parents(term string) []string {
	return h.parents[term]
}

// Leaves returns the terms without children
func (h *Hierarchy) Leaves() []string {
	var leaves []string
	for _, term := range h.terms {
		if len(h.children[term]) == 0 {
			leaves = append(leaves, term)
		}
	}
	return leaves
}

// Order returns the terms so that every term comes after all of its children.
// Leaves are peeled first; a parent joins the order once its last child has.
func (h *Hierarchy) Order() ([]string, error) {
	remaining := make(map[string]int, len(h.terms))
	queue := make([]string, 0, len(h.terms))
	for _, term := range h.terms {
		remaining[term] = len(h.children[term])
		if remaining[term] == 0 {
			queue = append(queue, term)
		}
	}

	order := make([]string, 0, len(h.terms))
	for len(queue) > 0 {
		term := queue[0]
		queue = queue[1:]
		order = append(order, term)

		for _, parent := range h.parents[term] {
			remaining[parent]--
			if remaining[parent] == 0 {
				queue = append(queue, parent)
			}
		}
	}

	if len(order) != len(h.terms) {
		var unvisited []string
		for _, term := range h.terms {
			if remaining[term] > 0 {
				unvisited = append(unvisited, term)
			}
		}
		return order, &UnorderableError{Remaining: unvisited}
	}

	return order, nil
}

// Graph returns the hierarchy as a gonum graph with child -> parent edges.
// Node ids are the term positions in Terms(). Self loops are not representable
// and must be read from Children.
func (h *Hierarchy) Graph() *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for i := range h.terms {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, term := range h.terms {
		from := int64(h.index[term])
		for _, parent := range h.parents[term] {
			to := int64(h.index[parent])
			if from == to {
				continue
			}
			g.SetEdge(g.NewEdge(g.Node(from), g.Node(to)))
		}
	}
	return g
}

// TermAt returns the term for a node id of Graph()
func (h *Hierarchy) TermAt(id int64) string {
	return h.terms[id]
}

// Components splits the hierarchy into weakly connected components.
// Each component lists its terms in graph order; components are ordered by their first term.
func (h *Hierarchy) Components() [][]string {
	undirected := simple.NewUndirectedGraph()
	for i := range h.terms {
		undirected.AddNode(simple.Node(int64(i)))
	}
	for _, term := range h.terms {
		from := int64(h.index[term])
		for _, parent := range h.parents[term] {
			to := int64(h.index[parent])
			if from == to || undirected.HasEdgeBetween(from, to) {
				continue
			}
			undirected.SetEdge(undirected.NewEdge(undirected.Node(from), undirected.Node(to)))
		}
	}

	components := make([][]string, 0)
	for _, nodes := range topo.ConnectedComponents(undirected) {
		ids := make([]int64, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ID()
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		component := make([]string, len(ids))
		for i, id := range ids {
			component[i] = h.terms[id]
		}
		components = append(components, component)
	}

	sort.Slice(components, func(i, j int) bool {
		return h.index[components[i][0]] < h.index[components[j][0]]
	})
	return components
}

// Split returns one sub-hierarchy per weakly connected component, in the order of Components.
// Relations never cross components, so every sub-hierarchy keeps all relations of its terms.
func (h *Hierarchy) Split() []*Hierarchy {
	components := h.Components()
	subs := make([]*Hierarchy, len(components))
	for i, component := range components {
		sub := newHierarchy(h.Type, component)
		for _, term := range component {
			sub.children[term] = append(sub.children[term], h.children[term]...)
			sub.parents[term] = append(sub.parents[term], h.parents[term]...)
		}
		subs[i] = sub
	}
	return subs
}
