package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ritzau/ic-analyzer/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	// ErrUnknownNode is returned when a node id is not part of the graph
	ErrUnknownNode = errors.New("unknown node")
	// ErrTypeConflict is returned when a node is re-added with a different type
	ErrTypeConflict = errors.New("node type conflict")
)

// Ontology is a directed graph of typed ontology terms.
// Node ids are assigned in insertion order, which is also the order
// neighbours are reported in.
type Ontology struct {
	graph     *simple.DirectedGraph
	ids       map[string]int64 // Map from term id to graph ID
	terms     []string         // Graph ID -> term id
	types     []model.NodeType // Graph ID -> node type
	selfLoops map[int64]bool   // simple.DirectedGraph rejects self edges
}

// NewOntology creates a new empty ontology graph
func NewOntology() *Ontology {
	return &Ontology{
		graph:     simple.NewDirectedGraph(),
		ids:       make(map[string]int64),
		terms:     make([]string, 0),
		types:     make([]model.NodeType, 0),
		selfLoops: make(map[int64]bool),
	}
}

// AddTerm adds a typed node to the graph
func (o *Ontology) AddTerm(id string, nodeType model.NodeType) error {
	if existing, exists := o.ids[id]; exists {
		if o.types[existing] != nodeType {
			return fmt.Errorf("%w: %s is %s, not %s", ErrTypeConflict, id, o.types[existing], nodeType)
		}
		return nil
	}

	nodeID := int64(len(o.terms))
	o.ids[id] = nodeID
	o.terms = append(o.terms, id)
	o.types = append(o.types, nodeType)
	o.graph.AddNode(simple.Node(nodeID))

	return nil
}

// AddRelation adds a directed edge from source to target.
// Both terms must already exist in the graph.
func (o *Ontology) AddRelation(source, target string) error {
	sourceID, ok := o.ids[source]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, source)
	}
	targetID, ok := o.ids[target]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, target)
	}

	if sourceID == targetID {
		o.selfLoops[sourceID] = true
		return nil
	}

	// Add edge if it doesn't already exist
	if !o.graph.HasEdgeFromTo(sourceID, targetID) {
		o.graph.SetEdge(o.graph.NewEdge(o.graph.Node(sourceID), o.graph.Node(targetID)))
	}

	return nil
}

// Has reports whether the term is part of the graph
func (o *Ontology) Has(id string) bool {
	_, ok := o.ids[id]
	return ok
}

// Type returns the node type of a term
func (o *Ontology) Type(id string) (model.NodeType, error) {
	nodeID, ok := o.ids[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return o.types[nodeID], nil
}

// Successors returns the direct successors of a term in insertion order
func (o *Ontology) Successors(id string) ([]string, error) {
	nodeID, ok := o.ids[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	ids := make([]int64, 0)
	iter := o.graph.From(nodeID)
	for iter.Next() {
		ids = append(ids, iter.Node().ID())
	}
	if o.selfLoops[nodeID] {
		ids = append(ids, nodeID)
	}

	return o.termsFor(ids), nil
}

// Predecessors returns the direct predecessors of a term in insertion order
func (o *Ontology) Predecessors(id string) ([]string, error) {
	nodeID, ok := o.ids[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	ids := make([]int64, 0)
	iter := o.graph.To(nodeID)
	for iter.Next() {
		ids = append(ids, iter.Node().ID())
	}
	if o.selfLoops[nodeID] {
		ids = append(ids, nodeID)
	}

	return o.termsFor(ids), nil
}

func (o *Ontology) termsFor(ids []int64) []string {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	terms := make([]string, len(ids))
	for i, id := range ids {
		terms[i] = o.terms[id]
	}
	return terms
}

// Terms returns all term ids in insertion order
func (o *Ontology) Terms() []string {
	terms := make([]string, len(o.terms))
	copy(terms, o.terms)
	return terms
}

// TermsOfType returns the ids of all terms with the given type in insertion order
func (o *Ontology) TermsOfType(nodeType model.NodeType) []string {
	var terms []string
	for id, t := range o.types {
		if t == nodeType {
			terms = append(terms, o.terms[id])
		}
	}
	return terms
}

// CountOfType returns the number of terms with the given type
func (o *Ontology) CountOfType(nodeType model.NodeType) int {
	count := 0
	for _, t := range o.types {
		if t == nodeType {
			count++
		}
	}
	return count
}

// Len returns the number of terms in the graph
func (o *Ontology) Len() int {
	return len(o.terms)
}

// Edges returns all relations as [source, target] pairs, ordered by source then target
func (o *Ontology) Edges() [][2]string {
	var edges [][2]string
	for _, source := range o.terms {
		successors, _ := o.Successors(source)
		for _, target := range successors {
			edges = append(edges, [2]string{source, target})
		}
	}
	return edges
}

// FromModel builds an ontology from a graph document.
// Nodes are added in sorted id order so repeated loads yield identical graphs.
func FromModel(doc *model.Graph) (*Ontology, error) {
	o := NewOntology()

	ids := make([]string, 0, len(doc.Nodes))
	for id := range doc.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node := doc.Nodes[id]
		if node.Type == "" {
			return nil, fmt.Errorf("node %s has no type", id)
		}
		if err := o.AddTerm(id, node.Type); err != nil {
			return nil, err
		}
	}

	for _, edge := range doc.Edges {
		if err := o.AddRelation(edge.Source, edge.Target); err != nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", edge.Source, edge.Target, err)
		}
	}

	return o, nil
}
