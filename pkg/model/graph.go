package model

// Graph is the serialisable form of an ontology graph.
// It is produced by graph sources and consumed by the ontology builder.
type Graph struct {
	Nodes map[string]*Node `json:"nodes" yaml:"nodes"`
	Edges []*Edge          `json:"edges" yaml:"edges"`
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make([]*Edge, 0),
	}
}

// Node represents a concept in the ontology.
// It can represent a disease, a phenotypic term or a person.
type Node struct {
	ID       string                 `json:"id" yaml:"id"`
	Label    string                 `json:"label,omitempty" yaml:"label,omitempty"`
	Type     NodeType               `json:"type" yaml:"type"`
	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Edge represents a directed relation between two nodes.
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"` // e.g., "is_a", "has_phenotype"
}

// AddNode adds a node to the graph. If a node with the same ID exists, it updates it.
func (g *Graph) AddNode(node *Node) {
	if node.Metadata == nil {
		node.Metadata = make(map[string]interface{})
	}
	g.Nodes[node.ID] = node
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(edge *Edge) {
	g.Edges = append(g.Edges, edge)
}

// Merge folds other into g. Nodes from other replace nodes with the same ID.
func (g *Graph) Merge(other *Graph) {
	if other == nil {
		return
	}
	for _, node := range other.Nodes {
		g.AddNode(node)
	}
	g.Edges = append(g.Edges, other.Edges...)
}

// CountByType returns the number of nodes per type
func (g *Graph) CountByType() map[NodeType]int {
	counts := make(map[NodeType]int)
	for _, node := range g.Nodes {
		counts[node.Type]++
	}
	return counts
}
