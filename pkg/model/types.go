package model

// NodeType is the type label carried by every ontology node
type NodeType string

const (
	NodeTypeDisease   NodeType = "Disease"
	NodeTypePhenotype NodeType = "Phenotype"
	NodeTypePerson    NodeType = "Person"
)

// IsDisease returns true if the type labels a disease node
func (t NodeType) IsDisease() bool {
	return t == NodeTypeDisease
}

func (t NodeType) String() string {
	return string(t)
}
