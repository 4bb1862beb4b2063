package model

import "testing"

func TestGraphAddNodeInitialisesMetadata(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "HP:1", Type: NodeTypePhenotype})

	node, ok := g.Nodes["HP:1"]
	if !ok {
		t.Fatal("node HP:1 not found")
	}
	if node.Metadata == nil {
		t.Error("Expected metadata to be initialised")
	}
}

func TestGraphMerge(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "HP:1", Type: NodeTypePhenotype, Label: "old"})
	g.AddEdge(&Edge{Source: "HP:1", Target: "D:1"})

	other := NewGraph()
	other.AddNode(&Node{ID: "HP:1", Type: NodeTypePhenotype, Label: "new"})
	other.AddNode(&Node{ID: "D:1", Type: NodeTypeDisease})
	other.AddEdge(&Edge{Source: "HP:2", Target: "HP:1"})

	g.Merge(other)

	if len(g.Nodes) != 2 {
		t.Errorf("Expected 2 nodes, got %d", len(g.Nodes))
	}
	if g.Nodes["HP:1"].Label != "new" {
		t.Errorf("Expected later node to win, got label %q", g.Nodes["HP:1"].Label)
	}
	if len(g.Edges) != 2 {
		t.Errorf("Expected 2 edges, got %d", len(g.Edges))
	}

	g.Merge(nil)
	if len(g.Edges) != 2 {
		t.Errorf("Merging nil should be a no-op, got %d edges", len(g.Edges))
	}
}

func TestGraphCountByType(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "D:1", Type: NodeTypeDisease})
	g.AddNode(&Node{ID: "D:2", Type: NodeTypeDisease})
	g.AddNode(&Node{ID: "HP:1", Type: NodeTypePhenotype})

	counts := g.CountByType()
	if counts[NodeTypeDisease] != 2 {
		t.Errorf("Expected 2 diseases, got %d", counts[NodeTypeDisease])
	}
	if counts[NodeTypePhenotype] != 1 {
		t.Errorf("Expected 1 phenotype, got %d", counts[NodeTypePhenotype])
	}
	if !NodeTypeDisease.IsDisease() || NodeTypePerson.IsDisease() {
		t.Error("IsDisease returned wrong result")
	}
}
