package source

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ritzau/ic-analyzer/pkg/config"
	"github.com/ritzau/ic-analyzer/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForConfig(t *testing.T) {
	s, err := ForConfig(&config.Config{Nodes: "n.tsv", Edges: "e.tsv"})
	require.NoError(t, err)
	assert.Equal(t, "Tables", s.Name())

	s, err = ForConfig(&config.Config{Graph: "g.json"})
	require.NoError(t, err)
	assert.Equal(t, "Document", s.Name())

	s, err = ForConfig(&config.Config{Neo4j: config.Neo4jConfig{URI: "bolt://localhost:7687"}})
	require.NoError(t, err)
	assert.Equal(t, "Neo4j", s.Name())

	_, err = ForConfig(&config.Config{})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestPaths(t *testing.T) {
	cfg := &config.Config{Nodes: "n.tsv", Edges: "e.tsv", Labels: []string{"hp.json"}}
	assert.Equal(t, []string{"n.tsv", "e.tsv"}, Paths(cfg))
	assert.Empty(t, Paths(&config.Config{Neo4j: config.Neo4jConfig{URI: "bolt://localhost:7687"}}))
}

func TestTableSourceLoad(t *testing.T) {
	cfg := &config.Config{Nodes: "testdata/nodes.tsv", Edges: "testdata/edges.tsv"}

	graph, err := NewTableSource().Load(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, graph.Nodes, 3)
	assert.Equal(t, model.NodeTypeDisease, graph.Nodes["MONDO:1"].Type)
	assert.Equal(t, "Seizure", graph.Nodes["HP:2"].Label)

	require.Len(t, graph.Edges, 2)
	assert.Equal(t, &model.Edge{Source: "HP:2", Target: "HP:1", Type: "is_a"}, graph.Edges[0])
}

func TestTableSourceRejectsDanglingEdges(t *testing.T) {
	cfg := &config.Config{Nodes: "testdata/nodes.tsv", Edges: "testdata/dangling_edges.tsv"}

	_, err := NewTableSource().Load(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONDO:404")
}

func TestTableSourceMissingFile(t *testing.T) {
	cfg := &config.Config{Nodes: "testdata/nope.tsv", Edges: "testdata/edges.tsv"}

	_, err := NewTableSource().Load(context.Background(), cfg)
	assert.Error(t, err)
}

func TestParseNodesErrors(t *testing.T) {
	_, err := ParseNodes(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ParseNodes(strings.NewReader("name\tkind\nA\tPhenotype\n"))
	assert.ErrorContains(t, err, `"type"`)

	_, err = ParseNodes(strings.NewReader("id\ttype\nA\t\n"))
	assert.ErrorContains(t, err, "row 2")

	nodes, err := ParseNodes(strings.NewReader("# comment\nid\ttype\nA\tPhenotype\n"))
	require.NoError(t, err)
	assert.Equal(t, "A", nodes[0].ID)
}

func TestParseEdgesErrors(t *testing.T) {
	_, err := ParseEdges(strings.NewReader("from\tobject\nA\tB\n"))
	assert.ErrorContains(t, err, `"subject"`)

	_, err = ParseEdges(strings.NewReader("subject\tobject\nA\n"))
	assert.ErrorContains(t, err, "row 2")
}

func TestDocumentSourceYAML(t *testing.T) {
	graph, err := NewDocumentSource().Load(context.Background(), &config.Config{Graph: "testdata/graph.yaml"})
	require.NoError(t, err)

	require.Len(t, graph.Nodes, 3)
	assert.Equal(t, "HP:1", graph.Nodes["HP:1"].ID)
	assert.Equal(t, "Abnormality", graph.Nodes["HP:1"].Label)
	assert.Len(t, graph.Edges, 2)
}

func TestDecodeDocument(t *testing.T) {
	doc := `{"nodes": {"A": {"type": "Phenotype"}, "D": {"id": "D", "type": "Disease"}}, "edges": [{"source": "A", "target": "D"}]}`
	graph, err := DecodeDocument([]byte(doc), ".JSON")
	require.NoError(t, err)
	assert.Equal(t, "A", graph.Nodes["A"].ID)

	_, err = DecodeDocument([]byte(`{"nodes": {"A": {"id": "B", "type": "Phenotype"}}}`), ".json")
	assert.ErrorContains(t, err, "does not match")

	_, err = DecodeDocument([]byte(`a,b`), ".csv")
	assert.ErrorContains(t, err, "unsupported")

	empty, err := DecodeDocument([]byte(`{}`), ".json")
	require.NoError(t, err)
	assert.NotNil(t, empty.Nodes)
}

type mockClient struct {
	nodes  []*model.Node
	edges  []*model.Edge
	err    error
	closed bool
}

func (m *mockClient) Nodes(ctx context.Context) ([]*model.Node, error) { return m.nodes, m.err }
func (m *mockClient) Edges(ctx context.Context) ([]*model.Edge, error) { return m.edges, m.err }
func (m *mockClient) Close() error {
	m.closed = true
	return nil
}

func TestNeo4jSourceLoad(t *testing.T) {
	client := &mockClient{
		nodes: []*model.Node{
			{ID: "HP:1", Type: model.NodeTypePhenotype},
			{ID: "MONDO:1", Type: model.NodeTypeDisease},
		},
		edges: []*model.Edge{{Source: "HP:1", Target: "MONDO:1", Type: "ASSOCIATED_WITH"}},
	}
	source := &Neo4jSource{connect: func(config.Neo4jConfig) (GraphClient, error) { return client, nil }}

	graph, err := source.Load(context.Background(), &config.Config{Neo4j: config.Neo4jConfig{URI: "bolt://test"}})
	require.NoError(t, err)

	assert.Len(t, graph.Nodes, 2)
	assert.Len(t, graph.Edges, 1)
	assert.True(t, client.closed)
}

func TestNeo4jSourceErrors(t *testing.T) {
	source := &Neo4jSource{connect: func(config.Neo4jConfig) (GraphClient, error) {
		return nil, errors.New("connection refused")
	}}
	_, err := source.Load(context.Background(), &config.Config{})
	assert.ErrorContains(t, err, "connection refused")

	client := &mockClient{err: errors.New("query failed")}
	source = &Neo4jSource{connect: func(config.Neo4jConfig) (GraphClient, error) { return client, nil }}
	_, err = source.Load(context.Background(), &config.Config{})
	assert.ErrorContains(t, err, "reading nodes")
	assert.True(t, client.closed)
}
