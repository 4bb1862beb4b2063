package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ritzau/ic-analyzer/pkg/config"
	"github.com/ritzau/ic-analyzer/pkg/logging"
	"github.com/ritzau/ic-analyzer/pkg/model"
)

// TableSource reads a nodes table and an edges table.
//
// Nodes: tab separated with a header containing "name" (or "id") and "type",
// optionally "label". Edges: header with "subject" and "object", optionally
// "predicate".
type TableSource struct{}

// NewTableSource creates a new table source
func NewTableSource() Source {
	return &TableSource{}
}

func (s *TableSource) Name() string {
	return "Tables"
}

func (s *TableSource) Load(ctx context.Context, cfg *config.Config) (*model.Graph, error) {
	logger := logging.New("source.tables")
	logger.Info("Loading graph tables", "nodes", cfg.Nodes, "edges", cfg.Edges)

	nodes, err := readFile(cfg.Nodes, ParseNodes)
	if err != nil {
		return nil, fmt.Errorf("reading nodes: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	edges, err := readFile(cfg.Edges, ParseEdges)
	if err != nil {
		return nil, fmt.Errorf("reading edges: %w", err)
	}

	graph := model.NewGraph()
	for _, node := range nodes {
		graph.AddNode(node)
	}
	for _, edge := range edges {
		// Every endpoint needs a typed node
		for _, id := range []string{edge.Source, edge.Target} {
			if _, ok := graph.Nodes[id]; !ok {
				return nil, fmt.Errorf("edge %s -> %s references unknown node %s", edge.Source, edge.Target, id)
			}
		}
		graph.AddEdge(edge)
	}

	logger.Info("Graph tables loaded", "nodes", len(graph.Nodes), "edges", len(graph.Edges))
	return graph, nil
}

func readFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return parse(file)
}

// ParseNodes parses a tab separated nodes table
func ParseNodes(r io.Reader) ([]*model.Node, error) {
	rows, columns, err := readTable(r)
	if err != nil {
		return nil, err
	}

	idCol, ok := columns["name"]
	if !ok {
		idCol, ok = columns["id"]
	}
	if !ok {
		return nil, errors.New(`nodes table has no "name" or "id" column`)
	}
	typeCol, ok := columns["type"]
	if !ok {
		return nil, errors.New(`nodes table has no "type" column`)
	}
	labelCol, hasLabel := columns["label"]

	nodes := make([]*model.Node, 0, len(rows))
	for i, row := range rows {
		id := field(row, idCol)
		nodeType := field(row, typeCol)
		if id == "" || nodeType == "" {
			return nil, fmt.Errorf("nodes row %d: empty id or type", i+2)
		}
		node := &model.Node{ID: id, Type: model.NodeType(nodeType)}
		if hasLabel {
			node.Label = field(row, labelCol)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// ParseEdges parses a tab separated edges table
func ParseEdges(r io.Reader) ([]*model.Edge, error) {
	rows, columns, err := readTable(r)
	if err != nil {
		return nil, err
	}

	subjectCol, ok := columns["subject"]
	if !ok {
		return nil, errors.New(`edges table has no "subject" column`)
	}
	objectCol, ok := columns["object"]
	if !ok {
		return nil, errors.New(`edges table has no "object" column`)
	}
	predicateCol, hasPredicate := columns["predicate"]

	edges := make([]*model.Edge, 0, len(rows))
	for i, row := range rows {
		edge := &model.Edge{Source: field(row, subjectCol), Target: field(row, objectCol)}
		if edge.Source == "" || edge.Target == "" {
			return nil, fmt.Errorf("edges row %d: empty subject or object", i+2)
		}
		if hasPredicate {
			edge.Type = field(row, predicateCol)
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

// readTable returns the data rows and a column index keyed by lower-cased header name
func readTable(r io.Reader) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.Comment = '#'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("table is empty")
	}
	if err != nil {
		return nil, nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return rows, columns, nil
}

func field(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
