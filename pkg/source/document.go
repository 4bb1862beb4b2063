package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ritzau/ic-analyzer/pkg/config"
	"github.com/ritzau/ic-analyzer/pkg/logging"
	"github.com/ritzau/ic-analyzer/pkg/model"
	"gopkg.in/yaml.v3"
)

// DocumentSource reads a whole graph from one JSON or YAML document
type DocumentSource struct{}

// NewDocumentSource creates a new document source
func NewDocumentSource() Source {
	return &DocumentSource{}
}

func (s *DocumentSource) Name() string {
	return "Document"
}

func (s *DocumentSource) Load(ctx context.Context, cfg *config.Config) (*model.Graph, error) {
	logger := logging.New("source.document")
	logger.Info("Loading graph document", "path", cfg.Graph)

	data, err := os.ReadFile(cfg.Graph)
	if err != nil {
		return nil, err
	}

	graph, err := DecodeDocument(data, filepath.Ext(cfg.Graph))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", cfg.Graph, err)
	}

	logger.Info("Graph document loaded", "nodes", len(graph.Nodes), "edges", len(graph.Edges))
	return graph, nil
}

// DecodeDocument decodes a graph document. ext selects the format (".json", ".yaml", ".yml").
// Nodes without an explicit id take their map key.
func DecodeDocument(data []byte, ext string) (*model.Graph, error) {
	graph := model.NewGraph()

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, graph); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, graph); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported graph document format %q", ext)
	}

	if graph.Nodes == nil {
		graph.Nodes = make(map[string]*model.Node)
	}
	for id, node := range graph.Nodes {
		if node == nil {
			return nil, fmt.Errorf("node %s is empty", id)
		}
		if node.ID == "" {
			node.ID = id
		}
		if node.ID != id {
			return nil, fmt.Errorf("node key %s does not match id %s", id, node.ID)
		}
	}
	return graph, nil
}
