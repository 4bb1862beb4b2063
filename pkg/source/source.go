// Package source loads ontology graphs from files or a graph database.
package source

import (
	"context"
	"errors"

	"github.com/ritzau/ic-analyzer/pkg/config"
	"github.com/ritzau/ic-analyzer/pkg/model"
)

// ErrNoSource is returned when the configuration names no graph source
var ErrNoSource = errors.New("no graph source configured")

// Source represents a place the ontology graph can be read from.
// Implementations encapsulate how the data is gathered and transform it
// into the unified Graph model.
type Source interface {
	// Name returns the unique name of the source (e.g., "Tables", "Neo4j").
	Name() string

	// Load reads the graph. It should respect the context for cancellation.
	Load(ctx context.Context, cfg *config.Config) (*model.Graph, error)
}

// ForConfig selects the source described by the configuration
func ForConfig(cfg *config.Config) (Source, error) {
	switch {
	case cfg.Nodes != "" && cfg.Edges != "":
		return NewTableSource(), nil
	case cfg.Graph != "":
		return NewDocumentSource(), nil
	case cfg.Neo4j.URI != "":
		return NewNeo4jSource(), nil
	default:
		return nil, ErrNoSource
	}
}

// Paths returns the local graph files a configuration reads. Label files are not included.
func Paths(cfg *config.Config) []string {
	var paths []string
	for _, p := range []string{cfg.Nodes, cfg.Edges, cfg.Graph} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
