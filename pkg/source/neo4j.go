package source

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
	"github.com/ritzau/ic-analyzer/pkg/config"
	"github.com/ritzau/ic-analyzer/pkg/logging"
	"github.com/ritzau/ic-analyzer/pkg/model"
)

const (
	nodesQuery = `
		MATCH (n)
		WHERE n.id IS NOT NULL
		RETURN n.id AS id,
		       coalesce(n.node_type, n.type, head(labels(n))) AS type,
		       coalesce(n.name, n.label, '') AS label
	`
	edgesQuery = `
		MATCH (a)-[r]->(b)
		WHERE a.id IS NOT NULL AND b.id IS NOT NULL
		RETURN a.id AS source, b.id AS target, type(r) AS type
	`
)

// GraphClient reads nodes and relations from a graph database
type GraphClient interface {
	Nodes(ctx context.Context) ([]*model.Node, error)
	Edges(ctx context.Context) ([]*model.Edge, error)
	Close() error
}

// Neo4jSource reads the ontology from a Neo4j database
type Neo4jSource struct {
	connect func(cfg config.Neo4jConfig) (GraphClient, error)
}

// NewNeo4jSource creates a new Neo4j source
func NewNeo4jSource() Source {
	return &Neo4jSource{connect: NewNeo4jClient}
}

func (s *Neo4jSource) Name() string {
	return "Neo4j"
}

func (s *Neo4jSource) Load(ctx context.Context, cfg *config.Config) (*model.Graph, error) {
	logger := logging.New("source.neo4j")
	logger.Info("Reading graph from Neo4j", "uri", cfg.Neo4j.URI, "database", cfg.Neo4j.Database)

	client, err := s.connect(cfg.Neo4j)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	nodes, err := client.Nodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading nodes: %w", err)
	}
	edges, err := client.Edges(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading relations: %w", err)
	}

	graph := model.NewGraph()
	for _, node := range nodes {
		graph.AddNode(node)
	}
	for _, edge := range edges {
		graph.AddEdge(edge)
	}

	logger.Info("Neo4j graph loaded", "nodes", len(graph.Nodes), "edges", len(graph.Edges))
	return graph, nil
}

// Neo4jClient implements GraphClient with the Neo4j driver
type Neo4jClient struct {
	driver   neo4j.Driver
	database string
}

// NewNeo4jClient connects to the configured Neo4j instance
func NewNeo4jClient(cfg config.Neo4jConfig) (GraphClient, error) {
	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	driver, err := neo4j.NewDriver(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(); err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}

	return &Neo4jClient{driver: driver, database: cfg.Database}, nil
}

func (c *Neo4jClient) read(ctx context.Context, query string, each func(*neo4j.Record) error) error {
	session := c.driver.NewSession(neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
	defer func() { _ = session.Close() }()

	_, err := session.ReadTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		result, err := tx.Run(query, nil)
		if err != nil {
			return nil, err
		}
		for result.Next() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := each(result.Record()); err != nil {
				return nil, err
			}
		}
		return nil, result.Err()
	})
	return err
}

// Nodes implements GraphClient
func (c *Neo4jClient) Nodes(ctx context.Context) ([]*model.Node, error) {
	var nodes []*model.Node
	err := c.read(ctx, nodesQuery, func(record *neo4j.Record) error {
		id, err := stringValue(record, "id")
		if err != nil {
			return err
		}
		nodeType, err := stringValue(record, "type")
		if err != nil {
			return err
		}
		label, _ := stringValue(record, "label")
		nodes = append(nodes, &model.Node{ID: id, Type: model.NodeType(nodeType), Label: label})
		return nil
	})
	return nodes, err
}

// Edges implements GraphClient
func (c *Neo4jClient) Edges(ctx context.Context) ([]*model.Edge, error) {
	var edges []*model.Edge
	err := c.read(ctx, edgesQuery, func(record *neo4j.Record) error {
		source, err := stringValue(record, "source")
		if err != nil {
			return err
		}
		target, err := stringValue(record, "target")
		if err != nil {
			return err
		}
		relType, _ := stringValue(record, "type")
		edges = append(edges, &model.Edge{Source: source, Target: target, Type: relType})
		return nil
	})
	return edges, err
}

// Close implements GraphClient
func (c *Neo4jClient) Close() error {
	return c.driver.Close()
}

func stringValue(record *neo4j.Record, key string) (string, error) {
	value, ok := record.Get(key)
	if !ok {
		return "", fmt.Errorf("record has no %q", key)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%q is %T, not a string", key, value)
	}
	return s, nil
}
