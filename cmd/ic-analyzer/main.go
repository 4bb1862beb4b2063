package main

import (
	"fmt"
	"os"

	"github.com/ritzau/ic-analyzer/pkg/config"
	"github.com/ritzau/ic-analyzer/pkg/logging"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ic-analyzer",
		Short: "Score ontology terms by Information Content",
		Long: `ic-analyzer loads a typed ontology graph, counts the diseases associated with
every term of a hierarchy (including its descendants) and derives Information
Content scores and linear weights from those counts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaults := config.Defaults()
	neo4j := defaults["neo4j"].(map[string]interface{})

	pf := root.PersistentFlags()
	pf.String("config", config.DefaultFile, "Path to a TOML config file")
	pf.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	pf.String("verbosity", "", "Log level: trace, debug, info, warn, error")

	pf.String("nodes", "", "Nodes table (name, type[, label]), tab separated")
	pf.String("edges", "", "Edges table (subject, object[, predicate]), tab separated")
	pf.String("graph", "", "Graph document (.json, .yaml, .yml)")
	pf.String("neo4j.uri", "", "Neo4j URI to read the graph from")
	pf.String("neo4j.user", neo4j["user"].(string), "Neo4j user")
	pf.String("neo4j.password", "", "Neo4j password")
	pf.String("neo4j.database", "", "Neo4j database")
	pf.StringSlice("labels", nil, "OBO Graphs JSON files with term names (first wins)")

	pf.String("hierarchy-type", defaults["hierarchy-type"].(string), "Node type whose hierarchy is scored")
	pf.String("annotation", defaults["annotation"].(string), "Disease annotation: transitive or direct")
	pf.Float64("scale", defaults["scale"].(float64), "Weight scale: weight = scale*IC + offset")
	pf.Float64("offset", defaults["offset"].(float64), "Weight offset")
	pf.Int("workers", defaults["workers"].(int), "Hierarchy components aggregated concurrently")
	pf.Bool("exclude-unannotated", false, "Drop terms without associated diseases from the scores")

	root.AddCommand(newScoreCmd(), newServeCmd(), newLabelsCmd())
	return root
}

// loadConfig reads the layered configuration and applies the log level
func loadConfig(cmd *cobra.Command, validate bool) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		return nil, err
	}
	logging.SetLevel(level)

	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration:\n%w", err)
		}
	}
	return cfg, nil
}
