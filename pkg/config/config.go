package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is the optional config file read from the working directory
const DefaultFile = "ic-analyzer.toml"

const envPrefix = "IC_ANALYZER_"

// diseaseType is the node type that annotates terms and is never scored itself
const diseaseType = "Disease"

// Annotation modes
const (
	AnnotationTransitive = "transitive"
	AnnotationDirect     = "direct"
)

// Output formats
const (
	FormatTable = "table"
	FormatTSV   = "tsv"
	FormatJSON  = "json"
)

// Neo4jConfig holds the connection settings for a Neo4j graph source
type Neo4jConfig struct {
	URI      string `koanf:"uri"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
}

// Config holds all configuration for the application
type Config struct {
	Nodes              string      `koanf:"nodes"`  // Nodes table (name, type)
	Edges              string      `koanf:"edges"`  // Edges table (subject, object[, predicate])
	Graph              string      `koanf:"graph"`  // Single JSON/YAML graph document
	Labels             []string    `koanf:"labels"` // OBO Graphs JSON files for display names
	HierarchyType      string      `koanf:"hierarchy-type"`
	Annotation         string      `koanf:"annotation"`
	Scale              float64     `koanf:"scale"`
	Offset             float64     `koanf:"offset"`
	Workers            int         `koanf:"workers"`
	ExcludeUnannotated bool        `koanf:"exclude-unannotated"`
	Format             string      `koanf:"format"`
	Top                int         `koanf:"top"`
	Output             string      `koanf:"output"`
	Port               int         `koanf:"port"`
	Watch              bool        `koanf:"watch"`
	Verbosity          string      `koanf:"verbosity"`
	VerboseCnt         int         `koanf:"verbose"`
	Neo4j              Neo4jConfig `koanf:"neo4j"`
}

// Defaults returns the built-in defaults. Nested sections are nested maps.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"nodes":               "",
		"edges":               "",
		"graph":               "",
		"labels":              []string{},
		"hierarchy-type":      "Phenotype",
		"annotation":          AnnotationTransitive,
		"scale":               1.0,
		"offset":              0.0,
		"workers":             1,
		"exclude-unannotated": false,
		"format":              FormatTable,
		"top":                 20,
		"output":              "",
		"port":                8080,
		"watch":               false,
		"verbosity":           "",
		"verbose":             0,
		"neo4j": map[string]interface{}{
			"uri":      "",
			"user":     "neo4j",
			"password": "",
			"database": "",
		},
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - ic-analyzer.toml or --config
	configFile := DefaultFile
	explicit := false
	if f != nil {
		if flag := f.Lookup("config"); flag != nil && flag.Value.String() != "" {
			configFile = flag.Value.String()
			explicit = flag.Changed
		}
	}
	if err := k.Load(file.Provider(configFile), toml.Parser()); err != nil && explicit {
		// Only an explicitly requested file must exist
		return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
	}

	// 3. Environment Variables
	// Prefix: IC_ANALYZER_ (e.g., IC_ANALYZER_PORT=9090, IC_ANALYZER_NEO4J__URI=bolt://...)
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// envKey maps IC_ANALYZER_HIERARCHY_TYPE to hierarchy-type and IC_ANALYZER_NEO4J__URI to neo4j.uri
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	return strings.ReplaceAll(key, "_", "-")
}

// Validate checks that the configuration describes exactly one graph source and sane settings
func (c *Config) Validate() error {
	var errs []error

	sources := 0
	if c.Nodes != "" || c.Edges != "" {
		sources++
		if c.Nodes == "" || c.Edges == "" {
			errs = append(errs, errors.New("nodes and edges must be given together"))
		}
	}
	if c.Graph != "" {
		sources++
	}
	if c.Neo4j.URI != "" {
		sources++
	}
	switch {
	case sources == 0:
		errs = append(errs, errors.New("no graph source configured (nodes+edges, graph or neo4j.uri)"))
	case sources > 1:
		errs = append(errs, errors.New("more than one graph source configured"))
	}

	switch {
	case c.HierarchyType == "":
		errs = append(errs, errors.New("hierarchy-type must not be empty"))
	case strings.EqualFold(c.HierarchyType, diseaseType):
		errs = append(errs, fmt.Errorf("hierarchy-type must not be %q, disease nodes are not scored", diseaseType))
	}
	if c.Annotation != AnnotationTransitive && c.Annotation != AnnotationDirect {
		errs = append(errs, fmt.Errorf("annotation must be %q or %q, got %q", AnnotationTransitive, AnnotationDirect, c.Annotation))
	}
	if math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) || math.IsNaN(c.Offset) || math.IsInf(c.Offset, 0) {
		errs = append(errs, errors.New("scale and offset must be finite"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	switch c.Format {
	case FormatTable, FormatTSV, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}
	if c.Top < 0 {
		errs = append(errs, fmt.Errorf("top must not be negative, got %d", c.Top))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}

	return errors.Join(errs...)
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
