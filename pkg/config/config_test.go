package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("config", DefaultFile, "config file")
	f.String("graph", "", "graph document")
	f.Float64("scale", 1.0, "weight scale")
	f.Int("workers", 1, "workers")
	f.StringSlice("labels", nil, "label files")
	return f
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "Phenotype", cfg.HierarchyType)
	assert.Equal(t, AnnotationTransitive, cfg.Annotation)
	assert.Equal(t, 1.0, cfg.Scale)
	assert.Equal(t, 0.0, cfg.Offset)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, FormatTable, cfg.Format)
	assert.Equal(t, 20, cfg.Top)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "neo4j", cfg.Neo4j.User)
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	toml := `
graph = "from-file.json"
workers = 2
scale = 0.5
offset = 0.1

[neo4j]
user = "reader"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(toml), 0o644))

	t.Setenv("IC_ANALYZER_WORKERS", "3")
	t.Setenv("IC_ANALYZER_HIERARCHY_TYPE", "Disease")
	t.Setenv("IC_ANALYZER_NEO4J__PASSWORD", "secret")

	f := testFlags()
	require.NoError(t, f.Parse([]string{"--scale", "2"}))

	cfg, err := Load(f)
	require.NoError(t, err)

	assert.Equal(t, "from-file.json", cfg.Graph) // file
	assert.Equal(t, 3, cfg.Workers)              // env over file
	assert.Equal(t, "Disease", cfg.HierarchyType) // env
	assert.Equal(t, 2.0, cfg.Scale)              // flag over file
	assert.Equal(t, 0.1, cfg.Offset)             // file over default
	assert.Equal(t, "reader", cfg.Neo4j.User)
	assert.Equal(t, "secret", cfg.Neo4j.Password)
}

func TestLoadExplicitConfigMustExist(t *testing.T) {
	t.Chdir(t.TempDir())

	f := testFlags()
	require.NoError(t, f.Parse([]string{"--config", "missing.toml"}))

	_, err := Load(f)
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "hierarchy-type", envKey("IC_ANALYZER_HIERARCHY_TYPE"))
	assert.Equal(t, "neo4j.uri", envKey("IC_ANALYZER_NEO4J__URI"))
	assert.Equal(t, "port", envKey("IC_ANALYZER_PORT"))
}

func valid() *Config {
	return &Config{
		Graph:         "graph.json",
		HierarchyType: "Phenotype",
		Annotation:    AnnotationTransitive,
		Scale:         1,
		Workers:       1,
		Format:        FormatTable,
		Top:           10,
		Port:          8080,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no source", func(c *Config) { c.Graph = "" }},
		{"two sources", func(c *Config) { c.Neo4j.URI = "bolt://localhost:7687" }},
		{"nodes without edges", func(c *Config) { c.Graph = ""; c.Nodes = "nodes.tsv" }},
		{"empty type", func(c *Config) { c.HierarchyType = "" }},
		{"disease type", func(c *Config) { c.HierarchyType = "Disease" }},
		{"disease type lower case", func(c *Config) { c.HierarchyType = "disease" }},
		{"bad annotation", func(c *Config) { c.Annotation = "sideways" }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"bad format", func(c *Config) { c.Format = "xml" }},
		{"negative top", func(c *Config) { c.Top = -1 }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	tables := valid()
	tables.Graph = ""
	tables.Nodes = "nodes.tsv"
	tables.Edges = "edges.tsv"
	assert.NoError(t, tables.Validate())
}
