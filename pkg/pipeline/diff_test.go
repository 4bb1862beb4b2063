package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	previous := &Result{Scores: []Score{
		{Term: "A", NT: 2, IC: 0.9},
		{Term: "B", NT: 2, IC: 0.9},
		{Term: "C", NT: 1, IC: 1.6},
	}}
	next := &Result{Scores: []Score{
		{Term: "A", NT: 3, IC: 0.5, Label: "renamed"},
		{Term: "C", NT: 1, IC: 1.6, Label: "renamed"},
		{Term: "D", NT: 1, IC: 1.6},
	}}

	diff := Diff(previous, next)
	assert.False(t, diff.Full)
	assert.False(t, diff.Empty())
	assert.Equal(t, []string{"D"}, terms(diff.Added))
	assert.Equal(t, []string{"B"}, diff.Removed)
	assert.Equal(t, []string{"A"}, terms(diff.Changed))
	assert.Equal(t, 3, diff.Changed[0].NT)

	assert.True(t, Diff(next, next).Empty())

	full := Diff(nil, next)
	assert.True(t, full.Full)
	assert.Equal(t, []string{"A", "C", "D"}, terms(full.Added))
}

func TestRunReportsChangesBetweenRuns(t *testing.T) {
	dir := t.TempDir()
	graphFile := filepath.Join(dir, "graph.yaml")
	data, err := os.ReadFile("testdata/graph.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(graphFile, data, 0o644))

	cfg := testConfig(graphFile)
	runner := NewRunner(cfg, nil)

	first, err := runner.Run(context.Background(), "initial run")
	require.NoError(t, err)
	assert.Nil(t, first.Changes)

	// E gains a disease
	data = append(data, []byte("  - {source: E, target: D3}\n")...)
	require.NoError(t, os.WriteFile(graphFile, data, 0o644))

	second, err := runner.Run(context.Background(), "graph changed")
	require.NoError(t, err)
	require.NotNil(t, second.Changes)
	assert.Empty(t, second.Changes.Added)
	assert.Empty(t, second.Changes.Removed)
	assert.Equal(t, []string{"E"}, terms(second.Changes.Changed))
	assert.Empty(t, second.Unannotated)
}

func terms(scores []Score) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.Term
	}
	return out
}
