package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Reason describes a change event as a pipeline run reason, e.g. "graph changed (nodes.tsv, edges.tsv)"
func Reason(event ChangeEvent) string {
	names := make([]string, len(event.Paths))
	for i, p := range event.Paths {
		names[i] = filepath.Base(p)
	}
	return fmt.Sprintf("%s changed (%s)", event.Type, strings.Join(names, ", "))
}
