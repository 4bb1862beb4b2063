// Package labels maps ontology identifiers to human readable names for display.
package labels

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Map maps a wrapped identifier ("<http://purl.obolibrary.org/obo/HP_0000001>") to its name
type Map map[string]string

// Wrap formats an identifier the way graph ids reference ontology IRIs
func Wrap(id string) string {
	return "<" + id + ">"
}

// Parse reads an OBO Graphs JSON document (graphs[].nodes[].{id,lbl}).
// Nodes without an id or label are skipped.
func Parse(data []byte) (Map, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}

	m := make(Map)
	gjson.GetBytes(data, "graphs").ForEach(func(_, graph gjson.Result) bool {
		graph.Get("nodes").ForEach(func(_, node gjson.Result) bool {
			id := node.Get("id").String()
			name := node.Get("lbl").String()
			if id != "" && name != "" {
				m[Wrap(id)] = name
			}
			return true
		})
		return true
	})
	return m, nil
}

// Load reads and parses each file and merges them in order
func Load(paths ...string) (Map, error) {
	merged := make(Map)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		m, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		merged.Merge(m)
	}
	return merged, nil
}

// Merge adds the entries of other that m does not have yet. The first name for an id wins.
func (m Map) Merge(other Map) {
	for id, name := range other {
		if _, exists := m[id]; !exists {
			m[id] = name
		}
	}
}

// Name returns the display name of an id. Both bare and wrapped ids are looked up;
// unknown ids are returned unchanged.
func (m Map) Name(id string) string {
	if name, ok := m[id]; ok {
		return name
	}
	if name, ok := m[Wrap(id)]; ok {
		return name
	}
	return id
}
