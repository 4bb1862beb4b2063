// Package annotate labels ontology terms with the disease nodes reachable from them.
package annotate

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ritzau/ic-analyzer/pkg/graph"
	"github.com/ritzau/ic-analyzer/pkg/model"
)

// DiseaseSet is the set of disease term ids annotated on a term
type DiseaseSet = mapset.Set[string]

// Annotations maps a term id to its annotated diseases
type Annotations map[string]DiseaseSet

// NewDiseaseSet creates an empty disease set.
// Sets are only touched from one goroutine at a time.
func NewDiseaseSet(diseases ...string) DiseaseSet {
	return mapset.NewThreadUnsafeSet[string](diseases...)
}

// Direct annotates every non-disease term with the diseases among its immediate successors.
func Direct(g *graph.Ontology) (Annotations, error) {
	annotations := make(Annotations)

	for _, term := range g.Terms() {
		nodeType, err := g.Type(term)
		if err != nil {
			return nil, err
		}
		if nodeType.IsDisease() {
			continue
		}

		successors, err := g.Successors(term)
		if err != nil {
			return nil, err
		}

		diseases := NewDiseaseSet()
		for _, succ := range successors {
			succType, err := g.Type(succ)
			if err != nil {
				return nil, err
			}
			if succType.IsDisease() {
				diseases.Add(succ)
			}
		}
		annotations[term] = diseases
	}

	return annotations, nil
}

// Transitive annotates every term of nodeType with all diseases reachable through
// paths of non-disease nodes. Disease nodes end a path; they are collected but never expanded.
// Disease nodes are never annotated themselves, so a disease nodeType yields no annotations.
func Transitive(g *graph.Ontology, nodeType model.NodeType) (Annotations, error) {
	annotations := make(Annotations)
	if nodeType.IsDisease() {
		return annotations, nil
	}

	for _, term := range g.TermsOfType(nodeType) {
		diseases, err := reachableDiseases(g, term)
		if err != nil {
			return nil, err
		}
		annotations[term] = diseases
	}

	return annotations, nil
}

// reachableDiseases runs a breadth-first search from start
func reachableDiseases(g *graph.Ontology, start string) (DiseaseSet, error) {
	diseases := NewDiseaseSet()
	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		successors, err := g.Successors(current)
		if err != nil {
			return nil, err
		}

		for _, succ := range successors {
			succType, err := g.Type(succ)
			if err != nil {
				return nil, err
			}
			if succType.IsDisease() {
				diseases.Add(succ)
				continue
			}
			if !visited[succ] {
				visited[succ] = true
				queue = append(queue, succ)
			}
		}
	}

	return diseases, nil
}

// Clone returns a deep copy of the annotations
func (a Annotations) Clone() Annotations {
	clone := make(Annotations, len(a))
	for term, diseases := range a {
		clone[term] = diseases.Clone()
	}
	return clone
}

// Counts returns the number of annotated diseases per term
func (a Annotations) Counts() map[string]int {
	counts := make(map[string]int, len(a))
	for term, diseases := range a {
		counts[term] = diseases.Cardinality()
	}
	return counts
}

// Sorted returns the diseases of a term in lexical order
func (a Annotations) Sorted(term string) []string {
	diseases, ok := a[term]
	if !ok {
		return nil
	}
	sorted := diseases.ToSlice()
	sort.Strings(sorted)
	return sorted
}
