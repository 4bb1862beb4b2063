// Package nt computes n(t), the number of distinct diseases reachable from a
// hierarchy term through itself or any of its descendants.
package nt

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ritzau/ic-analyzer/pkg/annotate"
	"github.com/ritzau/ic-analyzer/pkg/cycles"
	"github.com/ritzau/ic-analyzer/pkg/graph"
	"github.com/ritzau/ic-analyzer/pkg/hierarchy"
	"github.com/ritzau/ic-analyzer/pkg/logging"
	"github.com/ritzau/ic-analyzer/pkg/model"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrCyclicHierarchy is wrapped by CyclicHierarchyError
	ErrCyclicHierarchy = errors.New("cyclic hierarchy")
	// ErrDiseaseHierarchy is returned when asked to aggregate over disease nodes
	ErrDiseaseHierarchy = errors.New("disease nodes cannot form the hierarchy")
)

// CyclicHierarchyError reports terms whose children never all finished
// because the child relation contains a cycle.
type CyclicHierarchyError struct {
	Unvisited []string
	Cycles    []cycles.Cycle
}

func (e *CyclicHierarchyError) Error() string {
	parts := make([]string, 0, len(e.Cycles))
	for i, c := range e.Cycles {
		if i == 3 {
			parts = append(parts, fmt.Sprintf("... %d more", len(e.Cycles)-i))
			break
		}
		parts = append(parts, "["+strings.Join(c.Terms, " ")+"]")
	}
	return fmt.Sprintf("%s: %d terms unvisited, cycles: %s",
		ErrCyclicHierarchy.Error(), len(e.Unvisited), strings.Join(parts, ", "))
}

func (e *CyclicHierarchyError) Unwrap() error {
	return ErrCyclicHierarchy
}

// Result holds the aggregated disease sets and their sizes
type Result struct {
	NT         map[string]int
	Diseases   annotate.Annotations
	Components int
}

type options struct {
	workers int
	direct  bool
}

// Option configures aggregation
type Option func(*options)

// WithWorkers sets how many disjoint hierarchy components are aggregated concurrently.
// Values below one mean sequential.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithDirectAnnotations makes Compute seed terms with their directly associated
// diseases only instead of every disease reachable through non-disease paths.
func WithDirectAnnotations() Option {
	return func(o *options) {
		o.direct = true
	}
}

// Compute annotates the terms of nodeType, derives their hierarchy and aggregates.
// Annotation is transitive unless WithDirectAnnotations is given.
func Compute(g *graph.Ontology, nodeType model.NodeType, opts ...Option) (*Result, error) {
	if nodeType.IsDisease() {
		return nil, fmt.Errorf("%w: %s", ErrDiseaseHierarchy, nodeType)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		ann annotate.Annotations
		err error
	)
	if o.direct {
		ann, err = annotate.Direct(g)
	} else {
		ann, err = annotate.Transitive(g, nodeType)
	}
	if err != nil {
		return nil, fmt.Errorf("annotating diseases: %w", err)
	}

	h, err := hierarchy.Derive(g, nodeType)
	if err != nil {
		return nil, fmt.Errorf("deriving hierarchy: %w", err)
	}

	return Aggregate(h, ann, opts...)
}

// Aggregate merges disease sets bottom-up over the hierarchy.
// Every term ends up with the union of its own set and the sets of all its descendants.
// ann is not modified; terms missing from it start out empty.
func Aggregate(h *hierarchy.Hierarchy, ann annotate.Annotations, opts ...Option) (*Result, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	logger := logging.New("nt")
	components := h.Split()
	logger.Debug("aggregating hierarchy", "type", h.Type, "terms", h.Len(), "components", len(components), "workers", o.workers)

	var (
		mu        sync.Mutex
		diseases  = make(annotate.Annotations, h.Len())
		unvisited []string
	)

	var eg errgroup.Group
	eg.SetLimit(o.workers)
	for _, sub := range components {
		eg.Go(func() error {
			local, remaining := aggregateComponent(sub, ann)

			mu.Lock()
			defer mu.Unlock()
			for term, set := range local {
				diseases[term] = set
			}
			unvisited = append(unvisited, remaining...)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if len(unvisited) > 0 {
		found := cycles.Find(h)
		logger.Warn("hierarchy contains cycles", "unvisited", len(unvisited), "cycles", len(found))
		return nil, &CyclicHierarchyError{
			Unvisited: orderLike(h.Terms(), unvisited),
			Cycles:    found,
		}
	}

	result := &Result{
		NT:         diseases.Counts(),
		Diseases:   diseases,
		Components: len(components),
	}
	logger.Debug("aggregation complete", "terms", len(result.NT))
	return result, nil
}

// aggregateComponent walks one connected component children-first.
// It returns the terms it could not order instead of partial values.
func aggregateComponent(h *hierarchy.Hierarchy, ann annotate.Annotations) (annotate.Annotations, []string) {
	order, err := h.Order()
	if err != nil {
		var unorderable *hierarchy.UnorderableError
		if errors.As(err, &unorderable) {
			return nil, unorderable.Remaining
		}
		return nil, h.Terms()
	}

	local := make(annotate.Annotations, h.Len())
	for _, term := range h.Terms() {
		if set, ok := ann[term]; ok {
			local[term] = set.Clone()
		} else {
			local[term] = annotate.NewDiseaseSet()
		}
	}

	for _, term := range order {
		from := local[term]
		for _, parent := range h.Parents(term) {
			into := local[parent]
			from.Each(func(disease string) bool {
				into.Add(disease)
				return false
			})
		}
	}

	return local, nil
}

// orderLike returns subset ordered as it appears in order
func orderLike(order, subset []string) []string {
	in := make(map[string]bool, len(subset))
	for _, term := range subset {
		in[term] = true
	}
	result := make([]string, 0, len(subset))
	for _, term := range order {
		if in[term] {
			result = append(result, term)
		}
	}
	return result
}
