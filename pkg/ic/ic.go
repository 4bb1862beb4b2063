// Package ic turns n(t) counts into Information Content and derived weights.
//
// IC(t) = -ln(n(t) / N), where N is the number of disease nodes in the graph.
// Terms with n(t) = 0 get IC = 0 by convention; Unannotated lists them so
// callers can tell that sentinel apart from a term annotated with every disease.
package ic

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ritzau/ic-analyzer/pkg/graph"
	"github.com/ritzau/ic-analyzer/pkg/model"
)

var (
	// ErrNoDiseases is returned when a term has diseases but the graph counts none
	ErrNoDiseases = errors.New("no disease nodes to score against")
	// ErrCountExceedsTotal is returned when n(t) is larger than N
	ErrCountExceedsTotal = errors.New("n(t) exceeds total disease count")
	// ErrNegativeCount is returned for n(t) below zero
	ErrNegativeCount = errors.New("negative n(t)")
	// ErrNonFinite is returned by Weights for a NaN or infinite scale or offset
	ErrNonFinite = errors.New("non-finite weight parameter")
)

// Values maps a term id to a score
type Values map[string]float64

// Entry is a single term score
type Entry struct {
	Term  string  `json:"term"`
	Value float64 `json:"value"`
}

// TotalDiseases counts the disease nodes of the graph
func TotalDiseases(g *graph.Ontology) int {
	return g.CountOfType(model.NodeTypeDisease)
}

// Compute calculates the Information Content of every term in nt against total diseases.
func Compute(nt map[string]int, total int) (Values, error) {
	values := make(Values, len(nt))

	for term, n := range nt {
		switch {
		case n < 0:
			return nil, fmt.Errorf("%w: %s has %d", ErrNegativeCount, term, n)
		case n == 0:
			values[term] = 0
		case total <= 0:
			return nil, fmt.Errorf("%w: %s has n(t)=%d", ErrNoDiseases, term, n)
		case n > total:
			return nil, fmt.Errorf("%w: %s has n(t)=%d, N=%d", ErrCountExceedsTotal, term, n, total)
		default:
			// ln(N/n) rather than -ln(n/N), which is -0 for n = N
			values[term] = math.Log(float64(total) / float64(n))
		}
	}

	return values, nil
}

// Unannotated returns the sorted terms with n(t) = 0
func Unannotated(nt map[string]int) []string {
	var terms []string
	for term, n := range nt {
		if n == 0 {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)
	return terms
}

// Weights applies weight = scale*IC + offset to every value
func Weights(values Values, scale, offset float64) (Values, error) {
	if !isFinite(scale) {
		return nil, fmt.Errorf("%w: scale=%v", ErrNonFinite, scale)
	}
	if !isFinite(offset) {
		return nil, fmt.Errorf("%w: offset=%v", ErrNonFinite, offset)
	}

	weights := make(Values, len(values))
	for term, v := range values {
		weights[term] = scale*v + offset
	}
	return weights, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Without returns a copy of values without the given terms
func (v Values) Without(terms []string) Values {
	skip := make(map[string]bool, len(terms))
	for _, t := range terms {
		skip[t] = true
	}

	result := make(Values, len(v))
	for term, value := range v {
		if !skip[term] {
			result[term] = value
		}
	}
	return result
}

// Sorted returns the entries ordered by value descending, ties by term
func (v Values) Sorted() []Entry {
	entries := make([]Entry, 0, len(v))
	for term, value := range v {
		entries = append(entries, Entry{Term: term, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Term < entries[j].Term
	})
	return entries
}
