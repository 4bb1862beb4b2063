package pipeline

import "sort"

// ScoreDiff is the difference between the scores of two runs
type ScoreDiff struct {
	Added   []Score  `json:"added"`
	Removed []string `json:"removed"` // term ids
	Changed []Score  `json:"changed"` // new values of terms whose n(t), IC or weight changed
	Full    bool     `json:"full"`    // no previous run, every score is added
}

// Empty reports whether nothing changed
func (d *ScoreDiff) Empty() bool {
	return !d.Full && len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares the scores of next against previous, which may be nil.
// Labels are not compared. Slices are sorted by term.
func Diff(previous, next *Result) *ScoreDiff {
	if previous == nil {
		return &ScoreDiff{Added: sortedByTerm(next.Scores), Removed: []string{}, Changed: []Score{}, Full: true}
	}

	diff := &ScoreDiff{
		Added:   make([]Score, 0),
		Removed: make([]string, 0),
		Changed: make([]Score, 0),
	}

	for _, s := range next.Scores {
		old, exists := previous.Score(s.Term)
		switch {
		case !exists:
			diff.Added = append(diff.Added, s)
		case !scoresEqual(old, s):
			diff.Changed = append(diff.Changed, s)
		}
	}

	for _, s := range previous.Scores {
		if _, exists := next.Score(s.Term); !exists {
			diff.Removed = append(diff.Removed, s.Term)
		}
	}

	diff.Added = sortedByTerm(diff.Added)
	diff.Changed = sortedByTerm(diff.Changed)
	sort.Strings(diff.Removed)
	return diff
}

func scoresEqual(a, b Score) bool {
	return a.NT == b.NT && a.IC == b.IC && a.Weight == b.Weight
}

func sortedByTerm(scores []Score) []Score {
	out := make([]Score, len(scores))
	copy(out, scores)
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}
