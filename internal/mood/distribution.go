package mood

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Distribution maps a category to a non-negative score on whatever scale the
// producer uses (probabilities, percentages or raw logits-after-softmax).
type Distribution map[Category]float64

// Score is one (category, percentage) pair. It encodes as a two-element JSON
// array, ["happy", 72.5], matching what downstream consumers iterate over.
type Score struct {
	Category Category
	Percent  float64
}

func (s Score) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Category, s.Percent})
}

func (s *Score) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("score: expected [label, percent], got %d elements", len(pair))
	}
	var label string
	if err := json.Unmarshal(pair[0], &label); err != nil {
		return fmt.Errorf("score label: %w", err)
	}
	var pct float64
	if err := json.Unmarshal(pair[1], &pct); err != nil {
		return fmt.Errorf("score percent: %w", err)
	}
	s.Category = Category(label)
	s.Percent = pct
	return nil
}

// Percentages is a full distribution expressed as percentages, one entry per
// category in set order.
type Percentages []Score

// Map flattens the percentages for JSON responses keyed by label.
func (p Percentages) Map() map[string]float64 {
	out := make(map[string]float64, len(p))
	for _, s := range p {
		out[string(s.Category)] = s.Percent
	}
	return out
}

func (p Percentages) Get(c Category) float64 {
	for _, s := range p {
		if s.Category == c {
			return s.Percent
		}
	}
	return 0
}

// Ranked returns up to n entries with a positive percentage, highest first.
// The sort is stable over set order, so equal percentages keep declaration
// order.
func (p Percentages) Ranked(n int) []Score {
	ranked := make([]Score, 0, len(p))
	for _, s := range p {
		if s.Percent > 0 {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Percent > ranked[j].Percent
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (p Percentages) nonZero() int {
	n := 0
	for _, s := range p {
		if s.Percent > 0 {
			n++
		}
	}
	return n
}

// Canonicalize folds a raw upstream label→score map onto the set. Aliases that
// resolve to the same category are summed. Unknown labels, negative and
// non-finite scores are dropped and reported back.
func (s *CategorySet) Canonicalize(raw map[string]float64) (Distribution, []string) {
	out := make(Distribution, len(s.labels))
	var dropped []string
	for label, v := range raw {
		c, ok := s.Canonical(label)
		if !ok || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			dropped = append(dropped, label)
			continue
		}
		out[c] += v
	}
	sort.Strings(dropped)
	return out, dropped
}

// Normalize converts d into percentages of its grand total. Categories outside
// the set are ignored.
func (s *CategorySet) Normalize(d Distribution) (Percentages, error) {
	values := make([]float64, len(s.labels))
	for i, c := range s.labels {
		if v := d[c]; v > 0 {
			values[i] = v
		}
	}
	total := floats.Sum(values)
	if total <= 0 {
		return nil, ErrZeroSignal
	}
	out := make(Percentages, len(values))
	for i, c := range s.labels {
		out[i] = Score{Category: c, Percent: values[i] / total * 100}
	}
	return out, nil
}

// Top returns the highest scoring category of d. Ties go to the category
// declared first; a distribution with no positive score has no top.
func (s *CategorySet) Top(d Distribution) (Category, float64, bool) {
	var (
		best  Category
		score float64
		found bool
	)
	for _, c := range s.labels {
		v := d[c]
		if v > 0 && (!found || v > score) {
			best, score, found = c, v, true
		}
	}
	return best, score, found
}

// FrameSample is the per-frame output of the upstream model after label
// canonicalization.
type FrameSample struct {
	Index        int
	HasFace      bool
	Distribution Distribution
}

// Usable reports whether the sample contributes to aggregation.
func (f FrameSample) Usable() bool {
	return f.HasFace && f.Distribution != nil
}
