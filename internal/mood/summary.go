package mood

import (
	"fmt"
	"strings"
)

type Narrative string

const (
	Dominant        Narrative = "dominant"
	LeaningDominant Narrative = "leaning_dominant"
	Mixed           Narrative = "mixed"
	Spread          Narrative = "spread"
)

const (
	dominantThreshold = 80.0
	mixedGap          = 15.0
	mixedThirdMin     = 15.0
	secondaryMin      = 10.0
	spreadCeiling     = 30.0
	rankedLimit       = 3
)

// MoodSummary is the human-facing outcome of a capture session or a single
// analysis.
type MoodSummary struct {
	Ranked       []Score     `json:"top_emotions"`
	Distribution Percentages `json:"-"`
	Narrative    Narrative   `json:"narrative"`
	Primary      Category    `json:"mood"`
	Mentions     []Score     `json:"mentions,omitempty"`
	Qualifier    string      `json:"qualifier"`
	Statement    string      `json:"summary"`
	Commentary   string      `json:"commentary,omitempty"`
	Samples      int         `json:"samples"`
}

// Qualifier maps the top percentage onto an intensity adverb.
func Qualifier(pct float64) string {
	switch {
	case pct > 75:
		return "strongly"
	case pct > 50:
		return "clearly"
	case pct > 30:
		return "somewhat"
	default:
		return "slightly"
	}
}

// Summarizer classifies percentage distributions into narratives. It holds no
// mutable state.
type Summarizer struct {
	set *CategorySet
}

func NewSummarizer(set *CategorySet) *Summarizer {
	if set == nil {
		set = DefaultCategories
	}
	return &Summarizer{set: set}
}

func (s *Summarizer) Categories() *CategorySet {
	return s.set
}

// Weighted summarizes the averaged scores held by w.
func (s *Summarizer) Weighted(w *Window) (*MoodSummary, error) {
	p, err := w.Normalized()
	if err != nil {
		return nil, err
	}
	return s.Classify(p, w.SampleCount())
}

// Discrete summarizes a log of per-frame top labels by frequency.
func (s *Summarizer) Discrete(log []Category) (*MoodSummary, error) {
	p, err := s.set.Frequencies(log)
	if err != nil {
		return nil, err
	}
	return s.Classify(p, len(log))
}

// Single summarizes one distribution, e.g. a still image.
func (s *Summarizer) Single(d Distribution) (*MoodSummary, error) {
	p, err := s.set.Normalize(d)
	if err != nil {
		return nil, err
	}
	return s.Classify(p, 1)
}

// Classify applies the narrative ladder to a full percentage distribution.
// The first matching rule wins.
func (s *Summarizer) Classify(p Percentages, samples int) (*MoodSummary, error) {
	ranked := p.Ranked(rankedLimit)
	if len(ranked) == 0 {
		return nil, ErrZeroSignal
	}
	top := ranked[0]
	sum := &MoodSummary{
		Ranked:       ranked,
		Distribution: p,
		Primary:      top.Category,
		Qualifier:    Qualifier(top.Percent),
		Commentary:   Commentary(top.Category),
		Samples:      samples,
	}

	switch {
	case p.nonZero() == 1 || top.Percent >= dominantThreshold:
		sum.Narrative = Dominant
		sum.Statement = fmt.Sprintf("You seem %s %s (%.1f%%).", sum.Qualifier, top.Category, top.Percent)

	case len(ranked) > 1 && top.Percent-ranked[1].Percent < mixedGap:
		sum.Narrative = Mixed
		sum.Mentions = []Score{ranked[1]}
		if len(ranked) > 2 && ranked[2].Percent > mixedThirdMin {
			sum.Mentions = append(sum.Mentions, ranked[2])
		}
		stmt := fmt.Sprintf("Your mood is mixed between %s and %s", formatScore(top), formatScore(ranked[1]))
		if len(sum.Mentions) > 1 {
			stmt += fmt.Sprintf(", with a touch of %s", formatScore(sum.Mentions[1]))
		}
		sum.Statement = stmt + "."

	// Without this case no distribution would ever be reported as Spread;
	// a flat top that is not Mixed would fall through to LeaningDominant.
	case top.Percent <= spreadCeiling:
		sum.Narrative = Spread
		sum.Statement = fmt.Sprintf("Your mood is spread out; %s leads %s at %.1f%%.", top.Category, sum.Qualifier, top.Percent)

	default:
		sum.Narrative = LeaningDominant
		for _, r := range ranked[1:] {
			if r.Percent > secondaryMin {
				sum.Mentions = append(sum.Mentions, r)
			}
		}
		stmt := fmt.Sprintf("You're mostly %s (%.1f%%)", top.Category, top.Percent)
		if len(sum.Mentions) > 0 {
			parts := make([]string, len(sum.Mentions))
			for i, m := range sum.Mentions {
				parts[i] = formatScore(m)
			}
			stmt += ", with some " + strings.Join(parts, " and ")
		}
		sum.Statement = stmt + "."
	}
	return sum, nil
}

func formatScore(s Score) string {
	return fmt.Sprintf("%s (%.1f%%)", s.Category, s.Percent)
}
