package mood

// MajorityVote returns the most frequent label. Ties go to the label whose
// first occurrence came earliest.
func MajorityVote(labels []Category) (Category, bool) {
	if len(labels) == 0 {
		return "", false
	}
	counts := make(map[Category]int, len(labels))
	order := make([]Category, 0, len(labels))
	for _, l := range labels {
		if _, seen := counts[l]; !seen {
			order = append(order, l)
		}
		counts[l]++
	}
	best := order[0]
	for _, l := range order[1:] {
		if counts[l] > counts[best] {
			best = l
		}
	}
	return best, true
}

// Frequencies turns a discrete label log into count/total*100 percentages in
// set order. Labels outside the set are ignored.
func (s *CategorySet) Frequencies(log []Category) (Percentages, error) {
	if len(log) == 0 {
		return nil, ErrNoSamples
	}
	counts := make(Distribution, len(s.labels))
	for _, l := range log {
		if s.Contains(l) {
			counts[l]++
		}
	}
	return s.Normalize(counts)
}
