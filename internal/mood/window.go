package mood

// Window accumulates usable samples for a weighted summary. It is not safe for
// concurrent use; the owning session serializes access.
type Window struct {
	set     *CategorySet
	sums    map[Category]float64
	samples int
}

func NewWindow(set *CategorySet) *Window {
	if set == nil {
		set = DefaultCategories
	}
	return &Window{set: set, sums: make(map[Category]float64, set.Len())}
}

// Accumulate adds every in-set score of a usable sample and reports whether
// the sample counted.
func (w *Window) Accumulate(s FrameSample) bool {
	if !s.Usable() {
		return false
	}
	for c, v := range s.Distribution {
		if v <= 0 || !w.set.Contains(c) {
			continue
		}
		w.sums[c] += v
	}
	w.samples++
	return true
}

func (w *Window) SampleCount() int {
	return w.samples
}

// Sums returns a copy of the running per-category totals.
func (w *Window) Sums() Distribution {
	out := make(Distribution, len(w.sums))
	for c, v := range w.sums {
		out[c] = v
	}
	return out
}

// Normalized returns sums[c]/total*100 per category, which equals the average
// of the accumulated distributions expressed in percent.
func (w *Window) Normalized() (Percentages, error) {
	if w.samples == 0 {
		return nil, ErrNoSamples
	}
	return w.set.Normalize(w.sums)
}

func (w *Window) Reset() {
	w.sums = make(map[Category]float64, w.set.Len())
	w.samples = 0
}
