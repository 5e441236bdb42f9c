package mood

import "strings"

type Category string

const (
	Happy     Category = "happy"
	Sad       Category = "sad"
	Angry     Category = "angry"
	Surprised Category = "surprised"
	Fearful   Category = "fearful"
	Disgusted Category = "disgusted"
	Neutral   Category = "neutral"
)

func (c Category) String() string {
	return string(c)
}

// Upstream models label the same emotions differently; these fold the common
// spellings onto the canonical categories.
var defaultAliases = map[string]Category{
	"happiness": Happy,
	"joy":       Happy,
	"sadness":   Sad,
	"anger":     Angry,
	"surprise":  Surprised,
	"fear":      Fearful,
	"disgust":   Disgusted,
	"calm":      Neutral,
}

// CategorySet is the fixed, ordered set of labels a process works with. The
// declaration order is the tie-break order wherever two categories score the
// same, which keeps every summary deterministic.
type CategorySet struct {
	labels  []Category
	index   map[Category]int
	aliases map[string]Category
}

// DefaultCategories is the seven-emotion set emitted by common facial
// expression models.
var DefaultCategories = NewCategorySet(Happy, Sad, Angry, Surprised, Fearful, Disgusted, Neutral)

// NewCategorySet builds a set from labels in declaration order. Duplicates
// keep their first position.
func NewCategorySet(labels ...Category) *CategorySet {
	s := &CategorySet{
		labels:  make([]Category, 0, len(labels)),
		index:   make(map[Category]int, len(labels)),
		aliases: make(map[string]Category, len(defaultAliases)),
	}
	for _, l := range labels {
		l = Category(strings.ToLower(strings.TrimSpace(string(l))))
		if l == "" {
			continue
		}
		if _, ok := s.index[l]; ok {
			continue
		}
		s.index[l] = len(s.labels)
		s.labels = append(s.labels, l)
	}
	for alias, c := range defaultAliases {
		if _, ok := s.index[c]; ok {
			s.aliases[alias] = c
		}
	}
	return s
}

func (s *CategorySet) Labels() []Category {
	out := make([]Category, len(s.labels))
	copy(out, s.labels)
	return out
}

func (s *CategorySet) Len() int {
	return len(s.labels)
}

func (s *CategorySet) Contains(c Category) bool {
	_, ok := s.index[c]
	return ok
}

// Canonical resolves a raw upstream label to a member of the set.
func (s *CategorySet) Canonical(label string) (Category, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if _, ok := s.index[Category(l)]; ok {
		return Category(l), true
	}
	if c, ok := s.aliases[l]; ok {
		return c, true
	}
	return "", false
}
