package search

import (
	"strings"

	"github.com/helixml/tafsir/domain/passage"
)

// Filters restricts search results by passage metadata.
type Filters struct {
	author string
	surah  int
}

// FiltersOption is a functional option for Filters.
type FiltersOption func(*Filters)

// WithAuthor keeps only passages by the given author. Matching ignores case.
func WithAuthor(author string) FiltersOption {
	return func(f *Filters) {
		f.author = strings.TrimSpace(author)
	}
}

// WithSurah keeps only passages from the given surah.
func WithSurah(surah int) FiltersOption {
	return func(f *Filters) {
		f.surah = surah
	}
}

// NewFilters creates Filters from options.
func NewFilters(opts ...FiltersOption) Filters {
	var f Filters
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Author returns the author filter, empty when unset.
func (f Filters) Author() string { return f.author }

// Surah returns the surah filter, zero when unset.
func (f Filters) Surah() int { return f.surah }

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return f.author == "" && f.surah == 0
}

// Match reports whether p satisfies every set filter.
func (f Filters) Match(p passage.Passage) bool {
	if f.author != "" && !strings.EqualFold(p.Author(), f.author) {
		return false
	}
	if f.surah != 0 && p.Surah() != f.surah {
		return false
	}
	return true
}
