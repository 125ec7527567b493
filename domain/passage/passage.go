// Package passage provides the tafsir passage model, the ordered passage
// collection, and exact point lookup over it.
package passage

import (
	"errors"
	"fmt"
	"strings"
)

// Surah bounds.
const (
	MinSurah = 1
	MaxSurah = 114
)

// ErrInvalid indicates a passage or range failed validation.
var ErrInvalid = errors.New("invalid passage")

// Range is an inclusive span of ayahs sharing one commentary passage.
type Range struct {
	start int
	end   int
}

// NewRange creates a Range, requiring 1 <= start <= end.
func NewRange(start, end int) (Range, error) {
	if start < 1 || end < start {
		return Range{}, fmt.Errorf("%w: ayah range [%d,%d]", ErrInvalid, start, end)
	}
	return Range{start: start, end: end}, nil
}

// Start returns the first ayah in the range.
func (r Range) Start() int { return r.start }

// End returns the last ayah in the range.
func (r Range) End() int { return r.end }

// Contains reports whether ayah falls inside the range.
func (r Range) Contains(ayah int) bool {
	return ayah >= r.start && ayah <= r.end
}

// Intersects reports whether the range overlaps [from, to].
func (r Range) Intersects(from, to int) bool {
	return r.start <= to && from <= r.end
}

// String returns the range as "start-end".
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.start, r.end)
}

// Metadata holds display information that the core passes through untouched.
type Metadata struct {
	surahNameEnglish string
	surahNameArabic  string
	sourceURLs       []string
}

// NewMetadata creates display metadata.
func NewMetadata(surahNameEnglish, surahNameArabic string, sourceURLs []string) Metadata {
	urls := make([]string, len(sourceURLs))
	copy(urls, sourceURLs)
	return Metadata{
		surahNameEnglish: surahNameEnglish,
		surahNameArabic:  surahNameArabic,
		sourceURLs:       urls,
	}
}

// SurahNameEnglish returns the surah name in Latin script.
func (m Metadata) SurahNameEnglish() string { return m.surahNameEnglish }

// SurahNameArabic returns the surah name in Arabic script.
func (m Metadata) SurahNameArabic() string { return m.surahNameArabic }

// SourceURLs returns the provenance URLs.
func (m Metadata) SourceURLs() []string {
	urls := make([]string, len(m.sourceURLs))
	copy(urls, m.sourceURLs)
	return urls
}

// Passage is one commentary text covering a range of ayahs in a surah.
type Passage struct {
	author   string
	surah    int
	ayahs    Range
	text     string
	metadata Metadata
}

// New creates a validated Passage.
func New(author string, surah int, ayahs Range, text string, metadata Metadata) (Passage, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return Passage{}, fmt.Errorf("%w: empty author", ErrInvalid)
	}
	if surah < MinSurah || surah > MaxSurah {
		return Passage{}, fmt.Errorf("%w: surah %d out of range", ErrInvalid, surah)
	}
	if ayahs.start < 1 || ayahs.end < ayahs.start {
		return Passage{}, fmt.Errorf("%w: ayah range [%d,%d]", ErrInvalid, ayahs.start, ayahs.end)
	}
	if strings.TrimSpace(text) == "" {
		return Passage{}, fmt.Errorf("%w: empty text", ErrInvalid)
	}
	return Passage{
		author:   author,
		surah:    surah,
		ayahs:    ayahs,
		text:     text,
		metadata: metadata,
	}, nil
}

// Author returns the commentator identifier.
func (p Passage) Author() string { return p.author }

// Surah returns the surah number.
func (p Passage) Surah() int { return p.surah }

// Ayahs returns the ayah range the passage covers.
func (p Passage) Ayahs() Range { return p.ayahs }

// Text returns the commentary in the source language.
func (p Passage) Text() string { return p.text }

// Metadata returns the display metadata.
func (p Passage) Metadata() Metadata { return p.metadata }

// ID returns a stable identifier of the form "author/surah/start-end".
func (p Passage) ID() string {
	return fmt.Sprintf("%s/%d/%s", p.author, p.surah, p.ayahs)
}
