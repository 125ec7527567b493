package passage

import (
	"errors"
	"fmt"
)

// Lookup errors. Both wrap ErrNotFound.
var (
	ErrNotFound      = errors.New("passage not found")
	ErrSurahNotFound = fmt.Errorf("%w: no tafsir for the given author and surah", ErrNotFound)
	ErrAyahNotFound  = fmt.Errorf("%w: ayah not found in the given surah's tafsir", ErrNotFound)
)

// Find returns the passage for author and surah whose range contains ayah.
// Ranges within a partition do not overlap, so the first match is the only one.
func Find(c Collection, author string, surah, ayah int) (Passage, error) {
	partition := c.Partition(author, surah)
	if len(partition) == 0 {
		return Passage{}, fmt.Errorf("%w: %s %d", ErrSurahNotFound, author, surah)
	}
	for _, p := range partition {
		if p.ayahs.Contains(ayah) {
			return p, nil
		}
	}
	return Passage{}, fmt.Errorf("%w: %s %d:%d", ErrAyahNotFound, author, surah, ayah)
}

// FindRange returns every passage for author and surah whose range intersects
// [from, to], in ayah order.
func FindRange(c Collection, author string, surah, from, to int) ([]Passage, error) {
	partition := c.Partition(author, surah)
	if len(partition) == 0 {
		return nil, fmt.Errorf("%w: %s %d", ErrSurahNotFound, author, surah)
	}
	var matches []Passage
	for _, p := range partition {
		if p.ayahs.Intersects(from, to) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s %d:%d-%d", ErrAyahNotFound, author, surah, from, to)
	}
	return matches, nil
}
