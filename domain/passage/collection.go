package passage

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
)

type partitionKey struct {
	author string
	surah  int
}

// Collection is an ordered, read-only set of passages. Order is by author,
// then surah, then first ayah, so positions are stable across loads of the
// same corpus.
type Collection struct {
	passages   []Passage
	partitions map[partitionKey][]int
}

// NewCollection sorts a copy of passages and indexes them by author and surah.
func NewCollection(passages []Passage) Collection {
	sorted := make([]Passage, len(passages))
	copy(sorted, passages)
	slices.SortStableFunc(sorted, func(a, b Passage) int {
		return cmp.Or(
			cmp.Compare(a.author, b.author),
			cmp.Compare(a.surah, b.surah),
			cmp.Compare(a.ayahs.start, b.ayahs.start),
		)
	})

	partitions := make(map[partitionKey][]int)
	for i, p := range sorted {
		key := partitionKey{author: p.author, surah: p.surah}
		partitions[key] = append(partitions[key], i)
	}

	return Collection{passages: sorted, partitions: partitions}
}

// Len returns the number of passages.
func (c Collection) Len() int { return len(c.passages) }

// At returns the passage at position i.
func (c Collection) At(i int) Passage { return c.passages[i] }

// All returns a copy of the passages in collection order.
func (c Collection) All() []Passage {
	result := make([]Passage, len(c.passages))
	copy(result, c.passages)
	return result
}

// Partition returns the passages for one author and surah in ayah order.
func (c Collection) Partition(author string, surah int) []Passage {
	idx := c.partitions[partitionKey{author: author, surah: surah}]
	result := make([]Passage, len(idx))
	for i, j := range idx {
		result[i] = c.passages[j]
	}
	return result
}

// Texts returns the passage texts in collection order.
func (c Collection) Texts() []string {
	texts := make([]string, len(c.passages))
	for i, p := range c.passages {
		texts[i] = p.text
	}
	return texts
}

// Digest returns a hex SHA-256 over every passage identity and text. Two
// collections with the same digest produce aligned vector indexes.
func (c Collection) Digest() string {
	return Digest(c.passages)
}

// Digest hashes passages in the order given.
func Digest(passages []Passage) string {
	h := sha256.New()
	for _, p := range passages {
		h.Write([]byte(p.author))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(p.surah)))
		h.Write([]byte{0})
		h.Write([]byte(p.ayahs.String()))
		h.Write([]byte{0})
		h.Write([]byte(p.text))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
