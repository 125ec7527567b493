package passage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func adjacentRanges(t *testing.T) Collection {
	t.Helper()
	return NewCollection([]Passage{
		mustPassage(t, "ibn-katheer", 2, 2, 5, "first"),
		mustPassage(t, "ibn-katheer", 2, 6, 9, "second"),
	})
}

func TestFind_RangeBoundaries(t *testing.T) {
	c := adjacentRanges(t)

	p, err := Find(c, "ibn-katheer", 2, 5)
	require.NoError(t, err)
	require.Equal(t, "first", p.Text())

	p, err = Find(c, "ibn-katheer", 2, 6)
	require.NoError(t, err)
	require.Equal(t, "second", p.Text())

	_, err = Find(c, "ibn-katheer", 2, 10)
	require.ErrorIs(t, err, ErrAyahNotFound)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFind_MissingSurah(t *testing.T) {
	c := adjacentRanges(t)

	_, err := Find(c, "ibn-katheer", 3, 1)
	require.ErrorIs(t, err, ErrSurahNotFound)
	require.NotErrorIs(t, err, ErrAyahNotFound)

	_, err = Find(c, "tabari", 2, 3)
	require.ErrorIs(t, err, ErrSurahNotFound)
}

func TestFind_GapBetweenRanges(t *testing.T) {
	c := NewCollection([]Passage{
		mustPassage(t, "ibn-katheer", 2, 1, 3, "a"),
		mustPassage(t, "ibn-katheer", 2, 7, 9, "b"),
	})

	_, err := Find(c, "ibn-katheer", 2, 5)
	require.ErrorIs(t, err, ErrAyahNotFound)
}

func TestFindRange(t *testing.T) {
	c := NewCollection([]Passage{
		mustPassage(t, "ibn-katheer", 2, 10, 12, "c"),
		mustPassage(t, "ibn-katheer", 2, 1, 5, "a"),
		mustPassage(t, "ibn-katheer", 2, 6, 9, "b"),
	})

	got, err := FindRange(c, "ibn-katheer", 2, 4, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "a", got[0].Text())
	require.Equal(t, "b", got[1].Text())
	require.Equal(t, "c", got[2].Text())

	got, err = FindRange(c, "ibn-katheer", 2, 6, 6)
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = FindRange(c, "ibn-katheer", 2, 20, 30)
	require.ErrorIs(t, err, ErrAyahNotFound)

	_, err = FindRange(c, "ibn-katheer", 9, 1, 3)
	require.ErrorIs(t, err, ErrSurahNotFound)
}
