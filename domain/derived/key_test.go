package derived

import (
	"testing"

	"github.com/helixml/tafsir/domain/language"
	"github.com/stretchr/testify/require"
)

func TestPointKey(t *testing.T) {
	k := PointKey(OperationTranslation, "ibn-katheer", 2, 3, language.English)

	require.Equal(t, OperationTranslation, k.Operation())
	require.Equal(t, "ibn-katheer", k.Partition())
	require.Equal(t, "2_3", k.Name())
	require.Equal(t, "ibn-katheer/2/3", k.Identity())
	require.Equal(t, language.English, k.Language())
	require.Equal(t, "translation:ibn-katheer/2/3:en", k.String())
}

func TestRangeKey(t *testing.T) {
	k := RangeKey(OperationReflection, "ibn-katheer", 2, 1, 5, language.Urdu)

	require.Equal(t, "2_1-5", k.Name())
	require.Equal(t, "ibn-katheer/2/1-5", k.Identity())
	require.NotEqual(t, PointKey(OperationReflection, "ibn-katheer", 2, 1, language.Urdu), k)
}

func TestContentKey(t *testing.T) {
	a := ContentKey(OperationTranslation, "patience", language.Arabic)
	b := ContentKey(OperationTranslation, "patience", language.Arabic)
	c := ContentKey(OperationTranslation, "gratitude", language.Arabic)

	require.Equal(t, a, b)
	require.NotEqual(t, a.Name(), c.Name())
	require.Equal(t, ContentPartition, a.Partition())
	require.Len(t, a.Name(), 64)
	require.Equal(t, "sha256:"+a.Name(), a.Identity())
}

func TestReconstructKey(t *testing.T) {
	for _, k := range []Key{
		PointKey(OperationTranslation, "ibn-katheer", 2, 3, language.English),
		RangeKey(OperationReflection, "tabari", 112, 1, 4, language.French),
		ContentKey(OperationTranslation, "mercy", language.Arabic),
	} {
		require.Equal(t, k, ReconstructKey(k.Operation(), k.Identity(), k.Language()))
	}
}
