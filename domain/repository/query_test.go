package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuild_CollectsOptions(t *testing.T) {
	q := Build(
		WithOperation("translation"),
		WithConditionIn("language", []string{"en", "ur"}),
		WithOrderAsc("position"),
		WithLimit(5),
	)

	conds := q.Conditions()
	require.Len(t, conds, 2)
	require.Equal(t, "operation", conds[0].Field())
	require.False(t, conds[0].In())
	require.Equal(t, "operation = translation", conds[0].String())
	require.True(t, conds[1].In())
	require.Equal(t, "language IN [en ur]", conds[1].String())

	orders := q.Orders()
	require.Len(t, orders, 1)
	require.Equal(t, "position", orders[0].Field())
	require.True(t, orders[0].Ascending())
	require.Equal(t, 5, q.LimitValue())
}

func TestWithLatest(t *testing.T) {
	q := Build(WithLatest()...)
	require.Equal(t, 1, q.LimitValue())
	require.Equal(t, "id", q.Orders()[0].Field())
	require.False(t, q.Orders()[0].Ascending())
}

func TestQuery_AccessorsCopy(t *testing.T) {
	q := Build(WithIdentity("ibn-katheer/2/3"))
	conds := q.Conditions()
	conds[0] = Condition{field: "mutated"}
	require.Equal(t, "identity", q.Conditions()[0].Field())
}

func TestWithSnapshotIDs(t *testing.T) {
	conds := Build(WithSnapshotIDs([]int64{3, 7})).Conditions()
	require.Len(t, conds, 1)
	require.True(t, conds[0].In())
	require.Equal(t, "snapshot_id IN [3 7]", conds[0].String())
}
