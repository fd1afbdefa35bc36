package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paw-chain/dexguard/x/shared/telemetry"
)

func TestPendingCommitAppliesInOrder(t *testing.T) {
	var p telemetry.Pending
	var got []int
	p.Add(func() { got = append(got, 1) })
	p.Add(func() { got = append(got, 2) })
	require.Equal(t, 2, p.Len())
	require.Empty(t, got)

	p.Commit()
	require.Equal(t, []int{1, 2}, got)
	require.Zero(t, p.Len())

	p.Commit()
	require.Equal(t, []int{1, 2}, got)
}

func TestPendingDiscard(t *testing.T) {
	var p telemetry.Pending
	applied := false
	p.Add(func() { applied = true })

	p.Discard()
	p.Commit()
	require.False(t, applied)
	require.Zero(t, p.Len())
}
