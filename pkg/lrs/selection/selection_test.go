// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package selection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stratastor/rodent/pkg/lrs/types"
)

func driveWithFree(free int64) *types.DriveDescriptor {
	return &types.DriveDescriptor{
		Status: types.StatusMounted,
		Medium: &types.MediumDescriptor{Stats: types.MediumStats{PhysicalFree: free}},
	}
}

func TestFirstFitPolicy_StopsOnFirstFit(t *testing.T) {
	var best *types.DriveDescriptor
	d1 := driveWithFree(1 << 20)
	decision, best, err := FirstFitPolicy(1<<30, d1, best)
	require.NoError(t, err)
	require.Equal(t, Continue, decision)

	d2 := driveWithFree(2 << 30)
	decision, best, err = FirstFitPolicy(1<<30, d2, best)
	require.NoError(t, err)
	require.Equal(t, Stop, decision)
	require.Same(t, d2, best)
}

func TestBestFitPolicy_PicksSmallestSufficientFit(t *testing.T) {
	var best *types.DriveDescriptor
	small := driveWithFree(2 << 30)
	large := driveWithFree(10 << 30)

	_, best, _ = BestFitPolicy(1<<30, large, best)
	_, best, _ = BestFitPolicy(1<<30, small, best)
	require.Same(t, small, best)
}

func TestBestFitPolicy_ExactMatchStopsEarly(t *testing.T) {
	var best *types.DriveDescriptor
	exact := driveWithFree(1 << 30)
	decision, best, _ := BestFitPolicy(1<<30, exact, best)
	require.Equal(t, Stop, decision)
	require.Same(t, exact, best)
}

func TestBestFitPolicy_ZeroSizeMatchesAnyNonFull(t *testing.T) {
	var best *types.DriveDescriptor
	d := driveWithFree(0)
	_, best, err := BestFitPolicy(0, d, best)
	require.NoError(t, err)
	require.Same(t, d, best)
}

func TestLeastFreeEvictionPolicy_SkipsFailedLockedEmpty(t *testing.T) {
	var best *types.DriveDescriptor
	failed := &types.DriveDescriptor{Status: types.StatusFailed}
	locked := &types.DriveDescriptor{Status: types.StatusMounted, LocalLock: true}
	empty := &types.DriveDescriptor{Status: types.StatusEmpty}
	candidate := &types.DriveDescriptor{Status: types.StatusMounted, Medium: &types.MediumDescriptor{Stats: types.MediumStats{PhysicalFree: 5}}}

	for _, d := range []*types.DriveDescriptor{failed, locked, empty} {
		_, best, _ = LeastFreeEvictionPolicy(0, d, best)
		require.Nil(t, best)
	}
	_, best, _ = LeastFreeEvictionPolicy(0, candidate, best)
	require.Same(t, candidate, best)
}

func TestAnyPolicy_StopsImmediately(t *testing.T) {
	d := &types.DriveDescriptor{}
	decision, best, err := AnyPolicy(0, d, nil)
	require.NoError(t, err)
	require.Equal(t, Stop, decision)
	require.Same(t, d, best)
}

func TestByName_RejectsUnknownPolicy(t *testing.T) {
	_, err := ByName("quickest")
	require.Error(t, err)
}
