// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package picker

import (
	"context"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/require"

	"github.com/stratastor/rodent/pkg/catalog"
	"github.com/stratastor/rodent/pkg/devicemanager"
	"github.com/stratastor/rodent/pkg/lrs/compat"
	"github.com/stratastor/rodent/pkg/lrs/lock"
	"github.com/stratastor/rodent/pkg/lrs/registry"
	"github.com/stratastor/rodent/pkg/lrs/selection"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

type fakeCatalog struct {
	lockable map[string]bool
}

func (f *fakeCatalog) GetDevices(ctx context.Context, filter catalog.Filter) ([]catalog.DeviceRecord, error) {
	return nil, nil
}
func (f *fakeCatalog) GetMedia(ctx context.Context, filter catalog.Filter) ([]catalog.MediaRecord, error) {
	return nil, nil
}
func (f *fakeCatalog) UpdateMedium(ctx context.Context, id string, update catalog.MediumUpdate) error {
	return nil
}
func (f *fakeCatalog) AcquireLock(ctx context.Context, kind catalog.LockTargetKind, id, owner string) (bool, error) {
	if f.lockable == nil {
		return true, nil
	}
	ok, exists := f.lockable[id]
	if !exists {
		return true, nil
	}
	return ok, nil
}
func (f *fakeCatalog) ReleaseLock(ctx context.Context, kind catalog.LockTargetKind, id, owner string) error {
	return nil
}

func newTestLogger(t *testing.T) logger.Logger {
	l, err := logger.NewTag(logger.Config{LogLevel: "error"}, "picker_test")
	require.NoError(t, err)
	return l
}

func newRegistryWithDrives(t *testing.T, drives ...*types.DriveDescriptor) *registry.Registry {
	reg := registry.New(newTestLogger(t))
	reg.Init(&fakeCatalog{}, devicemanager.ByFamily{}, "h1", types.FamilyTape)
	for _, d := range drives {
		require.NoError(t, reg.DeviceAdd(*d))
	}
	return reg
}

func TestPick_AnyPolicySkipsLockedAndExternallyLockedMedium(t *testing.T) {
	reg := newRegistryWithDrives(t,
		&types.DriveDescriptor{Serial: "S1", Family: types.FamilyTape, LocalLock: true, Status: types.StatusMounted},
		&types.DriveDescriptor{Serial: "S2", Family: types.FamilyTape, Status: types.StatusMounted,
			Medium: &types.MediumDescriptor{ID: "M2", Lock: types.LockState{Kind: types.LockOwnedByOther}}},
		&types.DriveDescriptor{Serial: "S3", Family: types.FamilyTape, Status: types.StatusMounted,
			Medium: &types.MediumDescriptor{ID: "M3"}},
	)
	cat := &fakeCatalog{}
	l, err := lock.New(newTestLogger(t), cat, "thread-1")
	require.NoError(t, err)
	p := New(reg, l, compat.New(nil, nil))

	drive, err := p.Pick(context.Background(), types.StatusUnspecified, selection.AnyPolicy, 0, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, drive)
	require.Equal(t, "S3", drive.Serial)
	require.True(t, drive.LocalLock)
}

func TestPick_RetriesWhenCandidateLockRaced(t *testing.T) {
	reg := newRegistryWithDrives(t,
		&types.DriveDescriptor{Serial: "S1", Family: types.FamilyTape, Status: types.StatusMounted, Medium: &types.MediumDescriptor{ID: "M1"}},
		&types.DriveDescriptor{Serial: "S2", Family: types.FamilyTape, Status: types.StatusMounted, Medium: &types.MediumDescriptor{ID: "M2"}},
	)
	cat := &fakeCatalog{lockable: map[string]bool{"S1": false}}
	l, err := lock.New(newTestLogger(t), cat, "thread-1")
	require.NoError(t, err)
	p := New(reg, l, compat.New(nil, nil))

	drive, err := p.Pick(context.Background(), types.StatusUnspecified, selection.AnyPolicy, 0, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, drive)
	require.Equal(t, "S2", drive.Serial)
}

func TestPick_ReturnsNilWhenNoneMatch(t *testing.T) {
	reg := newRegistryWithDrives(t, &types.DriveDescriptor{Serial: "S1", Family: types.FamilyTape, Status: types.StatusFailed})
	cat := &fakeCatalog{}
	l, err := lock.New(newTestLogger(t), cat, "thread-1")
	require.NoError(t, err)
	p := New(reg, l, compat.New(nil, nil))

	drive, err := p.Pick(context.Background(), types.StatusMounted, selection.AnyPolicy, 0, nil, nil)
	require.NoError(t, err)
	require.Nil(t, drive)
}
