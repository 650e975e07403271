// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package fsm

import (
	"context"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/require"

	"github.com/stratastor/rodent/pkg/catalog"
	"github.com/stratastor/rodent/pkg/devicemanager"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/lrs/lock"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

type fakeCatalog struct{}

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
	return true, nil
}
func (f *fakeCatalog) ReleaseLock(ctx context.Context, kind catalog.LockTargetKind, id, owner string) error {
	return nil
}

type fakeLibrary struct {
	loadErr, unloadErr error
}

func (l fakeLibrary) BayContents(ctx context.Context, drivePath string) (devicemanager.SlotContent, error) {
	return devicemanager.SlotContent{}, nil
}
func (l fakeLibrary) Load(ctx context.Context, drivePath, mediumID string) error   { return l.loadErr }
func (l fakeLibrary) Unload(ctx context.Context, drivePath string) error          { return l.unloadErr }

type fakeFilesystem struct {
	mountErr, unmountErr error
}

func (f fakeFilesystem) Mount(ctx context.Context, devicePath, mountPoint string) error { return f.mountErr }
func (f fakeFilesystem) Unmount(ctx context.Context, mountPoint string) error           { return f.unmountErr }
func (f fakeFilesystem) Format(ctx context.Context, devicePath, fsType string) error    { return nil }
func (f fakeFilesystem) Stat(ctx context.Context, mountPoint string) (devicemanager.FreeSpace, error) {
	return devicemanager.FreeSpace{}, nil
}
func (f fakeFilesystem) ReadOnly(ctx context.Context, mountPoint string) (bool, error) { return false, nil }
func (f fakeFilesystem) Mounted(ctx context.Context, mountPoint string) (bool, error)  { return false, nil }

func newMachine(t *testing.T, lib devicemanager.LibraryAdapter, fsys devicemanager.FilesystemAdapter) *Machine {
	l, err := logger.NewTag(logger.Config{LogLevel: "error"}, "fsm_test")
	require.NoError(t, err)
	locks, err := lock.New(l, &fakeCatalog{}, "thread-1")
	require.NoError(t, err)
	return New(l, devicemanager.Adapters{Library: lib, Filesystem: fsys}, locks, "/mnt/phobos-")
}

func TestLoad_EmptyToLoaded(t *testing.T) {
	m := newMachine(t, fakeLibrary{}, fakeFilesystem{})
	d := &types.DriveDescriptor{Serial: "S1", Status: types.StatusEmpty, DevicePath: "/dev/nst0"}
	medium := &types.MediumDescriptor{ID: "M1"}

	require.NoError(t, m.Load(context.Background(), d, medium))
	require.Equal(t, types.StatusLoaded, d.Status)
	require.Equal(t, medium, d.Medium)
}

func TestLoad_BusyRetryDoesNotFailDrive(t *testing.T) {
	m := newMachine(t, fakeLibrary{loadErr: errors.New(errors.LRSBusyRetry, "library refused move")}, fakeFilesystem{})
	d := &types.DriveDescriptor{Serial: "S1", Status: types.StatusEmpty, DevicePath: "/dev/nst0"}

	err := m.Load(context.Background(), d, &types.MediumDescriptor{ID: "M1"})
	require.Error(t, err)
	require.NotEqual(t, types.StatusFailed, d.Status)
}

func TestLoad_OtherErrorMarksFailed(t *testing.T) {
	m := newMachine(t, fakeLibrary{loadErr: errors.New(errors.LibraryMoveFailed, "scsi error")}, fakeFilesystem{})
	d := &types.DriveDescriptor{Serial: "S1", Status: types.StatusEmpty, DevicePath: "/dev/nst0"}

	err := m.Load(context.Background(), d, &types.MediumDescriptor{ID: "M1"})
	require.Error(t, err)
	require.Equal(t, types.StatusFailed, d.Status)
}

func TestMount_ConstructsMountPointFromPrefixAndBasename(t *testing.T) {
	m := newMachine(t, fakeLibrary{}, fakeFilesystem{})
	d := &types.DriveDescriptor{Serial: "S1", Status: types.StatusLoaded, DevicePath: "/dev/nst0", Medium: &types.MediumDescriptor{ID: "M1"}}

	require.NoError(t, m.Mount(context.Background(), d))
	require.Equal(t, "/mnt/phobos-nst0", d.MountPath)
	require.Equal(t, types.StatusMounted, d.Status)
}

func TestUnmount_RequiresMountedAndNonEmptyPath(t *testing.T) {
	m := newMachine(t, fakeLibrary{}, fakeFilesystem{})
	d := &types.DriveDescriptor{Serial: "S1", Status: types.StatusMounted, MountPath: "/mnt/phobos-nst0"}

	require.NoError(t, m.Unmount(context.Background(), d))
	require.Equal(t, "", d.MountPath)
	require.Equal(t, types.StatusLoaded, d.Status)
}

func TestUnload_ReleasesMediumLockBeforeDroppingMedium(t *testing.T) {
	m := newMachine(t, fakeLibrary{}, fakeFilesystem{})
	d := &types.DriveDescriptor{
		Serial: "S1", Status: types.StatusLoaded, DevicePath: "/dev/nst0",
		Medium: &types.MediumDescriptor{ID: "M1", Lock: types.LockState{Kind: types.LockOwnedByUs}},
	}

	require.NoError(t, m.Unload(context.Background(), d))
	require.Nil(t, d.Medium)
	require.Equal(t, types.StatusEmpty, d.Status)
}
