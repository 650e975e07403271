// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package preparer

import (
	"context"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/require"

	"github.com/stratastor/rodent/pkg/catalog"
	"github.com/stratastor/rodent/pkg/devicemanager"
	"github.com/stratastor/rodent/pkg/lrs/compat"
	"github.com/stratastor/rodent/pkg/lrs/fsm"
	"github.com/stratastor/rodent/pkg/lrs/lock"
	"github.com/stratastor/rodent/pkg/lrs/picker"
	"github.com/stratastor/rodent/pkg/lrs/registry"
	"github.com/stratastor/rodent/pkg/lrs/selection"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

type fakeCatalog struct {
	media   []catalog.MediaRecord
	updates map[string]catalog.MediumUpdate
}

func (f *fakeCatalog) GetDevices(ctx context.Context, filter catalog.Filter) ([]catalog.DeviceRecord, error) {
	return nil, nil
}
func (f *fakeCatalog) GetMedia(ctx context.Context, filter catalog.Filter) ([]catalog.MediaRecord, error) {
	return f.media, nil
}
func (f *fakeCatalog) UpdateMedium(ctx context.Context, id string, update catalog.MediumUpdate) error {
	if f.updates == nil {
		f.updates = map[string]catalog.MediumUpdate{}
	}
	f.updates[id] = update
	return nil
}
func (f *fakeCatalog) AcquireLock(ctx context.Context, kind catalog.LockTargetKind, id, owner string) (bool, error) {
	return true, nil
}
func (f *fakeCatalog) ReleaseLock(ctx context.Context, kind catalog.LockTargetKind, id, owner string) error {
	return nil
}

type fakeDevice struct{}

func (fakeDevice) PathForSerial(ctx context.Context, serial string) (string, error) {
	return "/dev/" + serial, nil
}
func (fakeDevice) SystemState(ctx context.Context, path string) (devicemanager.SystemView, error) {
	return devicemanager.SystemView{}, nil
}

type fakeLibrary struct{}

func (fakeLibrary) BayContents(ctx context.Context, drivePath string) (devicemanager.SlotContent, error) {
	return devicemanager.SlotContent{}, nil
}
func (fakeLibrary) Load(ctx context.Context, drivePath, mediumID string) error { return nil }
func (fakeLibrary) Unload(ctx context.Context, drivePath string) error        { return nil }

type fakeFilesystem struct {
	readOnly bool
	free     int64
}

func (fakeFilesystem) Mount(ctx context.Context, devicePath, mountPoint string) error   { return nil }
func (fakeFilesystem) Unmount(ctx context.Context, mountPoint string) error             { return nil }
func (fakeFilesystem) Format(ctx context.Context, devicePath, fsType string) error      { return nil }
func (f fakeFilesystem) Stat(ctx context.Context, mountPoint string) (devicemanager.FreeSpace, error) {
	return devicemanager.FreeSpace{Total: 10 << 30, Free: f.free}, nil
}
func (f fakeFilesystem) ReadOnly(ctx context.Context, mountPoint string) (bool, error) {
	return f.readOnly, nil
}
func (fakeFilesystem) Mounted(ctx context.Context, mountPoint string) (bool, error) { return true, nil }

type fakeIO struct{}

func (fakeIO) Flush(ctx context.Context, mountPoint string) error { return nil }

func newTestLogger(t *testing.T) logger.Logger {
	l, err := logger.NewTag(logger.Config{LogLevel: "error"}, "preparer_test")
	require.NoError(t, err)
	return l
}

func newPreparer(t *testing.T, cat *fakeCatalog, fsys devicemanager.FilesystemAdapter, drives ...*types.DriveDescriptor) (*Preparer, *registry.Registry) {
	log := newTestLogger(t)
	adapters := devicemanager.Adapters{Device: fakeDevice{}, Library: fakeLibrary{}, Filesystem: fsys, IO: fakeIO{}}
	byFamily := devicemanager.ByFamily{types.FamilyTape: adapters}

	reg := registry.New(log)
	reg.Init(cat, byFamily, "h1", types.FamilyTape)
	reg.SetMountPrefix("/mnt/phobos-")
	for _, d := range drives {
		if d == nil {
			continue
		}
		require.NoError(t, reg.DeviceAdd(*d))
	}

	locks, err := lock.New(log, cat, "thread-1")
	require.NoError(t, err)
	// Permissive oracle matching the zero-value Model strings the test
	// fixtures use, so compatibility filtering is a no-op here.
	oracle := compat.New(
		map[string]compat.TapeType{"": {DriveRW: []string{""}}},
		map[string]compat.DriveType{"": {Models: []string{""}}},
	)
	pick := picker.New(reg, locks, oracle)
	machines := map[types.Family]*fsm.Machine{
		types.FamilyTape: fsm.New(log, adapters, locks, "/mnt/phobos-"),
	}

	return New(log, reg, locks, pick, cat, machines, byFamily, types.FamilyTape, selection.AnyPolicy), reg
}

func TestWritePrepare_AlreadyMountedDriveWithRoom(t *testing.T) {
	cat := &fakeCatalog{}
	drive := &types.DriveDescriptor{
		Serial: "S1", Family: types.FamilyTape, Status: types.StatusMounted, DevicePath: "/dev/S1", MountPath: "/mnt/phobos-S1",
		Medium: &types.MediumDescriptor{ID: "M1", FSType: "ext4", Stats: types.MediumStats{PhysicalFree: 10 << 30}},
	}
	p, _ := newPreparer(t, cat, fakeFilesystem{free: 9 << 30}, drive)

	intent := &types.Intent{Kind: types.IntentWrite}
	require.NoError(t, p.WritePrepare(context.Background(), 1<<30, nil, intent))
	require.Equal(t, "M1", intent.Medium.ID)
	require.Equal(t, "/mnt/phobos-S1", intent.RootPath)
	require.True(t, intent.Drive.LocalLock)
}

func TestWritePrepare_ReadOnlyMountRetries(t *testing.T) {
	cat := &fakeCatalog{}
	drive := &types.DriveDescriptor{
		Serial: "S1", Family: types.FamilyTape, Status: types.StatusMounted, DevicePath: "/dev/S1", MountPath: "/mnt/phobos-S1",
		Medium: &types.MediumDescriptor{ID: "M1", Stats: types.MediumStats{PhysicalFree: 10 << 30}},
	}
	p, _ := newPreparer(t, cat, fakeFilesystem{readOnly: true}, drive)

	intent := &types.Intent{Kind: types.IntentWrite}
	err := p.WritePrepare(context.Background(), 1<<30, nil, intent)
	require.Error(t, err)
	require.Equal(t, types.FSFull, drive.Medium.FSStatus)
}

func TestIOComplete_PromotesEmptyToUsed(t *testing.T) {
	cat := &fakeCatalog{}
	p, _ := newPreparer(t, cat, fakeFilesystem{free: 5 << 30}, nil)

	drive := &types.DriveDescriptor{Serial: "S1", Family: types.FamilyTape, MountPath: "/mnt/phobos-S1"}
	medium := &types.MediumDescriptor{ID: "M1", FSStatus: types.FSEmpty, Stats: types.MediumStats{PhysicalFree: 10 << 30}}
	intent := &types.Intent{Drive: drive, Medium: medium, RootPath: "/mnt/phobos-S1"}

	require.NoError(t, p.IOComplete(context.Background(), intent, 1, false))
	require.Equal(t, types.FSUsed, medium.FSStatus)
	require.EqualValues(t, 1, medium.Stats.ObjectsStored)
}

func TestIOComplete_PromotesToFullOnZeroFreeSpace(t *testing.T) {
	cat := &fakeCatalog{}
	p, _ := newPreparer(t, cat, fakeFilesystem{free: 0}, nil)

	drive := &types.DriveDescriptor{Serial: "S1", Family: types.FamilyTape, MountPath: "/mnt/phobos-S1"}
	medium := &types.MediumDescriptor{ID: "M1", FSStatus: types.FSUsed}
	intent := &types.Intent{Drive: drive, Medium: medium, RootPath: "/mnt/phobos-S1"}

	require.NoError(t, p.IOComplete(context.Background(), intent, 1, false))
	require.Equal(t, types.FSFull, medium.FSStatus)
}

func TestIOComplete_BumpsLogicalUsedByExtentSize(t *testing.T) {
	cat := &fakeCatalog{}
	p, _ := newPreparer(t, cat, fakeFilesystem{free: 5 << 30}, nil)

	drive := &types.DriveDescriptor{Serial: "S1", Family: types.FamilyTape, MountPath: "/mnt/phobos-S1"}
	medium := &types.MediumDescriptor{ID: "M1", FSStatus: types.FSUsed, Stats: types.MediumStats{PhysicalFree: 10 << 30}}
	intent := &types.Intent{Drive: drive, Medium: medium, RootPath: "/mnt/phobos-S1", ExtentSize: 4 << 20}

	require.NoError(t, p.IOComplete(context.Background(), intent, 7, false))
	require.EqualValues(t, 4<<20, medium.Stats.LogicalUsed)
}

func TestResourceRelease_IdempotentOnEmptyIntent(t *testing.T) {
	cat := &fakeCatalog{}
	p, _ := newPreparer(t, cat, fakeFilesystem{}, nil)

	intent := &types.Intent{}
	require.NoError(t, p.ResourceRelease(context.Background(), intent))
	require.NoError(t, p.ResourceRelease(context.Background(), intent))
	require.Nil(t, intent.Drive)
	require.Nil(t, intent.Medium)
}

func TestReadPrepare_BlankMediumIsInvalidArgument(t *testing.T) {
	cat := &fakeCatalog{media: []catalog.MediaRecord{{ID: "M1", Family: "tape", FSStatus: "blank"}}}
	p, _ := newPreparer(t, cat, fakeFilesystem{}, nil)

	intent := &types.Intent{Kind: types.IntentRead, MediumID: "M1"}
	err := p.ReadPrepare(context.Background(), intent)
	require.Error(t, err)
}

func TestFormat_UnlockedBlankMedium(t *testing.T) {
	cat := &fakeCatalog{media: []catalog.MediaRecord{{ID: "M1", Family: "tape", FSStatus: "blank", Admin: "locked"}}}
	drive := &types.DriveDescriptor{Serial: "S1", Family: types.FamilyTape, Status: types.StatusEmpty, DevicePath: "/dev/S1"}
	p, reg := newPreparer(t, cat, fakeFilesystem{}, drive)

	require.NoError(t, p.Format(context.Background(), "M1", "ext4", true))
	require.Contains(t, cat.updates, "M1")
	require.False(t, reg.Drives()[0].LocalLock)
}
