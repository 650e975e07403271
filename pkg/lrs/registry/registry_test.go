// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/require"

	"github.com/stratastor/rodent/pkg/catalog"
	"github.com/stratastor/rodent/pkg/devicemanager"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

type fakeCatalog struct {
	devices []catalog.DeviceRecord
	media   []catalog.MediaRecord
}

func (f *fakeCatalog) GetDevices(ctx context.Context, filter catalog.Filter) ([]catalog.DeviceRecord, error) {
	return f.devices, nil
}
func (f *fakeCatalog) GetMedia(ctx context.Context, filter catalog.Filter) ([]catalog.MediaRecord, error) {
	return f.media, nil
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

type fakeDevice struct{ model, serial string }

func (d fakeDevice) PathForSerial(ctx context.Context, serial string) (string, error) {
	return "/dev/" + serial, nil
}
func (d fakeDevice) SystemState(ctx context.Context, path string) (devicemanager.SystemView, error) {
	return devicemanager.SystemView{Model: d.model, Serial: d.serial}, nil
}

type fakeLibrary struct{ content devicemanager.SlotContent }

func (l fakeLibrary) BayContents(ctx context.Context, drivePath string) (devicemanager.SlotContent, error) {
	return l.content, nil
}
func (l fakeLibrary) Load(ctx context.Context, drivePath, mediumID string) error   { return nil }
func (l fakeLibrary) Unload(ctx context.Context, drivePath string) error          { return nil }

type fakeFilesystem struct{ mounted bool }

func (f fakeFilesystem) Mount(ctx context.Context, devicePath, mountPoint string) error   { return nil }
func (f fakeFilesystem) Unmount(ctx context.Context, mountPoint string) error              { return nil }
func (f fakeFilesystem) Format(ctx context.Context, devicePath, fsType string) error       { return nil }
func (f fakeFilesystem) Stat(ctx context.Context, mountPoint string) (devicemanager.FreeSpace, error) {
	if !f.mounted {
		return devicemanager.FreeSpace{}, errors.New("not mounted")
	}
	return devicemanager.FreeSpace{Total: 100, Free: 50}, nil
}
func (f fakeFilesystem) ReadOnly(ctx context.Context, mountPoint string) (bool, error) { return false, nil }
func (f fakeFilesystem) Mounted(ctx context.Context, mountPoint string) (bool, error)  { return f.mounted, nil }

func newTestLogger(t *testing.T) logger.Logger {
	l, err := logger.NewTag(logger.Config{LogLevel: "error"}, "registry_test")
	require.NoError(t, err)
	return l
}

func TestReloadState_DiscoversAndRefreshes(t *testing.T) {
	cat := &fakeCatalog{
		devices: []catalog.DeviceRecord{{Serial: "S1", Model: "LTO8", Family: "tape", Admin: "unlocked", Host: "h1"}},
		media:   []catalog.MediaRecord{{ID: "M1", Family: "tape", Model: "LTO8"}},
	}
	adapters := devicemanager.Adapters{
		Device:     fakeDevice{model: "LTO8", serial: "S1"},
		Library:    fakeLibrary{content: devicemanager.SlotContent{ContainsMedium: true, MediumLabel: "M1"}},
		Filesystem: fakeFilesystem{mounted: false},
	}

	r := New(newTestLogger(t))
	r.Init(cat, devicemanager.ByFamily{types.FamilyTape: adapters}, "h1", types.FamilyTape)
	r.SetMountPrefix("/mnt/phobos-")

	require.NoError(t, r.ReloadState(context.Background()))

	drives := r.Drives()
	require.Len(t, drives, 1)
	require.Equal(t, types.StatusLoaded, drives[0].Status)
	require.NotNil(t, drives[0].Medium)
	require.Equal(t, "M1", drives[0].Medium.ID)
}

func TestReloadState_SystemMismatchMarksFailed(t *testing.T) {
	cat := &fakeCatalog{
		devices: []catalog.DeviceRecord{{Serial: "S1", Model: "LTO8", Family: "tape", Admin: "unlocked", Host: "h1"}},
	}
	adapters := devicemanager.Adapters{
		Device:  fakeDevice{model: "WRONG", serial: "S1"},
		Library: fakeLibrary{},
	}

	r := New(newTestLogger(t))
	r.Init(cat, devicemanager.ByFamily{types.FamilyTape: adapters}, "h1", types.FamilyTape)

	require.NoError(t, r.ReloadState(context.Background()))
	drives := r.Drives()
	require.Len(t, drives, 1)
	require.Equal(t, types.StatusFailed, drives[0].Status)
}

func TestFindLoaded(t *testing.T) {
	cat := &fakeCatalog{
		devices: []catalog.DeviceRecord{{Serial: "S1", Model: "LTO8", Family: "tape", Admin: "unlocked", Host: "h1"}},
		media:   []catalog.MediaRecord{{ID: "M1", Family: "tape", Model: "LTO8"}},
	}
	adapters := devicemanager.Adapters{
		Device:     fakeDevice{model: "LTO8", serial: "S1"},
		Library:    fakeLibrary{content: devicemanager.SlotContent{ContainsMedium: true, MediumLabel: "M1"}},
		Filesystem: fakeFilesystem{mounted: false},
	}
	r := New(newTestLogger(t))
	r.Init(cat, devicemanager.ByFamily{types.FamilyTape: adapters}, "h1", types.FamilyTape)
	require.NoError(t, r.ReloadState(context.Background()))

	d := r.FindLoaded("M1")
	require.NotNil(t, d)
	require.Equal(t, "S1", d.Serial)
	require.Nil(t, r.FindLoaded("NOPE"))
}

func TestDeviceAdd_RejectsUnspecifiedFamilyAndDuplicates(t *testing.T) {
	r := New(newTestLogger(t))
	r.Init(&fakeCatalog{}, devicemanager.ByFamily{}, "h1", types.FamilyTape)

	err := r.DeviceAdd(types.DriveDescriptor{Serial: "S1", Family: types.FamilyUnspecified})
	require.Error(t, err)

	require.NoError(t, r.DeviceAdd(types.DriveDescriptor{Serial: "S1", Family: types.FamilyTape}))
	err = r.DeviceAdd(types.DriveDescriptor{Serial: "S1", Family: types.FamilyTape})
	require.Error(t, err)
}
