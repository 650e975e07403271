// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package fsm drives a single drive through empty -> loaded -> mounted
// (and back), updating registry state atomically with catalog intent.
package fsm

import (
	"context"
	"path/filepath"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/devicemanager"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/lrs/lock"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

// Machine drives device-state transitions for drives of one family,
// talking to that family's device-manager adapters.
type Machine struct {
	log         logger.Logger
	adapters    devicemanager.Adapters
	locks       *lock.Manager
	mountPrefix string
}

// New builds a Machine over the given family's adapters.
func New(log logger.Logger, adapters devicemanager.Adapters, locks *lock.Manager, mountPrefix string) *Machine {
	return &Machine{log: log, adapters: adapters, locks: locks, mountPrefix: mountPrefix}
}

// Load transitions a drive from empty to loaded with the given medium.
// Preconditions: drive contains no medium, medium is provided. A library
// refusal to perform a drive-to-drive movement is reported as busy-retry
// without marking the drive failed.
func (m *Machine) Load(ctx context.Context, d *types.DriveDescriptor, medium *types.MediumDescriptor) error {
	if d.Status != types.StatusEmpty {
		return errors.New(errors.LRSInvalidArgument, "load requires an empty drive").WithMetadata("serial", d.Serial)
	}
	if medium == nil {
		return errors.New(errors.LRSInvalidArgument, "load requires a target medium")
	}

	if err := m.adapters.Library.Load(ctx, d.DevicePath, medium.ID); err != nil {
		if errors.IsKind(err, errors.KindBusyRetry) {
			return err
		}
		d.Status = types.StatusFailed
		return errors.Wrap(err, errors.LRSDriveFailed)
	}

	d.Medium = medium
	d.ContainsMedium = true
	d.ContainedMedium = medium.ID
	d.Status = types.StatusLoaded
	return nil
}

// Unload transitions a drive from loaded to empty. Preconditions: drive
// contains a medium and the library allows the move. The medium lock is
// released before the medium descriptor is dropped.
func (m *Machine) Unload(ctx context.Context, d *types.DriveDescriptor) error {
	if d.Status != types.StatusLoaded {
		return errors.New(errors.LRSInvalidArgument, "unload requires a loaded drive").WithMetadata("serial", d.Serial)
	}
	if d.Medium == nil {
		return errors.New(errors.LRSInvalidArgument, "unload requires a contained medium").WithMetadata("serial", d.Serial)
	}

	if err := m.adapters.Library.Unload(ctx, d.DevicePath); err != nil {
		if errors.IsKind(err, errors.KindBusyRetry) {
			return err
		}
		d.Status = types.StatusFailed
		return errors.Wrap(err, errors.LRSDriveFailed)
	}

	if err := m.locks.UnlockMedium(ctx, d.Medium); err != nil {
		return errors.Wrap(err, errors.CatalogLockFailed)
	}

	d.Medium = nil
	d.ContainsMedium = false
	d.ContainedMedium = ""
	d.Status = types.StatusEmpty
	return nil
}

// Mount transitions a drive from loaded to mounted. Precondition: drive
// contains a medium. The mount point follows the stable
// "{mount_prefix}{basename(device_path)}" convention.
func (m *Machine) Mount(ctx context.Context, d *types.DriveDescriptor) error {
	if d.Status != types.StatusLoaded {
		return errors.New(errors.LRSInvalidArgument, "mount requires a loaded drive").WithMetadata("serial", d.Serial)
	}
	if d.Medium == nil {
		return errors.New(errors.LRSInvalidArgument, "mount requires a contained medium").WithMetadata("serial", d.Serial)
	}

	mountPoint := m.mountPrefix + filepath.Base(d.DevicePath)
	if err := m.adapters.Filesystem.Mount(ctx, d.DevicePath, mountPoint); err != nil {
		d.Status = types.StatusFailed
		return errors.Wrap(err, errors.LRSDriveFailed)
	}

	d.MountPath = mountPoint
	d.Status = types.StatusMounted
	return nil
}

// Unmount transitions a drive from mounted to loaded. Precondition:
// mount path is non-empty.
func (m *Machine) Unmount(ctx context.Context, d *types.DriveDescriptor) error {
	if d.Status != types.StatusMounted {
		return errors.New(errors.LRSInvalidArgument, "unmount requires a mounted drive").WithMetadata("serial", d.Serial)
	}
	if d.MountPath == "" {
		return errors.New(errors.LRSInvalidArgument, "unmount requires a non-empty mount path").WithMetadata("serial", d.Serial)
	}

	if err := m.adapters.Filesystem.Unmount(ctx, d.MountPath); err != nil {
		d.Status = types.StatusFailed
		return errors.Wrap(err, errors.LRSDriveFailed)
	}

	d.MountPath = ""
	d.Status = types.StatusLoaded
	return nil
}

// MarkFailed forces a drive into the failed state from any state except
// failed itself, per "any except failed -> any failed op -> failed".
func (m *Machine) MarkFailed(d *types.DriveDescriptor) {
	d.Status = types.StatusFailed
}
