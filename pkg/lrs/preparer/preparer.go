// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package preparer implements the top-level LRS planners: write_prepare,
// read_prepare, format, io_complete and resource_release. They orchestrate
// selection, freeing (evicting) a drive if none is free, loading,
// mounting, and post-I/O accounting.
package preparer

import (
	"context"
	"sort"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/catalog"
	"github.com/stratastor/rodent/pkg/devicemanager"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/lrs/fsm"
	"github.com/stratastor/rodent/pkg/lrs/lock"
	"github.com/stratastor/rodent/pkg/lrs/picker"
	"github.com/stratastor/rodent/pkg/lrs/registry"
	"github.com/stratastor/rodent/pkg/lrs/selection"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

// Preparer orchestrates the registry, lock manager, picker and state
// machine into the caller-facing write_prepare/read_prepare/format/
// io_complete/resource_release operations.
type Preparer struct {
	log      logger.Logger
	reg      *registry.Registry
	locks    *lock.Manager
	pick     *picker.Picker
	cat      catalog.Client
	machines map[types.Family]*fsm.Machine
	adapters devicemanager.ByFamily

	defaultFamily types.Family
	writePolicy   selection.Policy

	// maxReadOnlyRetries bounds the total number of read-only-mount
	// retries one write_prepare call makes, whichever media they select.
	maxReadOnlyRetries int
}

// New builds a Preparer. machines must have one fsm.Machine per family
// present in adapters.
func New(log logger.Logger, reg *registry.Registry, locks *lock.Manager, pick *picker.Picker, cat catalog.Client,
	machines map[types.Family]*fsm.Machine, adapters devicemanager.ByFamily, defaultFamily types.Family, writePolicy selection.Policy) *Preparer {
	return &Preparer{
		log: log, reg: reg, locks: locks, pick: pick, cat: cat,
		machines: machines, adapters: adapters,
		defaultFamily:      defaultFamily,
		writePolicy:        writePolicy,
		maxReadOnlyRetries: 1,
	}
}

func (p *Preparer) machineFor(family types.Family) (*fsm.Machine, error) {
	m, ok := p.machines[family]
	if !ok {
		return nil, errors.New(errors.LRSConfigInvalid, "no state machine configured for family").WithMetadata("family", string(family))
	}
	return m, nil
}

func (p *Preparer) adaptersFor(family types.Family) (devicemanager.Adapters, error) {
	a, ok := p.adapters.For(family)
	if !ok {
		return devicemanager.Adapters{}, errors.New(errors.LRSConfigInvalid, "no adapters configured for family").WithMetadata("family", string(family))
	}
	return a, nil
}

// WritePrepare acquires a drive and medium able to hold size bytes with
// all of tags. If the mounted filesystem turns out to be read-only, the
// medium is marked full and the cascade runs again; at most
// maxReadOnlyRetries (1) such retries are made in total, so a second
// read-only medium ends the call with a no-space error.
func (p *Preparer) WritePrepare(ctx context.Context, size int64, tags []string, intent *types.Intent) error {
	for attempt := 0; ; attempt++ {
		drive, err := p.writePrepareOnce(ctx, size, tags, intent)
		if err != nil {
			return err
		}

		readOnly, err := p.verifyWritable(ctx, drive)
		if err != nil {
			p.releaseOnError(ctx, drive)
			return err
		}
		if !readOnly {
			intent.Drive = drive
			intent.Medium = drive.Medium
			intent.RootPath = drive.MountPath
			intent.FSType = drive.Medium.FSType
			intent.AddrScheme = drive.Medium.AddrScheme
			intent.ExtentSize = size
			return nil
		}

		// Read-only mount: mark the medium full, release, and retry the
		// whole cascade with a different medium. Bounded by
		// maxReadOnlyRetries retries in total, not per medium.
		fsStatus := string(types.FSFull)
		_ = p.cat.UpdateMedium(ctx, drive.Medium.ID, catalog.MediumUpdate{FSStatus: &fsStatus})
		drive.Medium.FSStatus = types.FSFull
		p.releaseOnError(ctx, drive)

		if attempt >= p.maxReadOnlyRetries {
			return errors.New(errors.LRSNoSpace, "no writable medium found after read-only retry")
		}
	}
}

func (p *Preparer) verifyWritable(ctx context.Context, drive *types.DriveDescriptor) (bool, error) {
	adapters, err := p.adaptersFor(drive.Family)
	if err != nil {
		return false, err
	}
	ro, err := adapters.Filesystem.ReadOnly(ctx, drive.MountPath)
	if err != nil {
		return false, errors.Wrap(err, errors.LRSDriveFailed)
	}
	return ro, nil
}

func (p *Preparer) releaseOnError(ctx context.Context, drive *types.DriveDescriptor) {
	if drive == nil {
		return
	}
	if drive.Medium != nil {
		_ = p.locks.UnlockMedium(ctx, drive.Medium)
	}
	_ = p.locks.UnlockDrive(ctx, drive)
}

// writePrepareOnce runs the six-step cascade once, stopping at the first
// step that yields a usable, mounted drive with all locks held.
func (p *Preparer) writePrepareOnce(ctx context.Context, size int64, tags []string, intent *types.Intent) (*types.DriveDescriptor, error) {
	// Step 1: already-mounted medium with room.
	if drive, err := p.pick.Pick(ctx, types.StatusMounted, p.writePolicy, size, tags, nil); err != nil {
		return nil, err
	} else if drive != nil {
		return drive, nil
	}

	// Step 2: loaded medium with room, then mount it.
	drive, err := p.pick.Pick(ctx, types.StatusLoaded, p.writePolicy, size, tags, nil)
	if err != nil {
		return nil, err
	}
	if drive != nil {
		machine, err := p.machineFor(drive.Family)
		if err != nil {
			return nil, err
		}
		if err := machine.Mount(ctx, drive); err != nil {
			p.releaseOnError(ctx, drive)
			return nil, err
		}
		return drive, nil
	}

	// Step 3: select and lock a fresh medium from the catalog.
	medium, err := p.selectMedium(ctx, size, tags)
	if err != nil {
		return nil, err
	}

	// Step 4: find the medium already loaded somewhere, or pick an empty
	// drive, or free one up.
	drive = p.reg.FindLoaded(medium.ID)
	if drive != nil {
		if err := p.locks.LockDrive(ctx, drive); err != nil {
			_ = p.locks.UnlockMedium(ctx, medium)
			return nil, err
		}
	} else {
		drive, err = p.pick.Pick(ctx, types.StatusEmpty, selection.AnyPolicy, 0, nil, medium)
		if err != nil {
			_ = p.locks.UnlockMedium(ctx, medium)
			return nil, err
		}
		if drive == nil {
			drive, err = p.freeOneDevice(ctx, medium)
			if err != nil {
				_ = p.locks.UnlockMedium(ctx, medium)
				return nil, err
			}
		}
	}

	// Step 5: load.
	machine, err := p.machineFor(drive.Family)
	if err != nil {
		p.releaseOnError(ctx, drive)
		return nil, err
	}
	if drive.Status == types.StatusEmpty {
		if err := machine.Load(ctx, drive, medium); err != nil {
			p.releaseOnError(ctx, drive)
			return nil, err
		}
	} else {
		drive.Medium = medium
	}

	// Step 6: mount.
	if drive.Status == types.StatusLoaded {
		if err := machine.Mount(ctx, drive); err != nil {
			p.releaseOnError(ctx, drive)
			return nil, err
		}
	}

	return drive, nil
}

// selectMedium queries the catalog for an unlocked, non-blank, non-full
// medium with enough free space and all required tags, preferring the
// smallest free space that still fits, and locks it.
func (p *Preparer) selectMedium(ctx context.Context, size int64, tags []string) (*types.MediumDescriptor, error) {
	filter := catalog.And(
		catalog.Eq("family", string(p.defaultFamily)),
		catalog.Eq("admin_status", string(types.AdminUnlocked)),
		catalog.Nor(catalog.Eq("fs_status", string(types.FSBlank)), catalog.Eq("fs_status", string(types.FSFull))),
		catalog.Gte("physical_free", size),
	)

	records, err := p.cat.GetMedia(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, errors.CatalogQueryFailed)
	}

	var candidates []*types.MediumDescriptor
	for i := range records {
		m := records[i].ToMediumDescriptor(p.locks.Owner())
		if !m.Tags.HasAll(tags) {
			continue
		}
		candidates = append(candidates, &m)
	}
	if len(candidates) == 0 {
		return nil, errors.New(errors.LRSNoSpace, "no medium matches required size and tags")
	}

	// Prefer the smallest free space that still fits: candidates are tried
	// in ascending free-space order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FreeSpace() < candidates[j].FreeSpace()
	})

	allExternallyLocked := true
	for _, c := range candidates {
		if err := p.locks.LockMedium(ctx, c); err == nil {
			return c, nil
		} else if !c.Lock.OwnedByOther() {
			allExternallyLocked = false
		}
	}
	if allExternallyLocked {
		return nil, errors.New(errors.LRSBusyRetry, "all candidate media are externally locked")
	}
	return nil, errors.New(errors.LRSCatalogFailure, "failed to lock any candidate medium")
}

// freeOneDevice runs the least-free-eviction policy, unmounting and
// unloading the chosen drive to make room for medium.
func (p *Preparer) freeOneDevice(ctx context.Context, medium *types.MediumDescriptor) (*types.DriveDescriptor, error) {
	drive, err := p.pick.Pick(ctx, types.StatusUnspecified, selection.LeastFreeEvictionPolicy, 0, nil, nil)
	if err != nil {
		return nil, err
	}
	if drive == nil {
		return nil, errors.New(errors.LRSNoDevice, "no compatible unfailed unlocked drive exists")
	}

	machine, err := p.machineFor(drive.Family)
	if err != nil {
		p.releaseOnError(ctx, drive)
		return nil, err
	}

	if drive.Status == types.StatusMounted {
		if err := machine.Unmount(ctx, drive); err != nil {
			p.releaseOnError(ctx, drive)
			return nil, err
		}
	}
	if drive.Status == types.StatusLoaded {
		if err := machine.Unload(ctx, drive); err != nil {
			p.releaseOnError(ctx, drive)
			return nil, err
		}
	}
	return drive, nil
}

// ReadPrepare looks up the medium embedded in the intent, enforces it is
// formatted, acquires it, finds or loads it into a drive, mounts if
// necessary, and fills the intent.
func (p *Preparer) ReadPrepare(ctx context.Context, intent *types.Intent) error {
	if intent.MediumID == "" {
		return errors.New(errors.LRSInvalidArgument, "read_prepare requires a medium id")
	}

	records, err := p.cat.GetMedia(ctx, catalog.Eq("id", intent.MediumID))
	if err != nil {
		return errors.Wrap(err, errors.CatalogQueryFailed)
	}
	if len(records) == 0 {
		return errors.New(errors.LRSMediumNotFound, "medium not found").WithMetadata("id", intent.MediumID)
	}
	medium := records[0].ToMediumDescriptor(p.locks.Owner())
	if medium.FSStatus == types.FSBlank {
		return errors.New(errors.LRSInvalidArgument, "cannot read a blank medium").WithMetadata("id", intent.MediumID)
	}

	if err := p.locks.LockMedium(ctx, &medium); err != nil {
		return err
	}

	drive := p.reg.FindLoaded(medium.ID)
	if drive != nil {
		if err := p.locks.LockDrive(ctx, drive); err != nil {
			_ = p.locks.UnlockMedium(ctx, &medium)
			return err
		}
	} else {
		drive, err = p.pick.Pick(ctx, types.StatusEmpty, selection.AnyPolicy, 0, nil, &medium)
		if err != nil {
			_ = p.locks.UnlockMedium(ctx, &medium)
			return err
		}
		if drive == nil {
			drive, err = p.freeOneDevice(ctx, &medium)
			if err != nil {
				_ = p.locks.UnlockMedium(ctx, &medium)
				return err
			}
		}
		machine, err := p.machineFor(drive.Family)
		if err != nil {
			p.releaseOnError(ctx, drive)
			return err
		}
		if err := machine.Load(ctx, drive, &medium); err != nil {
			p.releaseOnError(ctx, drive)
			return err
		}
	}

	if drive.Status == types.StatusLoaded {
		machine, err := p.machineFor(drive.Family)
		if err != nil {
			p.releaseOnError(ctx, drive)
			return err
		}
		if err := machine.Mount(ctx, drive); err != nil {
			p.releaseOnError(ctx, drive)
			return err
		}
	}

	intent.Drive = drive
	intent.Medium = drive.Medium
	intent.RootPath = drive.MountPath
	intent.FSType = drive.Medium.FSType
	intent.AddrScheme = drive.Medium.AddrScheme
	return nil
}

// Format loads a blank medium into a drive, calls the filesystem adapter's
// format with fsType, then sets the medium's filesystem status to empty in
// the catalog and, when unlock is set, its admin status to unlocked. Space
// statistics are not written back, and a failed catalog update is not
// reported to the caller. Drive and medium locks are released whether or
// not the catalog update succeeds, so a partial failure cannot pin the
// drive.
func (p *Preparer) Format(ctx context.Context, mediumID, fsType string, unlock bool) error {
	intent := &types.Intent{Kind: types.IntentFormat, MediumID: mediumID}

	records, err := p.cat.GetMedia(ctx, catalog.Eq("id", mediumID))
	if err != nil {
		return errors.Wrap(err, errors.CatalogQueryFailed)
	}
	if len(records) == 0 {
		return errors.New(errors.LRSMediumNotFound, "medium not found").WithMetadata("id", mediumID)
	}
	medium := records[0].ToMediumDescriptor(p.locks.Owner())
	if medium.FSStatus != types.FSBlank {
		return errors.New(errors.LRSInvalidArgument, "format requires a blank medium").WithMetadata("id", mediumID)
	}

	if err := p.locks.LockMedium(ctx, &medium); err != nil {
		return err
	}

	drive, err := p.pick.Pick(ctx, types.StatusEmpty, selection.AnyPolicy, 0, nil, &medium)
	if err != nil {
		_ = p.locks.UnlockMedium(ctx, &medium)
		return err
	}
	if drive == nil {
		drive, err = p.freeOneDevice(ctx, &medium)
		if err != nil {
			_ = p.locks.UnlockMedium(ctx, &medium)
			return err
		}
	}

	machine, err := p.machineFor(drive.Family)
	if err != nil {
		p.releaseOnError(ctx, drive)
		return err
	}
	if err := machine.Load(ctx, drive, &medium); err != nil {
		p.releaseOnError(ctx, drive)
		return err
	}

	adapters, err := p.adaptersFor(drive.Family)
	if err != nil {
		p.releaseOnError(ctx, drive)
		return err
	}

	formatErr := adapters.Filesystem.Format(ctx, drive.DevicePath, fsType)

	// Always release, whether or not the format or catalog update
	// succeeded, so a partial failure cannot pin the drive.
	defer p.releaseOnError(ctx, drive)

	if formatErr != nil {
		return errors.Wrap(formatErr, errors.LRSDriveFailed)
	}

	fsStatus := string(types.FSEmpty)
	update := catalog.MediumUpdate{FSStatus: &fsStatus}
	if unlock {
		admin := string(types.AdminUnlocked)
		update.Admin = &admin
	}
	_ = p.cat.UpdateMedium(ctx, mediumID, update)

	intent.FSType = fsType
	return nil
}

// IOComplete flushes via the I/O adapter, re-queries free/used space,
// bumps the object counter, promotes filesystem status, and persists the
// update.
func (p *Preparer) IOComplete(ctx context.Context, intent *types.Intent, fragmentsWritten int64, globalMediaError bool) error {
	if intent.Drive == nil || intent.Medium == nil {
		return errors.New(errors.LRSInvalidArgument, "io_complete requires a prepared intent")
	}

	adapters, err := p.adaptersFor(intent.Drive.Family)
	if err != nil {
		return err
	}
	if err := adapters.IO.Flush(ctx, intent.RootPath); err != nil {
		return errors.Wrap(err, errors.LRSDriveFailed)
	}

	space, err := adapters.Filesystem.Stat(ctx, intent.RootPath)
	if err != nil {
		return errors.Wrap(err, errors.LRSDriveFailed)
	}

	medium := intent.Medium
	medium.Stats.PhysicalFree = space.Free
	medium.Stats.PhysicalUsed = space.Total - space.Free
	medium.Stats.ObjectsStored += fragmentsWritten
	if fragmentsWritten > 0 {
		medium.Stats.LogicalUsed += intent.ExtentSize
	}
	if medium.FSStatus == types.FSBlank || medium.FSStatus == types.FSEmpty {
		medium.FSStatus = types.FSUsed
	}
	if globalMediaError || space.Free == 0 {
		medium.FSStatus = types.FSFull
	}

	fsStatus := string(medium.FSStatus)
	objects := medium.Stats.ObjectsStored
	physUsed := medium.Stats.PhysicalUsed
	physFree := medium.Stats.PhysicalFree
	logUsed := medium.Stats.LogicalUsed
	update := catalog.MediumUpdate{
		FSStatus: &fsStatus,
		Objects:  &objects,
		PhysUsed: &physUsed,
		PhysFree: &physFree,
		LogUsed:  &logUsed,
	}
	if err := p.cat.UpdateMedium(ctx, medium.ID, update); err != nil {
		return errors.Wrap(err, errors.CatalogUpdateFailed)
	}
	return nil
}

// ResourceRelease releases the drive and the medium held in it, and
// empties the intent. Always succeeds, including on an already-empty
// intent (idempotent).
func (p *Preparer) ResourceRelease(ctx context.Context, intent *types.Intent) error {
	if intent.Medium != nil {
		_ = p.locks.UnlockMedium(ctx, intent.Medium)
	}
	if intent.Drive != nil {
		_ = p.locks.UnlockDrive(ctx, intent.Drive)
	}
	intent.Reset()
	return nil
}
