// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package devicemanager abstracts the four adapter families the registry
// and device state machine drive: device (path/serial/state query),
// library (slot map, media movement), filesystem (mount/format/free-space)
// and I/O (post-write flush). Each family has back-ends selected by
// resource Family — tape via mtx/mt, dir via mount --bind and statfs.
package devicemanager

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

// SystemView is what the device adapter reports about a drive as seen by
// the operating system.
type SystemView struct {
	Model  string
	Serial string
}

// DeviceAdapter resolves a drive's device path and queries its live
// system state.
type DeviceAdapter interface {
	// PathForSerial returns the device path (e.g. /dev/nst0) for the
	// drive with the given serial.
	PathForSerial(ctx context.Context, serial string) (string, error)
	// SystemState queries the OS-reported model/serial for the drive at
	// path, used by the registry to cross-check the catalog's record.
	SystemState(ctx context.Context, path string) (SystemView, error)
}

// SlotContent describes what the library reports for one drive bay.
type SlotContent struct {
	BayAddress     string
	ContainsMedium bool
	MediumLabel    string
}

// LibraryAdapter controls the robotic or virtual mechanism that moves
// media between storage slots and drive bays.
type LibraryAdapter interface {
	// BayContents reports what occupies the drive's bay.
	BayContents(ctx context.Context, drivePath string) (SlotContent, error)
	// Load moves mediumID from its home slot into the drive. Returns an
	// errors.LRSBusyRetry error (Kind busy-retry) when the library refuses
	// a drive-to-drive movement.
	Load(ctx context.Context, drivePath, mediumID string) error
	// Unload moves the medium currently in the drive back to its home
	// slot.
	Unload(ctx context.Context, drivePath string) error
}

// FreeSpace reports a filesystem's capacity in bytes.
type FreeSpace struct {
	Total int64
	Free  int64
}

// FilesystemAdapter mounts, unmounts, formats and inspects the filesystem
// living on a loaded medium.
type FilesystemAdapter interface {
	Mount(ctx context.Context, devicePath, mountPoint string) error
	Unmount(ctx context.Context, mountPoint string) error
	// Format prepares a blank medium with the given filesystem type.
	Format(ctx context.Context, devicePath, fsType string) error
	// Stat returns the free space of a mounted filesystem; ReadOnly
	// reports whether it is mounted read-only. Some media mount almost-full
	// volumes read-only; the preparer uses ReadOnly to decide whether to
	// retry with another medium.
	Stat(ctx context.Context, mountPoint string) (FreeSpace, error)
	ReadOnly(ctx context.Context, mountPoint string) (bool, error)
	// Mounted reports whether mountPoint is the target of an active mount,
	// as distinct from merely existing as a directory.
	Mounted(ctx context.Context, mountPoint string) (bool, error)
}

// IOAdapter performs the post-write flush the preparer's io_complete step
// calls before re-querying free/used space.
type IOAdapter interface {
	Flush(ctx context.Context, mountPoint string) error
}

// Adapters bundles one concrete back-end per family, selected by
// types.Family. The registry, state machine and preparer take an Adapters
// value rather than four loose interfaces so a family's whole back-end is
// swapped atomically.
type Adapters struct {
	Device     DeviceAdapter
	Library    LibraryAdapter
	Filesystem FilesystemAdapter
	IO         IOAdapter
}

// ByFamily selects the configured Adapters set for a resource family.
type ByFamily map[types.Family]Adapters

// For returns the adapters registered for family, and false if none are
// configured.
func (b ByFamily) For(family types.Family) (Adapters, bool) {
	a, ok := b[family]
	return a, ok
}

// statfs reports a mounted filesystem's total and available space via
// syscall.Statfs, shared by every FilesystemAdapter that mounts onto a
// real path (dir and tape/LTFS alike).
func statfs(mountPoint string) (FreeSpace, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(mountPoint, &stat); err != nil {
		return FreeSpace{}, errors.New(errors.FilesystemStatFailed, "statfs failed").WithMetadata("mount_point", mountPoint)
	}
	blockSize := int64(stat.Bsize)
	return FreeSpace{
		Total: int64(stat.Blocks) * blockSize,
		Free:  int64(stat.Bavail) * blockSize,
	}, nil
}

// isMounted reports whether mountPoint appears as a mount point in
// /proc/self/mounts, shared by every FilesystemAdapter. A syscall.Statfs
// check would succeed on any existing directory regardless of mount
// status, and a st_dev comparison against the parent directory (the
// classic "mountpoint" utility technique) misses mount --bind, which
// keeps the same device number as its source filesystem — parsing the
// mount table is the one technique that detects both the dir family's
// bind mounts and the tape family's LTFS mounts.
func isMounted(mountPoint string) (bool, error) {
	target := filepath.Clean(mountPoint)

	f, err := os.Open("/proc/self/mounts")
	if err != nil {
		return false, errors.New(errors.FilesystemStatFailed, "failed to read mount table").WithMetadata("error", err.Error())
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if filepath.Clean(fields[1]) == target {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, errors.New(errors.FilesystemStatFailed, "failed to scan mount table").WithMetadata("error", err.Error())
	}
	return false, nil
}

// writeProbeReadOnly detects a read-only mount by attempting to write and
// remove a small probe file, shared by every FilesystemAdapter.
func writeProbeReadOnly(mountPoint string) (bool, error) {
	probe := filepath.Join(mountPoint, ".rw-probe")
	err := os.WriteFile(probe, []byte("probe"), 0o644)
	if err != nil {
		if os.IsPermission(err) {
			return true, nil
		}
		if pe, ok := err.(*os.PathError); ok && pe.Err == syscall.EROFS {
			return true, nil
		}
		return false, errors.New(errors.FilesystemStatFailed, "read-write probe failed").WithMetadata("mount_point", mountPoint)
	}
	_ = os.Remove(probe)
	return false, nil
}
