// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"context"
	"os"
	"path/filepath"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/subprocess"
)

// DirDevice treats a directory tree under rootDir as the "drive": the
// directory's own path both identifies it and serves as its device path,
// there being no separate block device for the directory family.
type DirDevice struct {
	log     logger.Logger
	rootDir string
}

func NewDirDevice(log logger.Logger, rootDir string) *DirDevice {
	return &DirDevice{log: log, rootDir: rootDir}
}

func (d *DirDevice) PathForSerial(ctx context.Context, serial string) (string, error) {
	return filepath.Join(d.rootDir, serial), nil
}

func (d *DirDevice) SystemState(ctx context.Context, path string) (SystemView, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return SystemView{}, errors.New(errors.DeviceQueryFailed, "directory drive path missing").WithMetadata("path", path)
	}
	// A directory drive has no model/serial beyond its path: Model is the
	// constant "dir" and Serial is the path's last element (the serial
	// PathForSerial joined onto rootDir), so the registry's cross-check
	// passes for a drive whose catalog model is "dir".
	return SystemView{Model: "dir", Serial: filepath.Base(path)}, nil
}

// DirLibrary treats the drive path itself as the "bay": directory media
// never actually move, so Load/Unload only write or remove a ".medium"
// marker file in that directory holding the loaded medium's id. bayDir is
// stored but not consulted.
type DirLibrary struct {
	log    logger.Logger
	bayDir string
}

func NewDirLibrary(log logger.Logger, bayDir string) *DirLibrary {
	return &DirLibrary{log: log, bayDir: bayDir}
}

func (l *DirLibrary) BayContents(ctx context.Context, drivePath string) (SlotContent, error) {
	marker := filepath.Join(drivePath, ".medium")
	data, err := os.ReadFile(marker)
	if err != nil {
		return SlotContent{BayAddress: drivePath}, nil
	}
	return SlotContent{BayAddress: drivePath, ContainsMedium: true, MediumLabel: string(data)}, nil
}

func (l *DirLibrary) Load(ctx context.Context, drivePath, mediumID string) error {
	if err := os.MkdirAll(drivePath, 0o755); err != nil {
		return errors.New(errors.LibraryMoveFailed, "failed to prepare directory bay").WithMetadata("path", drivePath)
	}
	marker := filepath.Join(drivePath, ".medium")
	if err := os.WriteFile(marker, []byte(mediumID), 0o644); err != nil {
		return errors.New(errors.LibraryMoveFailed, "failed to stamp directory bay with medium id").WithMetadata("path", drivePath)
	}
	return nil
}

func (l *DirLibrary) Unload(ctx context.Context, drivePath string) error {
	marker := filepath.Join(drivePath, ".medium")
	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		return errors.New(errors.LibraryMoveFailed, "failed to clear directory bay marker").WithMetadata("path", drivePath)
	}
	return nil
}

// DirFilesystem implements the filesystem family for directory media:
// "mount" is a bind mount of the backing directory onto the mount point,
// "format" is creating the backing directory tree, and free space comes
// from statfs on the backing filesystem.
type DirFilesystem struct {
	log logger.Logger
}

func NewDirFilesystem(log logger.Logger) *DirFilesystem {
	return &DirFilesystem{log: log}
}

func (f *DirFilesystem) Mount(ctx context.Context, devicePath, mountPoint string) error {
	if err := os.MkdirAll(mountPoint, 0o755); err != nil {
		return errors.New(errors.FilesystemMountFailed, "failed to create mount point").WithMetadata("mount_point", mountPoint)
	}
	res, err := subprocess.Capture(ctx, "mount", []string{"--bind", devicePath, mountPoint}, nil)
	if err != nil || res != subprocess.ResultSuccess {
		return errors.New(errors.FilesystemMountFailed, "bind mount failed").
			WithMetadata("device", devicePath).WithMetadata("mount_point", mountPoint)
	}
	return nil
}

func (f *DirFilesystem) Unmount(ctx context.Context, mountPoint string) error {
	res, err := subprocess.Capture(ctx, "umount", []string{mountPoint}, nil)
	if err != nil || res != subprocess.ResultSuccess {
		return errors.New(errors.FilesystemUnmountFailed, "umount failed").WithMetadata("mount_point", mountPoint)
	}
	if err := os.Remove(mountPoint); err != nil && !os.IsNotExist(err) {
		return errors.New(errors.FilesystemUnmountFailed, "failed to remove stale mount point").WithMetadata("mount_point", mountPoint)
	}
	return nil
}

func (f *DirFilesystem) Format(ctx context.Context, devicePath, fsType string) error {
	if err := os.RemoveAll(devicePath); err != nil {
		return errors.New(errors.FilesystemFormatFailed, "failed to clear backing directory").WithMetadata("device", devicePath)
	}
	if err := os.MkdirAll(devicePath, 0o755); err != nil {
		return errors.New(errors.FilesystemFormatFailed, "failed to recreate backing directory").WithMetadata("device", devicePath)
	}
	return nil
}

func (f *DirFilesystem) Stat(ctx context.Context, mountPoint string) (FreeSpace, error) {
	return statfs(mountPoint)
}

func (f *DirFilesystem) ReadOnly(ctx context.Context, mountPoint string) (bool, error) {
	return writeProbeReadOnly(mountPoint)
}

func (f *DirFilesystem) Mounted(ctx context.Context, mountPoint string) (bool, error) {
	return isMounted(mountPoint)
}

// DirIO implements the I/O family's flush for directory media with a
// plain fsync-equivalent sync of the mount point's directory entry.
type DirIO struct {
	log logger.Logger
}

func NewDirIO(log logger.Logger) *DirIO {
	return &DirIO{log: log}
}

func (io *DirIO) Flush(ctx context.Context, mountPoint string) error {
	f, err := os.Open(mountPoint)
	if err != nil {
		return errors.New(errors.IOFlushFailed, "failed to open mount point for flush").WithMetadata("mount_point", mountPoint)
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return errors.New(errors.IOFlushFailed, "fsync failed").WithMetadata("mount_point", mountPoint)
	}
	return nil
}
