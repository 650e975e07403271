// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/subprocess"
)

// TapeDevice wraps mt (tape positioning/status) to satisfy DeviceAdapter
// for the tape family.
type TapeDevice struct {
	log    logger.Logger
	devDir string // directory holding tape device nodes, e.g. /dev
}

// NewTapeDevice builds a tape DeviceAdapter rooted at devDir.
func NewTapeDevice(log logger.Logger, devDir string) *TapeDevice {
	return &TapeDevice{log: log, devDir: devDir}
}

func (d *TapeDevice) PathForSerial(ctx context.Context, serial string) (string, error) {
	// Tape device nodes are named after their serial by udev convention
	// on the hosts this adapter targets.
	return filepath.Join(d.devDir, "tape-"+serial), nil
}

func (d *TapeDevice) SystemState(ctx context.Context, path string) (SystemView, error) {
	var model, serial string
	res, err := subprocess.Capture(ctx, "mt", []string{"-f", path, "status"}, func(ch subprocess.Channel, line string) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Model:") {
			model = strings.TrimSpace(strings.TrimPrefix(line, "Model:"))
		}
		if strings.HasPrefix(line, "Serial:") {
			serial = strings.TrimSpace(strings.TrimPrefix(line, "Serial:"))
		}
	})
	if err != nil || res != subprocess.ResultSuccess {
		return SystemView{}, errors.New(errors.DeviceQueryFailed, "mt status failed").
			WithMetadata("path", path).WithMetadata("result", string(res))
	}
	return SystemView{Model: model, Serial: serial}, nil
}

// TapeLibrary wraps mtx (SCSI media changer control) to satisfy
// LibraryAdapter for the tape family.
type TapeLibrary struct {
	log       logger.Logger
	libDevice string // spec.md §6 lib_device config key
}

// NewTapeLibrary builds a tape LibraryAdapter against the configured SCSI
// library device.
func NewTapeLibrary(log logger.Logger, libDevice string) *TapeLibrary {
	return &TapeLibrary{log: log, libDevice: libDevice}
}

func (l *TapeLibrary) BayContents(ctx context.Context, drivePath string) (SlotContent, error) {
	driveIndex, err := driveIndexFromPath(drivePath)
	if err != nil {
		return SlotContent{}, err
	}

	var content SlotContent
	content.BayAddress = fmt.Sprintf("drive:%d", driveIndex)

	res, err := subprocess.Capture(ctx, "mtx", []string{"-f", l.libDevice, "status"}, func(ch subprocess.Channel, line string) {
		line = strings.TrimSpace(line)
		prefix := fmt.Sprintf("Data Transfer Element %d:", driveIndex)
		if !strings.HasPrefix(line, prefix) {
			return
		}
		if strings.Contains(line, "Empty") {
			content.ContainsMedium = false
			return
		}
		content.ContainsMedium = true
		if idx := strings.Index(line, "VolumeTag = "); idx >= 0 {
			content.MediumLabel = strings.Trim(strings.TrimSpace(line[idx+len("VolumeTag = "):]), "<>")
		}
	})
	if err != nil || res != subprocess.ResultSuccess {
		return SlotContent{}, errors.New(errors.LibraryQueryFailed, "mtx status failed").
			WithMetadata("library", l.libDevice).WithMetadata("result", string(res))
	}
	return content, nil
}

func (l *TapeLibrary) Load(ctx context.Context, drivePath, mediumID string) error {
	driveIndex, err := driveIndexFromPath(drivePath)
	if err != nil {
		return err
	}
	slot, err := l.homeSlot(ctx, mediumID)
	if err != nil {
		return err
	}

	res, err := subprocess.Capture(ctx, "mtx", []string{"-f", l.libDevice, "load", strconv.Itoa(slot), strconv.Itoa(driveIndex)}, nil)
	if err == nil && res == subprocess.ResultSuccess {
		return nil
	}
	if res == subprocess.ResultInvalidArgument {
		// mtx rejects a direct drive-to-drive style move (target bay
		// occupied by another in-flight transfer); the caller backs off
		// and retries rather than marking anything failed.
		return errors.New(errors.LRSBusyRetry, "library refused drive-to-drive move").
			WithMetadata("drive", drivePath).WithMetadata("medium", mediumID)
	}
	return errors.New(errors.LibraryMoveFailed, "mtx load failed").
		WithMetadata("drive", drivePath).WithMetadata("medium", mediumID)
}

func (l *TapeLibrary) Unload(ctx context.Context, drivePath string) error {
	driveIndex, err := driveIndexFromPath(drivePath)
	if err != nil {
		return err
	}
	content, err := l.BayContents(ctx, drivePath)
	if err != nil {
		return err
	}
	if !content.ContainsMedium {
		return nil
	}
	slot, err := l.homeSlot(ctx, content.MediumLabel)
	if err != nil {
		return err
	}
	res, err := subprocess.Capture(ctx, "mtx", []string{"-f", l.libDevice, "unload", strconv.Itoa(slot), strconv.Itoa(driveIndex)}, nil)
	if err != nil || res != subprocess.ResultSuccess {
		return errors.New(errors.LibraryMoveFailed, "mtx unload failed").WithMetadata("drive", drivePath)
	}
	return nil
}

// homeSlot resolves a medium's storage-element slot number by scanning
// mtx status output, since mtx load/unload address slots by number, not
// by volume label.
func (l *TapeLibrary) homeSlot(ctx context.Context, mediumID string) (int, error) {
	var slot = -1
	res, err := subprocess.Capture(ctx, "mtx", []string{"-f", l.libDevice, "status"}, func(ch subprocess.Channel, line string) {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Storage Element ") {
			return
		}
		if !strings.Contains(line, "VolumeTag = <"+mediumID+">") {
			return
		}
		fields := strings.Fields(line)
		if len(fields) >= 3 {
			n, convErr := strconv.Atoi(strings.TrimSuffix(fields[2], ":"))
			if convErr == nil {
				slot = n
			}
		}
	})
	if err != nil || res != subprocess.ResultSuccess || slot < 0 {
		return 0, errors.New(errors.LibraryQueryFailed, "could not resolve medium home slot").WithMetadata("medium", mediumID)
	}
	return slot, nil
}

// TapeFilesystem wraps LTFS (mkltfs/mount -t ltfs) to satisfy
// FilesystemAdapter for the tape family.
type TapeFilesystem struct {
	log logger.Logger
}

// NewTapeFilesystem builds a tape FilesystemAdapter.
func NewTapeFilesystem(log logger.Logger) *TapeFilesystem {
	return &TapeFilesystem{log: log}
}

func (f *TapeFilesystem) Mount(ctx context.Context, devicePath, mountPoint string) error {
	res, err := subprocess.Capture(ctx, "mount", []string{"-t", "ltfs", devicePath, mountPoint}, nil)
	if err != nil || res != subprocess.ResultSuccess {
		return errors.New(errors.FilesystemMountFailed, "ltfs mount failed").
			WithMetadata("device", devicePath).WithMetadata("mountPoint", mountPoint)
	}
	return nil
}

func (f *TapeFilesystem) Unmount(ctx context.Context, mountPoint string) error {
	res, err := subprocess.Capture(ctx, "umount", []string{mountPoint}, nil)
	if err != nil || res != subprocess.ResultSuccess {
		return errors.New(errors.FilesystemUnmountFailed, "ltfs unmount failed").WithMetadata("mountPoint", mountPoint)
	}
	return nil
}

func (f *TapeFilesystem) Format(ctx context.Context, devicePath, fsType string) error {
	res, err := subprocess.Capture(ctx, "mkltfs", []string{"-d", devicePath, "-f"}, nil)
	if err != nil || res != subprocess.ResultSuccess {
		return errors.New(errors.FilesystemFormatFailed, "mkltfs failed").WithMetadata("device", devicePath)
	}
	return nil
}

func (f *TapeFilesystem) Stat(ctx context.Context, mountPoint string) (FreeSpace, error) {
	return statfs(mountPoint)
}

func (f *TapeFilesystem) ReadOnly(ctx context.Context, mountPoint string) (bool, error) {
	return writeProbeReadOnly(mountPoint)
}

func (f *TapeFilesystem) Mounted(ctx context.Context, mountPoint string) (bool, error) {
	return isMounted(mountPoint)
}

// TapeIO flushes pending writes by running sync on the LTFS mount point.
type TapeIO struct {
	log logger.Logger
}

// NewTapeIO builds a tape IOAdapter.
func NewTapeIO(log logger.Logger) *TapeIO {
	return &TapeIO{log: log}
}

func (io *TapeIO) Flush(ctx context.Context, mountPoint string) error {
	res, err := subprocess.Capture(ctx, "sync", []string{mountPoint}, nil)
	if err != nil || res != subprocess.ResultSuccess {
		return errors.New(errors.LRSDriveFailed, "flush failed").WithMetadata("mountPoint", mountPoint)
	}
	return nil
}

func driveIndexFromPath(drivePath string) (int, error) {
	base := filepath.Base(drivePath)
	digits := strings.TrimLeft(base, "abcdefghijklmnopqrstuvwxyz-_")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, errors.New(errors.LRSInvalidArgument, "cannot derive drive index from path").WithMetadata("path", drivePath)
	}
	return n, nil
}
