// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package service is the process-level façade that owns one
// registry.Registry, lock.Manager, catalog.Client and devicemanager
// adapter set, and exposes the caller API (Init/Shutdown/DeviceAdd/
// WritePrepare/ReadPrepare/Format/IOComplete/ResourceRelease) as the
// single entry point a CLI or HTTP handler calls — the Go-shaped
// counterpart of the lrs_dev_handle/lrs_handle pairing in the C source
// this repository generalizes from.
package service

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stratastor/logger"

	"github.com/stratastor/rodent/pkg/catalog"
	"github.com/stratastor/rodent/pkg/devicemanager"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/lrs/compat"
	"github.com/stratastor/rodent/pkg/lrs/fsm"
	"github.com/stratastor/rodent/pkg/lrs/lock"
	"github.com/stratastor/rodent/pkg/lrs/picker"
	"github.com/stratastor/rodent/pkg/lrs/preparer"
	"github.com/stratastor/rodent/pkg/lrs/registry"
	"github.com/stratastor/rodent/pkg/lrs/selection"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

// Config bundles the spec.md §6 configuration keys Service needs to wire
// up the LRS core.
type Config struct {
	MountPrefix   string
	DefaultFamily types.Family
	LibDevice     string
	Policy        selection.Name
	TapeTypes     map[string]compat.TapeType
	DriveTypes    map[string]compat.DriveType
}

// Service is the single entry point a CLI or HTTP handler calls.
type Service struct {
	log logger.Logger

	registry *registry.Registry
	locks    *lock.Manager
	preparer *preparer.Preparer

	scheduler gocron.Scheduler
	job       gocron.Job
}

// New constructs an uninitialized Service. Call Init before use.
func New(log logger.Logger) *Service {
	return &Service{log: log, registry: registry.New(log)}
}

// Init wires the registry, lock manager, compatibility oracle, picker and
// preparer against cat and adapters, per cfg.
func (s *Service) Init(cat catalog.Client, adapters devicemanager.ByFamily, host string, cfg Config, threadID string) error {
	writePolicy, err := selection.ByName(cfg.Policy)
	if err != nil {
		return err
	}

	s.registry.Init(cat, adapters, host, cfg.DefaultFamily)
	s.registry.SetMountPrefix(cfg.MountPrefix)

	locks, err := lock.New(s.log, cat, threadID)
	if err != nil {
		return err
	}
	s.locks = locks
	s.registry.SetOwner(locks.Owner())

	oracle := compat.New(cfg.TapeTypes, cfg.DriveTypes)
	pick := picker.New(s.registry, locks, oracle)

	machines := make(map[types.Family]*fsm.Machine)
	for family, a := range adapters {
		machines[family] = fsm.New(s.log, a, locks, cfg.MountPrefix)
	}

	s.preparer = preparer.New(s.log, s.registry, locks, pick, cat, machines, adapters, cfg.DefaultFamily, writePolicy)
	return nil
}

// Shutdown stops housekeeping (if started) and drops the in-memory
// registry.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			return errors.New(errors.LRSConfigInvalid, "failed to stop housekeeping scheduler").WithMetadata("error", err.Error())
		}
	}
	s.registry.Shutdown()
	return nil
}

// DeviceAdd registers a new drive at runtime. Mirrors lrs_device_add:
// rejects a duplicate serial and requires a non-unspecified family.
func (s *Service) DeviceAdd(d types.DriveDescriptor) error {
	return s.registry.DeviceAdd(d)
}

// WritePrepare acquires a drive and medium able to hold size bytes with
// all of tags.
func (s *Service) WritePrepare(ctx context.Context, size int64, tags []string, intent *types.Intent) error {
	return s.preparer.WritePrepare(ctx, size, tags, intent)
}

// ReadPrepare acquires the medium named in intent.MediumID for reading.
func (s *Service) ReadPrepare(ctx context.Context, intent *types.Intent) error {
	return s.preparer.ReadPrepare(ctx, intent)
}

// Format prepares a blank medium with fsType and optionally unlocks it.
func (s *Service) Format(ctx context.Context, mediumID, fsType string, unlock bool) error {
	return s.preparer.Format(ctx, mediumID, fsType, unlock)
}

// IOComplete performs post-I/O accounting on a prepared intent.
func (s *Service) IOComplete(ctx context.Context, intent *types.Intent, fragmentsWritten int64, globalMediaError bool) error {
	return s.preparer.IOComplete(ctx, intent, fragmentsWritten, globalMediaError)
}

// ResourceRelease always-safely tears down a prepared intent.
func (s *Service) ResourceRelease(ctx context.Context, intent *types.Intent) error {
	return s.preparer.ResourceRelease(ctx, intent)
}

// Devices returns a snapshot of every registered drive, for the
// /api/v1/lrs/devices API surface.
func (s *Service) Devices() []*types.DriveDescriptor {
	return s.registry.Drives()
}

// StartHousekeeping starts a periodic reload_state tick on interval, using
// gocron the way pkg/disk/probing.Scheduler schedules its periodic
// refreshes. This is host maintenance — refreshing the registry's
// system/library view between calls — not scheduling of caller-visible
// I/O work: no medium is selected, loaded, or mounted by the ticker.
func (s *Service) StartHousekeeping(ctx context.Context, interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return errors.New(errors.LRSConfigInvalid, "failed to create housekeeping scheduler").WithMetadata("error", err.Error())
	}

	job, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := s.registry.ReloadState(ctx); err != nil {
				s.log.Error("housekeeping reload_state failed", "error", err)
			}
		}),
	)
	if err != nil {
		return errors.New(errors.LRSConfigInvalid, "failed to schedule housekeeping job").WithMetadata("error", err.Error())
	}

	s.scheduler = sched
	s.job = job
	sched.Start()
	return nil
}

// ReloadState forces an immediate registry refresh, independent of the
// housekeeping ticker.
func (s *Service) ReloadState(ctx context.Context) error {
	return s.registry.ReloadState(ctx)
}
