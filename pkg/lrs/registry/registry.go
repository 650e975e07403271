// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package registry holds the process-local table of drive descriptors for
// the current host: the merged view of catalog state, library state and
// system state per drive, plus in-memory ownership flags.
package registry

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/catalog"
	"github.com/stratastor/rodent/pkg/devicemanager"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

// Registry is the host-local, in-memory drive table. A single Registry is
// shared by every top-level LRS call on a host; the caller is responsible
// for serializing calls (the LRS treats itself as a single cooperative
// consumer of the catalog per host).
type Registry struct {
	log     logger.Logger
	cat     catalog.Client
	devices devicemanager.ByFamily
	host    string
	family  types.Family // default_family
	prefix  string       // mount_prefix
	owner   string       // this LRS instance's lock-ownership string

	mu     sync.Mutex
	drives map[string]*types.DriveDescriptor // keyed by serial
}

// New constructs a Registry. Init must be called before any other method.
func New(log logger.Logger) *Registry {
	return &Registry{log: log, drives: make(map[string]*types.DriveDescriptor)}
}

// Init binds the registry to a catalog client, device-manager adapter set,
// host identity and default family.
func (r *Registry) Init(cat catalog.Client, devices devicemanager.ByFamily, host string, defaultFamily types.Family) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cat = cat
	r.devices = devices
	r.host = host
	r.family = defaultFamily
}

// Shutdown drops the registry's in-memory table. Catalog locks already
// held are the caller's responsibility to release first.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drives = make(map[string]*types.DriveDescriptor)
}

// DeviceAdd registers a new drive at runtime, as an alternative to
// discovering it via ReloadState's catalog query.
func (r *Registry) DeviceAdd(d types.DriveDescriptor) error {
	if d.Family == "" || d.Family == types.FamilyUnspecified {
		return errors.New(errors.LRSInvalidArgument, "device_add requires a non-unspecified family")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.drives[d.Serial]; exists {
		return errors.New(errors.LRSInvalidArgument, "duplicate drive serial").WithMetadata("serial", d.Serial)
	}
	d.Host = r.host
	d.UpdatedAt = time.Now()
	r.drives[d.Serial] = &d
	return nil
}

// Drives returns a snapshot slice of every registered drive.
func (r *Registry) Drives() []*types.DriveDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*types.DriveDescriptor, 0, len(r.drives))
	for _, d := range r.drives {
		out = append(out, d)
	}
	return out
}

// FindLoaded scans the registry for a drive in loaded or mounted state
// whose contained medium's label equals id.
func (r *Registry) FindLoaded(id string) *types.DriveDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drives {
		if (d.Status == types.StatusLoaded || d.Status == types.StatusMounted) && d.Medium != nil && d.Medium.ID == id {
			return d
		}
	}
	return nil
}

// ReloadState is idempotent: an empty registry is populated from the
// catalog (filtered by host, unlocked admin status, default family);
// otherwise only the existing entries are refreshed. A per-drive refresh
// failure marks that drive failed and the reload continues; ReloadState
// itself only fails on a catalog-query failure.
func (r *Registry) ReloadState(ctx context.Context) error {
	r.mu.Lock()
	empty := len(r.drives) == 0
	r.mu.Unlock()

	if empty {
		if err := r.discover(ctx); err != nil {
			return err
		}
	}

	r.mu.Lock()
	serials := make([]string, 0, len(r.drives))
	for s := range r.drives {
		serials = append(serials, s)
	}
	r.mu.Unlock()

	for _, serial := range serials {
		r.refreshOne(ctx, serial)
	}
	return nil
}

func (r *Registry) discover(ctx context.Context) error {
	filter := catalog.And(
		catalog.Eq("host", r.host),
		catalog.Eq("admin_status", string(types.AdminUnlocked)),
		catalog.Eq("family", string(r.family)),
	)
	records, err := r.cat.GetDevices(ctx, filter)
	if err != nil {
		return errors.Wrap(err, errors.CatalogQueryFailed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		d := rec.ToDriveDescriptor()
		d.Host = r.host
		d.UpdatedAt = time.Now()
		r.drives[d.Serial] = &d
	}
	return nil
}

// refreshOne refreshes a single drive in place. Any error here marks the
// drive failed rather than aborting the whole reload.
func (r *Registry) refreshOne(ctx context.Context, serial string) {
	r.mu.Lock()
	d, ok := r.drives[serial]
	r.mu.Unlock()
	if !ok {
		return
	}

	adapters, ok := r.devices.For(d.Family)
	if !ok {
		r.markFailed(d)
		return
	}

	path, err := adapters.Device.PathForSerial(ctx, serial)
	if err != nil {
		r.markFailed(d)
		return
	}

	sys, err := adapters.Device.SystemState(ctx, path)
	if err != nil {
		r.markFailed(d)
		return
	}
	if sys.Model != d.Model || sys.Serial != serial {
		r.markFailed(d)
		return
	}

	slot, err := adapters.Library.BayContents(ctx, path)
	if err != nil {
		r.markFailed(d)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	d.DevicePath = path
	d.SystemModel = sys.Model
	d.SystemSerial = sys.Serial
	d.BayAddress = slot.BayAddress
	d.ContainsMedium = slot.ContainsMedium
	d.ContainedMedium = slot.MediumLabel
	d.UpdatedAt = time.Now()

	if !slot.ContainsMedium {
		d.Status = types.StatusEmpty
		d.Medium = nil
		d.MountPath = ""
		return
	}

	medium, err := r.fetchMedium(ctx, slot.MediumLabel)
	if err != nil {
		d.Status = types.StatusFailed
		return
	}
	d.Medium = medium

	mountPoint := mountPointFor(r.mountPrefix(), path)
	if mounted, err := adapters.Filesystem.Mounted(ctx, mountPoint); err == nil && mounted {
		d.Status = types.StatusMounted
		d.MountPath = mountPoint
	} else {
		d.Status = types.StatusLoaded
		d.MountPath = ""
	}
}

func (r *Registry) fetchMedium(ctx context.Context, id string) (*types.MediumDescriptor, error) {
	records, err := r.cat.GetMedia(ctx, catalog.Eq("id", id))
	if err != nil || len(records) == 0 {
		return nil, errors.New(errors.LRSMediumNotFound, "medium not found in catalog").WithMetadata("id", id)
	}
	m := records[0].ToMediumDescriptor(r.owner)
	return &m, nil
}

// mountPrefix is overridable for tests; production wiring sets it via
// SetMountPrefix during Init.
func (r *Registry) mountPrefix() string {
	return r.prefix
}

// SetMountPrefix configures the prefix used to derive mount points,
// spec.md §6's mount_prefix key.
func (r *Registry) SetMountPrefix(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefix = prefix
}

// SetOwner configures the owner string this registry compares catalog
// medium locks against when classifying OwnedByUs vs OwnedByOther. Set
// from lock.Manager.Owner() once the lock manager is constructed, since
// Init runs before it exists.
func (r *Registry) SetOwner(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owner = owner
}

func mountPointFor(prefix, devicePath string) string {
	return prefix + filepath.Base(devicePath)
}

func (r *Registry) markFailed(d *types.DriveDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.Status = types.StatusFailed
	d.UpdatedAt = time.Now()
}
