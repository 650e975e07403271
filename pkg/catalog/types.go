// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import "github.com/stratastor/rodent/pkg/lrs/types"

// LockTargetKind distinguishes the two lockable catalog row kinds.
type LockTargetKind string

const (
	TargetDrive  LockTargetKind = "drive"
	TargetMedium LockTargetKind = "medium"
)

// DeviceRecord is the catalog's wire representation of a drive row.
type DeviceRecord struct {
	Serial string         `json:"serial"`
	Model  string         `json:"model"`
	Path   string         `json:"path"`
	Admin  string         `json:"admin_status"`
	Family string         `json:"family"`
	Host   string         `json:"host"`
	Lock   *LockRecord    `json:"lock,omitempty"`
}

// MediaRecord is the catalog's wire representation of a medium row.
type MediaRecord struct {
	ID         string      `json:"id"`
	Family     string      `json:"family"`
	Model      string      `json:"model"`
	FSType     string      `json:"fs_type"`
	FSStatus   string      `json:"fs_status"`
	AddrScheme string      `json:"addr_scheme"`
	Admin      string      `json:"admin_status"`
	Tags       []string    `json:"tags"`
	Objects    int64       `json:"objects_stored"`
	PhysUsed   int64       `json:"physical_used"`
	PhysFree   int64       `json:"physical_free"`
	LogUsed    int64       `json:"logical_used"`
	Lock       *LockRecord `json:"lock,omitempty"`
}

// LockRecord is the catalog's representation of an advisory lock: absent
// when unlocked, present with the holder's owner string otherwise.
type LockRecord struct {
	Owner string `json:"owner"`
}

// MediumUpdate is a partial update applied to a medium row; zero-value
// pointers are left untouched by the catalog.
type MediumUpdate struct {
	FSStatus  *string `json:"fs_status,omitempty"`
	Admin     *string `json:"admin_status,omitempty"`
	Objects   *int64  `json:"objects_stored,omitempty"`
	PhysUsed  *int64  `json:"physical_used,omitempty"`
	PhysFree  *int64  `json:"physical_free,omitempty"`
	LogUsed   *int64  `json:"logical_used,omitempty"`
}

// ToDriveDescriptor maps a catalog device row into the registry's
// descriptor shape, leaving the library/system/derived fields for the
// registry to fill in on reload.
func (d DeviceRecord) ToDriveDescriptor() types.DriveDescriptor {
	return types.DriveDescriptor{
		Serial: d.Serial,
		Model:  d.Model,
		Path:   d.Path,
		Admin:  types.AdminStatus(d.Admin),
		Family: types.Family(d.Family),
		Host:   d.Host,
	}
}

// ToMediumDescriptor maps a catalog medium row into the registry's
// descriptor shape. owner is the calling LRS instance's own owner string
// (lock.Manager.Owner()), used to tell a lock we hold apart from one held
// by another host/process: a non-empty catalog lock is OwnedByUs only when
// its Owner matches ours, OwnedByOther otherwise.
func (m MediaRecord) ToMediumDescriptor(owner string) types.MediumDescriptor {
	tags := make(types.MediumTagSet, len(m.Tags))
	for _, t := range m.Tags {
		tags[t] = struct{}{}
	}

	lock := types.LockState{Kind: types.LockUnlocked}
	if m.Lock != nil && m.Lock.Owner != "" {
		if m.Lock.Owner == owner {
			lock = types.LockState{Kind: types.LockOwnedByUs}
		} else {
			lock = types.LockState{Kind: types.LockOwnedByOther, Owner: m.Lock.Owner}
		}
	}

	return types.MediumDescriptor{
		ID:         m.ID,
		Family:     types.Family(m.Family),
		Model:      m.Model,
		FSType:     m.FSType,
		FSStatus:   types.FSStatus(m.FSStatus),
		AddrScheme: m.AddrScheme,
		Admin:      types.AdminStatus(m.Admin),
		Tags:       tags,
		Stats: types.MediumStats{
			ObjectsStored: m.Objects,
			PhysicalUsed:  m.PhysUsed,
			PhysicalFree:  m.PhysFree,
			LogicalUsed:   m.LogUsed,
		},
		Lock: lock,
	}
}
