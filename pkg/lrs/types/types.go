// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package types defines the shared vocabulary of the LRS core: resource
// families, operational status, drive/medium descriptors, lock state and
// the intent a caller presents to the preparer.
package types

import "time"

// Family identifies the storage technology backing a resource. Drive
// selection, compatibility lookups and the device manager adapter are all
// keyed on it. FamilyUnspecified is a sentinel, not a real family: it is
// used only as a wildcard in queries.
type Family string

const (
	FamilyUnspecified Family = "unspecified"
	FamilyTape        Family = "tape"
	FamilyDir         Family = "dir"
)

// OperationalStatus is a drive's derived phase, distinct from its
// administrative lock status.
type OperationalStatus string

const (
	StatusFailed      OperationalStatus = "failed"
	StatusEmpty       OperationalStatus = "empty"
	StatusLoaded      OperationalStatus = "loaded"
	StatusMounted     OperationalStatus = "mounted"
	StatusUnspecified OperationalStatus = "unspecified"
)

// FSStatus is a medium's filesystem status.
type FSStatus string

const (
	FSBlank FSStatus = "blank"
	FSEmpty FSStatus = "empty"
	FSUsed  FSStatus = "used"
	FSFull  FSStatus = "full"
)

// AdminStatus is a medium or drive's administrative lock status as
// recorded by the catalog.
type AdminStatus string

const (
	AdminLocked   AdminStatus = "locked"
	AdminUnlocked AdminStatus = "unlocked"
)

// LockOwnerKind tags a LockState's holder.
type LockOwnerKind int

const (
	// LockUnlocked means the resource carries no lock record.
	LockUnlocked LockOwnerKind = iota
	// LockOwnedByUs means this LRS instance's owner string holds the lock.
	LockOwnedByUs
	// LockOwnedByOther means a different, legitimate owner string holds
	// the lock. Distinguishing this case from LockUnlocked by tag (not by
	// comparing a sentinel pointer, per the design notes) lets callers
	// skip the resource with a single switch.
	LockOwnedByOther
)

// LockState is a tagged variant over a catalog lock field: unlocked,
// owned by us, or owned by someone else (with their owner string
// retained for diagnostics). This replaces the reference implementation's
// fixed sentinel pointer.
type LockState struct {
	Kind  LockOwnerKind
	Owner string // populated only when Kind == LockOwnedByOther
}

// Unlocked reports whether the lock carries no holder.
func (l LockState) Unlocked() bool { return l.Kind == LockUnlocked }

// OwnedByUs reports whether this LRS instance holds the lock.
func (l LockState) OwnedByUs() bool { return l.Kind == LockOwnedByUs }

// OwnedByOther reports whether some other owner holds the lock.
func (l LockState) OwnedByOther() bool { return l.Kind == LockOwnedByOther }

// DriveDescriptor aggregates the catalog, library and system views of one
// drive on this host, plus derived fields and the local-lock flag.
type DriveDescriptor struct {
	// Catalog view
	Serial string
	Model  string
	Path   string
	Admin  AdminStatus
	Family Family

	// Library view
	BayAddress      string
	ContainsMedium  bool
	ContainedMedium string

	// System view
	SystemModel  string
	SystemSerial string

	// Derived fields
	DevicePath string
	MountPath  string
	Status     OperationalStatus

	// Local-lock flag: true when this process holds the catalog lock on
	// this drive.
	LocalLock bool

	// Medium currently inside this drive, non-nil iff Status is loaded or
	// mounted.
	Medium *MediumDescriptor

	Host      string
	UpdatedAt time.Time
}

// MediumTagSet is a set of opaque string tags a medium carries, used to
// filter selection candidates.
type MediumTagSet map[string]struct{}

// HasAll reports whether the set contains every tag in required.
func (s MediumTagSet) HasAll(required []string) bool {
	for _, t := range required {
		if _, ok := s[t]; !ok {
			return false
		}
	}
	return true
}

// MediumStats holds a medium's usage counters as tracked by io_complete.
type MediumStats struct {
	ObjectsStored int64
	PhysicalUsed  int64
	PhysicalFree  int64
	LogicalUsed   int64
}

// MediumDescriptor is the registry's view of one medium: a tape cartridge
// or a directory-backed pseudo-medium, identified by family + label.
type MediumDescriptor struct {
	ID         string
	Family     Family
	Model      string // tape type / media model, used by the compatibility oracle
	FSType     string
	FSStatus   FSStatus
	AddrScheme string
	Admin      AdminStatus
	Tags       MediumTagSet
	Stats      MediumStats
	Lock       LockState
	UpdatedAt  time.Time
}

// FreeSpace is the medium's current physical free space, the figure
// selection policies compare against a required size.
func (m *MediumDescriptor) FreeSpace() int64 {
	return m.Stats.PhysicalFree
}

// IntentKind enumerates the top-level operations a caller presents.
type IntentKind string

const (
	IntentWrite           IntentKind = "write_prepare"
	IntentRead            IntentKind = "read_prepare"
	IntentFormat          IntentKind = "format"
	IntentIOComplete      IntentKind = "io_complete"
	IntentResourceRelease IntentKind = "resource_release"
)

// Intent is the caller-provided descriptor of a pending I/O. It is owned
// by the caller but enriched in place by the preparer with the chosen
// drive, mount path, filesystem type and addressing scheme, and emptied by
// resource_release.
type Intent struct {
	Kind     IntentKind
	MediumID string // for read_prepare / format; empty for write_prepare

	// Populated by the preparer on success.
	Drive      *DriveDescriptor
	Medium     *MediumDescriptor
	RootPath   string
	FSType     string
	AddrScheme string

	// ExtentSize is the byte size requested of write_prepare, carried
	// through to io_complete so logical-used accounting bumps by the
	// written extent's size rather than its fragment count.
	ExtentSize int64

	Owner     string
	RequestID string
}

// Reset clears the fields resource_release is responsible for emptying.
// Safe to call on an already-empty intent (idempotent).
func (i *Intent) Reset() {
	i.Drive = nil
	i.Medium = nil
	i.RootPath = ""
	i.FSType = ""
	i.AddrScheme = ""
	i.ExtentSize = 0
}
