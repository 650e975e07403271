// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package catalog is the client for the persistent metadata service the
// LRS mediates concurrent access through: queries and mutates drive/medium
// records, and offers named, owner-stamped advisory locks.
package catalog

import "context"

// Client is the catalog's external interface, as consumed by the
// registry and lock manager. Implementations must be safe for concurrent
// use by a single LRS instance issuing serialized calls.
type Client interface {
	// GetDevices returns every device row matching filter.
	GetDevices(ctx context.Context, filter Filter) ([]DeviceRecord, error)
	// GetMedia returns every medium row matching filter.
	GetMedia(ctx context.Context, filter Filter) ([]MediaRecord, error)
	// UpdateMedium applies a partial update to the medium identified by id.
	UpdateMedium(ctx context.Context, id string, update MediumUpdate) error
	// AcquireLock attempts to take the named lock on behalf of owner.
	// Returns (true, nil) on success, (false, nil) when the lock is
	// already held by someone else, and a non-nil error on catalog
	// failure.
	AcquireLock(ctx context.Context, kind LockTargetKind, id, owner string) (bool, error)
	// ReleaseLock releases the named lock previously acquired by owner.
	ReleaseLock(ctx context.Context, kind LockTargetKind, id, owner string) error
}
