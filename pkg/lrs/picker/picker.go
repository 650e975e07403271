// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package picker walks the registry applying a selection.Policy and
// atomically acquires the winning drive (and its medium, if any).
package picker

import (
	"context"

	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/lrs/compat"
	"github.com/stratastor/rodent/pkg/lrs/lock"
	"github.com/stratastor/rodent/pkg/lrs/registry"
	"github.com/stratastor/rodent/pkg/lrs/selection"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

// Picker selects and atomically locks a drive matching a set of filters.
type Picker struct {
	reg    *registry.Registry
	locks  *lock.Manager
	oracle *compat.Oracle
}

// New builds a Picker over reg, acquiring locks through locks and
// resolving compatibility through oracle.
func New(reg *registry.Registry, locks *lock.Manager, oracle *compat.Oracle) *Picker {
	return &Picker{reg: reg, locks: locks, oracle: oracle}
}

// Pick walks the registry applying policy, filtering by desiredStatus
// (types.StatusUnspecified matches any), requiredSize/requiredTags on the
// drive's contained medium, and — when compatMedium is non-nil — the
// compatibility oracle. It returns the first candidate it can atomically
// lock (medium first, then drive, per the ordering guarantee), or nil if
// none pass.
//
// A candidate that fails atomic acquisition is marked "tried" and the
// walk restarts, skipping tried drives — each drive is attempted at most
// once per Pick, which bounds the retries by the number of drives and
// avoids livelock between two LRS instances racing the same medium.
func (p *Picker) Pick(ctx context.Context, desiredStatus types.OperationalStatus, policy selection.Policy, requiredSize int64, requiredTags []string, compatMedium *types.MediumDescriptor) (*types.DriveDescriptor, error) {
	tried := make(map[string]bool)

	for {
		candidate, err := p.walk(desiredStatus, policy, requiredSize, requiredTags, compatMedium, tried)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			return nil, nil
		}

		acquired, err := p.tryAcquire(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if acquired {
			return candidate, nil
		}
		tried[candidate.Serial] = true
	}
}

func (p *Picker) walk(desiredStatus types.OperationalStatus, policy selection.Policy, requiredSize int64, requiredTags []string, compatMedium *types.MediumDescriptor, tried map[string]bool) (*types.DriveDescriptor, error) {
	var best *types.DriveDescriptor

	for _, d := range p.reg.Drives() {
		if tried[d.Serial] {
			continue
		}
		if d.Status == types.StatusFailed {
			continue
		}
		if d.LocalLock {
			continue
		}
		if d.Medium != nil && d.Medium.Lock.OwnedByOther() {
			continue
		}
		if desiredStatus != types.StatusUnspecified && d.Status != desiredStatus {
			continue
		}
		if requiredSize > 0 && d.Medium != nil {
			if d.Medium.FSStatus == types.FSFull {
				continue
			}
			if !d.Medium.Tags.HasAll(requiredTags) {
				continue
			}
		}
		if compatMedium != nil {
			ok, err := p.oracle.Compatible(compatMedium.Model, d.Model)
			if err != nil {
				// A configuration miss skips this drive rather than
				// aborting the whole pick.
				continue
			}
			if !ok {
				continue
			}
		}

		decision, newBest, err := policy(requiredSize, d, best)
		if err != nil {
			return nil, err
		}
		best = newBest
		if decision == selection.Stop {
			return best, nil
		}
	}
	return best, nil
}

// tryAcquire attempts to lock the candidate's medium (if any) then the
// drive itself, rolling back on partial failure.
func (p *Picker) tryAcquire(ctx context.Context, candidate *types.DriveDescriptor) (bool, error) {
	if candidate.Medium != nil {
		if err := p.locks.LockMedium(ctx, candidate.Medium); err != nil {
			if errors.IsKind(err, errors.KindBusyRetry) || errors.GetErrorWithCode(err, errors.CatalogLockHeldElsewhere) != nil {
				return false, nil
			}
			return false, err
		}
	}

	if err := p.locks.LockDrive(ctx, candidate); err != nil {
		if candidate.Medium != nil {
			_ = p.locks.UnlockMedium(ctx, candidate.Medium)
		}
		if errors.GetErrorWithCode(err, errors.CatalogLockHeldElsewhere) != nil {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
