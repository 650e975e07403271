// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package selection implements the predicates used to walk the registry
// and pick a drive for a given purpose: first-fit, best-fit, any-free,
// least-free-to-evict.
package selection

import (
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

// Decision is a policy step's verdict for one candidate.
type Decision int

const (
	// Continue means keep walking the registry.
	Continue Decision = iota
	// Stop means the walk is done; Best holds the final answer.
	Stop
)

// Policy has the shape (required_size, candidate, current_best) ->
// (decision, new_best, error), with the side effect of updating the
// running best candidate.
type Policy func(requiredSize int64, candidate *types.DriveDescriptor, best *types.DriveDescriptor) (Decision, *types.DriveDescriptor, error)

// Name identifies a configured write policy.
type Name string

const (
	FirstFit Name = "first_fit"
	BestFit  Name = "best_fit"
)

// ByName resolves the configured default write policy. Any value other
// than first_fit/best_fit is a fatal configuration error.
func ByName(name Name) (Policy, error) {
	switch name {
	case FirstFit:
		return FirstFitPolicy, nil
	case BestFit:
		return BestFitPolicy, nil
	default:
		return nil, errors.New(errors.LRSConfigInvalid, "unknown write policy").WithMetadata("policy", string(name))
	}
}

func freeSpace(d *types.DriveDescriptor) int64 {
	if d.Medium == nil {
		return -1
	}
	return d.Medium.FreeSpace()
}

// FirstFitPolicy stops on the first drive whose loaded medium's free
// space is at least requiredSize.
func FirstFitPolicy(requiredSize int64, candidate *types.DriveDescriptor, best *types.DriveDescriptor) (Decision, *types.DriveDescriptor, error) {
	if candidate.Medium == nil {
		return Continue, best, nil
	}
	if freeSpace(candidate) >= requiredSize {
		return Stop, candidate, nil
	}
	return Continue, best, nil
}

// BestFitPolicy keeps the drive with the smallest free space that still
// satisfies requiredSize, stopping early on an exact match.
func BestFitPolicy(requiredSize int64, candidate *types.DriveDescriptor, best *types.DriveDescriptor) (Decision, *types.DriveDescriptor, error) {
	if candidate.Medium == nil {
		return Continue, best, nil
	}
	free := freeSpace(candidate)
	if free < requiredSize {
		return Continue, best, nil
	}
	if free == requiredSize {
		return Stop, candidate, nil
	}
	if best == nil || freeSpace(best) > free {
		return Continue, candidate, nil
	}
	return Continue, best, nil
}

// AnyPolicy stops on the first candidate regardless of medium or size.
func AnyPolicy(requiredSize int64, candidate *types.DriveDescriptor, best *types.DriveDescriptor) (Decision, *types.DriveDescriptor, error) {
	return Stop, candidate, nil
}

// LeastFreeEvictionPolicy never stops; it picks the drive with the
// smallest free space among drives that are neither failed, locked, nor
// empty — a candidate to unmount/unload to free hardware.
func LeastFreeEvictionPolicy(requiredSize int64, candidate *types.DriveDescriptor, best *types.DriveDescriptor) (Decision, *types.DriveDescriptor, error) {
	if candidate.Status == types.StatusFailed || candidate.LocalLock || candidate.Status == types.StatusEmpty {
		return Continue, best, nil
	}
	free := freeSpace(candidate)
	if best == nil || freeSpace(best) > free {
		return Continue, candidate, nil
	}
	return Continue, best, nil
}
