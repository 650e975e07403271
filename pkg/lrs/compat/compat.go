// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package compat answers whether a given medium can be written/read by a
// given drive, based on tape-type -> drive-type -> drive-model tables
// loaded from configuration.
package compat

import (
	"github.com/stratastor/rodent/pkg/errors"
)

// TapeType maps a medium model to the comma-separated-in-config list of
// drive-type names that can read/write it (tape_type "<model>".drive_rw).
type TapeType struct {
	DriveRW []string
}

// DriveType maps a drive-type name to the drive models it covers
// (drive_type "<name>".models).
type DriveType struct {
	Models []string
}

// Oracle answers compatibility questions from the two configuration
// tables above. A configuration miss (unknown tape type or drive type) is
// a failure distinct from a clean "incompatible" answer: callers treat it
// as "skip this drive", per the error-handling design.
type Oracle struct {
	tapeTypes  map[string]TapeType
	driveTypes map[string]DriveType
}

// New builds an Oracle from the two configuration tables.
func New(tapeTypes map[string]TapeType, driveTypes map[string]DriveType) *Oracle {
	return &Oracle{tapeTypes: tapeTypes, driveTypes: driveTypes}
}

// Compatible reports whether a medium with the given model can be
// serviced by a drive with the given model.
func (o *Oracle) Compatible(mediumModel, driveModel string) (bool, error) {
	tt, ok := o.tapeTypes[mediumModel]
	if !ok {
		return false, errors.New(errors.LRSConfigInvalid, "no tape_type configuration for medium model").
			WithMetadata("medium_model", mediumModel)
	}

	for _, driveTypeName := range tt.DriveRW {
		dt, ok := o.driveTypes[driveTypeName]
		if !ok {
			return false, errors.New(errors.LRSConfigInvalid, "no drive_type configuration for drive type").
				WithMetadata("drive_type", driveTypeName)
		}
		for _, model := range dt.Models {
			if model == driveModel {
				return true, nil
			}
		}
	}
	return false, nil
}
