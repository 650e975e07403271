// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package compat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestOracle() *Oracle {
	return New(
		map[string]TapeType{
			"LTO8": {DriveRW: []string{"lto-gen8", "lto-gen9"}},
		},
		map[string]DriveType{
			"lto-gen8": {Models: []string{"ULT3580-TD8", "HH-LTO8"}},
			"lto-gen9": {Models: []string{"ULT3580-TD9"}},
		},
	)
}

func TestCompatible_MatchInFirstDriveType(t *testing.T) {
	o := newTestOracle()
	ok, err := o.Compatible("LTO8", "ULT3580-TD8")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCompatible_MatchInSecondDriveType(t *testing.T) {
	o := newTestOracle()
	ok, err := o.Compatible("LTO8", "ULT3580-TD9")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCompatible_CleanIncompatible(t *testing.T) {
	o := newTestOracle()
	ok, err := o.Compatible("LTO8", "UNKNOWN-MODEL")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCompatible_UnknownTapeTypeIsConfigFailure(t *testing.T) {
	o := newTestOracle()
	_, err := o.Compatible("LTO4", "ULT3580-TD8")
	require.Error(t, err)
}

func TestCompatible_UnknownDriveTypeIsConfigFailure(t *testing.T) {
	o := New(
		map[string]TapeType{"LTO8": {DriveRW: []string{"missing-drive-type"}}},
		map[string]DriveType{},
	)
	_, err := o.Compatible("LTO8", "ANY")
	require.Error(t, err)
}

func TestCompatible_SymmetricByConfiguration(t *testing.T) {
	// If config says model M appears in drive-type list of tape-type T,
	// compatible(medium T, drive M) == true for all such M, T.
	o := newTestOracle()
	for tapeType, tt := range map[string]TapeType{"LTO8": {DriveRW: []string{"lto-gen8", "lto-gen9"}}} {
		for _, driveType := range tt.DriveRW {
			dt := map[string]DriveType{"lto-gen8": {Models: []string{"ULT3580-TD8", "HH-LTO8"}}, "lto-gen9": {Models: []string{"ULT3580-TD9"}}}[driveType]
			for _, model := range dt.Models {
				ok, err := o.Compatible(tapeType, model)
				require.NoError(t, err)
				require.True(t, ok)
			}
		}
	}
}
