// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "error"}, "devicemanager_test")
	require.NoError(t, err)
	return l
}

func TestDirLibrary_LoadBayContentsUnload(t *testing.T) {
	ctx := context.Background()
	lib := NewDirLibrary(testLogger(t), t.TempDir())
	bay := filepath.Join(t.TempDir(), "drive0")

	require.NoError(t, lib.Load(ctx, bay, "MEDIUM-1"))

	content, err := lib.BayContents(ctx, bay)
	require.NoError(t, err)
	require.True(t, content.ContainsMedium)
	require.Equal(t, "MEDIUM-1", content.MediumLabel)

	require.NoError(t, lib.Unload(ctx, bay))
	content, err = lib.BayContents(ctx, bay)
	require.NoError(t, err)
	require.False(t, content.ContainsMedium)
}

func TestDirFilesystem_FormatAndStat(t *testing.T) {
	ctx := context.Background()
	fs := NewDirFilesystem(testLogger(t))
	backing := filepath.Join(t.TempDir(), "medium-backing")

	require.NoError(t, fs.Format(ctx, backing, "ext4"))

	space, err := fs.Stat(ctx, t.TempDir())
	require.NoError(t, err)
	require.Greater(t, space.Total, int64(0))
}

func TestDirFilesystem_ReadOnlyFalseOnWritableDir(t *testing.T) {
	ctx := context.Background()
	fs := NewDirFilesystem(testLogger(t))
	ro, err := fs.ReadOnly(ctx, t.TempDir())
	require.NoError(t, err)
	require.False(t, ro)
}
