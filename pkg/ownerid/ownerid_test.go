// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ownerid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WithinMaxLength(t *testing.T) {
	owner, err := New("thread-1")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(owner), maxLen)
	assert.NotEmpty(t, owner)
}

func TestNew_UniqueAcrossRapidReinits(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		owner, err := New("thread-1")
		require.NoError(t, err)
		_, dup := seen[owner]
		assert.False(t, dup, "owner string collided on rapid re-init: %s", owner)
		seen[owner] = struct{}{}
	}
}
