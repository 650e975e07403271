// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package subprocess

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture_Success(t *testing.T) {
	var mu sync.Mutex
	var lines []string
	var chans []Channel

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := Capture(ctx, "sh", []string{"-c", "echo out1\nls /nonexistent-capture-test-path\necho out2"}, func(ch Channel, line string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
		chans = append(chans, ch)
	})

	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, res)
	assert.Len(t, lines, 3)
}

func TestCapture_ExitCodeClassification(t *testing.T) {
	cases := []struct {
		name   string
		script string
		want   Result
	}{
		{"success", "exit 0", ResultSuccess},
		{"permission-denied", "exit 126", ResultPermissionDenied},
		{"no-such-file", "exit 127", ResultNoSuchFile},
		{"invalid-argument", "exit 128", ResultInvalidArgument},
		{"no-child-other", "exit 2", ResultNoChild},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			res, _ := Capture(ctx, "sh", []string{"-c", tc.script}, nil)
			assert.Equal(t, tc.want, res)
		})
	}
}

func TestCapture_RejectsDangerousArgument(t *testing.T) {
	ctx := context.Background()
	res, err := Capture(ctx, "echo", []string{"foo; rm -rf /"}, nil)
	require.Error(t, err)
	assert.Equal(t, ResultInvalidArgument, res)
}

func TestCapture_SpawnFailureIsNoChild(t *testing.T) {
	ctx := context.Background()
	res, err := Capture(ctx, "this-binary-does-not-exist-anywhere", nil, nil)
	require.Error(t, err)
	assert.Equal(t, ResultNoChild, res)
}
