// Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2024-2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package ownerid constructs the per-LRS-instance owner identity every
// catalog lock is stamped with.
package ownerid

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/stratastor/rodent/internal/common"
)

// maxLen is the fixed maximum an owner string is truncated to so it fits
// whatever column width the catalog uses to store it.
const maxLen = 256

var (
	mu      sync.Mutex
	counter uint64
)

// next returns a monotonically increasing counter, so that two owner
// strings constructed within the same host/thread/millisecond never
// collide.
func next() uint64 {
	mu.Lock()
	defer mu.Unlock()
	counter++
	return counter
}

// New builds an owner string of the form "{host}:{thread_id}:{wall_time}:
// {counter}", truncated to maxLen. threadID identifies the calling
// goroutine/thread context (the caller's choice — a PID, a goroutine
// label, or a UUID7 when no stable thread identity is available).
func New(threadID string) (string, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}
	if threadID == "" {
		threadID = common.UUID7()
	}

	owner := fmt.Sprintf("%s:%s:%d:%d", host, threadID, time.Now().UnixNano(), next())
	if len(owner) > maxLen {
		owner = owner[:maxLen]
	}
	return owner, nil
}
