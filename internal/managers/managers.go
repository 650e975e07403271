// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package managers provides a centralized registry for shared manager instances.
// This ensures both HTTP routes (pkg/server) and CLI commands (cmd/) use the
// same LRS service instance, avoiding duplicate registries and race conditions.
//
// Usage:
//   - cmd/serve calls SetLRSService after constructing and initializing the service
//   - pkg/server/routes.go calls GetLRSService to wire the HTTP handlers
//   - GetLRSService returns nil if the service hasn't been set yet
package managers

import (
	"sync"

	"github.com/stratastor/rodent/pkg/lrs/service"
)

var (
	mu sync.RWMutex

	lrsService *service.Service
)

// SetLRSService sets the shared LRS service instance.
func SetLRSService(s *service.Service) {
	mu.Lock()
	defer mu.Unlock()
	lrsService = s
}

// GetLRSService returns the shared LRS service, or nil if not set.
func GetLRSService() *service.Service {
	mu.RLock()
	defer mu.RUnlock()
	return lrsService
}
