/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"sync"

	"github.com/stratastor/rodent/internal/common"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/lrs/types"
)

// intentStore holds prepared intents between a write_prepare/read_prepare
// call and the matching io_complete/resource_release call, keyed by a
// server-issued handle. Phobos itself keeps the intent in the calling
// process's memory; over HTTP there is no shared process, so the handle
// stands in for that pointer.
type intentStore struct {
	mu      sync.Mutex
	intents map[string]*types.Intent
}

func newIntentStore() *intentStore {
	return &intentStore{intents: make(map[string]*types.Intent)}
}

func (s *intentStore) put(intent *types.Intent) string {
	id := common.UUID7()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[id] = intent
	return id
}

func (s *intentStore) take(id string) (*types.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok {
		return nil, errors.New(errors.LRSInvalidArgument, "unknown intent id").WithMetadata("intentId", id)
	}
	return intent, nil
}

func (s *intentStore) drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.intents, id)
}
