// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package preference

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps preferences in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]Set
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]Set)}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, userID string) (Set, error) {
	defer observe(BackendMemory, "load", time.Now())
	if err := checkUser(userID); err != nil {
		return Set{}, err
	}
	if err := ctx.Err(); err != nil {
		return Set{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if set, ok := s.users[userID]; ok {
		return set.Clone(), nil
	}
	return NewSet(), nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, userID string, set Set) error {
	defer observe(BackendMemory, "save", time.Now())
	if err := checkUser(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[userID]
	if !ok {
		stored = NewSet()
	}
	stored.Union(set)
	s.users[userID] = stored
	return nil
}
