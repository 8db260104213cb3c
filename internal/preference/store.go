// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package preference

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/wayfinder/internal/metrics"
)

// ErrInvalidUser is returned for a blank user ID.
var ErrInvalidUser = errors.New("user id is required")

// Store persists preference sets keyed by user ID.
//
// Load returns an empty set for an unknown user. Save unions the given set
// into what is stored, so repeating a Save is harmless. Saves for the same
// user are serialized; saves for different users are independent.
type Store interface {
	Load(ctx context.Context, userID string) (Set, error)
	Save(ctx context.Context, userID string, set Set) error
}

// Backend names, used in configuration and metrics labels.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

func checkUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	return nil
}

// keyedLock hands out one mutex per user. Entries are reference counted and
// dropped once no caller holds or waits on them.
type keyedLock struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: make(map[string]*refMutex)}
}

// lock acquires the mutex for key and returns its release function.
func (k *keyedLock) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func observe(backend, operation string, start time.Time) {
	metrics.RecordPreferenceOperation(backend, operation, time.Since(start))
}

// Seed unions categories a user declared up front (for example on sign-up)
// into their liked set.
func Seed(ctx context.Context, store Store, userID string, categories []string) error {
	set := NewSet()
	if set.Like(categories...) == 0 {
		return nil
	}
	return store.Save(ctx, userID, set)
}
