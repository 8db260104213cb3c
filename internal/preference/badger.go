// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package preference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// preferenceKeyPrefix namespaces preference sets inside a shared BadgerDB.
const preferenceKeyPrefix = "preferences:"

// OpenBadger opens (or creates) a BadgerDB at path for preference storage.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for preferences: %w", err)
	}
	return db, nil
}

// BadgerStore implements Store using BadgerDB for durable storage. Each user
// is one JSON value under preferences:<user>.
type BadgerStore struct {
	db    *badger.DB
	locks *keyedLock
}

// NewBadgerStore creates a store over an open BadgerDB. The caller owns db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, locks: newKeyedLock()}
}

func preferenceKey(userID string) []byte {
	return []byte(preferenceKeyPrefix + userID)
}

// readSet decodes the stored set for userID, or an empty set if none exists.
func readSet(txn *badger.Txn, userID string) (Set, error) {
	item, err := txn.Get(preferenceKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return NewSet(), nil
	}
	if err != nil {
		return Set{}, fmt.Errorf("get preferences: %w", err)
	}

	set := NewSet()
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &set)
	})
	if err != nil {
		return Set{}, fmt.Errorf("decode preferences: %w", err)
	}
	return set, nil
}

// Load implements Store.
func (s *BadgerStore) Load(ctx context.Context, userID string) (Set, error) {
	defer observe(BackendBadger, "load", time.Now())
	if err := checkUser(userID); err != nil {
		return Set{}, err
	}
	if err := ctx.Err(); err != nil {
		return Set{}, err
	}

	var set Set
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		set, err = readSet(txn, userID)
		return err
	})
	if err != nil {
		return Set{}, err
	}
	return set, nil
}

// Save implements Store. The stored set is read, unioned and written back in
// one transaction while holding the user's lock.
func (s *BadgerStore) Save(ctx context.Context, userID string, set Set) error {
	defer observe(BackendBadger, "save", time.Now())
	if err := checkUser(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	release := s.locks.lock(userID)
	defer release()

	return s.db.Update(func(txn *badger.Txn) error {
		stored, err := readSet(txn, userID)
		if err != nil {
			return err
		}
		if !stored.Union(set) {
			return nil
		}

		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("marshal preferences: %w", err)
		}
		if err := txn.Set(preferenceKey(userID), data); err != nil {
			return fmt.Errorf("set preferences: %w", err)
		}
		return nil
	})
}
