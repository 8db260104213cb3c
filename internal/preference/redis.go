// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package preference

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is used when RedisStore is given an empty prefix.
const DefaultRedisPrefix = "wayfinder:prefs:"

// RedisOptions configures NewRedisClient.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// RedisStore implements Store with two Redis sets per user,
// <prefix><user>:liked and <prefix><user>:disliked. SADD makes every save a
// server-side union, so concurrent saves for one user cannot lose updates.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store over rdb. The caller owns rdb.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) keys(userID string) (liked, disliked string) {
	base := s.prefix + userID
	return base + ":liked", base + ":disliked"
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, userID string) (Set, error) {
	defer observe(BackendRedis, "load", time.Now())
	if err := checkUser(userID); err != nil {
		return Set{}, err
	}

	likedKey, dislikedKey := s.keys(userID)
	var likedCmd, dislikedCmd *redis.StringSliceCmd
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		likedCmd = pipe.SMembers(ctx, likedKey)
		dislikedCmd = pipe.SMembers(ctx, dislikedKey)
		return nil
	})
	if err != nil {
		return Set{}, fmt.Errorf("load preferences: %w", err)
	}

	return Set{
		Liked:    NewCategories(likedCmd.Val()...),
		Disliked: NewCategories(dislikedCmd.Val()...),
	}, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, userID string, set Set) error {
	defer observe(BackendRedis, "save", time.Now())
	if err := checkUser(userID); err != nil {
		return err
	}
	if set.IsEmpty() {
		return nil
	}

	likedKey, dislikedKey := s.keys(userID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if liked := members(set.Liked); len(liked) > 0 {
			pipe.SAdd(ctx, likedKey, liked...)
		}
		if disliked := members(set.Disliked); len(disliked) > 0 {
			pipe.SAdd(ctx, dislikedKey, disliked...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func members(c Categories) []interface{} {
	sorted := c.Sorted()
	out := make([]interface{}, len(sorted))
	for i, t := range sorted {
		out[i] = t
	}
	return out
}
