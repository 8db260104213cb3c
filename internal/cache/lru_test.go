// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestLRU_BasicOperations(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, []float32](3, 0)
	c.Add("a", []float32{1})
	c.Add("b", []float32{2})

	if v, ok := c.Get("a"); !ok || v[0] != 1 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}

	c.Add("a", []float32{3})
	if v, _ := c.Get("a"); v[0] != 3 {
		t.Errorf("Get(a) after update = %v, want [3]", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	if !c.Remove("a") || c.Remove("a") {
		t.Error("Remove(a) should succeed once")
	}

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d, %d, %d; want 2, 1, 1", hits, misses, size)
	}
}

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](3, 0)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	// Touch a so that b becomes least recently used.
	c.Get("a")
	c.Add("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected %s to be present", k)
		}
	}
}

func TestLRU_TTLExpiration(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](10, 30*time.Millisecond)
	c.Add("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a before expiry")
	}

	time.Sleep(50 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to expire")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after expired Get, want 0", c.Len())
	}
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](64, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := strconv.Itoa((g*31 + i) % 100)
				c.Add(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("Len() = %d, exceeds capacity 64", c.Len())
	}
}
