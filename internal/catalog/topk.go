// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package catalog

import (
	"container/heap"
	"sort"
)

// better reports whether a ranks ahead of b: higher similarity first, then
// lower business ID so that results are reproducible.
func better(a, b Hit) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	return a.BusinessID < b.BusinessID
}

// hitHeap is a min-heap whose root is the worst retained hit.
type hitHeap []Hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(Hit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topK keeps the k best hits seen so far in O(n log k).
type topK struct {
	k int
	h hitHeap
}

func newTopK(k int) *topK {
	return &topK{k: k, h: make(hitHeap, 0, k)}
}

func (t *topK) offer(hit Hit) {
	if len(t.h) < t.k {
		heap.Push(&t.h, hit)
		return
	}
	if better(hit, t.h[0]) {
		t.h[0] = hit
		heap.Fix(&t.h, 0)
	}
}

func (t *topK) sorted() []Hit {
	out := make([]Hit, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}
