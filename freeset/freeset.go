// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package freeset implements the free-set index: a dense array of
// small-class heads for the common small free sizes, and a size-ordered
// BST of address-ordered rings for everything larger. This is the heart
// of the allocator — every free-block reachability invariant the
// checker verifies depends entirely on it.
package freeset

import (
	"github.com/cznic/mathutil"

	"github.com/mindbergh/malloc/block"
	"github.com/mindbergh/malloc/heap"
	"github.com/mindbergh/malloc/internal/offset"
)

// DefaultSmallClasses is K, the number of dense small-size buckets,
// matching both lldb/flt.go's canned FLT tables and mm-tree-sb.c's literal
// SEG_LIST_SIZE.
const DefaultSmallClasses = 6

// Set is the free-set index: K small-class heads plus a BST-of-rings root.
type Set struct {
	arena heap.Oracle
	small []offset.Word
	root  offset.Word
	k     int
}

// New returns an empty Set routing sizes <= 2*k to k dense small-class
// heads and everything larger to the BST.
func New(a heap.Oracle, k int) *Set {
	if k <= 0 {
		k = DefaultSmallClasses
	}
	return &Set{arena: a, small: make([]offset.Word, k), k: k}
}

// K returns the configured number of small classes.
func (s *Set) K() int { return s.k }

// SmallClassThreshold is the largest size, in words, still routed to a
// small-class head.
func (s *Set) SmallClassThreshold() uint32 { return uint32(2 * s.k) }

// SmallHeads returns the current heads of the K small-class chains, for use
// by the invariant checker. The slice is a copy; mutating it has no effect
// on the index.
func (s *Set) SmallHeads() []offset.Word {
	out := make([]offset.Word, len(s.small))
	copy(out, s.small)
	return out
}

// Root returns the BST root, for use by the invariant checker.
func (s *Set) Root() offset.Word { return s.root }

func (s *Set) header(addr offset.Word) block.Header {
	return block.Header{Arena: s.arena, Addr: addr}
}

func (s *Set) size(addr offset.Word) uint32 { return s.header(addr).Size() }

func smallClassIndex(words uint32) int { return int((words - 2) / 2) }

// Insert adds a free block to the index, routing by size.
func (s *Set) Insert(addr offset.Word) {
	w := s.size(addr)
	if w <= s.SmallClassThreshold() {
		s.insertSmall(addr, w)
		return
	}
	s.root = s.put(addr, s.root)
}

func (s *Set) insertSmall(addr offset.Word, w uint32) {
	idx := smallClassIndex(w)
	h := s.header(addr)
	old := s.small[idx]
	h.SetRingPrev(offset.Nil)
	h.SetRingNext(old)
	if !old.IsNil() {
		s.header(old).SetRingPrev(addr)
	}
	s.small[idx] = addr
}

// Delete removes a free block from the index. addr must currently be
// indexed (Contains(addr) == true).
func (s *Set) Delete(addr offset.Word) {
	w := s.size(addr)
	if w <= s.SmallClassThreshold() {
		s.deleteSmall(addr, w)
		return
	}
	s.root = s.take(addr, s.root)
}

func (s *Set) deleteSmall(addr offset.Word, w uint32) {
	idx := smallClassIndex(w)
	h := s.header(addr)
	p, n := h.RingPrev(), h.RingNext()
	if p.IsNil() {
		s.small[idx] = n
	} else {
		s.header(p).SetRingNext(n)
	}
	if !n.IsNil() {
		s.header(n).SetRingPrev(p)
	}
}

// FindFit returns a free block of size >= words, or (Nil, false) if none
// exists. Small requests are satisfied by the first non-empty small class
// at or above the requested size; if none of those classes holds a fit
// (not just "no exact class" — every class from the requested size upward
// is empty), the search falls through to the BST ceiling search exactly as
// the original mm-tree-sb.c's ceiling() does, since a large free block can
// always be split down to satisfy a small request. Within the chosen BST
// size, FindFit returns the address-minimum block (the tie-break policy)
// — never the early-break "first class, first block" behavior that is a
// known bug in the original, not to be reproduced here.
func (s *Set) FindFit(words uint32) (offset.Word, bool) {
	if words < 1 {
		panic("freeset: FindFit words must be >= 1")
	}

	if words <= s.SmallClassThreshold() {
		if addr, ok := s.findSmallFit(words); ok {
			return addr, true
		}
	}

	node := s.ceiling(words, s.root)
	if node.IsNil() {
		return offset.Nil, false
	}
	return node, true
}

func (s *Set) findSmallFit(words uint32) (offset.Word, bool) {
	start := int(mathutil.MinInt64(int64(smallClassIndex(words)), int64(s.k)))
	if start < 0 {
		start = 0
	}
	for i := start; i < s.k; i++ {
		if !s.small[i].IsNil() {
			return s.small[i], true
		}
	}
	return offset.Nil, false
}

// Contains reports whether addr is currently indexed. Used by the
// invariant checker (I6) and by tests; not on any allocator hot path.
func (s *Set) Contains(addr offset.Word) bool {
	w := s.size(addr)
	if w <= s.SmallClassThreshold() {
		for cur := s.small[smallClassIndex(w)]; !cur.IsNil(); cur = s.header(cur).RingNext() {
			if cur == addr {
				return true
			}
		}
		return false
	}

	node := s.findNode(w, s.root)
	if node.IsNil() {
		return false
	}
	for cur := node; !cur.IsNil(); cur = s.header(cur).RingNext() {
		if cur == addr {
			return true
		}
	}
	return false
}

func (s *Set) findNode(words uint32, root offset.Word) offset.Word {
	cur := root
	for !cur.IsNil() {
		curSz := s.size(cur)
		switch {
		case words == curSz:
			return cur
		case words < curSz:
			cur = s.header(cur).TreeLeft()
		default:
			cur = s.header(cur).TreeRight()
		}
	}
	return offset.Nil
}
