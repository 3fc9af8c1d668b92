// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package allocator implements the placement engine (C4), the coalescing
// engine (C5), the heap-growth driver (C6) and the four public entry
// points (C7): Alloc, Free, Resize and Calloc.
package allocator

import (
	"fmt"

	"github.com/cznic/mathutil"

	"github.com/mindbergh/malloc/block"
	"github.com/mindbergh/malloc/freeset"
	"github.com/mindbergh/malloc/heap"
	"github.com/mindbergh/malloc/internal/offset"
)

// defaultChunkWords is the minimum number of free-form words requested
// from the oracle on each heap-growth call, amortizing the cost of Sbrk
// across many small allocations. mm-tree-sb.c hardcodes a single
// CHUNKSIZE constant for the same purpose; this keeps the same role but
// as a tunable Config field rather than a compile-time constant, since
// nothing about the value is load-bearing for correctness.
const defaultChunkWords = 512

// Config tunes an Allocator without changing its semantics.
type Config struct {
	// SmallClasses is K, the number of dense small free-size buckets.
	// Zero selects freeset.DefaultSmallClasses.
	SmallClasses int
	// ChunkWords is the minimum heap growth request, in words. Zero
	// selects defaultChunkWords.
	ChunkWords uint32
}

// Allocator drives one heap.Oracle through its lifetime: Init once, then
// any sequence of Alloc/Free/Resize/Calloc calls. Not safe for concurrent
// use, matching the single-threaded CS:APP driver it was modeled on.
type Allocator struct {
	arena      heap.Oracle
	set        *freeset.Set
	chunkWords uint32
}

// New constructs an Allocator over arena. Callers must call Init before
// the first Alloc.
func New(arena heap.Oracle, cfg Config) *Allocator {
	chunk := cfg.ChunkWords
	if chunk == 0 {
		chunk = defaultChunkWords
	}
	return &Allocator{
		arena:      arena,
		set:        freeset.New(arena, cfg.SmallClasses),
		chunkWords: chunk,
	}
}

// Arena returns the heap.Oracle backing al, for callers that need to
// drive checker.Check or other read-only diagnostics externally.
func (al *Allocator) Arena() heap.Oracle { return al.arena }

// FreeSet returns al's free-set index, for the same external-diagnostics
// use as Arena.
func (al *Allocator) FreeSet() *freeset.Set { return al.set }

// Init writes the prologue/epilogue sentinels and performs the initial
// heap-growth call, readying the allocator for Alloc. Must be called
// exactly once, before any other method, on a freshly constructed arena.
func (al *Allocator) Init() error {
	if _, err := al.arena.Sbrk(2 * 4); err != nil {
		return fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}
	block.InitSentinels(al.arena)

	if _, err := al.extend(al.chunkWords); err != nil {
		return err
	}
	return nil
}

// wordsFor converts a requested payload size in bytes to awords, the
// allocated block's payload word count: a minimum of 3 words, rounded up
// above that to a multiple of 2 words (8-byte alignment) on top of the
// 1-word header already counted in.
func wordsFor(n int) uint32 {
	if n <= 12 {
		return block.MinAllocWords
	}
	adjusted := (n - 12 + 7) &^ 7
	return block.MinAllocWords + uint32(adjusted)/4
}

func payloadAddr(blockAddr offset.Word) offset.Word { return blockAddr.Add(1) }
func blockAddrOf(payload offset.Word) offset.Word   { return payload.Add(-1) }

// Alloc returns the address of a newly allocated block's payload able to
// hold at least n bytes, or an error if the heap cannot grow enough.
// Alloc(0) returns offset.Nil, matching malloc(0)'s permitted
// implementation-defined "return NULL" behavior.
func (al *Allocator) Alloc(n int) (offset.Word, error) {
	if n < 0 {
		return offset.Nil, ErrInvalidArgument
	}
	if n == 0 {
		return offset.Nil, nil
	}

	awords := wordsFor(n)
	need := awords - 1 // the free-form size an awords-word alloc block needs room for

	addr, ok := al.set.FindFit(need)
	if !ok {
		var err error
		addr, err = al.growAndFindFit(need)
		if err != nil {
			return offset.Nil, err
		}
	}
	al.set.Delete(addr)

	al.place(addr, awords)
	return payloadAddr(addr), nil
}

// Free releases the block at payload, coalescing it with any free
// neighbors. Free(offset.Nil) is a no-op.
func (al *Allocator) Free(payload offset.Word) {
	if payload.IsNil() {
		return
	}
	addr := blockAddrOf(payload)
	h := block.Header{Arena: al.arena, Addr: addr}
	prevAlloc := !h.IsPrevFree()
	// The free form carries a footer the allocated form did not, so the
	// same span holds one payload word less.
	h.SetSize(h.Size() - 1)
	h.MarkFree(prevAlloc)
	al.coalesce(addr)
}

// Calloc is Alloc followed by a zero-fill of the returned payload,
// matching the calloc(nmemb, size) contract via nmemb*size bytes.
func (al *Allocator) Calloc(nmemb, size int) (offset.Word, error) {
	if nmemb < 0 || size < 0 {
		return offset.Nil, ErrInvalidArgument
	}
	n := nmemb * size
	p, err := al.Alloc(n)
	if err != nil || p.IsNil() {
		return p, err
	}

	addr := blockAddrOf(p)
	h := block.Header{Arena: al.arena, Addr: addr}
	words := int(h.Size())
	for i := 0; i < words; i++ {
		al.arena.SetWordAt(p.Add(i).ByteOffset(), 0)
	}
	return p, nil
}

// Resize changes the block at payload to hold at least n bytes, with
// realloc semantics: Resize(nil, n) behaves as Alloc(n), Resize(p, 0)
// behaves as Free(p), and a resize that fits within the existing
// block's current slack never moves the payload.
func (al *Allocator) Resize(payload offset.Word, n int) (offset.Word, error) {
	if payload.IsNil() {
		return al.Alloc(n)
	}
	if n <= 0 {
		al.Free(payload)
		return offset.Nil, nil
	}

	addr := blockAddrOf(payload)
	h := block.Header{Arena: al.arena, Addr: addr}
	words := h.Size()
	nwords := wordsFor(n)

	switch {
	case nwords == words || (words > nwords && words-nwords < 4):
		return payload, nil

	case words > nwords:
		al.shrink(h, words, nwords)
		return payload, nil

	default:
		if grown, ok := al.growInPlace(h, words, nwords); ok {
			return grown, nil
		}
		newPayload, err := al.Alloc(n)
		if err != nil {
			return offset.Nil, err
		}
		al.copyWords(payload, newPayload, int(mathutil.MinInt64(int64(words), int64(nwords))))
		al.Free(payload)
		return newPayload, nil
	}
}

// shrink splits a block being resized down into an awords-word head and a
// free tail, absorbing the tail into a following free block if there is
// one, per mm-tree-sb.c's realloc() shrink-with-split branch.
func (al *Allocator) shrink(h block.Header, words, nwords uint32) {
	prevAlloc := !h.IsPrevFree()
	h.SetSize(nwords)
	h.MarkAlloc(prevAlloc)

	tail := h.Next()
	tail.SetSize(words - nwords - 2)
	tail.MarkFree(true)

	after := tail.Next()
	if after.IsFree() {
		al.set.Delete(after.Addr)
		tail.SetSize(tail.Size() + after.Size() + 2)
		tail.MarkFree(true)
	} else {
		after.SetPrevAlloc(false)
	}
	al.set.Insert(tail.Addr)
}

// growInPlace attempts to satisfy a grow-resize by absorbing a
// immediately-following free block, splitting off its own tail if there's
// enough left over, per mm-tree-sb.c's realloc() grow branch. Reports
// false if the following block isn't free or isn't big enough, in which
// case the caller must relocate.
func (al *Allocator) growInPlace(h block.Header, words, nwords uint32) (offset.Word, bool) {
	next := h.Next()
	if !next.IsFree() {
		return offset.Nil, false
	}

	owords := next.Size()
	remain := int(owords) + 1 - int(nwords-words)
	if remain < 0 {
		return offset.Nil, false
	}

	prevAlloc := !h.IsPrevFree()
	al.set.Delete(next.Addr)

	if remain >= minSplitSlack {
		h.SetSize(nwords)
		h.MarkAlloc(prevAlloc)
		tail := h.Next()
		tail.SetSize(uint32(remain - 1))
		tail.MarkFree(true)
		al.set.Insert(tail.Addr)
		return payloadAddr(h.Addr), true
	}

	h.SetSize(words + owords + 2)
	h.MarkAlloc(prevAlloc)
	h.Next().SetPrevAlloc(true)
	return payloadAddr(h.Addr), true
}

func (al *Allocator) copyWords(from, to offset.Word, words int) {
	for i := 0; i < words; i++ {
		al.arena.SetWordAt(to.Add(i).ByteOffset(), al.arena.WordAt(from.Add(i).ByteOffset()))
	}
}
