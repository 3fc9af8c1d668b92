// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package block implements the packed 4-byte block header/footer codec
// and the heap walker that every higher-level component — the free-set
// index, the placement/coalescing engines, and the invariant checker —
// reads blocks through. Keeping both here, below freeset, allocator and
// checker in the import graph, avoids a cycle: the free-set's routing
// and the checker's walk both need the header decode underneath them.
package block

import (
	"github.com/cznic/mathutil"

	"github.com/mindbergh/malloc/heap"
	"github.com/mindbergh/malloc/internal/offset"
)

const (
	allocBit     uint32 = 1 << 30
	prevAllocBit uint32 = 1 << 31
	sizeMask     uint32 = allocBit - 1
)

// clampSize guards against a caller-computed word count overflowing the
// 30-bit size field — the same defensive clamp falloc.go's own
// mathutil.MinInt64 use performs against its Filer's atom-count field.
func clampSize(words uint32) uint32 {
	return uint32(mathutil.MinInt64(int64(words), int64(sizeMask)))
}

// MinAllocWords is the smallest payload size, in words, an allocated
// block may carry.
const MinAllocWords = 3

// MinFreeWords is the smallest payload size a free leaf block (one that
// never needs tree links, only ring links) may carry.
const MinFreeWords = 2

// MinFreeWordsWithTree is the smallest payload size a free block that must
// be able to hold tree_left/tree_right links may carry.
const MinFreeWordsWithTree = 4

// Header is a cursor onto one block's header word.
type Header struct {
	Arena heap.Oracle
	Addr  offset.Word
}

func (b Header) word() uint32 { return b.Arena.WordAt(b.Addr.ByteOffset()) }

// Size returns size_words: the payload size in words (excludes header;
// excludes footer for allocated blocks).
func (b Header) Size() uint32 { return b.word() & sizeMask }

// IsFree reports whether this block is free.
func (b Header) IsFree() bool { return b.word()&allocBit == 0 }

// IsPrevFree reports whether the contiguous previous block is free.
func (b Header) IsPrevFree() bool { return b.word()&prevAllocBit == 0 }

// SetSize rewrites size_words, preserving the alloc/prevAlloc bits.
// Callers must set the size before calling MarkFree, since the footer
// address is computed from size.
func (b Header) SetSize(words uint32) {
	v := (b.word() &^ sizeMask) | clampSize(words)
	b.Arena.SetWordAt(b.Addr.ByteOffset(), v)
}

// SetPrevAlloc updates only the prev-alloc bit, leaving size and this
// block's own alloc bit untouched. Used by the placement and coalescing
// engines to patch the bit of the block that follows a mutated one.
func (b Header) SetPrevAlloc(prevAlloc bool) {
	v := b.word()
	if prevAlloc {
		v |= prevAllocBit
	} else {
		v &^= prevAllocBit
	}
	b.Arena.SetWordAt(b.Addr.ByteOffset(), v)
}

// MarkAlloc marks this block allocated at its current size. Allocated
// blocks never carry a footer (footer suppression).
func (b Header) MarkAlloc(prevAlloc bool) {
	v := (b.word() & sizeMask) | allocBit
	if prevAlloc {
		v |= prevAllocBit
	}
	b.Arena.SetWordAt(b.Addr.ByteOffset(), v)
}

// MarkFree marks this block free at its current size and writes the
// trailing footer (a bit-identical copy of the header, I4).
func (b Header) MarkFree(prevAlloc bool) {
	v := b.word() & sizeMask
	if prevAlloc {
		v |= prevAllocBit
	}
	b.Arena.SetWordAt(b.Addr.ByteOffset(), v)

	footer := Header{Arena: b.Arena, Addr: b.Addr.Add(int(v&sizeMask) + 1)}
	b.Arena.SetWordAt(footer.Addr.ByteOffset(), v)
}

// TotalWords returns the number of words this block occupies including its
// header and, for free blocks, its footer.
func (b Header) TotalWords() int {
	if b.IsFree() {
		return int(b.Size()) + 2
	}
	return int(b.Size()) + 1
}

// InitSentinels writes the zero-size allocated prologue at word 0 and the
// zero-size allocated epilogue immediately after it, bracketing an empty
// heap so the walker never needs a boundary check.
func InitSentinels(a heap.Oracle) {
	prologue := Header{Arena: a, Addr: offset.Word(0)}
	prologue.MarkAlloc(true)
	epilogue := Header{Arena: a, Addr: offset.Word(1)}
	epilogue.MarkAlloc(true)
}
