// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import (
	"fmt"

	"github.com/mindbergh/malloc/block"
	"github.com/mindbergh/malloc/internal/offset"
)

// extend grows the heap by requesting budget+1 new words from the oracle
// (C6), where budget is the free-form word count the new block should end
// up with room for (payload plus its footer). One of the budget+1 new
// words becomes the fresh epilogue; the rest become the new free block's
// footer and payload. The old epilogue's word is reused, unmodified
// in position, as the new free block's header — mm-tree-sb.c's
// extend_heap() does the equivalent pointer-arithmetic trick by stepping
// the block pointer back one word from mem_sbrk's returned break.
//
// An even budget is first rounded up to the next odd count, so the new
// block's size_words (budget-1) is even and every block header stays on
// an odd word, keeping payloads 8-byte aligned.
//
// The resulting free block is always coalesced with a preceding free
// block, if any (the usual case after a string of small frees followed by
// an allocation big enough to force growth).
func (al *Allocator) extend(budget uint32) (offset.Word, error) {
	if budget < block.MinFreeWords+1 {
		budget = block.MinFreeWords + 1
	}
	if budget%2 == 0 {
		budget++
	}

	oldBreak, err := al.arena.Sbrk(int(budget+1) * 4)
	if err != nil {
		return offset.Nil, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}

	newHeader := offset.FromByteOffset(oldBreak).Add(-1)
	oldEpilogue := block.Header{Arena: al.arena, Addr: newHeader}
	prevAlloc := !oldEpilogue.IsPrevFree()

	h := block.Header{Arena: al.arena, Addr: newHeader}
	h.SetSize(budget - 1)
	h.MarkFree(prevAlloc)

	epilogue := h.Next()
	epilogue.MarkAlloc(false)

	return al.coalesce(newHeader), nil
}

// growAndFindFit extends the heap by at least enough to satisfy a request
// for need free-form words (falling back to al.chunkWords if that is
// larger, so the common case grows in bulk rather than word-by-word) and
// then retries the free-set lookup against the newly available space.
func (al *Allocator) growAndFindFit(need uint32) (offset.Word, error) {
	// extend(budget) yields a free block of size_words >= budget-1, so
	// budget must be at least need+1 for the new block alone to satisfy
	// the request even before considering that it may also coalesce
	// with an existing free neighbor.
	budget := need + 1
	if al.chunkWords > budget {
		budget = al.chunkWords
	}

	if _, err := al.extend(budget); err != nil {
		return offset.Nil, err
	}

	addr, ok := al.set.FindFit(need)
	if !ok {
		// Only reachable if the freshly grown block failed to merge
		// into anything large enough despite the budget above — grow
		// exactly once more at the precise size rather than looping.
		if _, err := al.extend(need + 1); err != nil {
			return offset.Nil, err
		}
		addr, ok = al.set.FindFit(need)
		if !ok {
			return offset.Nil, fmt.Errorf("%w: grew heap but no fit found", ErrCorruptHeap)
		}
	}
	return addr, nil
}
