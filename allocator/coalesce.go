// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import (
	"github.com/mindbergh/malloc/block"
	"github.com/mindbergh/malloc/internal/offset"
)

// coalesce merges the already-free block at addr with whichever of its
// contiguous neighbors are also free, reinserts the resulting block into
// the free-set index, and returns its (possibly moved) address (C5).
//
// The caller must have already transitioned addr to free (header rewritten,
// footer written) — coalesce never marks addr free itself, only reconciles
// its neighbors and the index. This mirrors lldb.(*Allocator).free2's
// four-way latoms/ratoms switch, generalized from cznic's byte-tag blocks
// to the bit-packed prevAlloc/alloc header this module uses.
func (al *Allocator) coalesce(addr offset.Word) offset.Word {
	h := block.Header{Arena: al.arena, Addr: addr}
	predFree := h.IsPrevFree()
	next := h.Next()
	nextFree := next.IsFree()

	var result offset.Word

	switch {
	case !predFree && !nextFree:
		al.set.Insert(addr)
		result = addr

	case !predFree && nextFree:
		al.set.Delete(next.Addr)
		merged := h.Size() + next.Size() + 2
		h.SetSize(merged)
		h.MarkFree(true) // predecessor of h is allocated, unchanged by this merge
		al.set.Insert(addr)
		result = addr

	case predFree && !nextFree:
		prev := h.Prev()
		prevPredAlloc := !prev.IsPrevFree()
		al.set.Delete(prev.Addr)
		merged := prev.Size() + h.Size() + 2
		prev.SetSize(merged)
		prev.MarkFree(prevPredAlloc)
		al.set.Insert(prev.Addr)
		result = prev.Addr

	default: // predFree && nextFree
		prev := h.Prev()
		prevPredAlloc := !prev.IsPrevFree()
		al.set.Delete(prev.Addr)
		al.set.Delete(next.Addr)
		merged := prev.Size() + h.Size() + next.Size() + 4
		prev.SetSize(merged)
		prev.MarkFree(prevPredAlloc)
		al.set.Insert(prev.Addr)
		result = prev.Addr
	}

	resH := block.Header{Arena: al.arena, Addr: result}
	resH.Next().SetPrevAlloc(false)
	return result
}
