// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import (
	"github.com/mindbergh/malloc/block"
	"github.com/mindbergh/malloc/internal/offset"
)

// minSplitSlack is the smallest leftover, in words, worth carving into its
// own free tail block rather than handed whole to the request — three
// words of slack plus the old footer word, which the allocated head no
// longer needs, give the tail four words: a free block's header+footer
// plus block.MinFreeWords of payload, matching mm-tree-sb.c's place()'s
// literal "cwords >= awords+3".
const minSplitSlack = 3

// place occupies the free block at addr with an awords-word allocated
// block (C4). addr must already have been removed from the free-set index
// by the caller's FindFit/Delete pairing — place never touches the index
// itself beyond inserting a split-off tail.
//
// Two outcomes, both grounded on mm-tree-sb.c's place():
//
//   - Split: if the free block has at least minSplitSlack words more than
//     the request needs, the head becomes an awords-word allocated block
//     and the remainder becomes a new free block, reinserted into the
//     index.
//   - Occupy: otherwise the whole free block becomes the allocated block,
//     reclaiming its footer word as payload (awords ends up as high as
//     cwords+1) rather than leaving an unsplittable sliver.
func (al *Allocator) place(addr offset.Word, awords uint32) {
	h := block.Header{Arena: al.arena, Addr: addr}
	cwords := h.Size()
	prevAlloc := !h.IsPrevFree()

	if cwords >= awords+minSplitSlack {
		h.SetSize(awords)
		h.MarkAlloc(prevAlloc)

		tail := h.Next()
		tail.SetSize(cwords - awords - 1)
		tail.MarkFree(true)
		al.set.Insert(tail.Addr)
		return
	}

	h.SetSize(cwords + 1)
	h.MarkAlloc(prevAlloc)
	h.Next().SetPrevAlloc(true)
}
