// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import "github.com/mindbergh/malloc/internal/offset"

// Next returns the header of the block immediately following b.
func (b Header) Next() Header {
	return Header{Arena: b.Arena, Addr: b.Addr.Add(b.TotalWords())}
}

// Prev returns the header of the block immediately preceding b. The caller
// MUST first check b.IsPrevFree(); behavior is undefined if the previous
// block is allocated, since then there is no footer to read.
func (b Header) Prev() Header {
	footer := Header{Arena: b.Arena, Addr: b.Addr.Add(-1)}
	size := footer.word() & sizeMask
	return Header{Arena: b.Arena, Addr: b.Addr.Add(-(int(size) + 2))}
}

// IsEpilogue reports whether b is the zero-size allocated epilogue
// sentinel.
func (b Header) IsEpilogue() bool {
	return !b.IsFree() && b.Size() == 0
}

// RingPrev returns the address-order predecessor link stored at word
// offset +1 from a free block's header.
func (b Header) RingPrev() offset.Word {
	return offset.Word(b.Arena.WordAt(b.Addr.Add(1).ByteOffset()))
}

// SetRingPrev writes the ring_prev link.
func (b Header) SetRingPrev(v offset.Word) {
	b.Arena.SetWordAt(b.Addr.Add(1).ByteOffset(), uint32(v))
}

// RingNext returns the address-order successor link stored at word offset
// +2 from a free block's header.
func (b Header) RingNext() offset.Word {
	return offset.Word(b.Arena.WordAt(b.Addr.Add(2).ByteOffset()))
}

// SetRingNext writes the ring_next link.
func (b Header) SetRingNext(v offset.Word) {
	b.Arena.SetWordAt(b.Addr.Add(2).ByteOffset(), uint32(v))
}

// TreeLeft returns the BST left-child link, present only when Size() >= 4.
func (b Header) TreeLeft() offset.Word {
	return offset.Word(b.Arena.WordAt(b.Addr.Add(3).ByteOffset()))
}

// SetTreeLeft writes the tree_left link.
func (b Header) SetTreeLeft(v offset.Word) {
	b.Arena.SetWordAt(b.Addr.Add(3).ByteOffset(), uint32(v))
}

// TreeRight returns the BST right-child link, present only when Size() >= 4.
func (b Header) TreeRight() offset.Word {
	return offset.Word(b.Arena.WordAt(b.Addr.Add(4).ByteOffset()))
}

// SetTreeRight writes the tree_right link.
func (b Header) SetTreeRight(v offset.Word) {
	b.Arena.SetWordAt(b.Addr.Add(4).ByteOffset(), uint32(v))
}

// HasTreeLinks reports whether b is large enough to carry tree_left/right.
func (b Header) HasTreeLinks() bool { return b.Size() >= MinFreeWordsWithTree }
