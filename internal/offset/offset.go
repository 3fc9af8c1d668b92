// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package offset implements the word-offset addressing used throughout the
// allocator to keep free-block links 4 bytes instead of a full 8-byte Go
// pointer or slice index.
package offset

// Word identifies a block by its distance, in 4-byte words, from the base
// of the heap arena. Word 0 is reserved for the prologue sentinel, which is
// always allocated and therefore never a valid free-block link target; that
// lets the zero value double as "absent" without a bias offset.
type Word uint32

// Nil is the "absent" link value.
const Nil Word = 0

// IsNil reports whether w encodes "absent".
func (w Word) IsNil() bool { return w == Nil }

// ByteOffset returns the byte offset of w from the arena base.
func (w Word) ByteOffset() int { return int(w) * 4 }

// FromByteOffset converts a byte offset (must be a multiple of 4) into a
// Word.
func FromByteOffset(b int) Word {
	if b%4 != 0 {
		panic("offset: byte offset not word aligned")
	}
	return Word(b / 4)
}

// Add returns w advanced by n words.
func (w Word) Add(n int) Word { return Word(int64(w) + int64(n)) }
