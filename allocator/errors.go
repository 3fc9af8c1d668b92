// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import "fmt"

// ErrInvalidArgument is returned for a malformed caller request: a negative
// size passed to Alloc or Calloc. The
// retrieved lldb pack itself references an ErrINVAL of this shape throughout
// falloc.go/filer.go/memfiler.go but the defining file never made it into
// the pack, so this follows the same naming and wrapping idiom rather than
// guessing at the original's exact fields.
var ErrInvalidArgument = fmt.Errorf("allocator: invalid argument")

// ErrCorruptHeap is returned (wrapped) by Alloc and Resize when the heap
// has grown twice for a request and the free-set index still holds no
// fit for it — a sign that the heap or the index is corrupt. The checker
// reports its findings as *checker.InvariantError, not as this value.
var ErrCorruptHeap = fmt.Errorf("allocator: corrupt heap")

// ErrOutOfMemory is what Init/Alloc/Resize wrap when the oracle's Sbrk
// fails; the oracle's own error is kept only as text, so callers of
// Alloc/Resize compare against this value without importing heap.
var ErrOutOfMemory = fmt.Errorf("allocator: out of memory")
