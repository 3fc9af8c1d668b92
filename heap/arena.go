// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import "encoding/binary"

var _ Oracle = (*Arena)(nil)

// Arena is an in-process, slice-backed Oracle. It is the default heap used
// by Allocator in tests and in the embedded-library case; MaxBytes, if
// nonzero, makes Sbrk fail once growing past it, emulating a real sbrk
// running out of address space.
type Arena struct {
	buf      []byte
	MaxBytes int
}

// NewArena returns an empty Arena. A MaxBytes limit of 0 means unlimited.
func NewArena(maxBytes int) *Arena {
	return &Arena{MaxBytes: maxBytes}
}

// Lo implements Oracle.
func (a *Arena) Lo() int { return 0 }

// Hi implements Oracle.
func (a *Arena) Hi() int {
	if len(a.buf) == 0 {
		return 0
	}
	return len(a.buf) - 1
}

// Size implements Oracle.
func (a *Arena) Size() int { return len(a.buf) }

// Sbrk implements Oracle.
func (a *Arena) Sbrk(nbytes int) (int, error) {
	if nbytes < 0 {
		return 0, ErrInvalidRequest
	}

	old := len(a.buf)
	if a.MaxBytes > 0 && old+nbytes > a.MaxBytes {
		return 0, ErrOracleExhausted
	}

	a.buf = append(a.buf, make([]byte, nbytes)...)
	return old, nil
}

// WordAt implements Oracle.
func (a *Arena) WordAt(off int) uint32 {
	return binary.LittleEndian.Uint32(a.buf[off : off+4])
}

// SetWordAt implements Oracle.
func (a *Arena) SetWordAt(off int, v uint32) {
	binary.LittleEndian.PutUint32(a.buf[off:off+4], v)
}

// Bytes exposes the raw backing slice, read-only by convention, for
// callers that want to inspect payload bytes directly.
func (a *Arena) Bytes() []byte { return a.buf }
