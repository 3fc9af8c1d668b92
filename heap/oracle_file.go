// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/cznic/fileutil"
	"golang.org/x/sys/unix"
)

var _ Oracle = (*FileOracle)(nil)

// FileOracle is an mmap-backed Oracle, the bench harness's analogue of a
// real sbrk growing the process's mapped address space instead of a plain
// Go slice. Growth re-mmaps a larger region; small heaps therefore pay a
// remap on every Sbrk, which is fine for trace replay but not something
// the in-process Arena needs to do.
type FileOracle struct {
	f       *os.File
	mapping []byte
}

// NewFileOracle opens (creating if necessary) path as the backing store for
// a FileOracle. The file is truncated to zero length on open: FileOracle is
// meant for one allocator lifetime, not for reopening a previous heap.
func NewFileOracle(path string) (*FileOracle, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("heap: open backing file: %w", err)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("heap: truncate backing file: %w", err)
	}

	return &FileOracle{f: f}, nil
}

// Close unmaps the region and closes the backing file.
func (o *FileOracle) Close() error {
	if o.mapping != nil {
		if err := unix.Munmap(o.mapping); err != nil {
			return err
		}
		o.mapping = nil
	}
	return o.f.Close()
}

// Lo implements Oracle.
func (o *FileOracle) Lo() int { return 0 }

// Hi implements Oracle.
func (o *FileOracle) Hi() int {
	if len(o.mapping) == 0 {
		return 0
	}
	return len(o.mapping) - 1
}

// Size implements Oracle.
func (o *FileOracle) Size() int { return len(o.mapping) }

// Sbrk implements Oracle. It truncates the backing file to the new size,
// unmaps the previous mapping (if any) and remaps the whole region.
func (o *FileOracle) Sbrk(nbytes int) (int, error) {
	if nbytes < 0 {
		return 0, ErrInvalidRequest
	}

	old := len(o.mapping)
	newSize := old + nbytes

	if err := o.f.Truncate(int64(newSize)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOracleExhausted, err)
	}

	if o.mapping != nil {
		if err := unix.Munmap(o.mapping); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrOracleExhausted, err)
		}
		o.mapping = nil
	}

	if newSize == 0 {
		return old, nil
	}

	m, err := unix.Mmap(int(o.f.Fd()), 0, newSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOracleExhausted, err)
	}

	o.mapping = m
	return old, nil
}

// PunchFreed advises the OS that the byte range [off, off+size) no longer
// holds live data, letting sparse files reclaim the backing pages for
// large free blocks, carried over from lldb.Allocator's own Leak-field
// discussion.
func (o *FileOracle) PunchFreed(off, size int) error {
	return fileutil.PunchHole(o.f, int64(off), int64(size))
}

// WordAt implements Oracle.
func (o *FileOracle) WordAt(off int) uint32 {
	return binary.LittleEndian.Uint32(o.mapping[off : off+4])
}

// SetWordAt implements Oracle.
func (o *FileOracle) SetWordAt(off int, v uint32) {
	binary.LittleEndian.PutUint32(o.mapping[off:off+4], v)
}
