// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocator

import (
	"testing"

	"github.com/mindbergh/malloc/block"
	"github.com/mindbergh/malloc/heap"
	"github.com/mindbergh/malloc/internal/offset"
)

func newTestAllocator(t *testing.T, chunkWords uint32) *Allocator {
	t.Helper()
	arena := heap.NewArena(0)
	al := New(arena, Config{ChunkWords: chunkWords})
	if err := al.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return al
}

func TestAllocReturnsUsableDistinctBlocks(t *testing.T) {
	al := newTestAllocator(t, 64)

	p1, err := al.Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	p2, err := al.Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("two live allocations must not overlap: both got %d", p1)
	}

	// The payload must be writable for at least the requested size.
	al.arena.SetWordAt(p1.ByteOffset(), 0xaaaaaaaa)
	al.arena.SetWordAt(p2.ByteOffset(), 0xbbbbbbbb)
	if al.arena.WordAt(p1.ByteOffset()) != 0xaaaaaaaa {
		t.Fatalf("write to p1 did not stick")
	}
	if al.arena.WordAt(p2.ByteOffset()) != 0xbbbbbbbb {
		t.Fatalf("write to p2 did not stick, p1/p2 may overlap")
	}
}

func TestAllocZeroReturnsNil(t *testing.T) {
	al := newTestAllocator(t, 64)
	p, err := al.Alloc(0)
	if err != nil {
		t.Fatalf("Alloc(0): %v", err)
	}
	if !p.IsNil() {
		t.Fatalf("Alloc(0) = %d, want Nil", p)
	}
}

func TestAllocNegativeIsError(t *testing.T) {
	al := newTestAllocator(t, 64)
	if _, err := al.Alloc(-1); err != ErrInvalidArgument {
		t.Fatalf("Alloc(-1) error = %v, want ErrInvalidArgument", err)
	}
}

func TestFreeThenAllocReusesSpace(t *testing.T) {
	al := newTestAllocator(t, 64)

	p1, err := al.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	sizeBefore := al.arena.Size()

	al.Free(p1)

	p2, err := al.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc after Free: %v", err)
	}
	if al.arena.Size() != sizeBefore {
		t.Fatalf("reusing a freed block should not grow the heap: size went from %d to %d", sizeBefore, al.arena.Size())
	}
	if p2 != p1 {
		t.Fatalf("Alloc after Free(p1) should reuse p1's space, got %d want %d", p2, p1)
	}
}

func TestFreeNilIsNoop(t *testing.T) {
	al := newTestAllocator(t, 64)
	al.Free(offset.Nil) // must not panic
}

func TestCallocZeroesMemory(t *testing.T) {
	al := newTestAllocator(t, 64)

	p, err := al.Alloc(64)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	for i := 0; i < 10; i++ {
		al.arena.SetWordAt(p.Add(i).ByteOffset(), 0xffffffff)
	}
	al.Free(p)

	p2, err := al.Calloc(4, 16)
	if err != nil {
		t.Fatalf("Calloc: %v", err)
	}
	addr := blockAddrOf(p2)
	h := block.Header{Arena: al.arena, Addr: addr}
	for i := 0; i < int(h.Size()); i++ {
		if got := al.arena.WordAt(p2.Add(i).ByteOffset()); got != 0 {
			t.Fatalf("Calloc word %d = %#x, want 0", i, got)
		}
	}
}

func TestResizeGrowWithinSlackIsNoop(t *testing.T) {
	al := newTestAllocator(t, 64)

	p, err := al.Alloc(14) // rounds up to 5 payload words (20 bytes)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	p2, err := al.Resize(p, 20)
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if p2 != p {
		t.Fatalf("a resize that fits in existing slack must not move the payload")
	}
}

func TestResizeGrowBeyondSlackPreservesContent(t *testing.T) {
	al := newTestAllocator(t, 64)

	p, err := al.Alloc(8)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	al.arena.SetWordAt(p.ByteOffset(), 0x12345678)

	p2, err := al.Resize(p, 200)
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if al.arena.WordAt(p2.ByteOffset()) != 0x12345678 {
		t.Fatalf("Resize must preserve the original content")
	}
}

func TestResizeToZeroFrees(t *testing.T) {
	al := newTestAllocator(t, 64)
	p, err := al.Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	p2, err := al.Resize(p, 0)
	if err != nil {
		t.Fatalf("Resize(p, 0): %v", err)
	}
	if !p2.IsNil() {
		t.Fatalf("Resize(p, 0) = %d, want Nil", p2)
	}
}

func TestResizeNilBehavesAsAlloc(t *testing.T) {
	al := newTestAllocator(t, 64)
	p, err := al.Resize(offset.Nil, 16)
	if err != nil {
		t.Fatalf("Resize(nil, 16): %v", err)
	}
	if p.IsNil() {
		t.Fatalf("Resize(nil, 16) should behave like Alloc(16)")
	}
}

func TestHeapGrowsWhenNoFitExists(t *testing.T) {
	al := newTestAllocator(t, 8) // tiny chunk, forces growth quickly
	sizeBefore := al.arena.Size()

	// Allocate enough to exhaust the initial chunk and force extend().
	for i := 0; i < 20; i++ {
		if _, err := al.Alloc(64); err != nil {
			t.Fatalf("Alloc %d: %v", i, err)
		}
	}

	if al.arena.Size() <= sizeBefore {
		t.Fatalf("heap should have grown past its initial chunk")
	}
}
