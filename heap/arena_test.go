// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import "testing"

func TestArenaSbrkGrows(t *testing.T) {
	a := NewArena(0)
	if a.Size() != 0 {
		t.Fatalf("new Arena should be empty, got size %d", a.Size())
	}

	old, err := a.Sbrk(16)
	if err != nil {
		t.Fatalf("Sbrk: %v", err)
	}
	if old != 0 {
		t.Fatalf("first Sbrk old break = %d, want 0", old)
	}
	if a.Size() != 16 {
		t.Fatalf("Size() = %d, want 16", a.Size())
	}

	old, err = a.Sbrk(8)
	if err != nil {
		t.Fatalf("Sbrk: %v", err)
	}
	if old != 16 {
		t.Fatalf("second Sbrk old break = %d, want 16", old)
	}
	if a.Size() != 24 {
		t.Fatalf("Size() = %d, want 24", a.Size())
	}
}

func TestArenaSbrkNegativeRequest(t *testing.T) {
	a := NewArena(0)
	if _, err := a.Sbrk(-1); err != ErrInvalidRequest {
		t.Fatalf("Sbrk(-1) error = %v, want ErrInvalidRequest", err)
	}
}

func TestArenaSbrkExhaustion(t *testing.T) {
	a := NewArena(8)
	if _, err := a.Sbrk(8); err != nil {
		t.Fatalf("Sbrk within limit: %v", err)
	}
	if _, err := a.Sbrk(1); err != ErrOracleExhausted {
		t.Fatalf("Sbrk past MaxBytes error = %v, want ErrOracleExhausted", err)
	}
	if a.Size() != 8 {
		t.Fatalf("a failed Sbrk must not mutate the heap, got size %d", a.Size())
	}
}

func TestArenaWordRoundTrip(t *testing.T) {
	a := NewArena(0)
	if _, err := a.Sbrk(12); err != nil {
		t.Fatalf("Sbrk: %v", err)
	}
	a.SetWordAt(0, 0xdeadbeef)
	a.SetWordAt(4, 1)
	a.SetWordAt(8, 0)
	if got := a.WordAt(0); got != 0xdeadbeef {
		t.Fatalf("WordAt(0) = %#x, want 0xdeadbeef", got)
	}
	if got := a.WordAt(4); got != 1 {
		t.Fatalf("WordAt(4) = %d, want 1", got)
	}
}
