// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package offset

import "testing"

func TestNilIsZero(t *testing.T) {
	var w Word
	if !w.IsNil() {
		t.Fatalf("zero value Word must be nil")
	}
	if !Nil.IsNil() {
		t.Fatalf("Nil must be nil")
	}
}

func TestByteOffsetRoundTrip(t *testing.T) {
	for _, w := range []Word{0, 1, 2, 100, 1 << 20} {
		b := w.ByteOffset()
		if b%4 != 0 {
			t.Fatalf("ByteOffset(%d) = %d, not word aligned", w, b)
		}
		got := FromByteOffset(b)
		if got != w {
			t.Fatalf("FromByteOffset(ByteOffset(%d)) = %d, want %d", w, got, w)
		}
	}
}

func TestFromByteOffsetPanicsOnMisalignment(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on misaligned byte offset")
		}
	}()
	FromByteOffset(5)
}

func TestAdd(t *testing.T) {
	w := Word(10)
	if got := w.Add(5); got != 15 {
		t.Fatalf("Add(5) = %d, want 15", got)
	}
	if got := w.Add(-3); got != 7 {
		t.Fatalf("Add(-3) = %d, want 7", got)
	}
}
