// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mallocbench

import (
	"testing"

	"github.com/mindbergh/malloc/allocator"
	"github.com/mindbergh/malloc/checker"
	"github.com/mindbergh/malloc/heap"
)

func TestRunTraceReplaysGeneratedWorkload(t *testing.T) {
	ops := GenerateWorkload(WorkloadConfig{
		Ops:           2000,
		MinSize:       8,
		MaxSize:       256,
		FreeWeight:    35,
		ReallocWeight: 15,
	})

	arena := heap.NewArena(0)
	al := allocator.New(arena, allocator.Config{ChunkWords: 128})
	if err := al.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	res, err := Replay(al, ops, RunConfig{Paranoid: true, CheckLevel: checker.Silent})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if res.Ops != len(ops) {
		t.Fatalf("res.Ops = %d, want %d", res.Ops, len(ops))
	}
	if res.Allocs == 0 {
		t.Fatalf("expected at least one alloc to be replayed")
	}
	if len(res.FinalStats.LostFree) != 0 {
		t.Fatalf("final check found lost free blocks: %v", res.FinalStats.LostFree)
	}
}

func TestRunTraceReportsUnknownIDsAsFailed(t *testing.T) {
	ops := []Op{
		{ID: 99, Kind: OpFree},
		{ID: 0, Kind: OpAlloc, Size: 16},
	}

	arena := heap.NewArena(0)
	al := allocator.New(arena, allocator.Config{ChunkWords: 32})
	if err := al.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	res, err := Replay(al, ops, RunConfig{})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if res.Failed != 1 {
		t.Fatalf("res.Failed = %d, want 1", res.Failed)
	}
	if res.Allocs != 1 {
		t.Fatalf("res.Allocs = %d, want 1", res.Allocs)
	}
}
