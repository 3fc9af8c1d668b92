// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mallocbench

import (
	"fmt"

	"github.com/mindbergh/malloc/allocator"
	"github.com/mindbergh/malloc/checker"
	"github.com/mindbergh/malloc/internal/offset"
)

// RunConfig controls one Replay pass.
type RunConfig struct {
	// Paranoid runs checker.Check after every op, the Go analogue of
	// lldb's pAllocator wrapper — expensive, but turns the first
	// invariant violation into an immediately attributable error instead
	// of a much later, harder-to-diagnose crash several ops downstream.
	Paranoid bool
	// CheckLevel is passed to checker.Check, after every op when
	// Paranoid, and once at the end of the run in either case. Zero
	// value is checker.Silent.
	CheckLevel checker.Verbosity
}

// Result reports what one Replay pass observed.
type Result struct {
	Ops           int
	Allocs        int
	Frees         int
	Reallocs      int
	Failed        int
	FinalStats    checker.Stats
	InvariantErrs []error
}

// Replay drives al through ops in order, keeping an id -> payload address
// map so an OpFree/OpRealloc can find the block an earlier OpAlloc
// produced — the same bookkeeping mdriver's own ptr[] array does for a
// CS:APP .rep trace, generalized here to sparse int64 ids instead of a
// dense array index.
//
// An op referencing an id that was never allocated, or was already freed,
// is recorded in Result.Failed and skipped rather than treated as fatal —
// a synthetic GenerateWorkload trace cannot produce one, but a
// hand-written or corrupted trace file might.
func Replay(al *allocator.Allocator, ops []Op, cfg RunConfig) (Result, error) {
	live := make(map[int64]offset.Word, 64)
	var res Result

	checkNow := func(afterOp int) error {
		_, err := checker.Check(al.Arena(), al.FreeSet(), cfg.CheckLevel)
		if err != nil {
			return fmt.Errorf("mallocbench: invariant violation after op %d: %w", afterOp, err)
		}
		return nil
	}

	for i, op := range ops {
		res.Ops++
		switch op.Kind {
		case OpAlloc:
			p, err := al.Alloc(op.Size)
			if err != nil {
				return res, fmt.Errorf("mallocbench: alloc at op %d (id %d, size %d): %w", i, op.ID, op.Size, err)
			}
			live[op.ID] = p
			res.Allocs++

		case OpFree:
			p, ok := live[op.ID]
			if !ok {
				res.Failed++
				continue
			}
			al.Free(p)
			delete(live, op.ID)
			res.Frees++

		case OpRealloc:
			p, ok := live[op.ID]
			if !ok {
				res.Failed++
				continue
			}
			np, err := al.Resize(p, op.Size)
			if err != nil {
				return res, fmt.Errorf("mallocbench: realloc at op %d (id %d, size %d): %w", i, op.ID, op.Size, err)
			}
			live[op.ID] = np
			res.Reallocs++

		default:
			return res, fmt.Errorf("mallocbench: op %d: unknown op kind %d", i, op.Kind)
		}

		if cfg.Paranoid {
			if err := checkNow(i); err != nil {
				return res, err
			}
		}
	}

	st, err := checker.Check(al.Arena(), al.FreeSet(), cfg.CheckLevel)
	res.FinalStats = st
	if err != nil {
		res.InvariantErrs = append(res.InvariantErrs, err)
	}
	return res, err
}
