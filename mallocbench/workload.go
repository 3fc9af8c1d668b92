// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mallocbench

import "github.com/bytedance/gopkg/lang/fastrand"

// WorkloadConfig parameterizes GenerateWorkload's synthetic op mix.
type WorkloadConfig struct {
	// Ops is the total number of operations to generate.
	Ops int
	// MinSize/MaxSize bound a generated allocation's byte size.
	MinSize, MaxSize int
	// FreeWeight/ReallocWeight are out of 100 and control how often a
	// generated op frees or resizes a previously-allocated id instead of
	// allocating a fresh one; the remainder is alloc weight.
	FreeWeight, ReallocWeight int
}

// GenerateWorkload produces a synthetic Op sequence exercising the same
// three operation kinds a real trace file would, using
// bytedance/gopkg/lang/fastrand in place of math/rand for the hot
// selection loop — the non-cryptographic, lock-free RNG the rest of the
// corpus's cloudwego/gopkg stack favors over math/rand internally.
func GenerateWorkload(cfg WorkloadConfig) []Op {
	if cfg.MaxSize <= cfg.MinSize {
		cfg.MaxSize = cfg.MinSize + 1
	}

	ops := make([]Op, 0, cfg.Ops)
	var live []int64
	var nextID int64

	randSize := func() int {
		return cfg.MinSize + int(fastrand.Uint32n(uint32(cfg.MaxSize-cfg.MinSize)))
	}

	for i := 0; i < cfg.Ops; i++ {
		roll := int(fastrand.Uint32n(100))

		switch {
		case len(live) > 0 && roll < cfg.FreeWeight:
			idx := int(fastrand.Uint32n(uint32(len(live))))
			id := live[idx]
			live = append(live[:idx], live[idx+1:]...)
			ops = append(ops, Op{Seq: int64(i), ID: id, Kind: OpFree})

		case len(live) > 0 && roll < cfg.FreeWeight+cfg.ReallocWeight:
			idx := int(fastrand.Uint32n(uint32(len(live))))
			id := live[idx]
			ops = append(ops, Op{Seq: int64(i), ID: id, Kind: OpRealloc, Size: randSize()})

		default:
			id := nextID
			nextID++
			live = append(live, id)
			ops = append(ops, Op{Seq: int64(i), ID: id, Kind: OpAlloc, Size: randSize()})
		}
	}

	return ops
}
