// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mallocbench drives an allocator.Allocator through a trace file
// or a synthetic workload and reports throughput and final heap
// utilization, the Go analogue of the CS:APP malloc lab's mdriver binary.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mindbergh/malloc/allocator"
	"github.com/mindbergh/malloc/checker"
	"github.com/mindbergh/malloc/heap"
	"github.com/mindbergh/malloc/mallocbench"
)

var (
	traceFile  = flag.String("trace", "", "trace file to replay; if empty, a synthetic workload is generated")
	ops        = flag.Int("N", 10000, "synthetic workload op count (ignored with -trace)")
	minSize    = flag.Int("minsize", 8, "synthetic workload minimum allocation size in bytes")
	maxSize    = flag.Int("maxsize", 512, "synthetic workload maximum allocation size in bytes")
	freeW      = flag.Int("free-weight", 35, "synthetic workload free-op weight, out of 100")
	reallocW   = flag.Int("realloc-weight", 15, "synthetic workload realloc-op weight, out of 100")
	heapBytes  = flag.Int("heap", 64<<20, "maximum heap size in bytes")
	chunkWords = flag.Uint("chunk-words", 512, "minimum heap growth request, in words")
	paranoid   = flag.Bool("paranoid", false, "run the invariant checker after every op")
	verbose    = flag.Bool("v", false, "verbose invariant-checker output")
)

func main() {
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(mallocbench.NewLogWriter(os.Stdout), nil))

	var opsList []mallocbench.Op
	if *traceFile != "" {
		data, err := os.ReadFile(*traceFile)
		if err != nil {
			logger.Error("reading trace file", "path", *traceFile, "err", err)
			os.Exit(1)
		}
		opsList, err = mallocbench.ParseTraceBytes(data)
		if err != nil {
			logger.Error("parsing trace file", "path", *traceFile, "err", err)
			os.Exit(1)
		}
	} else {
		opsList = mallocbench.GenerateWorkload(mallocbench.WorkloadConfig{
			Ops:           *ops,
			MinSize:       *minSize,
			MaxSize:       *maxSize,
			FreeWeight:    *freeW,
			ReallocWeight: *reallocW,
		})
	}

	arena := heap.NewArena(*heapBytes)
	al := allocator.New(arena, allocator.Config{ChunkWords: uint32(*chunkWords)})
	if err := al.Init(); err != nil {
		logger.Error("initializing allocator", "err", err)
		os.Exit(1)
	}

	level := checker.Silent
	if *verbose {
		level = checker.Verbose
	}

	start := time.Now()
	res, err := mallocbench.Replay(al, opsList, mallocbench.RunConfig{
		Paranoid:   *paranoid,
		CheckLevel: level,
	})
	elapsed := time.Since(start)

	if err != nil {
		logger.Error("replay failed", "ops_completed", res.Ops, "err", err)
		os.Exit(1)
	}

	logger.Info("replay complete",
		"ops", res.Ops,
		"allocs", res.Allocs,
		"frees", res.Frees,
		"reallocs", res.Reallocs,
		"failed_ops", res.Failed,
		"elapsed", elapsed,
		"ops_per_sec", float64(res.Ops)/elapsed.Seconds(),
		"used_words", res.FinalStats.UsedWords,
		"free_words", res.FinalStats.FreeWords,
		"used_blocks", res.FinalStats.UsedBlocks,
		"free_blocks", res.FinalStats.FreeBlocks,
	)

	if len(res.FinalStats.LostFree) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d free blocks unreachable from the free-set index\n", len(res.FinalStats.LostFree))
	}
}
