// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mallocbench provides the Go analogue of the CS:APP malloc lab's
// mdriver: a trace-file parser and a synthetic workload generator, driving
// an allocator.Allocator the same way the original driver drove mm.c.
package mallocbench

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cznic/sortutil"
	"github.com/golang/snappy"
)

// OpKind identifies one trace operation, mirroring the three op letters a
// CS:APP .rep trace file uses ('a', 'f', 'r').
type OpKind int

const (
	OpAlloc OpKind = iota
	OpFree
	OpRealloc
)

// Op is one parsed trace operation. ID correlates an OpFree/OpRealloc back
// to the OpAlloc that produced the pointer it targets — the trace format's
// own index into mdriver's ptr[] array.
type Op struct {
	Seq  int64 // position in the source file, used only to restore order
	ID   int64
	Kind OpKind
	Size int
}

// ParseTrace reads a trace file of lines "a <id> <size>", "f <id>" or
// "r <id> <size>" — one header line giving counts is accepted and ignored,
// matching mdriver's .rep format, which this module doesn't otherwise need
// (it replays every op rather than preallocating mdriver's fixed arrays).
//
// Operations are collected into a map keyed by file position and replayed
// back out in that same order via a sortutil.Int64Slice sort, the same
// "collect into a map, then produce a stable, sorted replay slice" shape
// lldb/falloc_test.go's TestAllocatorRnd uses for its own randomized
// operation log (stableRef). For a single well-formed file the result is
// simply file order.
func ParseTrace(r io.Reader) ([]Op, error) {
	ops := map[int64]Op{}

	sc := bufio.NewScanner(r)
	var seq int64
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err == nil && seq == 0 {
			// The lone header line ("<num_ids> <num_ops> <weight>"
			// in a real .rep file) has no op letter; skip it.
			continue
		}

		op, err := parseLine(fields)
		if err != nil {
			return nil, fmt.Errorf("mallocbench: line %d: %w", seq+1, err)
		}
		op.Seq = seq
		ops[seq] = op
		seq++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("mallocbench: reading trace: %w", err)
	}

	return replayOrder(ops), nil
}

func parseLine(fields []string) (Op, error) {
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Op{}, fmt.Errorf("bad id %q: %w", fields[1], err)
	}

	switch fields[0] {
	case "a":
		if len(fields) < 3 {
			return Op{}, fmt.Errorf("alloc op missing size")
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return Op{}, fmt.Errorf("bad size %q: %w", fields[2], err)
		}
		return Op{ID: id, Kind: OpAlloc, Size: size}, nil
	case "f":
		return Op{ID: id, Kind: OpFree}, nil
	case "r":
		if len(fields) < 3 {
			return Op{}, fmt.Errorf("realloc op missing size")
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return Op{}, fmt.Errorf("bad size %q: %w", fields[2], err)
		}
		return Op{ID: id, Kind: OpRealloc, Size: size}, nil
	default:
		return Op{}, fmt.Errorf("unknown op %q", fields[0])
	}
}

func replayOrder(ops map[int64]Op) []Op {
	keys := make(sortutil.Int64Slice, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Sort(keys)

	out := make([]Op, 0, len(keys))
	for _, k := range keys {
		out = append(out, ops[k])
	}
	return out
}

// snappyMagic is the chunk-stream magic github.com/golang/snappy's framing
// writer emits; trace files bearing it are transparently decompressed
// before parsing, mirroring lldb.(*Allocator).Get's transparent
// decompression of a snappy-compressed content block (falloc.go), applied
// here to whole trace files instead of single block payloads.
var snappyMagic = []byte{0xff, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}

// ParseTraceBytes parses raw trace bytes, decompressing first if they
// carry the snappy framing magic.
func ParseTraceBytes(data []byte) ([]Op, error) {
	if bytes.HasPrefix(data, snappyMagic) {
		plain, err := snappyDecode(data)
		if err != nil {
			return nil, fmt.Errorf("mallocbench: snappy decode: %w", err)
		}
		data = plain
	}
	return ParseTrace(bytes.NewReader(data))
}

func snappyDecode(data []byte) ([]byte, error) {
	r := snappy.NewReader(bytes.NewReader(data))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
