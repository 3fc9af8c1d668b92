// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mallocbench

import (
	"io"

	"github.com/cloudwego/gopkg/bufiox"
)

// bufioxWriter adapts a bufiox.DefaultWriter to io.Writer so it can back a
// log/slog.Handler. bufiox.DefaultWriter only exposes Malloc/WriteBinary/
// Flush (it's built for binary protocol encoders, not general-purpose
// logging), so every Write buffers via WriteBinary and flushes immediately
// — cmd/mallocbench logs one summary line per run (plus any error line),
// so a flush per line costs one write per record.
type bufioxWriter struct {
	w *bufiox.DefaultWriter
}

// NewLogWriter wraps dst in a bufiox.DefaultWriter and returns an
// io.Writer view of it suitable for slog.NewTextHandler/NewJSONHandler.
func NewLogWriter(dst io.Writer) io.Writer {
	return &bufioxWriter{w: bufiox.NewDefaultWriter(dst)}
}

func (b *bufioxWriter) Write(p []byte) (int, error) {
	n, err := b.w.WriteBinary(p)
	if err != nil {
		return n, err
	}
	if err := b.w.Flush(); err != nil {
		return n, err
	}
	return n, nil
}
