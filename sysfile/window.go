// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sysfile

import (
	"encoding/binary"
	"strings"
)

// window reads sequential fields from a bounded view of a buffer.
//
// A read that needs more bytes than what is left returns the zero value
// of the field and exhausts the window: no later field is filled either.
type window struct {
	p []byte
}

func newWindow(buf []byte, offset, length int) window {
	beg := clamp(offset, 0, len(buf))
	end := beg
	if length > 0 {
		end = clamp(offset+length, beg, len(buf))
	}
	return window{p: buf[beg:end]}
}

func clamp(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

func (w *window) Len() int { return len(w.p) }

func (w *window) load(n int) ([]byte, bool) {
	if len(w.p) < n {
		w.p = nil
		return nil, false
	}
	v := w.p[:n]
	w.p = w.p[n:]
	return v, true
}

func (w *window) readU8() uint8 {
	p, ok := w.load(1)
	if !ok {
		return 0
	}
	return p[0]
}

func (w *window) readU16() uint16 {
	p, ok := w.load(2)
	if !ok {
		return 0
	}
	return binary.BigEndian.Uint16(p)
}

func (w *window) readU64() uint64 {
	p, ok := w.load(8)
	if !ok {
		return 0
	}
	return binary.BigEndian.Uint64(p)
}

// readStr reads a fixed-width string field, trimming its padding.
func (w *window) readStr(n int) string {
	p, ok := w.load(n)
	if !ok {
		return ""
	}
	return strings.TrimRight(string(p), " \x00")
}

// appendStr appends s as a fixed-width field of n bytes, truncated or
// padded with spaces.
func appendStr(dst []byte, s string, n int) []byte {
	if len(s) > n {
		s = s[:n]
	}
	dst = append(dst, s...)
	for i := len(s); i < n; i++ {
		dst = append(dst, ' ')
	}
	return dst
}
