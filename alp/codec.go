// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alp

import (
	"io"

	"golang.org/x/xerrors"
)

// MaxLength is the largest value a length operand can hold.
const MaxLength = 1<<30 - 1

type encoder struct {
	buf []byte
	err error
}

func (enc *encoder) writeU8(v uint8) {
	if enc.err != nil {
		return
	}
	enc.buf = append(enc.buf, v)
}

func (enc *encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	enc.buf = append(enc.buf, p...)
}

// writeLen writes a length operand: the 2 most significant bits of the
// first byte hold the number of extra bytes, the value is big-endian.
func (enc *encoder) writeLen(n int) {
	if enc.err != nil {
		return
	}
	if n < 0 || n > MaxLength {
		enc.err = xerrors.Errorf("alp: invalid length operand %d: %w", n, ErrLengthOverflow)
		return
	}
	extra := 0
	for v := n >> 6; v != 0; v >>= 8 {
		extra++
	}
	enc.buf = append(enc.buf, byte(extra<<6)|byte(n>>(8*extra))&0x3f)
	for i := extra - 1; i >= 0; i-- {
		enc.buf = append(enc.buf, byte(n>>(8*i)))
	}
}

type decoder struct {
	p   []byte
	err error
}

func (dec *decoder) load(n int) []byte {
	if dec.err != nil {
		return nil
	}
	if len(dec.p) < n {
		dec.err = io.ErrUnexpectedEOF
		return nil
	}
	v := dec.p[:n]
	dec.p = dec.p[n:]
	return v
}

func (dec *decoder) readU8() uint8 {
	p := dec.load(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (dec *decoder) read(n int) []byte {
	p := dec.load(n)
	if p == nil {
		return nil
	}
	return append([]byte(nil), p...)
}

func (dec *decoder) readLen() int {
	b := dec.readU8()
	if dec.err != nil {
		return 0
	}
	var (
		extra = int(b >> 6)
		n     = int(b & 0x3f)
	)
	for _, v := range dec.load(extra) {
		n = n<<8 | int(v)
	}
	return n
}
