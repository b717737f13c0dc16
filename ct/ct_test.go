// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ct

import (
	"errors"
	"fmt"
	"testing"
)

func TestCompress(t *testing.T) {
	for _, tc := range []struct {
		v    uint32
		want CT
		b    byte
	}{
		{v: 0, want: CT{0, 0}, b: 0x00},
		{v: 1, want: CT{0, 1}, b: 0x01},
		{v: 20, want: CT{0, 20}, b: 20},
		{v: 31, want: CT{0, 31}, b: 0x1f},
		{v: 32, want: CT{1, 16}, b: 0x30},
		{v: 33, want: CT{1, 17}, b: 0x31},
		{v: 62, want: CT{1, 31}, b: 0x3f},
		{v: 63, want: CT{2, 16}, b: 0x50},
		{v: 1000, want: CT{6, 16}, b: 0xd0},
		{v: Max, want: CT{7, 31}, b: 0xff},
		{v: Max + 1, want: CT{7, 31}, b: 0xff},
		{v: 1 << 31, want: CT{7, 31}, b: 0xff},
	} {
		t.Run(fmt.Sprintf("%d", tc.v), func(t *testing.T) {
			got := Compress(tc.v)
			if got != tc.want {
				t.Fatalf("invalid compressed time: got=%v, want=%v", got, tc.want)
			}
			if got, want := got.Byte(), tc.b; got != want {
				t.Fatalf("invalid byte: got=0x%02x, want=0x%02x", got, want)
			}
			if got, want := Encode(tc.v), tc.b; got != want {
				t.Fatalf("invalid encoded byte: got=0x%02x, want=0x%02x", got, want)
			}
		})
	}
}

func TestBound(t *testing.T) {
	for v := uint32(0); v <= Max; v++ {
		c := Compress(v)
		got := Decode(c.Byte())
		if got < v {
			t.Fatalf("v=%d: decoded value %d rounds down", v, got)
		}
		if got-v >= 1<<c.Exp {
			t.Fatalf("v=%d: decoded value %d exceeds error bound (exp=%d)", v, got, c.Exp)
		}
		if v < 32 && got != v {
			t.Fatalf("v=%d: small values must be exact (got=%d)", v, got)
		}
	}
}

func TestSmallestExponent(t *testing.T) {
	for v := uint32(1); v <= Max; v++ {
		c := Compress(v)
		if c.Exp == 0 {
			continue
		}
		if v <= MaxMant<<(c.Exp-1) {
			t.Fatalf("v=%d: exponent %d is not the smallest one", v, c.Exp)
		}
	}
}

func TestFromByte(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		c := FromByte(b)
		if got, want := c.Byte(), b; got != want {
			t.Fatalf("invalid round-trip: got=0x%02x, want=0x%02x", got, want)
		}
		if got, want := Decode(b), uint32(b&0x1f)<<(b>>5); got != want {
			t.Fatalf("invalid decoded value for 0x%02x: got=%d, want=%d", b, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	c, err := New(0, 20)
	if err != nil {
		t.Fatalf("could not create CT: %+v", err)
	}
	if got, want := c.Value(), uint32(20); got != want {
		t.Fatalf("invalid value: got=%d, want=%d", got, want)
	}
	if got, want := c.String(), "CT(exp=0, mant=20)=20"; got != want {
		t.Fatalf("invalid string: got=%q, want=%q", got, want)
	}

	for _, tc := range []struct{ exp, mant uint8 }{
		{8, 0},
		{0, 32},
		{0xff, 0xff},
	} {
		_, err := New(tc.exp, tc.mant)
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("(exp=%d, mant=%d): got=%v, want=%v", tc.exp, tc.mant, err, ErrOutOfRange)
		}
	}
}
