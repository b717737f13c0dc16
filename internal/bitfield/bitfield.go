// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bitfield packs and unpacks sub-byte fields of a single byte.
//
// A Spec lists its fields from the most significant bit to the least
// significant one. The widths of all the fields of a Spec sum to 8.
package bitfield // import "github.com/go-lpc/d7a/internal/bitfield"

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Field is a named run of bits inside a byte.
type Field struct {
	Name  string
	Width uint
}

// Spec is an ordered list of fields, most significant first.
type Spec struct {
	fields []Field
	shifts []uint
}

// New returns the Spec made of the provided fields.
// New panics if the widths of the fields do not sum to 8.
func New(fields ...Field) Spec {
	var (
		sum    uint
		shifts = make([]uint, len(fields))
	)
	for _, f := range fields {
		if f.Width == 0 {
			panic(fmt.Errorf("bitfield: zero-width field %q", f.Name))
		}
		sum += f.Width
	}
	if sum != 8 {
		panic(fmt.Errorf("bitfield: invalid total width %d (want=8)", sum))
	}

	pos := uint(8)
	for i, f := range fields {
		pos -= f.Width
		shifts[i] = pos
	}

	return Spec{
		fields: append([]Field(nil), fields...),
		shifts: shifts,
	}
}

// Len returns the number of fields of the spec.
func (s Spec) Len() int { return len(s.fields) }

func (s Spec) mask(i int) uint8 {
	return uint8(1<<s.fields[i].Width) - 1
}

// Pack packs the field values, given in field order, into a byte.
// Pack fails if the number of values does not match the number of fields
// or if a value does not fit its field.
func (s Spec) Pack(vs ...uint8) (byte, error) {
	if len(vs) != len(s.fields) {
		return 0, xerrors.Errorf(
			"bitfield: invalid number of values (got=%d, want=%d)",
			len(vs), len(s.fields),
		)
	}

	var b byte
	for i, v := range vs {
		if v&^s.mask(i) != 0 {
			return 0, xerrors.Errorf(
				"bitfield: value 0x%x overflows field %q (width=%d)",
				v, s.fields[i].Name, s.fields[i].Width,
			)
		}
		b |= v << s.shifts[i]
	}
	return b, nil
}

// Unpack extracts the field values from b.
// Only the first Len() entries of the returned array are meaningful.
func (s Spec) Unpack(b byte) [8]uint8 {
	var vs [8]uint8
	for i := range s.fields {
		vs[i] = (b >> s.shifts[i]) & s.mask(i)
	}
	return vs
}

// Bool converts a field value to a boolean flag.
func Bool(v uint8) bool { return v != 0 }

// Bit converts a boolean flag to a 1-bit field value.
func Bit(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
