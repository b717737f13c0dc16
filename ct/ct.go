// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ct implements the D7A compressed time format.
//
// A compressed time is a single byte holding a 3-bit exponent and a 5-bit
// mantissa. The encoded value is mantissa << exponent.
// Compression rounds up: for any v, Compress(v).Value() >= v, and the
// difference is smaller than 1<<exponent.
package ct // import "github.com/go-lpc/d7a/ct"

import (
	"errors"
	"fmt"

	"github.com/go-lpc/d7a/internal/bitfield"
	"golang.org/x/xerrors"
)

const (
	MaxExp  = 7
	MaxMant = 31

	// Max is the largest value a compressed time can represent.
	Max = MaxMant << MaxExp
)

var (
	ErrOutOfRange = errors.New("ct: exponent or mantissa out of range")

	layout = bitfield.New(
		bitfield.Field{Name: "exp", Width: 3},
		bitfield.Field{Name: "mant", Width: 5},
	)
)

// CT is a compressed time value.
type CT struct {
	Exp  uint8
	Mant uint8
}

// New returns the compressed time made of the provided exponent and mantissa.
func New(exp, mant uint8) (CT, error) {
	if exp > MaxExp || mant > MaxMant {
		return CT{}, xerrors.Errorf("ct: invalid (exp=%d, mant=%d): %w", exp, mant, ErrOutOfRange)
	}
	return CT{Exp: exp, Mant: mant}, nil
}

// Compress returns the smallest compressed time whose value is greater than
// or equal to v.
// Values larger than Max saturate to Max.
func Compress(v uint32) CT {
	if v > Max {
		return CT{Exp: MaxExp, Mant: MaxMant}
	}
	for exp := uint8(0); exp < MaxExp; exp++ {
		if v <= MaxMant<<exp {
			return CT{Exp: exp, Mant: mantissa(v, exp)}
		}
	}
	return CT{Exp: MaxExp, Mant: mantissa(v, MaxExp)}
}

func mantissa(v uint32, exp uint8) uint8 {
	step := uint32(1) << exp
	return uint8((v + step - 1) / step)
}

// FromByte decodes a compressed time from its 1-byte representation.
func FromByte(b byte) CT {
	vs := layout.Unpack(b)
	return CT{Exp: vs[0], Mant: vs[1]}
}

// Value returns the decoded value of the compressed time.
func (ct CT) Value() uint32 {
	return uint32(ct.Mant) << ct.Exp
}

// Byte returns the 1-byte representation of the compressed time.
// Out of range fields are masked.
func (ct CT) Byte() byte {
	b, err := layout.Pack(ct.Exp&MaxExp, ct.Mant&MaxMant)
	if err != nil {
		panic(err) // fields are masked: can not happen.
	}
	return b
}

func (ct CT) String() string {
	return fmt.Sprintf("CT(exp=%d, mant=%d)=%d", ct.Exp, ct.Mant, ct.Value())
}

// Encode compresses v into a single byte.
func Encode(v uint32) byte {
	return Compress(v).Byte()
}

// Decode decompresses the compressed time byte b.
func Decode(b byte) uint32 {
	return FromByte(b).Value()
}
