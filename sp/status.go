// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sp holds the D7A session protocol records.
package sp // import "github.com/go-lpc/d7a/sp"

import (
	"fmt"
	"io"

	"github.com/go-lpc/d7a/ct"
	"github.com/go-lpc/d7a/d7anp"
	"github.com/go-lpc/d7a/internal/bitfield"
	"github.com/go-lpc/d7a/phy"
	"golang.org/x/xerrors"
)

// flags byte layout: nls(7) missed(6) retry(5) unicast(4) rfu(3..0).
var flags = bitfield.New(
	bitfield.Field{Name: "nls", Width: 1},
	bitfield.Field{Name: "missed", Width: 1},
	bitfield.Field{Name: "retry", Width: 1},
	bitfield.Field{Name: "unicast", Width: 1},
	bitfield.Field{Name: "rfu", Width: 4},
)

// hdrLen is the size of the fixed part of a status record,
// before the addressee.
const hdrLen = phy.IDLen + 7

// Status is the D7A session status reported along with received data.
type Status struct {
	ChannelID     phy.ID
	RxLevel       uint8 // received level, in -dBm
	LinkBudget    uint8
	TargetRxLevel uint8

	NLS     bool
	Missed  bool
	Retry   bool
	Unicast bool

	FifoToken  uint8
	SeqNr      uint8
	ResponseTO ct.CT
	Addressee  d7anp.Addressee
}

// Len returns the size in bytes of the encoded status.
func (st Status) Len() int {
	return hdrLen + st.Addressee.Len()
}

// AppendBinary appends the encoded status to dst.
func (st Status) AppendBinary(dst []byte) ([]byte, error) {
	var err error
	dst, err = st.ChannelID.AppendBinary(dst)
	if err != nil {
		return dst, xerrors.Errorf("sp: could not encode channel id: %w", err)
	}

	flg, err := flags.Pack(
		bitfield.Bit(st.NLS),
		bitfield.Bit(st.Missed),
		bitfield.Bit(st.Retry),
		bitfield.Bit(st.Unicast),
		0,
	)
	if err != nil {
		return dst, xerrors.Errorf("sp: could not pack status flags: %w", err)
	}

	dst = append(dst,
		st.RxLevel, st.LinkBudget, st.TargetRxLevel,
		flg,
		st.FifoToken, st.SeqNr,
		st.ResponseTO.Byte(),
	)

	dst, err = st.Addressee.AppendBinary(dst)
	if err != nil {
		return dst, xerrors.Errorf("sp: could not encode addressee: %w", err)
	}
	return dst, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (st Status) MarshalBinary() ([]byte, error) {
	return st.AppendBinary(make([]byte, 0, st.Len()))
}

// UnmarshalBinary decodes a status record from the start of p.
// Trailing bytes are ignored: Len reports how many bytes were consumed.
func (st *Status) UnmarshalBinary(p []byte) error {
	if len(p) < hdrLen {
		return xerrors.Errorf("sp: could not decode status header: %w", io.ErrUnexpectedEOF)
	}

	var v Status
	err := v.ChannelID.UnmarshalBinary(p)
	if err != nil {
		return xerrors.Errorf("sp: could not decode channel id: %w", err)
	}

	p = p[phy.IDLen:]
	v.RxLevel = p[0]
	v.LinkBudget = p[1]
	v.TargetRxLevel = p[2]

	fs := flags.Unpack(p[3])
	v.NLS = bitfield.Bool(fs[0])
	v.Missed = bitfield.Bool(fs[1])
	v.Retry = bitfield.Bool(fs[2])
	v.Unicast = bitfield.Bool(fs[3])

	v.FifoToken = p[4]
	v.SeqNr = p[5]
	v.ResponseTO = ct.FromByte(p[6])

	err = v.Addressee.UnmarshalBinary(p[7:])
	if err != nil {
		return xerrors.Errorf("sp: could not decode addressee: %w", err)
	}

	*st = v
	return nil
}

func (st Status) String() string {
	return fmt.Sprintf(
		"Status{channel=%v, rx=-%ddBm, lb=%d, target=-%ddBm, nls=%v, missed=%v, retry=%v, unicast=%v, fifo=%d, seq=%d, to=%d, %v}",
		st.ChannelID, st.RxLevel, st.LinkBudget, st.TargetRxLevel,
		st.NLS, st.Missed, st.Retry, st.Unicast,
		st.FifoToken, st.SeqNr, st.ResponseTO.Value(), st.Addressee,
	)
}
