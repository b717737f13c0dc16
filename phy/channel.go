// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package phy describes D7A physical layer channels.
package phy // import "github.com/go-lpc/d7a/phy"

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-lpc/d7a/internal/bitfield"
	"golang.org/x/xerrors"
)

var (
	ErrInvalidChannelHeader   = errors.New("phy: invalid channel header")
	ErrInvalidChannelIDFormat = errors.New("phy: invalid channel id format")
)

// Class is the channel class (modulation rate).
type Class uint8

const (
	LoRate     Class = 0
	LoRa       Class = 1
	NormalRate Class = 2
	HiRate     Class = 3
)

func (c Class) String() string {
	switch c {
	case LoRate:
		return "LO_RATE"
	case LoRa:
		return "LORA"
	case NormalRate:
		return "NORMAL_RATE"
	case HiRate:
		return "HI_RATE"
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// Coding is the channel forward error coding scheme.
type Coding uint8

const (
	PN9    Coding = 0
	RFU    Coding = 1
	FECPN9 Coding = 2
	CW     Coding = 3
)

func (c Coding) String() string {
	switch c {
	case PN9:
		return "PN9"
	case RFU:
		return "RFU"
	case FECPN9:
		return "FEC_PN9"
	case CW:
		return "CW"
	}
	return fmt.Sprintf("Coding(%d)", uint8(c))
}

// Band is the channel frequency band.
type Band uint8

const (
	NotImpl Band = 0
	Band433 Band = 2
	Band868 Band = 3
	Band915 Band = 4
)

func (b Band) String() string {
	switch b {
	case NotImpl:
		return "NOT_IMPL"
	case Band433:
		return "BAND_433"
	case Band868:
		return "BAND_868"
	case Band915:
		return "BAND_915"
	}
	return fmt.Sprintf("Band(%d)", uint8(b))
}

func (b Band) valid() bool {
	switch b {
	case NotImpl, Band433, Band868, Band915:
		return true
	}
	return false
}

// tokens of the human readable channel id: FFFRCIII.
var (
	bandTokens = map[Band]string{
		Band433: "433",
		Band868: "868",
		Band915: "915",
	}
	classTokens = map[Class]string{
		LoRate:     "L",
		NormalRate: "N",
		HiRate:     "H",
		LoRa:       "R",
	}
	codingTokens = map[Coding]string{
		PN9:    "P",
		FECPN9: "F",
		CW:     "C",
	}

	bandsByToken   = reverse(bandTokens)
	classesByToken = reverse(classTokens)
	codingsByToken = reverse(codingTokens)
)

func reverse[K comparable](m map[K]string) map[string]K {
	o := make(map[string]K, len(m))
	for k, v := range m {
		o[v] = k
	}
	return o
}

// header layout: band(7..4) class(3..2) coding(1..0).
var layout = bitfield.New(
	bitfield.Field{Name: "band", Width: 4},
	bitfield.Field{Name: "class", Width: 2},
	bitfield.Field{Name: "coding", Width: 2},
)

// Header is the 1-byte channel header.
type Header struct {
	Class  Class
	Coding Coding
	Band   Band
}

// HeaderFrom decodes a channel header from its 1-byte representation.
func HeaderFrom(b byte) (Header, error) {
	vs := layout.Unpack(b)
	hdr := Header{
		Band:   Band(vs[0]),
		Class:  Class(vs[1]),
		Coding: Coding(vs[2]),
	}
	if !hdr.Band.valid() {
		return Header{}, xerrors.Errorf("phy: unknown band 0x%x in header 0x%02x: %w",
			vs[0], b, ErrInvalidChannelHeader,
		)
	}
	return hdr, nil
}

// Byte returns the 1-byte representation of the channel header.
func (hdr Header) Byte() (byte, error) {
	if !hdr.Band.valid() {
		return 0, xerrors.Errorf("phy: unknown band %v: %w", hdr.Band, ErrInvalidChannelHeader)
	}
	b, err := layout.Pack(uint8(hdr.Band), uint8(hdr.Class), uint8(hdr.Coding))
	if err != nil {
		return 0, xerrors.Errorf("phy: could not pack header: %v: %w", err, ErrInvalidChannelHeader)
	}
	return b, nil
}

func (hdr Header) String() string {
	var (
		band   = bandTokens[hdr.Band]
		class  = classTokens[hdr.Class]
		coding = codingTokens[hdr.Coding]
	)
	if band == "" || class == "" || coding == "" {
		return fmt.Sprintf("Header{%v, %v, %v}", hdr.Band, hdr.Class, hdr.Coding)
	}
	return band + class + coding
}

// IDLen is the size in bytes of an encoded channel id.
const IDLen = 3

// ID identifies a channel: a channel header and a channel index.
type ID struct {
	Header Header
	Index  uint16
}

// AppendBinary appends the 3-byte representation of the channel id to dst.
func (id ID) AppendBinary(dst []byte) ([]byte, error) {
	b, err := id.Header.Byte()
	if err != nil {
		return dst, err
	}
	dst = append(dst, b)
	dst = binary.BigEndian.AppendUint16(dst, id.Index)
	return dst, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (id ID) MarshalBinary() ([]byte, error) {
	return id.AppendBinary(make([]byte, 0, IDLen))
}

// UnmarshalBinary decodes a channel id from the first IDLen bytes of p.
func (id *ID) UnmarshalBinary(p []byte) error {
	if len(p) < IDLen {
		return xerrors.Errorf("phy: could not decode channel id: %w", io.ErrUnexpectedEOF)
	}
	hdr, err := HeaderFrom(p[0])
	if err != nil {
		return err
	}
	id.Header = hdr
	id.Index = binary.BigEndian.Uint16(p[1:IDLen])
	return nil
}

// String returns the human readable form of the channel id, e.g. "868LP000".
func (id ID) String() string {
	return fmt.Sprintf("%v%03d", id.Header, id.Index)
}

// ParseID parses a human readable channel id of the form FFFRCIII where
//   - FFF is the band: 433, 868 or 915,
//   - R is the class: L (low rate), N (normal rate), H (high rate) or R (LoRa),
//   - C is the coding: P (PN9), F (FEC PN9) or C (CW),
//   - III is the decimal channel index.
func ParseID(s string) (ID, error) {
	if len(s) < 6 {
		return ID{}, xerrors.Errorf("phy: channel id %q too short: %w", s, ErrInvalidChannelIDFormat)
	}

	band, ok := bandsByToken[s[0:3]]
	if !ok {
		return ID{}, xerrors.Errorf("phy: invalid band %q in channel id %q: %w", s[0:3], s, ErrInvalidChannelIDFormat)
	}
	class, ok := classesByToken[s[3:4]]
	if !ok {
		return ID{}, xerrors.Errorf("phy: invalid class %q in channel id %q: %w", s[3:4], s, ErrInvalidChannelIDFormat)
	}
	coding, ok := codingsByToken[s[4:5]]
	if !ok {
		return ID{}, xerrors.Errorf("phy: invalid coding %q in channel id %q: %w", s[4:5], s, ErrInvalidChannelIDFormat)
	}

	digits := s[5:]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return ID{}, xerrors.Errorf("phy: invalid index %q in channel id %q: %w", digits, s, ErrInvalidChannelIDFormat)
		}
	}
	idx, err := strconv.ParseUint(digits, 10, 16)
	if err != nil {
		return ID{}, xerrors.Errorf("phy: invalid index %q in channel id %q: %v: %w", digits, s, err, ErrInvalidChannelIDFormat)
	}

	return ID{
		Header: Header{Class: class, Coding: coding, Band: band},
		Index:  uint16(idx),
	}, nil
}
