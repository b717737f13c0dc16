// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package d7anp holds the D7A network protocol addressing types.
package d7anp // import "github.com/go-lpc/d7a/d7anp"

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-lpc/d7a/internal/bitfield"
	"golang.org/x/xerrors"
)

var (
	ErrInvalidIDLength = errors.New("d7anp: id does not fit id type")
	ErrInvalidIDType   = errors.New("d7anp: invalid id type")
	ErrInvalidNLS      = errors.New("d7anp: invalid NLS method")
)

// IDType is the addressing mode of an Addressee.
type IDType uint8

const (
	NBID IDType = 0 // estimated number of broadcast recipients
	NOID IDType = 1 // broadcast, no id
	UID  IDType = 2 // unique 64-bit id
	VID  IDType = 3 // virtual 16-bit id
)

var idLens = [...]int{
	NBID: 1,
	NOID: 0,
	UID:  8,
	VID:  2,
}

// Len returns the number of id bytes following the addressee header.
func (t IDType) Len() int {
	if int(t) >= len(idLens) {
		return 0
	}
	return idLens[t]
}

func (t IDType) String() string {
	switch t {
	case NBID:
		return "NBID"
	case NOID:
		return "NOID"
	case UID:
		return "UID"
	case VID:
		return "VID"
	}
	return fmt.Sprintf("IDType(%d)", uint8(t))
}

// NLSMethod is the network layer security method.
type NLSMethod uint8

const (
	NLSNone NLSMethod = iota
	NLSAESCTR
	NLSAESCBCMAC128
	NLSAESCBCMAC64
	NLSAESCBCMAC32
	NLSAESCCM128
	NLSAESCCM64
	NLSAESCCM32
)

var nlsNames = [...]string{
	NLSNone:         "NONE",
	NLSAESCTR:       "AES_CTR",
	NLSAESCBCMAC128: "AES_CBC_MAC_128",
	NLSAESCBCMAC64:  "AES_CBC_MAC_64",
	NLSAESCBCMAC32:  "AES_CBC_MAC_32",
	NLSAESCCM128:    "AES_CCM_128",
	NLSAESCCM64:     "AES_CCM_64",
	NLSAESCCM32:     "AES_CCM_32",
}

func (m NLSMethod) String() string {
	if int(m) < len(nlsNames) {
		return nlsNames[m]
	}
	return fmt.Sprintf("NLSMethod(%d)", uint8(m))
}

// control byte layout: rfu(7..6) id-type(5..4) nls(3..0).
var layout = bitfield.New(
	bitfield.Field{Name: "rfu", Width: 2},
	bitfield.Field{Name: "id-type", Width: 2},
	bitfield.Field{Name: "nls", Width: 4},
)

// Addressee identifies the destination of a D7A session frame.
// The zero value is a NBID addressee with an estimated number of 0 recipients.
type Addressee struct {
	AccessClass uint8
	IDType      IDType
	NLS         NLSMethod
	ID          uint64 // big-endian on the wire, IDType.Len() bytes
}

// New returns a validated addressee.
func New(accessClass uint8, typ IDType, nls NLSMethod, id uint64) (Addressee, error) {
	adr := Addressee{
		AccessClass: accessClass,
		IDType:      typ,
		NLS:         nls,
		ID:          id,
	}
	err := adr.validate()
	if err != nil {
		return Addressee{}, err
	}
	return adr, nil
}

// Broadcast returns a NOID addressee for the provided access class.
func Broadcast(accessClass uint8) Addressee {
	return Addressee{AccessClass: accessClass, IDType: NOID}
}

func (adr Addressee) validate() error {
	if int(adr.IDType) >= len(idLens) {
		return xerrors.Errorf("d7anp: id type %d: %w", uint8(adr.IDType), ErrInvalidIDType)
	}
	if int(adr.NLS) >= len(nlsNames) {
		return xerrors.Errorf("d7anp: NLS method %d: %w", uint8(adr.NLS), ErrInvalidNLS)
	}
	if n := adr.IDType.Len(); n < 8 && adr.ID>>(8*n) != 0 {
		return xerrors.Errorf("d7anp: id 0x%x does not fit in %d bytes (type=%v): %w",
			adr.ID, n, adr.IDType, ErrInvalidIDLength,
		)
	}
	return nil
}

// Len returns the size in bytes of the encoded addressee.
func (adr Addressee) Len() int {
	return 2 + adr.IDType.Len()
}

// AppendBinary appends the encoded addressee to dst.
func (adr Addressee) AppendBinary(dst []byte) ([]byte, error) {
	err := adr.validate()
	if err != nil {
		return dst, err
	}

	ctrl, err := layout.Pack(0, uint8(adr.IDType), uint8(adr.NLS))
	if err != nil {
		return dst, xerrors.Errorf("d7anp: could not pack control byte: %w", err)
	}
	dst = append(dst, ctrl, adr.AccessClass)
	for i := adr.IDType.Len() - 1; i >= 0; i-- {
		dst = append(dst, byte(adr.ID>>(8*i)))
	}
	return dst, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (adr Addressee) MarshalBinary() ([]byte, error) {
	return adr.AppendBinary(make([]byte, 0, adr.Len()))
}

// UnmarshalBinary decodes an addressee from the start of p.
// Trailing bytes are ignored; Len reports the number of decoded bytes.
func (adr *Addressee) UnmarshalBinary(p []byte) error {
	if len(p) < 2 {
		return xerrors.Errorf("d7anp: could not decode addressee header: %w", io.ErrUnexpectedEOF)
	}

	vs := layout.Unpack(p[0])
	v := Addressee{
		AccessClass: p[1],
		IDType:      IDType(vs[1]),
		NLS:         NLSMethod(vs[2]),
	}
	if int(v.NLS) >= len(nlsNames) {
		return xerrors.Errorf("d7anp: NLS method %d: %w", uint8(v.NLS), ErrInvalidNLS)
	}

	n := v.IDType.Len()
	if len(p) < 2+n {
		return xerrors.Errorf("d7anp: could not decode %v id: %w", v.IDType, io.ErrUnexpectedEOF)
	}
	for _, b := range p[2 : 2+n] {
		v.ID = v.ID<<8 | uint64(b)
	}

	*adr = v
	return nil
}

func (adr Addressee) String() string {
	switch adr.IDType {
	case NOID:
		return fmt.Sprintf("Addressee{ac=0x%02x, %v, nls=%v}", adr.AccessClass, adr.IDType, adr.NLS)
	default:
		return fmt.Sprintf("Addressee{ac=0x%02x, %v=0x%x, nls=%v}", adr.AccessClass, adr.IDType, adr.ID, adr.NLS)
	}
}
