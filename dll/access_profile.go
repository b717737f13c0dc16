// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dll holds the D7A data link layer configuration records.
package dll // import "github.com/go-lpc/d7a/dll"

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-lpc/d7a/ct"
	"github.com/go-lpc/d7a/phy"
	"golang.org/x/xerrors"
)

const (
	NumSubProfiles = 4
	NumSubBands    = 8

	SubProfileLen    = 2
	SubBandLen       = 7
	AccessProfileLen = 1 + NumSubProfiles*SubProfileLen + NumSubBands*SubBandLen
)

// Default clear channel assessment threshold and duty cycle of a sub-band.
const (
	DefaultCCA  = 86
	DefaultDuty = 255
)

// SubProfile describes when and on which sub-bands a device scans.
type SubProfile struct {
	SubbandBitmap        uint8
	ScanAutomationPeriod ct.CT
}

// SubBand is a contiguous range of channels with its transmission parameters.
type SubBand struct {
	ChannelIndexStart uint16
	ChannelIndexEnd   uint16
	EIRP              int8 // dBm
	CCA               uint8
	Duty              uint8
}

// NewSubBand returns a sub-band with the default CCA and duty cycle.
func NewSubBand(start, end uint16, eirp int8) SubBand {
	return SubBand{
		ChannelIndexStart: start,
		ChannelIndexEnd:   end,
		EIRP:              eirp,
		CCA:               DefaultCCA,
		Duty:              DefaultDuty,
	}
}

// AccessProfile is the data link layer access profile.
type AccessProfile struct {
	Header      phy.Header
	SubProfiles [NumSubProfiles]SubProfile
	SubBands    [NumSubBands]SubBand
}

// AppendBinary appends the encoded access profile to dst.
func (ap AccessProfile) AppendBinary(dst []byte) ([]byte, error) {
	hdr, err := ap.Header.Byte()
	if err != nil {
		return dst, xerrors.Errorf("dll: could not encode channel header: %w", err)
	}
	dst = append(dst, hdr)
	for _, sp := range ap.SubProfiles {
		dst = append(dst, sp.SubbandBitmap, sp.ScanAutomationPeriod.Byte())
	}
	for _, sb := range ap.SubBands {
		dst = binary.BigEndian.AppendUint16(dst, sb.ChannelIndexStart)
		dst = binary.BigEndian.AppendUint16(dst, sb.ChannelIndexEnd)
		dst = append(dst, byte(sb.EIRP), sb.CCA, sb.Duty)
	}
	return dst, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (ap AccessProfile) MarshalBinary() ([]byte, error) {
	return ap.AppendBinary(make([]byte, 0, AccessProfileLen))
}

// UnmarshalBinary decodes an access profile from the first AccessProfileLen bytes of p.
func (ap *AccessProfile) UnmarshalBinary(p []byte) error {
	if len(p) < AccessProfileLen {
		return xerrors.Errorf("dll: could not decode access profile (len=%d): %w",
			len(p), io.ErrUnexpectedEOF,
		)
	}

	var (
		v   AccessProfile
		err error
	)
	v.Header, err = phy.HeaderFrom(p[0])
	if err != nil {
		return xerrors.Errorf("dll: could not decode channel header: %w", err)
	}
	p = p[1:]

	for i := range v.SubProfiles {
		v.SubProfiles[i] = SubProfile{
			SubbandBitmap:        p[0],
			ScanAutomationPeriod: ct.FromByte(p[1]),
		}
		p = p[SubProfileLen:]
	}

	for i := range v.SubBands {
		v.SubBands[i] = SubBand{
			ChannelIndexStart: binary.BigEndian.Uint16(p[0:2]),
			ChannelIndexEnd:   binary.BigEndian.Uint16(p[2:4]),
			EIRP:              int8(p[4]),
			CCA:               p[5],
			Duty:              p[6],
		}
		p = p[SubBandLen:]
	}

	*ap = v
	return nil
}

func (ap AccessProfile) String() string {
	return fmt.Sprintf("AccessProfile{%v, sub-profiles=%v, sub-bands=%v}",
		ap.Header, ap.SubProfiles, ap.SubBands,
	)
}
