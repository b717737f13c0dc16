// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sysfile

import (
	"fmt"

	"github.com/go-lpc/d7a/ct"
	"github.com/go-lpc/d7a/dll"
	"github.com/go-lpc/d7a/phy"
	"golang.org/x/xerrors"
)

// MaxAccessSpecifier is the largest access specifier of an access profile file.
const MaxAccessSpecifier = 14

// AccessProfileFile stores one of the 15 access profiles of a device.
type AccessProfileFile struct {
	Specifier uint8
	Profile   dll.AccessProfile
}

// NewAccessProfile returns the access profile file for the provided specifier.
func NewAccessProfile(specifier uint8, ap dll.AccessProfile) (AccessProfileFile, error) {
	if specifier > MaxAccessSpecifier {
		return AccessProfileFile{}, xerrors.Errorf(
			"sysfile: invalid access specifier %d (max=%d)",
			specifier, MaxAccessSpecifier,
		)
	}
	return AccessProfileFile{Specifier: specifier, Profile: ap}, nil
}

// ParseAccessProfile decodes the access profile file for the provided
// specifier from the window buf[offset:offset+length].
//
// A channel header with an unknown band leaves the header to its zero value.
func ParseAccessProfile(specifier uint8, buf []byte, offset, length int) AccessProfileFile {
	var (
		w = newWindow(buf, offset, length)
		f = AccessProfileFile{Specifier: specifier}
		p = &f.Profile
	)

	if w.Len() > 0 {
		hdr, err := phy.HeaderFrom(w.readU8())
		if err == nil {
			p.Header = hdr
		}
	}
	for i := range p.SubProfiles {
		if w.Len() < dll.SubProfileLen {
			return f
		}
		p.SubProfiles[i] = dll.SubProfile{
			SubbandBitmap:        w.readU8(),
			ScanAutomationPeriod: ct.FromByte(w.readU8()),
		}
	}
	for i := range p.SubBands {
		if w.Len() < dll.SubBandLen {
			return f
		}
		p.SubBands[i] = dll.SubBand{
			ChannelIndexStart: w.readU16(),
			ChannelIndexEnd:   w.readU16(),
			EIRP:              int8(w.readU8()),
			CCA:               w.readU8(),
			Duty:              w.readU8(),
		}
	}
	return f
}

func (f *AccessProfileFile) ID() FileID { return AccessProfile0 + FileID(f.Specifier) }
func (*AccessProfileFile) Len() int     { return dll.AccessProfileLen }

// MarshalBinary implements encoding.BinaryMarshaler.
func (f *AccessProfileFile) MarshalBinary() ([]byte, error) {
	if f.Specifier > MaxAccessSpecifier {
		return nil, xerrors.Errorf("sysfile: invalid access specifier %d", f.Specifier)
	}
	raw, err := f.Profile.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("sysfile: could not encode access profile %d: %w", f.Specifier, err)
	}
	return raw, nil
}

func (f *AccessProfileFile) String() string {
	return fmt.Sprintf("%v{%v}", f.ID(), f.Profile)
}
