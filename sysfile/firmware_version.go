// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sysfile

import (
	"fmt"

	"golang.org/x/xerrors"
)

const (
	appNameLen = 6
	gitSHA1Len = 7

	// FirmwareVersionLen is the size of an encoded firmware version file.
	FirmwareVersionLen = 4 + appNameLen + gitSHA1Len
)

// FirmwareVersionFile describes the protocol, filesystem and application
// versions of a device.
type FirmwareVersionFile struct {
	ProtocolMajor   uint8
	ProtocolMinor   uint8
	FilesystemMajor uint8
	FilesystemMinor uint8

	// AppName and GitSHA1 are encoded as fixed-width fields of 6 and 7
	// bytes, truncated or padded with spaces.
	// Trailing spaces and NULs are dropped on decoding, so a name ending
	// with a space does not survive a round trip.
	AppName string
	GitSHA1 string
}

// NewFirmwareVersion returns a firmware version file, checking the sizes
// of its string fields.
func NewFirmwareVersion(protoMajor, protoMinor, fsMajor, fsMinor uint8, app, sha1 string) (FirmwareVersionFile, error) {
	if len(app) > appNameLen {
		return FirmwareVersionFile{}, xerrors.Errorf(
			"sysfile: application name %q longer than %d bytes: %w",
			app, appNameLen, ErrFieldTooLong,
		)
	}
	if len(sha1) > gitSHA1Len {
		return FirmwareVersionFile{}, xerrors.Errorf(
			"sysfile: git sha1 %q longer than %d bytes: %w",
			sha1, gitSHA1Len, ErrFieldTooLong,
		)
	}
	return FirmwareVersionFile{
		ProtocolMajor:   protoMajor,
		ProtocolMinor:   protoMinor,
		FilesystemMajor: fsMajor,
		FilesystemMinor: fsMinor,
		AppName:         app,
		GitSHA1:         sha1,
	}, nil
}

// ParseFirmwareVersion decodes a firmware version file from the window
// buf[offset:offset+length].
func ParseFirmwareVersion(buf []byte, offset, length int) FirmwareVersionFile {
	w := newWindow(buf, offset, length)
	return FirmwareVersionFile{
		ProtocolMajor:   w.readU8(),
		ProtocolMinor:   w.readU8(),
		FilesystemMajor: w.readU8(),
		FilesystemMinor: w.readU8(),
		AppName:         w.readStr(appNameLen),
		GitSHA1:         w.readStr(gitSHA1Len),
	}
}

func (*FirmwareVersionFile) ID() FileID { return FirmwareVersion }
func (*FirmwareVersionFile) Len() int   { return FirmwareVersionLen }

// MarshalBinary implements encoding.BinaryMarshaler.
// String fields are truncated or padded with spaces to their fixed width.
func (f *FirmwareVersionFile) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, FirmwareVersionLen)
	out = append(out,
		f.ProtocolMajor, f.ProtocolMinor,
		f.FilesystemMajor, f.FilesystemMinor,
	)
	out = appendStr(out, f.AppName, appNameLen)
	out = appendStr(out, f.GitSHA1, gitSHA1Len)
	return out, nil
}

func (f *FirmwareVersionFile) String() string {
	return fmt.Sprintf("FirmwareVersion{d7ap=v%d.%d, fs=v%d.%d, app=%q, sha1=%q}",
		f.ProtocolMajor, f.ProtocolMinor,
		f.FilesystemMajor, f.FilesystemMinor,
		f.AppName, f.GitSHA1,
	)
}
