// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sysfile implements the D7A system files.
//
// System files are parsed from a window of a buffer, described by an
// offset and a length. Parsing never fails on short windows: fields
// that do not fit in the window keep their zero value.
package sysfile // import "github.com/go-lpc/d7a/sysfile"

import (
	"errors"
	"fmt"

	"golang.org/x/xerrors"
)

var (
	ErrFieldTooLong = errors.New("sysfile: field too long")
	ErrUnknownFile  = errors.New("sysfile: unknown system file")
)

// File is a D7A system file.
type File interface {
	// ID returns the file identifier.
	ID() FileID
	// Len returns the maximum length of the encoded file.
	Len() int

	MarshalBinary() ([]byte, error)
}

// FileID identifies a system file.
type FileID uint8

const (
	UID             FileID = 0x00
	FactorySettings FileID = 0x01
	FirmwareVersion FileID = 0x02
	DeviceCapacity  FileID = 0x03
	DeviceStatus    FileID = 0x04
	EngineeringMode FileID = 0x05
	VID             FileID = 0x06
	PhyConfig       FileID = 0x08
	PhyStatus       FileID = 0x09
	DLLConfig       FileID = 0x0a
	DLLStatus       FileID = 0x0b
	NWLRouting      FileID = 0x0c
	NWLSecurity     FileID = 0x0d
	NWLSecurityKey  FileID = 0x0e
	NWLSSR          FileID = 0x0f
	NWLStatus       FileID = 0x10
	TRLStatus       FileID = 0x11
	SELConfig       FileID = 0x12
	FOFStatus       FileID = 0x13
	LocationData    FileID = 0x17

	AccessProfile0  FileID = 0x20
	AccessProfile14 FileID = AccessProfile0 + MaxAccessSpecifier
)

var fileNames = map[FileID]string{
	UID:             "UID",
	FactorySettings: "FACTORY_SETTINGS",
	FirmwareVersion: "FIRMWARE_VERSION",
	DeviceCapacity:  "DEVICE_CAPACITY",
	DeviceStatus:    "DEVICE_STATUS",
	EngineeringMode: "ENGINEERING_MODE",
	VID:             "VID",
	PhyConfig:       "PHY_CONFIG",
	PhyStatus:       "PHY_STATUS",
	DLLConfig:       "DLL_CONFIG",
	DLLStatus:       "DLL_STATUS",
	NWLRouting:      "NWL_ROUTING",
	NWLSecurity:     "NWL_SECURITY",
	NWLSecurityKey:  "NWL_SECURITY_KEY",
	NWLSSR:          "NWL_SSR",
	NWLStatus:       "NWL_STATUS",
	TRLStatus:       "TRL_STATUS",
	SELConfig:       "SEL_CONFIG",
	FOFStatus:       "FOF_STATUS",
	LocationData:    "LOCATION_DATA",
}

// IsAccessProfile returns whether id is one of the access profile files.
func (id FileID) IsAccessProfile() bool {
	return AccessProfile0 <= id && id <= AccessProfile14
}

func (id FileID) String() string {
	if id.IsAccessProfile() {
		return fmt.Sprintf("ACCESS_PROFILE_%d", id-AccessProfile0)
	}
	if name, ok := fileNames[id]; ok {
		return name
	}
	return fmt.Sprintf("FileID(0x%02x)", uint8(id))
}

// Parse parses the system file id from the window buf[offset:offset+length].
func Parse(id FileID, buf []byte, offset, length int) (File, error) {
	switch {
	case id == UID:
		f := ParseUIDFile(buf, offset, length)
		return &f, nil
	case id == FirmwareVersion:
		f := ParseFirmwareVersion(buf, offset, length)
		return &f, nil
	case id.IsAccessProfile():
		f := ParseAccessProfile(uint8(id-AccessProfile0), buf, offset, length)
		return &f, nil
	}
	return nil, xerrors.Errorf("sysfile: could not parse file %v: %w", id, ErrUnknownFile)
}
