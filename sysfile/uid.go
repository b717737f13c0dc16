// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sysfile

import (
	"encoding/binary"
	"fmt"
)

// UIDLen is the size of an encoded UID file.
const UIDLen = 8

// UIDFile holds the 64-bit unique identifier of a device.
type UIDFile struct {
	UID uint64
}

// ParseUIDFile decodes a UID file from the window buf[offset:offset+length].
func ParseUIDFile(buf []byte, offset, length int) UIDFile {
	w := newWindow(buf, offset, length)
	return UIDFile{UID: w.readU64()}
}

func (*UIDFile) ID() FileID { return UID }
func (*UIDFile) Len() int   { return UIDLen }

// MarshalBinary implements encoding.BinaryMarshaler.
func (f *UIDFile) MarshalBinary() ([]byte, error) {
	return binary.BigEndian.AppendUint64(make([]byte, 0, UIDLen), f.UID), nil
}

func (f *UIDFile) String() string {
	return fmt.Sprintf("UID{0x%016x}", f.UID)
}
