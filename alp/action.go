// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alp

import (
	"fmt"

	"github.com/go-lpc/d7a/internal/bitfield"
	"github.com/go-lpc/d7a/sp"
	"github.com/go-lpc/d7a/sysfile"
	"golang.org/x/xerrors"
)

// Op is an ALP operation code.
type Op uint8

const (
	OpReadFileData   Op = 1
	OpWriteFileData  Op = 4
	OpReturnFileData Op = 32
	OpStatus         Op = 34
	OpTagResponse    Op = 35
	OpRequestTag     Op = 52
)

func (op Op) String() string {
	switch op {
	case OpReadFileData:
		return "READ_FILE_DATA"
	case OpWriteFileData:
		return "WRITE_FILE_DATA"
	case OpReturnFileData:
		return "RETURN_FILE_DATA"
	case OpStatus:
		return "STATUS"
	case OpTagResponse:
		return "TAG_RESPONSE"
	case OpRequestTag:
		return "REQUEST_TAG"
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// D7AInterface is the interface id of the D7A session protocol.
const D7AInterface = 0xd7

// interface status extension of the status operation.
const extInterfaceStatus = 1

// action byte layout: b7(7) b6(6) op(5..0).
// b7 is the group flag (end-of-packet for tag actions),
// b6 is the response-requested flag (error for tag responses).
var ctrl = bitfield.New(
	bitfield.Field{Name: "b7", Width: 1},
	bitfield.Field{Name: "b6", Width: 1},
	bitfield.Field{Name: "op", Width: 6},
)

func writeCtrl(enc *encoder, b7, b6 bool, op Op) {
	v, err := ctrl.Pack(bitfield.Bit(b7), bitfield.Bit(b6), uint8(op))
	if err != nil && enc.err == nil {
		enc.err = xerrors.Errorf("alp: could not pack action %v: %w", op, err)
	}
	enc.writeU8(v)
}

// Action is an ALP action.
type Action interface {
	Op() Op

	encode(enc *encoder)
	decode(dec *decoder, b7, b6 bool)
}

// RequestTag asks the responder to tag its response with Tag.
type RequestTag struct {
	Tag uint8
	EOP bool // end of packet
}

func (*RequestTag) Op() Op { return OpRequestTag }

func (a *RequestTag) encode(enc *encoder) {
	writeCtrl(enc, a.EOP, false, OpRequestTag)
	enc.writeU8(a.Tag)
}

func (a *RequestTag) decode(dec *decoder, eop, _ bool) {
	a.EOP = eop
	a.Tag = dec.readU8()
}

func (a *RequestTag) String() string {
	return fmt.Sprintf("RequestTag{tag=%d, eop=%v}", a.Tag, a.EOP)
}

// TagResponse closes the response to a tagged request.
type TagResponse struct {
	Tag uint8
	EOP bool // end of packet: the request has been fully executed
	Err bool // the request failed
}

func (*TagResponse) Op() Op { return OpTagResponse }

func (a *TagResponse) encode(enc *encoder) {
	writeCtrl(enc, a.EOP, a.Err, OpTagResponse)
	enc.writeU8(a.Tag)
}

func (a *TagResponse) decode(dec *decoder, eop, err bool) {
	a.EOP = eop
	a.Err = err
	a.Tag = dec.readU8()
}

func (a *TagResponse) String() string {
	return fmt.Sprintf("TagResponse{tag=%d, eop=%v, err=%v}", a.Tag, a.EOP, a.Err)
}

// ReadFileData requests Length bytes of a file, starting at Offset.
type ReadFileData struct {
	Group bool
	Resp  bool

	File   sysfile.FileID
	Offset int
	Length int
}

func (*ReadFileData) Op() Op { return OpReadFileData }

func (a *ReadFileData) encode(enc *encoder) {
	writeCtrl(enc, a.Group, a.Resp, OpReadFileData)
	enc.writeU8(uint8(a.File))
	enc.writeLen(a.Offset)
	enc.writeLen(a.Length)
}

func (a *ReadFileData) decode(dec *decoder, group, resp bool) {
	a.Group = group
	a.Resp = resp
	a.File = sysfile.FileID(dec.readU8())
	a.Offset = dec.readLen()
	a.Length = dec.readLen()
}

func (a *ReadFileData) String() string {
	return fmt.Sprintf("ReadFileData{%v, offset=%d, length=%d}", a.File, a.Offset, a.Length)
}

func encodeFileData(enc *encoder, id sysfile.FileID, offset int, data []byte) {
	enc.writeU8(uint8(id))
	enc.writeLen(offset)
	enc.writeLen(len(data))
	enc.write(data)
}

func decodeFileData(dec *decoder) (sysfile.FileID, int, []byte) {
	var (
		id     = sysfile.FileID(dec.readU8())
		offset = dec.readLen()
		data   = dec.read(dec.readLen())
	)
	return id, offset, data
}

// WriteFileData writes Data into a file, starting at Offset.
type WriteFileData struct {
	Group bool
	Resp  bool

	File   sysfile.FileID
	Offset int
	Data   []byte
}

func (*WriteFileData) Op() Op { return OpWriteFileData }

func (a *WriteFileData) encode(enc *encoder) {
	writeCtrl(enc, a.Group, a.Resp, OpWriteFileData)
	encodeFileData(enc, a.File, a.Offset, a.Data)
}

func (a *WriteFileData) decode(dec *decoder, group, resp bool) {
	a.Group = group
	a.Resp = resp
	a.File, a.Offset, a.Data = decodeFileData(dec)
}

func (a *WriteFileData) String() string {
	return fmt.Sprintf("WriteFileData{%v, offset=%d, data=%x}", a.File, a.Offset, a.Data)
}

// ReturnFileData carries file content sent back by a device.
type ReturnFileData struct {
	File   sysfile.FileID
	Offset int
	Data   []byte
}

func (*ReturnFileData) Op() Op { return OpReturnFileData }

func (a *ReturnFileData) encode(enc *encoder) {
	writeCtrl(enc, false, false, OpReturnFileData)
	encodeFileData(enc, a.File, a.Offset, a.Data)
}

func (a *ReturnFileData) decode(dec *decoder, _, _ bool) {
	a.File, a.Offset, a.Data = decodeFileData(dec)
}

// maxFileOffset bounds the offset of returned data decoded as a system file.
const maxFileOffset = 0xffff

// SystemFile decodes the returned data as a system file.
// The returned data is interpreted as the file content starting at Offset.
func (a *ReturnFileData) SystemFile() (sysfile.File, error) {
	if a.Offset > maxFileOffset {
		return nil, xerrors.Errorf("alp: file offset %d too large for %v", a.Offset, a.File)
	}
	buf := make([]byte, a.Offset+len(a.Data))
	copy(buf[a.Offset:], a.Data)
	return sysfile.Parse(a.File, buf, 0, len(buf))
}

func (a *ReturnFileData) String() string {
	return fmt.Sprintf("ReturnFileData{%v, offset=%d, data=%x}", a.File, a.Offset, a.Data)
}

// InterfaceStatus reports the status of the interface a command was
// received on. The status of the D7A interface is decoded as a sp.Status,
// the status of other interfaces is kept as raw bytes in Data.
type InterfaceStatus struct {
	Interface uint8
	Status    sp.Status
	Data      []byte
}

// NewInterfaceStatus returns the D7A interface status action for st.
func NewInterfaceStatus(st sp.Status) *InterfaceStatus {
	return &InterfaceStatus{Interface: D7AInterface, Status: st}
}

func (*InterfaceStatus) Op() Op { return OpStatus }

func (a *InterfaceStatus) encode(enc *encoder) {
	v, err := ctrl.Pack(0, 0, uint8(OpStatus))
	if err != nil && enc.err == nil {
		enc.err = xerrors.Errorf("alp: could not pack status action: %w", err)
	}
	enc.writeU8(v | extInterfaceStatus<<6)
	enc.writeU8(a.Interface)

	data := a.Data
	if a.Interface == D7AInterface {
		data, err = a.Status.MarshalBinary()
		if err != nil && enc.err == nil {
			enc.err = xerrors.Errorf("alp: could not encode interface status: %w", err)
		}
	}
	enc.writeLen(len(data))
	enc.write(data)
}

func (a *InterfaceStatus) decode(dec *decoder, _, _ bool) {
	a.Interface = dec.readU8()
	data := dec.read(dec.readLen())
	if dec.err != nil {
		return
	}
	if a.Interface != D7AInterface {
		a.Data = data
		return
	}
	err := a.Status.UnmarshalBinary(data)
	if err != nil {
		dec.err = xerrors.Errorf("alp: could not decode interface status: %w", err)
	}
}

func (a *InterfaceStatus) String() string {
	if a.Interface != D7AInterface {
		return fmt.Sprintf("InterfaceStatus{interface=0x%02x, data=%x}", a.Interface, a.Data)
	}
	return fmt.Sprintf("InterfaceStatus{%v}", a.Status)
}

func newAction(b byte) (Action, error) {
	var (
		vs  = ctrl.Unpack(b)
		op  = Op(vs[2])
		ext = b >> 6
	)
	switch op {
	case OpReadFileData:
		return &ReadFileData{}, nil
	case OpWriteFileData:
		return &WriteFileData{}, nil
	case OpReturnFileData:
		return &ReturnFileData{}, nil
	case OpStatus:
		if ext != extInterfaceStatus {
			return nil, xerrors.Errorf("alp: status extension %d: %w", ext, ErrUnknownOperation)
		}
		return &InterfaceStatus{}, nil
	case OpTagResponse:
		return &TagResponse{}, nil
	case OpRequestTag:
		return &RequestTag{}, nil
	}
	return nil, xerrors.Errorf("alp: opcode %d (action=0x%02x): %w", uint8(op), b, ErrUnknownOperation)
}

var (
	_ Action = (*RequestTag)(nil)
	_ Action = (*TagResponse)(nil)
	_ Action = (*ReadFileData)(nil)
	_ Action = (*WriteFileData)(nil)
	_ Action = (*ReturnFileData)(nil)
	_ Action = (*InterfaceStatus)(nil)
)
