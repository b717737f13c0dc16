// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alp

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/go-lpc/d7a/ct"
	"github.com/go-lpc/d7a/d7anp"
	"github.com/go-lpc/d7a/dll"
	"github.com/go-lpc/d7a/phy"
	"github.com/go-lpc/d7a/sp"
	"github.com/go-lpc/d7a/sysfile"
)

var (
	statusRaw = []byte{40, 0, 16, 70, 80, 80, 0, 100, 0, 20, 16, 0}
	fwRaw     = []byte{
		1, 1, 0, 0,
		0x74, 0x68, 0x72, 0x6f, 0x75, 0x67,
		0x39, 0x61, 0x61, 0x62, 0x66, 0x61, 0x61,
	}
)

func cat(ps ...[]byte) []byte {
	var o []byte
	for _, p := range ps {
		o = append(o, p...)
	}
	return o
}

func TestWriteFileCommand(t *testing.T) {
	var ap dll.AccessProfile
	ap.Header = phy.Header{Class: phy.LoRate, Coding: phy.PN9, Band: phy.Band868}
	for i := range ap.SubBands {
		ap.SubBands[i] = dll.NewSubBand(0, 0, 0)
	}
	f, err := sysfile.NewAccessProfile(2, ap)
	if err != nil {
		t.Fatalf("could not create access profile file: %+v", err)
	}

	cmd, err := NewWriteFileCommand(0x2a, &f)
	if err != nil {
		t.Fatalf("could not create command: %+v", err)
	}

	raw, err := cmd.MarshalBinary()
	if err != nil {
		t.Fatalf("could not marshal command: %+v", err)
	}

	file, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("could not marshal file: %+v", err)
	}
	want := cat(
		[]byte{0xb4, 0x2a},                   // request tag, eop
		[]byte{0x04, 0x22, 0x00, 0x40, 0x41}, // write file data, file 0x22, offset 0, length 65
		file,
	)
	if !bytes.Equal(raw, want) {
		t.Fatalf("invalid command encoding:\ngot= %x\nwant=%x", raw, want)
	}

	var got Command
	err = got.UnmarshalBinary(raw)
	if err != nil {
		t.Fatalf("could not unmarshal command: %+v", err)
	}
	if !reflect.DeepEqual(got, cmd) {
		t.Fatalf("invalid round-trip:\ngot= %v\nwant=%v", got, cmd)
	}
	if tag, ok := got.Tag(); !ok || tag != 0x2a {
		t.Fatalf("invalid tag: got=%d (ok=%v), want=%d", tag, ok, 0x2a)
	}
	if got.Completed() {
		t.Fatalf("request should not be completed")
	}
}

func TestReadFileCommand(t *testing.T) {
	cmd := NewReadFileCommand(7, sysfile.FirmwareVersion, 0, sysfile.FirmwareVersionLen)
	raw, err := cmd.MarshalBinary()
	if err != nil {
		t.Fatalf("could not marshal command: %+v", err)
	}
	want := []byte{0xb4, 0x07, 0x41, 0x02, 0x00, 0x11}
	if !bytes.Equal(raw, want) {
		t.Fatalf("invalid command encoding:\ngot= %x\nwant=%x", raw, want)
	}
}

func TestDecodeResponse(t *testing.T) {
	raw := cat(
		[]byte{0x62, 0xd7, 0x0c}, statusRaw,
		[]byte{0x20, 0x02, 0x00, 0x11}, fwRaw,
		[]byte{0xa3, 0x07},
	)

	var cmd Command
	err := cmd.UnmarshalBinary(raw)
	if err != nil {
		t.Fatalf("could not decode command: %+v", err)
	}
	if got, want := len(cmd.Actions), 3; got != want {
		t.Fatalf("invalid number of actions: got=%d, want=%d", got, want)
	}

	if !cmd.Completed() || cmd.Failed() {
		t.Fatalf("invalid completion: completed=%v, failed=%v", cmd.Completed(), cmd.Failed())
	}
	if tag, _ := cmd.Tag(); tag != 7 {
		t.Fatalf("invalid tag: got=%d, want=%d", tag, 7)
	}

	sts := cmd.Statuses()
	if len(sts) != 1 {
		t.Fatalf("invalid number of statuses: got=%d, want=%d", len(sts), 1)
	}
	want := sp.Status{
		ChannelID: phy.ID{
			Header: phy.Header{Class: phy.NormalRate, Coding: phy.PN9, Band: phy.Band433},
			Index:  16,
		},
		RxLevel:       70,
		LinkBudget:    80,
		TargetRxLevel: 80,
		FifoToken:     100,
		ResponseTO:    ct.CT{Mant: 20},
		Addressee:     d7anp.Broadcast(0),
	}
	if sts[0] != want {
		t.Fatalf("invalid status:\ngot= %v\nwant=%v", sts[0], want)
	}

	files := cmd.Files()
	if len(files) != 1 {
		t.Fatalf("invalid number of files: got=%d, want=%d", len(files), 1)
	}
	f, err := files[0].SystemFile()
	if err != nil {
		t.Fatalf("could not decode system file: %+v", err)
	}
	fw, ok := f.(*sysfile.FirmwareVersionFile)
	if !ok {
		t.Fatalf("invalid system file type %T", f)
	}
	if got, want := *fw, (sysfile.FirmwareVersionFile{
		ProtocolMajor: 1, ProtocolMinor: 1,
		AppName: "throug", GitSHA1: "9aabfaa",
	}); got != want {
		t.Fatalf("invalid firmware version:\ngot= %v\nwant=%v", &got, &want)
	}

	back, err := cmd.MarshalBinary()
	if err != nil {
		t.Fatalf("could not re-encode command: %+v", err)
	}
	if !bytes.Equal(back, raw) {
		t.Fatalf("invalid round-trip:\ngot= %x\nwant=%x", back, raw)
	}
}

func TestOtherInterfaceStatus(t *testing.T) {
	raw := []byte{0x62, 0x00, 0x02, 0xca, 0xfe}
	var cmd Command
	err := cmd.UnmarshalBinary(raw)
	if err != nil {
		t.Fatalf("could not decode command: %+v", err)
	}
	if len(cmd.Statuses()) != 0 {
		t.Fatalf("non-D7A interface status should not be reported")
	}
	st := cmd.Actions[0].(*InterfaceStatus)
	if !bytes.Equal(st.Data, []byte{0xca, 0xfe}) {
		t.Fatalf("invalid interface data: got=%x", st.Data)
	}
	back, err := cmd.MarshalBinary()
	if err != nil {
		t.Fatalf("could not re-encode command: %+v", err)
	}
	if !bytes.Equal(back, raw) {
		t.Fatalf("invalid round-trip:\ngot= %x\nwant=%x", back, raw)
	}
}

func TestTagResponseError(t *testing.T) {
	cmd := Command{Actions: []Action{&TagResponse{Tag: 3, EOP: true, Err: true}}}
	raw, err := cmd.MarshalBinary()
	if err != nil {
		t.Fatalf("could not encode command: %+v", err)
	}
	if want := []byte{0xe3, 0x03}; !bytes.Equal(raw, want) {
		t.Fatalf("invalid encoding: got=%x, want=%x", raw, want)
	}
	if !cmd.Completed() || !cmd.Failed() {
		t.Fatalf("invalid completion: completed=%v, failed=%v", cmd.Completed(), cmd.Failed())
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  []byte
		want error
	}{
		{"unknown-op", []byte{0x3f}, ErrUnknownOperation},
		{"action-status", []byte{0x22, 0x00}, ErrUnknownOperation},
		{"short-tag", []byte{0xb4}, io.ErrUnexpectedEOF},
		{"short-file-data", []byte{0x20, 0x02, 0x00, 0x11, 0x01}, io.ErrUnexpectedEOF},
		{"short-status", []byte{0x62, 0xd7, 0x02, 40, 0}, io.ErrUnexpectedEOF},
		{"bad-status", []byte{0x62, 0xd7, 0x0c, 0xff, 0, 16, 70, 80, 80, 0, 100, 0, 20, 16, 0}, phy.ErrInvalidChannelHeader},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var cmd Command
			err := cmd.UnmarshalBinary(tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got=%v, want=%v", err, tc.want)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	cmd := NewReadFileCommand(1, sysfile.UID, 0, 8)
	want := "Command{RequestTag{tag=1, eop=true}, ReadFileData{UID, offset=0, length=8}}"
	if got := cmd.String(); got != want {
		t.Fatalf("invalid string:\ngot= %q\nwant=%q", got, want)
	}
}
