// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sysfile

import (
	"bytes"
	"errors"
	"testing"
)

func TestFirmwareVersionEncode(t *testing.T) {
	f, err := NewFirmwareVersion(1, 1, 2, 0, "throug", "9aabfaa")
	if err != nil {
		t.Fatalf("could not create firmware version: %+v", err)
	}

	raw, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("could not marshal firmware version: %+v", err)
	}

	want := []byte{
		1, 1,
		2, 0,
		0x74, 0x68, 0x72, 0x6f, 0x75, 0x67,
		0x39, 0x61, 0x61, 0x62, 0x66, 0x61, 0x61,
	}
	if !bytes.Equal(raw, want) {
		t.Fatalf("invalid encoding:\ngot= %v\nwant=%v", raw, want)
	}
	if got, want := len(raw), f.Len(); got != want {
		t.Fatalf("invalid length: got=%d, want=%d", got, want)
	}
	if got, want := f.ID(), FirmwareVersion; got != want {
		t.Fatalf("invalid file id: got=%v, want=%v", got, want)
	}
}

func TestFirmwareVersionPadding(t *testing.T) {
	f := FirmwareVersionFile{ProtocolMajor: 1, AppName: "abc", GitSHA1: "12"}
	raw, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("could not marshal firmware version: %+v", err)
	}
	want := []byte("\x01\x00\x00\x00abc   12     ")
	if !bytes.Equal(raw, want) {
		t.Fatalf("invalid encoding:\ngot= %q\nwant=%q", raw, want)
	}

	got := ParseFirmwareVersion(raw, 0, len(raw))
	if got != f {
		t.Fatalf("invalid round-trip:\ngot= %v\nwant=%v", &got, &f)
	}
}

func TestFirmwareVersionParse(t *testing.T) {
	raw := []byte{
		1, 1,
		0, 0,
		0x74, 0x68, 0x72, 0x6f, 0x75, 0x67,
		0x39, 0x61, 0x61, 0x62, 0x66, 0x61, 0x61,
	}

	for _, tc := range []struct {
		name   string
		buf    []byte
		offset int
		length int
		want   FirmwareVersionFile
	}{
		{
			name:   "full",
			buf:    raw,
			length: len(raw),
			want:   FirmwareVersionFile{1, 1, 0, 0, "throug", "9aabfaa"},
		},
		{
			name:   "short",
			buf:    raw[:5],
			length: 5,
			want:   FirmwareVersionFile{1, 1, 0, 0, "", ""},
		},
		{
			name:   "short-window",
			buf:    raw,
			length: 5,
			want:   FirmwareVersionFile{1, 1, 0, 0, "", ""},
		},
		{
			name:   "no-sha1",
			buf:    raw,
			length: 12,
			want:   FirmwareVersionFile{1, 1, 0, 0, "throug", ""},
		},
		{
			name:   "offset",
			buf:    append([]byte{0xde, 0xad}, raw...),
			offset: 2,
			length: len(raw),
			want:   FirmwareVersionFile{1, 1, 0, 0, "throug", "9aabfaa"},
		},
		{
			name:   "length-beyond-buffer",
			buf:    raw[:4],
			length: 17,
			want:   FirmwareVersionFile{1, 1, 0, 0, "", ""},
		},
		{
			name:   "offset-beyond-buffer",
			buf:    raw,
			offset: 100,
			length: 17,
		},
		{
			name:   "negative-offset",
			buf:    raw,
			offset: -1,
			length: 2,
			want:   FirmwareVersionFile{ProtocolMajor: 1},
		},
		{
			name:   "negative-offset-before-buffer",
			buf:    raw,
			offset: -4,
			length: 3,
		},
		{
			name: "empty",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseFirmwareVersion(tc.buf, tc.offset, tc.length)
			if got != tc.want {
				t.Fatalf("invalid firmware version:\ngot= %v\nwant=%v", &got, &tc.want)
			}
		})
	}
}

func TestFirmwareVersionTooLong(t *testing.T) {
	for _, tc := range []struct {
		name string
		app  string
		sha  string
		want string
	}{
		{"app", "toolongname!", "", "toolon       "},
		{"sha1", "app", "0123456789", "app   0123456"},
		{"both", "throughput", "9aabfaa0123", "throug9aabfaa"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFirmwareVersion(0, 0, 0, 0, tc.app, tc.sha)
			if !errors.Is(err, ErrFieldTooLong) {
				t.Fatalf("got=%v, want=%v", err, ErrFieldTooLong)
			}

			f := FirmwareVersionFile{ProtocolMajor: 1, AppName: tc.app, GitSHA1: tc.sha}
			raw, err := f.MarshalBinary()
			if err != nil {
				t.Fatalf("could not marshal firmware version: %+v", err)
			}
			if got, want := len(raw), FirmwareVersionLen; got != want {
				t.Fatalf("invalid length: got=%d, want=%d", got, want)
			}
			want := append([]byte{1, 0, 0, 0}, tc.want...)
			if !bytes.Equal(raw, want) {
				t.Fatalf("invalid encoding:\ngot= %q\nwant=%q", raw, want)
			}
		})
	}
}

func TestFirmwareVersionDefault(t *testing.T) {
	var f FirmwareVersionFile
	if f.ProtocolMajor != 0 || f.ProtocolMinor != 0 || f.AppName != "" || f.GitSHA1 != "" {
		t.Fatalf("invalid default firmware version: %v", &f)
	}
	if got, want := f.String(), `FirmwareVersion{d7ap=v0.0, fs=v0.0, app="", sha1=""}`; got != want {
		t.Fatalf("invalid string: got=%q, want=%q", got, want)
	}
}

func TestFirmwareVersionTrailingSpaces(t *testing.T) {
	f := FirmwareVersionFile{AppName: "ab ", GitSHA1: "c\x00"}
	raw, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("could not marshal firmware version: %+v", err)
	}
	got := ParseFirmwareVersion(raw, 0, len(raw))
	want := FirmwareVersionFile{AppName: "ab", GitSHA1: "c"}
	if got != want {
		t.Fatalf("invalid firmware version:\ngot= %v\nwant=%v", &got, &want)
	}
}
