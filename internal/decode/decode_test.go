// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"bytes"
	"fmt"
	"reflect"
	"testing"
)

func TestHex(t *testing.T) {
	for _, tc := range []struct {
		s    string
		want []byte
		err  bool
	}{
		{s: "28000a", want: []byte{0x28, 0x00, 0x0a}},
		{s: "0x28000A", want: []byte{0x28, 0x00, 0x0a}},
		{s: "28:00:0a", want: []byte{0x28, 0x00, 0x0a}},
		{s: "28 00 0a", want: []byte{0x28, 0x00, 0x0a}},
		{s: "", want: []byte{}},
		{s: "2", err: true},
		{s: "zz", err: true},
	} {
		t.Run(tc.s, func(t *testing.T) {
			got, err := Hex(tc.s)
			switch {
			case tc.err && err == nil:
				t.Fatalf("expected an error")
			case !tc.err && err != nil:
				t.Fatalf("could not decode hex: %+v", err)
			case !tc.err && !bytes.Equal(got, tc.want):
				t.Fatalf("got=%x, want=%x", got, tc.want)
			}
		})
	}
}

func TestTypes(t *testing.T) {
	want := []string{"addressee", "alp", "ap", "channel", "ct", "frame", "fw", "status", "uid"}
	if got := Types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid types:\ngot= %q\nwant=%q", got, want)
	}
}

func TestValue(t *testing.T) {
	for _, tc := range []struct {
		typ  string
		hex  string
		want string
	}{
		{"addressee", "1000", "Addressee{ac=0x00, NOID, nls=NONE}"},
		{"channel", "280010", "433NP016"},
		{"ct", "d0", "CT(exp=6, mant=16)=1024"},
		{"status", "280010465050006400141000", "Status{channel=433NP016, rx=-70dBm, lb=80, target=-80dBm, nls=false, missed=false, retry=false, unicast=false, fifo=100, seq=0, to=20, Addressee{ac=0x00, NOID, nls=NONE}}"},
		{"fw", "01010000746872", `FirmwareVersion{d7ap=v1.1, fs=v0.0, app="", sha1=""}`},
		{"uid", "0102030405060708", "UID{0x0102030405060708}"},
		{"alp", "b401", "Command{RequestTag{tag=1, eop=true}}"},
		{"frame", "c000050300ffff", "Frame{counter=5, type=PING_RESPONSE, payload=}"},
		{"frame", "c000050102dfe7b401", "Frame{counter=5, type=ALP, Command{RequestTag{tag=1, eop=true}}}"},
		{"frame", "c00005010293f1b401", ""},
		{"status", "2800", ""},
	} {
		t.Run(tc.typ, func(t *testing.T) {
			raw, err := Hex(tc.hex)
			if err != nil {
				t.Fatalf("could not decode hex: %+v", err)
			}
			v, err := Value(tc.typ, raw)
			if tc.want == "" {
				if err == nil {
					t.Fatalf("expected an error, got %v", v)
				}
				return
			}
			if err != nil {
				t.Fatalf("could not decode %s: %+v", tc.typ, err)
			}
			if got := fmt.Sprintf("%v", v); got != tc.want {
				t.Fatalf("invalid value:\ngot= %q\nwant=%q", got, tc.want)
			}
		})
	}

	_, err := Value("nope", nil)
	if err == nil {
		t.Fatalf("expected an error for an unknown type")
	}
}

func TestFile(t *testing.T) {
	f, err := File("0x00", []byte{0, 0, 0, 0, 0, 0, 0, 42})
	if err != nil {
		t.Fatalf("could not decode file: %+v", err)
	}
	if got, want := fmt.Sprintf("%v", f), "UID{0x000000000000002a}"; got != want {
		t.Fatalf("got=%q, want=%q", got, want)
	}

	_, err = File("256", nil)
	if err == nil {
		t.Fatalf("expected an error for an invalid file id")
	}
	_, err = File("10", nil)
	if err == nil {
		t.Fatalf("expected an error for an unknown file")
	}
}
