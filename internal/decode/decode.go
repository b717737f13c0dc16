// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package decode decodes hex-encoded D7A records for the command-line tools.
package decode // import "github.com/go-lpc/d7a/internal/decode"

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-lpc/d7a/alp"
	"github.com/go-lpc/d7a/ct"
	"github.com/go-lpc/d7a/d7anp"
	"github.com/go-lpc/d7a/dll"
	"github.com/go-lpc/d7a/modem"
	"github.com/go-lpc/d7a/phy"
	"github.com/go-lpc/d7a/sp"
	"github.com/go-lpc/d7a/sysfile"
)

type decoder func(raw []byte) (interface{}, error)

var decoders = map[string]decoder{
	"addressee": func(raw []byte) (interface{}, error) {
		var v d7anp.Addressee
		err := v.UnmarshalBinary(raw)
		return v, err
	},
	"alp": func(raw []byte) (interface{}, error) {
		var v alp.Command
		err := v.UnmarshalBinary(raw)
		return v, err
	},
	"ap": func(raw []byte) (interface{}, error) {
		var v dll.AccessProfile
		err := v.UnmarshalBinary(raw)
		return v, err
	},
	"channel": func(raw []byte) (interface{}, error) {
		var v phy.ID
		err := v.UnmarshalBinary(raw)
		return v, err
	},
	"ct": func(raw []byte) (interface{}, error) {
		if len(raw) != 1 {
			return nil, fmt.Errorf("invalid CT length %d (want=1)", len(raw))
		}
		return ct.FromByte(raw[0]), nil
	},
	"frame": func(raw []byte) (interface{}, error) {
		var f modem.Frame
		err := modem.NewDecoder(bytes.NewReader(raw)).Decode(&f)
		if err != nil {
			return nil, err
		}
		if f.Type != modem.MsgALP {
			return fmt.Sprintf("Frame{counter=%d, type=%v, payload=%x}", f.Counter, f.Type, f.Payload), nil
		}
		var cmd alp.Command
		err = cmd.UnmarshalBinary(f.Payload)
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("Frame{counter=%d, type=%v, %v}", f.Counter, f.Type, cmd), nil
	},
	"fw": func(raw []byte) (interface{}, error) {
		return sysfile.Parse(sysfile.FirmwareVersion, raw, 0, len(raw))
	},
	"status": func(raw []byte) (interface{}, error) {
		var v sp.Status
		err := v.UnmarshalBinary(raw)
		return v, err
	},
	"uid": func(raw []byte) (interface{}, error) {
		return sysfile.Parse(sysfile.UID, raw, 0, len(raw))
	},
}

// Types returns the sorted list of record types Value can decode.
func Types() []string {
	types := make([]string, 0, len(decoders))
	for k := range decoders {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// Value decodes raw as a record of the provided type.
func Value(typ string, raw []byte) (interface{}, error) {
	dec, ok := decoders[typ]
	if !ok {
		return nil, fmt.Errorf("unknown record type %q (known: %s)", typ, strings.Join(Types(), ", "))
	}
	return dec(raw)
}

// File decodes raw as the content of the system file id, given as a
// decimal or 0x-prefixed hexadecimal number.
func File(id string, raw []byte) (sysfile.File, error) {
	v, err := strconv.ParseUint(id, 0, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid file id %q: %w", id, err)
	}
	return sysfile.Parse(sysfile.FileID(v), raw, 0, len(raw))
}

// Hex decodes a hex string, ignoring an optional 0x prefix as well as
// spaces, colons and dashes between bytes.
func Hex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '-', '\t':
			return -1
		}
		return r
	}, s)
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("could not decode hex string: %w", err)
	}
	return raw, nil
}
