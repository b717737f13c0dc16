// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package alp implements a subset of the D7A application layer protocol:
// the actions needed to read and write system files on a modem and to
// receive the data and interface statuses it sends back.
package alp // import "github.com/go-lpc/d7a/alp"

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-lpc/d7a/sp"
	"github.com/go-lpc/d7a/sysfile"
	"golang.org/x/xerrors"
)

var (
	ErrUnknownOperation = errors.New("alp: unknown operation")
	ErrLengthOverflow   = errors.New("alp: length operand overflow")
)

// Command is a sequence of ALP actions.
type Command struct {
	Actions []Action
}

// NewWriteFileCommand returns a tagged command writing the whole file f.
func NewWriteFileCommand(tag uint8, f sysfile.File) (Command, error) {
	raw, err := f.MarshalBinary()
	if err != nil {
		return Command{}, xerrors.Errorf("alp: could not encode file %v: %w", f.ID(), err)
	}
	return Command{
		Actions: []Action{
			&RequestTag{Tag: tag, EOP: true},
			&WriteFileData{File: f.ID(), Data: raw},
		},
	}, nil
}

// NewReadFileCommand returns a tagged command reading length bytes of
// the file id, starting at offset.
func NewReadFileCommand(tag uint8, id sysfile.FileID, offset, length int) Command {
	return Command{
		Actions: []Action{
			&RequestTag{Tag: tag, EOP: true},
			&ReadFileData{Resp: true, File: id, Offset: offset, Length: length},
		},
	}
}

// Tag returns the tag of the command, carried either by a tag request
// or by a tag response.
func (cmd Command) Tag() (uint8, bool) {
	for _, a := range cmd.Actions {
		switch a := a.(type) {
		case *RequestTag:
			return a.Tag, true
		case *TagResponse:
			return a.Tag, true
		}
	}
	return 0, false
}

func (cmd Command) tagResponse() *TagResponse {
	for _, a := range cmd.Actions {
		if a, ok := a.(*TagResponse); ok {
			return a
		}
	}
	return nil
}

// Completed returns whether the command holds the final tag response
// of a request.
func (cmd Command) Completed() bool {
	rsp := cmd.tagResponse()
	return rsp != nil && rsp.EOP
}

// Failed returns whether the command holds a tag response flagged in error.
func (cmd Command) Failed() bool {
	rsp := cmd.tagResponse()
	return rsp != nil && rsp.Err
}

// Files returns the file data actions of the command.
func (cmd Command) Files() []*ReturnFileData {
	var out []*ReturnFileData
	for _, a := range cmd.Actions {
		if a, ok := a.(*ReturnFileData); ok {
			out = append(out, a)
		}
	}
	return out
}

// Statuses returns the D7A interface statuses of the command.
func (cmd Command) Statuses() []sp.Status {
	var out []sp.Status
	for _, a := range cmd.Actions {
		if a, ok := a.(*InterfaceStatus); ok && a.Interface == D7AInterface {
			out = append(out, a.Status)
		}
	}
	return out
}

// AppendBinary appends the encoded command to dst.
func (cmd Command) AppendBinary(dst []byte) ([]byte, error) {
	enc := encoder{buf: dst}
	for i, a := range cmd.Actions {
		a.encode(&enc)
		if enc.err != nil {
			return dst, xerrors.Errorf("alp: could not encode action #%d (%v): %w", i, a.Op(), enc.err)
		}
	}
	return enc.buf, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (cmd Command) MarshalBinary() ([]byte, error) {
	return cmd.AppendBinary(nil)
}

// UnmarshalBinary decodes all the actions held in p.
func (cmd *Command) UnmarshalBinary(p []byte) error {
	var (
		dec = decoder{p: p}
		out []Action
	)
	for len(dec.p) > 0 {
		b := dec.p[0]
		a, err := newAction(b)
		if err != nil {
			return err
		}
		dec.p = dec.p[1:]
		vs := ctrl.Unpack(b)
		a.decode(&dec, vs[0] == 1, vs[1] == 1)
		if dec.err != nil {
			return xerrors.Errorf("alp: could not decode action #%d (%v): %w", len(out), a.Op(), dec.err)
		}
		out = append(out, a)
	}
	cmd.Actions = out
	return nil
}

func (cmd Command) String() string {
	o := new(strings.Builder)
	o.WriteString("Command{")
	for i, a := range cmd.Actions {
		if i > 0 {
			o.WriteString(", ")
		}
		fmt.Fprintf(o, "%v", a)
	}
	o.WriteString("}")
	return o.String()
}
