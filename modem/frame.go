// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package modem

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-lpc/d7a/internal/crc16"
	"golang.org/x/xerrors"
)

const (
	syncByte = 0xc0 // start of frame marker
	version  = 0x00 // serial interface version

	hdrLen = 7

	// MaxPayload is the largest payload a frame can carry.
	MaxPayload = 0xff
)

var (
	ErrCRC             = errors.New("modem: CRC-16 mismatch")
	ErrPayloadTooLarge = errors.New("modem: payload too large")
)

// MsgType is the type of the message carried by a frame.
type MsgType uint8

const (
	MsgALP          MsgType = 1
	MsgPingRequest  MsgType = 2
	MsgPingResponse MsgType = 3
	MsgLogging      MsgType = 4
	MsgRebooted     MsgType = 5
)

func (t MsgType) String() string {
	switch t {
	case MsgALP:
		return "ALP"
	case MsgPingRequest:
		return "PING_REQUEST"
	case MsgPingResponse:
		return "PING_RESPONSE"
	case MsgLogging:
		return "LOGGING"
	case MsgRebooted:
		return "REBOOTED"
	}
	return fmt.Sprintf("MsgType(%d)", uint8(t))
}

// Frame is a message exchanged with a modem over its serial interface.
type Frame struct {
	Counter uint8
	Type    MsgType
	Payload []byte
}

// Encoder writes frames to an underlying data sink.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
}

// NewEncoder creates an encoder that writes frames to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 0, hdrLen+MaxPayload),
	}
}

// Encode writes the frame f, with its CRC-16 checksum, to the underlying
// data sink.
func (enc *Encoder) Encode(f Frame) error {
	if enc.err != nil {
		return enc.err
	}
	if len(f.Payload) > MaxPayload {
		return xerrors.Errorf("modem: payload of %d bytes: %w", len(f.Payload), ErrPayloadTooLarge)
	}

	crc := crc16.Checksum(f.Payload)
	enc.buf = append(enc.buf[:0],
		syncByte, version,
		f.Counter, byte(f.Type), byte(len(f.Payload)),
		byte(crc>>8), byte(crc),
	)
	enc.buf = append(enc.buf, f.Payload...)

	_, enc.err = enc.w.Write(enc.buf)
	if enc.err != nil {
		return xerrors.Errorf("modem: could not write frame: %w", enc.err)
	}
	return nil
}

// Decoder reads (and validates) frames from an underlying data source.
type Decoder struct {
	r   io.Reader
	buf []byte
	err error
}

// NewDecoder creates a decoder that reads and validates frames from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, hdrLen+MaxPayload),
	}
}

func (dec *Decoder) load(n int) []byte {
	if dec.err != nil {
		return nil
	}
	_, dec.err = io.ReadFull(dec.r, dec.buf[:n])
	if dec.err != nil {
		return nil
	}
	return dec.buf[:n]
}

func (dec *Decoder) readU8() uint8 {
	p := dec.load(1)
	if p == nil {
		return 0
	}
	return p[0]
}

// Decode reads the next frame from the underlying data source.
// Bytes preceding the start of a frame are discarded.
//
// A frame with an invalid checksum is reported with ErrCRC: the decoder
// can still be used to read the following frames.
// I/O errors are sticky.
func (dec *Decoder) Decode(f *Frame) error {
	if dec.err != nil {
		return dec.err
	}

	dec.sync()
	hdr := dec.load(hdrLen - 2)
	if dec.err != nil {
		return xerrors.Errorf("modem: could not read frame header: %w", dec.err)
	}
	var (
		counter = hdr[0]
		typ     = MsgType(hdr[1])
		size    = int(hdr[2])
		crc     = uint16(hdr[3])<<8 | uint16(hdr[4])
	)

	payload := dec.load(size)
	if dec.err != nil {
		return xerrors.Errorf("modem: could not read frame payload: %w", dec.err)
	}

	if got := crc16.Checksum(payload); got != crc {
		return xerrors.Errorf(
			"modem: invalid frame checksum (got=0x%04x, want=0x%04x): %w",
			got, crc, ErrCRC,
		)
	}

	f.Counter = counter
	f.Type = typ
	f.Payload = append(f.Payload[:0], payload...)
	return nil
}

// sync consumes bytes until a sync byte followed by the serial interface
// version has been read.
func (dec *Decoder) sync() {
	prev := byte(0)
	for dec.err == nil {
		v := dec.readU8()
		if dec.err != nil {
			return
		}
		if prev == syncByte && v == version {
			return
		}
		prev = v
	}
}
