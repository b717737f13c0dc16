// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package modem

import (
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/goburrow/serial"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// DefaultBaudRate is the default baud rate of a D7A modem serial interface.
const DefaultBaudRate = 115200

// pollTimeout is how long a read on the serial port blocks before the
// port checks whether it has been closed.
const pollTimeout = 100 * time.Millisecond

// Port is a serial port connected to a modem.
//
// Port holds an exclusive advisory lock on the device for as long as it
// is open, so that two processes do not drive the same modem.
type Port struct {
	port   serial.Port
	lock   *os.File
	closed atomic.Bool
}

// Open opens the serial device at the provided baud rate, in 8N1 mode.
func Open(device string, baud int) (*Port, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	lock, err := os.OpenFile(device, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, xerrors.Errorf("modem: could not open %q: %w", device, err)
	}
	err = unix.Flock(int(lock.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		_ = lock.Close()
		return nil, xerrors.Errorf("modem: could not lock %q: %w", device, err)
	}

	port, err := serial.Open(&serial.Config{
		Address:  device,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  pollTimeout,
	})
	if err != nil {
		_ = unix.Flock(int(lock.Fd()), unix.LOCK_UN)
		_ = lock.Close()
		return nil, xerrors.Errorf("modem: could not open serial port %q: %w", device, err)
	}

	return &Port{port: port, lock: lock}, nil
}

// Read reads from the serial port, blocking until data is available or
// the port is closed.
func (p *Port) Read(data []byte) (int, error) {
	for {
		if p.closed.Load() {
			return 0, os.ErrClosed
		}
		n, err := p.port.Read(data)
		if errors.Is(err, serial.ErrTimeout) {
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (p *Port) Write(data []byte) (int, error) {
	if p.closed.Load() {
		return 0, os.ErrClosed
	}
	return p.port.Write(data)
}

// Close closes the serial port and releases its lock.
func (p *Port) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	err := p.port.Close()
	if err != nil {
		_ = p.lock.Close()
		return xerrors.Errorf("modem: could not close serial port: %w", err)
	}
	err = unix.Flock(int(p.lock.Fd()), unix.LOCK_UN)
	if err != nil {
		_ = p.lock.Close()
		return xerrors.Errorf("modem: could not unlock serial port: %w", err)
	}
	err = p.lock.Close()
	if err != nil {
		return xerrors.Errorf("modem: could not close serial port lock: %w", err)
	}
	return nil
}
