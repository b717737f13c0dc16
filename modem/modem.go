// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package modem implements a client for D7A modems driven through their
// serial interface.
package modem // import "github.com/go-lpc/d7a/modem"

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/go-lpc/d7a/alp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

var (
	ErrClosed        = errors.New("modem: closed")
	ErrCommandFailed = errors.New("modem: command failed")
	ErrNoTag         = errors.New("modem: command without tag request")
	ErrTagInUse      = errors.New("modem: tag already in use")
)

// Modem sends ALP commands to a D7A modem and dispatches the commands
// it receives back.
type Modem struct {
	rw  io.ReadWriter
	msg *log.Logger

	// Unsolicited is called, from the Run goroutine, with every received
	// command not answering a request.
	// Unsolicited must be set before Run is called.
	Unsolicited func(cmd alp.Command)

	mu      sync.Mutex
	enc     *Encoder
	counter uint8
	tag     uint8
	pending map[uint8]*request
	pings   []chan struct{}

	done chan struct{}
	err  error // error that stopped the read loop
}

type request struct {
	cmds []alp.Command
	done chan struct{}
}

// New creates a modem client talking over rw.
// A nil logger discards all messages.
func New(rw io.ReadWriter, msg *log.Logger) *Modem {
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}
	return &Modem{
		rw:      rw,
		msg:     msg,
		enc:     NewEncoder(rw),
		pending: make(map[uint8]*request),
		done:    make(chan struct{}),
	}
}

// NextTag returns a new tag to identify a request.
func (m *Modem) NextTag() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tag++
	return m.tag
}

func (m *Modem) send(typ MsgType, payload []byte) error {
	// m.mu must be held.
	err := m.enc.Encode(Frame{Counter: m.counter, Type: typ, Payload: payload})
	if err != nil {
		return err
	}
	m.counter++
	return nil
}

// Execute sends the tagged command cmd to the modem and waits for all the
// commands answering it, until the one holding the final tag response.
// Execute needs Run to be running.
func (m *Modem) Execute(ctx context.Context, cmd alp.Command) ([]alp.Command, error) {
	tag, ok := cmd.Tag()
	if !ok {
		return nil, ErrNoTag
	}

	raw, err := cmd.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("modem: could not encode command: %w", err)
	}

	req := &request{done: make(chan struct{})}

	m.mu.Lock()
	if _, dup := m.pending[tag]; dup {
		m.mu.Unlock()
		return nil, xerrors.Errorf("modem: tag %d: %w", tag, ErrTagInUse)
	}
	m.pending[tag] = req
	err = m.send(MsgALP, raw)
	if err != nil {
		delete(m.pending, tag)
	}
	m.mu.Unlock()
	if err != nil {
		return nil, xerrors.Errorf("modem: could not send command (tag=%d): %w", tag, err)
	}

	select {
	case <-req.done:
		m.mu.Lock()
		cmds := req.cmds
		m.mu.Unlock()
		last := cmds[len(cmds)-1]
		if last.Failed() {
			return cmds, xerrors.Errorf("modem: command tag=%d: %w", tag, ErrCommandFailed)
		}
		return cmds, nil
	case <-m.done:
		m.forget(tag)
		return nil, m.err
	case <-ctx.Done():
		m.forget(tag)
		return nil, ctx.Err()
	}
}

func (m *Modem) forget(tag uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, tag)
}

// Ping sends a ping request and waits for the modem to answer it.
// Ping needs Run to be running.
func (m *Modem) Ping(ctx context.Context) error {
	pong := make(chan struct{})

	m.mu.Lock()
	m.pings = append(m.pings, pong)
	err := m.send(MsgPingRequest, nil)
	m.mu.Unlock()
	if err != nil {
		return xerrors.Errorf("modem: could not send ping: %w", err)
	}

	select {
	case <-pong:
		return nil
	case <-m.done:
		return m.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run reads and dispatches the frames sent by the modem, until ctx is
// done or the underlying connection fails.
// Run closes the connection, if it is an io.Closer, when ctx is done.
func (m *Modem) Run(ctx context.Context) error {
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(m.readLoop)
	grp.Go(func() error {
		<-gctx.Done()
		if c, ok := m.rw.(io.Closer); ok {
			_ = c.Close()
		}
		return nil
	})

	err := grp.Wait()
	if ctx.Err() != nil {
		err = nil
	}

	m.mu.Lock()
	m.err = ErrClosed
	if err != nil {
		m.err = xerrors.Errorf("modem: read loop failed: %v: %w", err, ErrClosed)
	}
	m.mu.Unlock()
	close(m.done)

	return err
}

func (m *Modem) readLoop() error {
	var (
		dec = NewDecoder(m.rw)
		f   Frame
	)
	for {
		err := dec.Decode(&f)
		switch {
		case err == nil:
			m.dispatch(f)
		case errors.Is(err, ErrCRC):
			m.msg.Printf("dropping frame: %+v", err)
		default:
			return err
		}
	}
}

func (m *Modem) dispatch(f Frame) {
	switch f.Type {
	case MsgALP:
		var cmd alp.Command
		err := cmd.UnmarshalBinary(f.Payload)
		if err != nil {
			m.msg.Printf("could not decode ALP command (counter=%d): %+v", f.Counter, err)
			return
		}
		m.handle(cmd)

	case MsgPingResponse:
		m.mu.Lock()
		for _, pong := range m.pings {
			close(pong)
		}
		m.pings = m.pings[:0]
		m.mu.Unlock()

	case MsgLogging:
		m.msg.Printf("modem: %s", f.Payload)

	case MsgRebooted:
		m.msg.Printf("modem rebooted (reason=%x)", f.Payload)

	default:
		m.msg.Printf("ignoring %v frame (counter=%d)", f.Type, f.Counter)
	}
}

func (m *Modem) handle(cmd alp.Command) {
	tag, ok := cmd.Tag()

	m.mu.Lock()
	req, pending := m.pending[tag]
	if ok && pending {
		req.cmds = append(req.cmds, cmd)
		if cmd.Completed() {
			delete(m.pending, tag)
			close(req.done)
		}
	}
	m.mu.Unlock()

	if ok && pending {
		return
	}
	if m.Unsolicited != nil {
		m.Unsolicited(cmd)
		return
	}
	m.msg.Printf("unsolicited command: %v", cmd)
}
