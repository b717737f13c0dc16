// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/d7a/alp"
	"github.com/go-lpc/d7a/config"
	"github.com/go-lpc/d7a/modem"
	"github.com/go-lpc/d7a/sp"
	"github.com/go-lpc/d7a/sysfile"
)

// Server handles the TDAQ commands of a D7A gateway node.
type Server struct {
	name  string
	cfg   config.Config
	qsize int

	site string
	db   statusDB

	open func(device string, baud int) (io.ReadWriteCloser, error)
	now  func() time.Time

	mu     sync.Mutex
	modem  *modem.Modem
	cancel context.CancelFunc
	done   chan error

	cmds chan alp.Command
	data chan []byte

	n     atomic.Int64 // number of published statuses
	drops atomic.Int64 // number of dropped commands or statuses
}

// New creates a new D7A node server.
func New(name string, opts ...Option) *Server {
	srv := &Server{
		name:  name,
		cfg:   config.Default(),
		qsize: 1024,
		open:  openPort,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.cmds = make(chan alp.Command, srv.qsize)
	srv.data = make(chan []byte, srv.qsize)
	return srv
}

// Name returns the name of the node.
func (srv *Server) Name() string { return srv.name }

func (srv *Server) connect(ctx tdaq.Context) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.modem != nil {
		return nil
	}

	cfg := srv.cfg.Modem
	port, err := srv.open(cfg.Device, cfg.Baud)
	if err != nil {
		return fmt.Errorf("could not open modem %q: %w", cfg.Device, err)
	}

	m := modem.New(port, log.New(msgWriter{ctx.Msg}, "", 0))
	m.Unsolicited = srv.unsolicited

	var (
		run, cancel = context.WithCancel(context.Background())
		done        = make(chan error, 1)
	)
	go func() {
		done <- m.Run(run)
	}()

	srv.modem = m
	srv.cancel = cancel
	srv.done = done
	return nil
}

func (srv *Server) disconnect() error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.modem == nil {
		return nil
	}
	srv.cancel()
	err := <-srv.done
	srv.modem = nil
	srv.cancel = nil
	srv.done = nil
	return err
}

func (srv *Server) device() (*modem.Modem, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.modem == nil {
		return nil, fmt.Errorf("node %q: modem not configured", srv.name)
	}
	return srv.modem, nil
}

func (srv *Server) unsolicited(cmd alp.Command) {
	select {
	case srv.cmds <- cmd:
	default:
		srv.drops.Add(1)
	}
}

func (srv *Server) firmware(ctx context.Context, m *modem.Modem) (*sysfile.FirmwareVersionFile, error) {
	cmd := alp.NewReadFileCommand(m.NextTag(), sysfile.FirmwareVersion, 0, sysfile.FirmwareVersionLen)
	resps, err := m.Execute(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("could not read firmware version: %w", err)
	}
	for _, resp := range resps {
		for _, f := range resp.Files() {
			if f.File != sysfile.FirmwareVersion {
				continue
			}
			v, err := f.SystemFile()
			if err != nil {
				return nil, fmt.Errorf("could not decode firmware version: %w", err)
			}
			return v.(*sysfile.FirmwareVersionFile), nil
		}
	}
	return nil, fmt.Errorf("no firmware version in modem response")
}

func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	err := config.Validate(&srv.cfg)
	if err != nil {
		ctx.Msg.Errorf("invalid configuration: %+v", err)
		return fmt.Errorf("invalid configuration: %w", err)
	}
	config.Normalize(&srv.cfg)

	err = srv.connect(ctx)
	if err != nil {
		ctx.Msg.Errorf("could not connect to modem: %+v", err)
		return fmt.Errorf("could not connect to modem: %w", err)
	}

	m, err := srv.device()
	if err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(ctx.Ctx, srv.cfg.Modem.Timeout)
	defer cancel()

	err = m.Ping(tctx)
	if err != nil {
		ctx.Msg.Errorf("could not ping modem: %+v", err)
		return fmt.Errorf("could not ping modem: %w", err)
	}

	fw, err := srv.firmware(tctx, m)
	if err != nil {
		ctx.Msg.Errorf("could not read modem firmware: %+v", err)
		return fmt.Errorf("could not read modem firmware: %w", err)
	}
	ctx.Msg.Infof("modem firmware: %v", fw)

	return nil
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")

	m, err := srv.device()
	if err != nil {
		ctx.Msg.Errorf("could not initialize node: %+v", err)
		return err
	}

	ap := srv.cfg.AccessProfile
	file, err := ap.File()
	if err != nil {
		return fmt.Errorf("could not create access profile: %w", err)
	}

	cmd, err := alp.NewWriteFileCommand(m.NextTag(), &file)
	if err != nil {
		return fmt.Errorf("could not create access profile command: %w", err)
	}

	tctx, cancel := context.WithTimeout(ctx.Ctx, srv.cfg.Modem.Timeout)
	defer cancel()

	_, err = m.Execute(tctx, cmd)
	if err != nil {
		ctx.Msg.Errorf("could not write %v: %+v", file.ID(), err)
		return fmt.Errorf("could not write %v: %w", file.ID(), err)
	}
	ctx.Msg.Infof(
		"access profile %v: channel %s, TX EIRP %d dBm",
		file.ID(), ap.Channel, ap.EIRP,
	)

	srv.drain()
	return nil
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	err := srv.disconnect()
	if err != nil {
		ctx.Msg.Errorf("modem read loop: %+v", err)
	}
	srv.drain()
	return nil
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	if _, err := srv.device(); err != nil {
		return err
	}
	srv.n.Store(0)
	srv.drops.Store(0)
	return nil
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	var (
		n     = srv.n.Load()
		drops = srv.drops.Load()
	)
	ctx.Msg.Debugf("received /stop command... -> n=%d, drops=%d", n, drops)
	return nil
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	err := srv.disconnect()
	if err != nil {
		ctx.Msg.Errorf("modem read loop: %+v", err)
	}
	return nil
}

// Status publishes the encoded statuses collected during a run.
func (srv *Server) Status(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-srv.data:
		dst.Body = data
	}
	return nil
}

// Run collects the statuses of the packets received by the modem, until
// the run is stopped.
func (srv *Server) Run(ctx tdaq.Context) error {
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		case cmd := <-srv.cmds:
			err := srv.process(ctx.Ctx, cmd)
			if err != nil {
				ctx.Msg.Errorf("could not process %v: %+v", cmd, err)
			}
		}
	}
}

func (srv *Server) process(ctx context.Context, cmd alp.Command) error {
	for _, st := range cmd.Statuses() {
		err := srv.publish(ctx, st)
		if err != nil {
			return err
		}
	}
	return nil
}

func (srv *Server) publish(ctx context.Context, st sp.Status) error {
	raw, err := st.MarshalBinary()
	if err != nil {
		return fmt.Errorf("could not encode status: %w", err)
	}

	if srv.db != nil {
		err = srv.db.InsertStatus(ctx, srv.site, srv.now(), st)
		if err != nil {
			return fmt.Errorf("could not store status: %w", err)
		}
	}

	select {
	case srv.data <- raw:
		srv.n.Add(1)
	default:
		srv.drops.Add(1)
	}
	return nil
}

func (srv *Server) drain() {
	for {
		select {
		case <-srv.cmds:
		case <-srv.data:
		default:
			return
		}
	}
}
