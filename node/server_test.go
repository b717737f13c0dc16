// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"context"
	"fmt"
	"io"
	"net"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-daq/tdaq"
	tlog "github.com/go-daq/tdaq/log"
	"github.com/go-lpc/d7a/alp"
	"github.com/go-lpc/d7a/config"
	"github.com/go-lpc/d7a/ct"
	"github.com/go-lpc/d7a/d7anp"
	"github.com/go-lpc/d7a/modem"
	"github.com/go-lpc/d7a/phy"
	"github.com/go-lpc/d7a/sp"
	"github.com/go-lpc/d7a/sysfile"
)

var (
	fwFile = sysfile.FirmwareVersionFile{
		ProtocolMajor: 1,
		ProtocolMinor: 1,
		AppName:       "gw",
		GitSHA1:       "9aabfaa",
	}

	status = sp.Status{
		ChannelID: phy.ID{
			Header: phy.Header{Class: phy.LoRate, Coding: phy.PN9, Band: phy.Band868},
			Index:  0,
		},
		RxLevel:    70,
		LinkBudget: 80,
		FifoToken:  42,
		ResponseTO: ct.Compress(20),
		Addressee:  d7anp.Broadcast(0),
	}
)

type lockedWriter struct {
	mu sync.Mutex
	w  strings.Builder
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

func (w *lockedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.String()
}

// device emulates a D7A modem on the other end of conn.
type device struct {
	t    *testing.T
	conn net.Conn

	mu  sync.Mutex
	enc *modem.Encoder

	files chan sysfile.FileID
}

func newDevice(t *testing.T, conn net.Conn) *device {
	return &device{
		t:     t,
		conn:  conn,
		enc:   modem.NewEncoder(conn),
		files: make(chan sysfile.FileID, 8),
	}
}

func (dev *device) send(typ modem.MsgType, actions ...alp.Action) {
	raw, err := alp.Command{Actions: actions}.MarshalBinary()
	if err != nil {
		dev.t.Errorf("device: could not encode command: %+v", err)
		return
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	err = dev.enc.Encode(modem.Frame{Type: typ, Payload: raw})
	if err != nil {
		dev.t.Errorf("device: could not send command: %+v", err)
	}
}

func (dev *device) run() {
	dec := modem.NewDecoder(dev.conn)
	for {
		var f modem.Frame
		err := dec.Decode(&f)
		if err != nil {
			return
		}
		switch f.Type {
		case modem.MsgPingRequest:
			dev.mu.Lock()
			err = dev.enc.Encode(modem.Frame{Type: modem.MsgPingResponse})
			dev.mu.Unlock()
			if err != nil {
				return
			}
		case modem.MsgALP:
			var cmd alp.Command
			err = cmd.UnmarshalBinary(f.Payload)
			if err != nil {
				dev.t.Errorf("device: could not decode command: %+v", err)
				return
			}
			tag, _ := cmd.Tag()
			switch a := cmd.Actions[1].(type) {
			case *alp.ReadFileData:
				raw, _ := fwFile.MarshalBinary()
				dev.send(modem.MsgALP,
					&alp.TagResponse{Tag: tag, EOP: true},
					&alp.ReturnFileData{File: a.File, Data: raw},
				)
			case *alp.WriteFileData:
				dev.files <- a.File
				dev.send(modem.MsgALP, &alp.TagResponse{Tag: tag, EOP: true})
			}
		}
	}
}

type fakeDB struct {
	mu   sync.Mutex
	site string
	ts   []time.Time
	sts  []sp.Status
	err  error
}

func (db *fakeDB) InsertStatus(ctx context.Context, site string, ts time.Time, st sp.Status) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.err != nil {
		return db.err
	}
	db.site = site
	db.ts = append(db.ts, ts)
	db.sts = append(db.sts, st)
	return nil
}

func newContext(ctx context.Context, w io.Writer) tdaq.Context {
	return tdaq.Context{
		Ctx: ctx,
		Msg: tlog.NewMsgStream("d7a-node", tlog.LvlDebug, w),
	}
}

func TestServer(t *testing.T) {
	tctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		host, conn = net.Pipe()
		dev        = newDevice(t, conn)
		db         = new(fakeDB)
		now        = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

		cfg = config.Default()
		out = new(lockedWriter)
		ctx = newContext(tctx, out)

		resp tdaq.Frame
		req  tdaq.Frame
	)
	defer conn.Close()

	cfg.AccessProfile.Specifier = 2
	cfg.AccessProfile.Channel = "868LP000"

	srv := New("d7a-node-test", WithConfig(cfg), WithSiteDB(nil, "not-used"))
	srv.open = func(device string, baud int) (io.ReadWriteCloser, error) {
		if got, want := device, cfg.Modem.Device; got != want {
			t.Errorf("invalid device: got=%q, want=%q", got, want)
		}
		return host, nil
	}
	srv.db = db
	srv.site = "lpc"
	srv.now = func() time.Time { return now }

	if got, want := srv.Name(), "d7a-node-test"; got != want {
		t.Fatalf("invalid name: got=%q, want=%q", got, want)
	}

	go dev.run()

	err := srv.OnStart(ctx, &resp, req)
	if err == nil {
		t.Fatalf("expected an error starting an unconfigured node")
	}

	err = srv.OnConfig(ctx, &resp, req)
	if err != nil {
		t.Fatalf("could not /config: %+v", err)
	}

	err = srv.OnInit(ctx, &resp, req)
	if err != nil {
		t.Fatalf("could not /init: %+v", err)
	}
	select {
	case id := <-dev.files:
		if got, want := id, sysfile.AccessProfile0+2; got != want {
			t.Fatalf("invalid written file: got=%v, want=%v", got, want)
		}
	default:
		t.Fatalf("no access profile written")
	}

	err = srv.OnStart(ctx, &resp, req)
	if err != nil {
		t.Fatalf("could not /start: %+v", err)
	}

	rctx, stop := context.WithCancel(tctx)
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Run(newContext(rctx, out))
	}()

	dev.send(modem.MsgALP,
		alp.NewInterfaceStatus(status),
		&alp.ReturnFileData{File: sysfile.UID, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
	)

	var dst tdaq.Frame
	err = srv.Status(ctx, &dst)
	if err != nil {
		t.Fatalf("could not publish status: %+v", err)
	}
	want, err := status.MarshalBinary()
	if err != nil {
		t.Fatalf("could not encode status: %+v", err)
	}
	if !reflect.DeepEqual(dst.Body, want) {
		t.Fatalf("invalid status:\ngot= %x\nwant=%x", dst.Body, want)
	}

	stop()
	err = <-errc
	if err != nil {
		t.Fatalf("could not run: %+v", err)
	}

	err = srv.OnStop(ctx, &resp, req)
	if err != nil {
		t.Fatalf("could not /stop: %+v", err)
	}

	db.mu.Lock()
	if got, want := db.site, "lpc"; got != want {
		t.Fatalf("invalid site: got=%q, want=%q", got, want)
	}
	if got, want := db.sts, []sp.Status{status}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid stored statuses:\ngot= %v\nwant=%v", got, want)
	}
	if got, want := db.ts, []time.Time{now}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid timestamps:\ngot= %v\nwant=%v", got, want)
	}
	db.mu.Unlock()

	err = srv.OnQuit(ctx, &resp, req)
	if err != nil {
		t.Fatalf("could not /quit: %+v", err)
	}

	err = srv.OnInit(ctx, &resp, req)
	if err == nil {
		t.Fatalf("expected an error initializing a closed node")
	}

	for _, want := range []string{
		"received /config command...",
		`modem firmware: FirmwareVersion{d7ap=v1.1, fs=v0.0, app="gw", sha1="9aabfaa"}`,
		"access profile ACCESS_PROFILE_2: channel 868LP000, TX EIRP 0 dBm",
		"received /stop command... -> n=1, drops=0",
	} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("missing log message %q:\n%s", want, out.String())
		}
	}
}

func TestServerConfigErrors(t *testing.T) {
	var (
		out  = new(lockedWriter)
		ctx  = newContext(context.Background(), out)
		resp tdaq.Frame
		req  tdaq.Frame
	)

	t.Run("invalid-config", func(t *testing.T) {
		cfg := config.Default()
		cfg.AccessProfile.Channel = "123"
		srv := New("node", WithConfig(cfg))
		err := srv.OnConfig(ctx, &resp, req)
		if err == nil {
			t.Fatalf("expected an error")
		}
	})

	t.Run("open", func(t *testing.T) {
		srv := New("node")
		srv.open = func(string, int) (io.ReadWriteCloser, error) {
			return nil, fmt.Errorf("no such device")
		}
		err := srv.OnConfig(ctx, &resp, req)
		if err == nil || !strings.Contains(err.Error(), "no such device") {
			t.Fatalf("invalid error: %v", err)
		}
	})

	t.Run("init", func(t *testing.T) {
		srv := New("node")
		err := srv.OnInit(ctx, &resp, req)
		if err == nil {
			t.Fatalf("expected an error")
		}
	})

	t.Run("reset", func(t *testing.T) {
		srv := New("node")
		err := srv.OnReset(ctx, &resp, req)
		if err != nil {
			t.Fatalf("could not reset: %+v", err)
		}
	})
}

func TestProcess(t *testing.T) {
	var (
		ctx = context.Background()
		db  = new(fakeDB)
		srv = New("node", WithQueueSize(1))
	)
	srv.db = db

	cmd := alp.Command{Actions: []alp.Action{
		alp.NewInterfaceStatus(status),
		alp.NewInterfaceStatus(status),
	}}

	err := srv.process(ctx, cmd)
	if err != nil {
		t.Fatalf("could not process command: %+v", err)
	}
	if got, want := srv.n.Load(), int64(1); got != want {
		t.Fatalf("invalid number of statuses: got=%d, want=%d", got, want)
	}
	if got, want := srv.drops.Load(), int64(1); got != want {
		t.Fatalf("invalid number of drops: got=%d, want=%d", got, want)
	}
	if got, want := len(db.sts), 2; got != want {
		t.Fatalf("invalid number of stored statuses: got=%d, want=%d", got, want)
	}

	err = srv.process(ctx, alp.Command{Actions: []alp.Action{&alp.RequestTag{Tag: 1}}})
	if err != nil {
		t.Fatalf("could not process command: %+v", err)
	}
	if got, want := srv.n.Load(), int64(1); got != want {
		t.Fatalf("invalid number of statuses: got=%d, want=%d", got, want)
	}

	db.err = fmt.Errorf("db is down")
	err = srv.process(ctx, cmd)
	if err == nil {
		t.Fatalf("expected an error")
	}

	srv.unsolicited(cmd)
	srv.unsolicited(cmd)
	if got, want := srv.drops.Load(), int64(2); got != want {
		t.Fatalf("invalid number of drops: got=%d, want=%d", got, want)
	}

	srv.drain()
	if len(srv.cmds) != 0 || len(srv.data) != 0 {
		t.Fatalf("queues not drained: cmds=%d, data=%d", len(srv.cmds), len(srv.data))
	}
}
