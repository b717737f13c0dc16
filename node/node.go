// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package node implements a TDAQ server driving a D7A gateway modem.
//
// The server configures the modem with an access profile and publishes,
// during a run, the encoded status of every packet the modem receives
// from the air.
package node // import "github.com/go-lpc/d7a/node"

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/go-lpc/d7a/config"
	"github.com/go-lpc/d7a/modem"
	"github.com/go-lpc/d7a/sitedb"
	"github.com/go-lpc/d7a/sp"
)

// Option configures a Server.
type Option func(srv *Server)

// WithConfig sets the modem and access profile configuration.
func WithConfig(cfg config.Config) Option {
	return func(srv *Server) {
		srv.cfg = cfg
	}
}

// WithSiteDB records all the forwarded statuses into db, under the
// provided site name.
func WithSiteDB(db *sitedb.DB, site string) Option {
	return func(srv *Server) {
		if db == nil {
			return
		}
		srv.db = db
		srv.site = site
	}
}

// WithQueueSize sets the number of pending commands and statuses the
// server buffers before dropping new ones.
func WithQueueSize(n int) Option {
	return func(srv *Server) {
		if n > 0 {
			srv.qsize = n
		}
	}
}

type statusDB interface {
	InsertStatus(ctx context.Context, site string, ts time.Time, st sp.Status) error
}

func openPort(device string, baud int) (io.ReadWriteCloser, error) {
	return modem.Open(device, baud)
}

type infoer interface {
	Infof(format string, args ...interface{})
}

// msgWriter forwards the lines written by a log.Logger to a TDAQ message
// stream.
type msgWriter struct {
	msg infoer
}

func (w msgWriter) Write(p []byte) (int, error) {
	w.msg.Infof("%s", bytes.TrimRight(p, "\n"))
	return len(p), nil
}
