// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command d7a-node starts a TDAQ server driving a D7A gateway modem.
//
// On /config, the modem is opened and probed. On /init, the access profile
// is written to the modem. During a run, the status of every packet the
// modem receives is published on the /status output, and optionally
// recorded into the sites database.
package main // import "github.com/go-lpc/d7a/cmd/d7a-node"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/d7a/config"
	"github.com/go-lpc/d7a/node"
	"github.com/go-lpc/d7a/sitedb"
	"github.com/sbinet/pmon"
)

var (
	cfgFile = flag.String("cfg", "", "path to a YAML configuration file")
	site    = flag.String("site", "", "name of the site to record statuses for")
	dbname  = flag.String("db", "d7a", "name of the sites database")

	doMon  = flag.Bool("pmon", false, "enable pmon monitoring")
	doFreq = flag.Duration("freq", 1*time.Second, "pmon frequency")
)

func main() {
	cmd := flags.New()

	name := "d7a-node"
	if len(cmd.Args) > 0 {
		name = cmd.Args[0]
	}

	opts, closer, err := options(*cfgFile, *dbname, *site)
	if err != nil {
		log.Panicf("could not configure %q: %+v", name, err)
	}
	defer closer()

	if *doMon {
		stop, err := monitor(name, *doFreq)
		if err != nil {
			log.Panicf("could not monitor %q: %+v", name, err)
		}
		defer stop()
	}

	dev := node.New(name, opts...)

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/status", dev.Status)

	srv.RunHandle(dev.Run)

	err = srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

func options(fname, dbname, site string) ([]node.Option, func(), error) {
	var (
		opts  []node.Option
		release = func() {}
		cfg   = config.Default()
	)

	if fname != "" {
		v, err := config.Load(fname)
		if err != nil {
			return nil, release, err
		}
		cfg = *v
	}

	if site != "" {
		db, err := sitedb.Open(dbname)
		if err != nil {
			return nil, release, fmt.Errorf("could not open sites db: %w", err)
		}
		release = func() {
			err := db.Close()
			if err != nil {
				log.Printf("could not close sites db: %+v", err)
			}
		}

		ap, err := db.AccessProfile(context.Background(), site)
		if err != nil {
			release()
			return nil, func() {}, fmt.Errorf("could not load access profile of site %q: %w", site, err)
		}
		cfg.AccessProfile = ap
		opts = append(opts, node.WithSiteDB(db, site))
	}

	err := config.Validate(&cfg)
	if err != nil {
		release()
		return nil, func() {}, err
	}
	config.Normalize(&cfg)

	opts = append(opts, node.WithConfig(cfg))
	return opts, release, nil
}

func monitor(name string, freq time.Duration) (func(), error) {
	p, err := pmon.Monitor(os.Getpid())
	if err != nil {
		return nil, fmt.Errorf("could not start monitoring: %w", err)
	}

	f, err := os.Create(name + "-pmon.log")
	if err != nil {
		return nil, fmt.Errorf("could not create pmon log file: %w", err)
	}
	p.W = f
	p.Freq = freq

	go func() {
		err := p.Run()
		if err != nil {
			log.Printf("could not run pmon: %+v", err)
		}
	}()

	return func() {
		err := p.Kill()
		if err != nil {
			log.Printf("could not stop monitoring: %+v", err)
		}
		_ = f.Close()
	}, nil
}
