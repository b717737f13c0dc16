// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command d7a-access-profile writes an access profile to a D7A modem.
//
// The access profile parameters are taken, by increasing priority, from
// the default configuration, the -cfg YAML file, the -site entry of the
// sites database and the command-line flags.
//
// Usage: d7a-access-profile [OPTIONS]
//
// Example:
//
//	$> d7a-access-profile -d /dev/ttyUSB0 -c 868LP000 -e 0 -s 0
//	d7a-access-profile: using channel 868LP000 with TX EIRP 0 dBm (specifier=0)
//	d7a-access-profile: access profile ACCESS_PROFILE_0 written
package main // import "github.com/go-lpc/d7a/cmd/d7a-access-profile"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/d7a/alp"
	"github.com/go-lpc/d7a/config"
	"github.com/go-lpc/d7a/modem"
	"github.com/go-lpc/d7a/sitedb"
	"golang.org/x/sync/errgroup"
)

var msg = log.New(os.Stdout, "d7a-access-profile: ", 0)

func main() {
	log.SetPrefix("d7a-access-profile: ")
	log.SetFlags(0)

	cfg, err := newConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("could not configure access profile: %+v", err)
	}

	port, err := modem.Open(cfg.Modem.Device, cfg.Modem.Baud)
	if err != nil {
		log.Fatalf("could not open modem: %+v", err)
	}
	defer port.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Modem.Timeout)
	defer cancel()

	err = run(ctx, port, cfg.AccessProfile, msg)
	if err != nil {
		log.Fatalf("could not write access profile: %+v", err)
	}
}

func newConfig(args []string) (config.Config, error) {
	fset := flag.NewFlagSet("d7a-access-profile", flag.ContinueOnError)

	var (
		cfgFile = fset.String("cfg", "", "path to a YAML configuration file")
		site    = fset.String("site", "", "name of the site whose access profile to use")
		dbname  = fset.String("db", "d7a", "name of the sites database")

		device = fset.String("d", "/dev/ttyUSB0", "serial device /dev file of the modem")
		rate   = fset.Int("r", modem.DefaultBaudRate, "baud rate of the serial device")
		tmo    = fset.Duration("timeout", 5*time.Second, "timeout for writing the access profile")

		channel = fset.String("c", "868LP000", "channel id, with format FFFRCIII where FFF={433, 868, 915}, R={L, N, H, R (LoRa)}, C={P (PN9), F (FEC), C (CW)}, III=000...280")
		eirp    = fset.Int("e", 0, "EIRP in dBm")
		spec    = fset.Uint("s", 0, "access specifier (0-14)")
		period  = fset.Uint("sp", 0, "scan automation period in ms (786 ~ 1s total), 0 is continuous scan")
		bitmap  = fset.Uint("sb", 0, "sub-band bitmap of the sub-profiles, 0 is default, 1 is scanning")
	)

	err := fset.Parse(args)
	if err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if *cfgFile != "" {
		v, err := config.Load(*cfgFile)
		if err != nil {
			return cfg, err
		}
		cfg = *v
	}

	if *site != "" {
		ap, err := siteProfile(*dbname, *site)
		if err != nil {
			return cfg, err
		}
		cfg.AccessProfile = ap
	}

	var errFlag error
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "d":
			cfg.Modem.Device = *device
		case "r":
			cfg.Modem.Baud = *rate
		case "timeout":
			cfg.Modem.Timeout = *tmo
		case "c":
			cfg.AccessProfile.Channel = *channel
		case "e":
			if *eirp < -128 || *eirp > 127 {
				errFlag = fmt.Errorf("invalid EIRP value %d", *eirp)
			}
			cfg.AccessProfile.EIRP = int8(*eirp)
		case "s":
			if *spec > 0xff {
				errFlag = fmt.Errorf("invalid access specifier %d", *spec)
			}
			cfg.AccessProfile.Specifier = uint8(*spec)
		case "sp":
			cfg.AccessProfile.ScanPeriod = uint32(*period)
		case "sb":
			if *bitmap > 0xff {
				errFlag = fmt.Errorf("invalid sub-band bitmap 0x%x", *bitmap)
			}
			cfg.AccessProfile.SubbandBitmap = uint8(*bitmap)
		}
	})
	if errFlag != nil {
		return cfg, errFlag
	}

	err = config.Validate(&cfg)
	if err != nil {
		return cfg, err
	}
	config.Normalize(&cfg)

	return cfg, nil
}

func siteProfile(dbname, site string) (config.AccessProfile, error) {
	db, err := sitedb.Open(dbname)
	if err != nil {
		return config.AccessProfile{}, err
	}
	defer db.Close()

	return db.AccessProfile(context.Background(), site)
}

// run writes the access profile ap to the modem reachable through rw.
func run(ctx context.Context, rw io.ReadWriter, ap config.AccessProfile, msg *log.Logger) error {
	file, err := ap.File()
	if err != nil {
		return err
	}
	msg.Printf("using channel %s with TX EIRP %d dBm (specifier=%d)", ap.Channel, ap.EIRP, ap.Specifier)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := modem.New(rw, msg)
	m.Unsolicited = func(cmd alp.Command) {
		msg.Printf("received: %v", cmd)
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return m.Run(ctx)
	})
	grp.Go(func() error {
		defer cancel()

		cmd, err := alp.NewWriteFileCommand(m.NextTag(), &file)
		if err != nil {
			return err
		}

		_, err = m.Execute(ctx, cmd)
		if err != nil {
			return fmt.Errorf("could not write %v: %w", file.ID(), err)
		}
		msg.Printf("access profile %v written", file.ID())
		return nil
	})

	return grp.Wait()
}
