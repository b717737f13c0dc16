// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sitedb gives access to the database of D7A deployment sites:
// the access profile to configure on the gateway of each site and the
// session statuses received by these gateways.
package sitedb // import "github.com/go-lpc/d7a/sitedb"

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-lpc/d7a/config"
	"github.com/go-lpc/d7a/sp"
	"github.com/go-sql-driver/mysql"
)

var (
	host = "localhost:3306"
	usr  = "username"
	pwd  = "s3cr3t"

	drvName = "mysql"
)

// ErrNoSite is returned when a site is not in the database.
var ErrNoSite = errors.New("sitedb: no such site")

// DB exposes convenience methods to retrieve the configuration of
// D7A sites and to record the data they received.
type DB struct {
	db   *sql.DB
	name string // name of the sites database
}

// Open opens a connection to the sites database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("sitedb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sitedb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	cfg := mysql.NewConfig()
	cfg.User = usr
	cfg.Passwd = pwd
	cfg.Net = "tcp"
	cfg.Addr = host
	cfg.DBName = db
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("sitedb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Sites returns the names of all the sites, sorted by name.
func (db *DB) Sites(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.db.QueryContext(ctx, "SELECT DISTINCT name FROM sites ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("sitedb: could not query sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var name string
		err = rows.Scan(&name)
		if err != nil {
			return nil, fmt.Errorf("sitedb: could not get site name: %w", err)
		}
		sites = append(sites, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sitedb: could not scan db for sites: %w", err)
	}

	return sites, nil
}

// AccessProfile returns the latest access profile configuration of site.
func (db *DB) AccessProfile(ctx context.Context, site string) (config.AccessProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var ap config.AccessProfile
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT specifier, channel, eirp, scan_period, subband_bitmap FROM sites WHERE name=? ORDER BY datetime DESC LIMIT 1",
		site,
	)
	if err != nil {
		return ap, fmt.Errorf("sitedb: could not query access profile of site %q: %w", site, err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		err = rows.Scan(
			&ap.Specifier, &ap.Channel, &ap.EIRP,
			&ap.ScanPeriod, &ap.SubbandBitmap,
		)
		if err != nil {
			return ap, fmt.Errorf("sitedb: could not get access profile of site %q: %w", site, err)
		}
		found = true
	}

	if err := rows.Err(); err != nil {
		return ap, fmt.Errorf("sitedb: could not scan db for access profile of site %q: %w", site, err)
	}

	if err := ctx.Err(); err != nil {
		return ap, fmt.Errorf("sitedb: context error while retrieving access profile: %w", err)
	}

	if !found {
		return ap, fmt.Errorf("sitedb: could not find site %q: %w", site, ErrNoSite)
	}

	return ap, nil
}

// InsertStatus records a session status received at site.
func (db *DB) InsertStatus(ctx context.Context, site string, ts time.Time, st sp.Status) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(
		ctx,
		"INSERT INTO statuses (site, datetime, channel, rx_level, link_budget, target_rx_level, fifo_token, seq_nr, addressee) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		site, ts.UTC(),
		st.ChannelID.String(), st.RxLevel, st.LinkBudget, st.TargetRxLevel,
		st.FifoToken, st.SeqNr,
		st.Addressee.String(),
	)
	if err != nil {
		return fmt.Errorf("sitedb: could not insert status for site %q: %w", site, err)
	}
	return nil
}
