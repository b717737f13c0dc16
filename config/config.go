// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config describes the configuration of the D7A tools.
package config // import "github.com/go-lpc/d7a/config"

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-lpc/d7a/ct"
	"github.com/go-lpc/d7a/dll"
	"github.com/go-lpc/d7a/phy"
	"github.com/go-lpc/d7a/sysfile"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Modem         Modem         `yaml:"modem"`
	AccessProfile AccessProfile `yaml:"access_profile"`
}

// Modem describes how to reach a modem.
type Modem struct {
	Device  string        `yaml:"device"`
	Baud    int           `yaml:"baud"`
	Timeout time.Duration `yaml:"timeout"` // per-command timeout
}

// AccessProfile describes the access profile written to a modem.
type AccessProfile struct {
	Specifier     uint8  `yaml:"specifier"`
	Channel       string `yaml:"channel"` // e.g. 868LP000
	EIRP          int8   `yaml:"eirp"`    // dBm
	ScanPeriod    uint32 `yaml:"scan_automation_period"`
	SubbandBitmap uint8  `yaml:"subband_bitmap"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Modem: Modem{
			Device:  "/dev/ttyUSB0",
			Baud:    115200,
			Timeout: 5 * time.Second,
		},
		AccessProfile: AccessProfile{
			Channel: "868LP000",
		},
	}
}

// Load reads the YAML configuration file at fname.
// Fields missing from the file keep their default value.
func Load(fname string) (*Config, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("config: could not open %q: %w", fname, err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: could not load %q: %w", fname, err)
	}
	return cfg, nil
}

// Decode decodes a YAML configuration from r.
// Unknown fields are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: could not decode YAML: %w", err)
	}
	return &cfg, nil
}

// Encode writes cfg as YAML to w.
func Encode(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err := enc.Encode(cfg)
	if err != nil {
		return fmt.Errorf("config: could not encode YAML: %w", err)
	}
	return enc.Close()
}

// File builds the access profile system file described by ap.
// All the sub-profiles share the same scan automation period and sub-band
// bitmap, all the sub-bands cover the single channel of ap.
func (ap AccessProfile) File() (sysfile.AccessProfileFile, error) {
	ch, err := phy.ParseID(ap.Channel)
	if err != nil {
		return sysfile.AccessProfileFile{}, fmt.Errorf("config: invalid access profile channel: %w", err)
	}

	var prof dll.AccessProfile
	prof.Header = ch.Header
	for i := range prof.SubProfiles {
		prof.SubProfiles[i] = dll.SubProfile{
			SubbandBitmap:        ap.SubbandBitmap,
			ScanAutomationPeriod: ct.Compress(ap.ScanPeriod),
		}
	}
	for i := range prof.SubBands {
		prof.SubBands[i] = dll.NewSubBand(ch.Index, ch.Index, ap.EIRP)
	}

	f, err := sysfile.NewAccessProfile(ap.Specifier, prof)
	if err != nil {
		return f, fmt.Errorf("config: invalid access profile: %w", err)
	}
	return f, nil
}
