// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"

	"github.com/go-lpc/d7a/ct"
	"github.com/go-lpc/d7a/phy"
	"github.com/go-lpc/d7a/sysfile"
)

// Validate checks the configuration.
// It does not modify the configuration.
func Validate(cfg *Config) error {
	if cfg.Modem.Device == "" {
		return fmt.Errorf("config: modem device must be set")
	}
	if cfg.Modem.Baud < 0 {
		return fmt.Errorf("config: invalid modem baud rate %d", cfg.Modem.Baud)
	}
	if cfg.Modem.Timeout < 0 {
		return fmt.Errorf("config: invalid modem timeout %v", cfg.Modem.Timeout)
	}

	ap := cfg.AccessProfile
	if ap.Specifier > sysfile.MaxAccessSpecifier {
		return fmt.Errorf(
			"config: invalid access specifier %d (max=%d)",
			ap.Specifier, sysfile.MaxAccessSpecifier,
		)
	}
	if _, err := phy.ParseID(ap.Channel); err != nil {
		return fmt.Errorf("config: invalid access profile channel: %w", err)
	}
	if ap.ScanPeriod > ct.Max {
		return fmt.Errorf(
			"config: scan automation period %d exceeds %d",
			ap.ScanPeriod, ct.Max,
		)
	}
	return nil
}
