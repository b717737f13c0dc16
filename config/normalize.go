// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"github.com/go-lpc/d7a/phy"
)

// Normalize fills unset values with their defaults and puts the channel
// in its canonical form.
// Normalize must be called after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	def := Default()
	if cfg.Modem.Baud == 0 {
		cfg.Modem.Baud = def.Modem.Baud
	}
	if cfg.Modem.Timeout == 0 {
		cfg.Modem.Timeout = def.Modem.Timeout
	}

	if ch, err := phy.ParseID(cfg.AccessProfile.Channel); err == nil {
		cfg.AccessProfile.Channel = ch.String()
	}
}
