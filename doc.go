// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package d7a holds code to talk to DASH7 (D7A) modems and to encode and
// decode the D7A records they exchange.
//
// The codecs live in the sub-packages, from the physical layer up:
//
//   - phy: channel headers and channel ids,
//   - ct: compressed time values,
//   - dll: access profiles, sub-profiles and sub-bands,
//   - d7anp: addressees,
//   - sp: session protocol interface status,
//   - sysfile: system files,
//   - alp: application layer protocol commands and actions,
//   - modem: serial framing and the modem client.
package d7a // import "github.com/go-lpc/d7a"

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of d7a and its checksum.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/go-lpc/d7a"
	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if m.Replace != nil {
			switch {
			case m.Replace.Version != "" && m.Replace.Path != "":
				return fmt.Sprintf("%s %s", m.Replace.Path, m.Replace.Version), m.Replace.Sum
			case m.Replace.Version != "":
				return m.Replace.Version, m.Replace.Sum
			case m.Replace.Path != "":
				return m.Replace.Path, m.Replace.Sum
			default:
				return m.Version + "*", ""
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}
