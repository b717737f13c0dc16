// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command d7a-shell is an interactive shell to encode and decode D7A records.
//
// Usage: d7a-shell [OPTIONS]
//
// Example:
//
//	$> d7a-shell
//	d7a> ct-encode 1000
//	CT(exp=6, mant=16)=1024 -> 0xd0
//	d7a> channel-encode 433NP016
//	433NP016 -> 280010
//	d7a> channel 300000
//	868LP000
//	d7a> ct 0x30
//	CT(exp=1, mant=16)=32
//	d7a> quit
package main // import "github.com/go-lpc/d7a/cmd/d7a-shell"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-lpc/d7a"
	"github.com/go-lpc/d7a/ct"
	"github.com/go-lpc/d7a/internal/decode"
	"github.com/go-lpc/d7a/phy"
	"github.com/peterh/liner"
)

var errQuit = errors.New("quit")

func main() {
	log.SetPrefix("d7a-shell: ")
	log.SetFlags(0)

	var (
		hist = flag.String("history", defaultHistory(), "path to the history file")
	)

	flag.Parse()

	err := xmain(os.Stdout, *hist)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func defaultHistory() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "d7a-shell.history")
}

func xmain(w io.Writer, hist string) error {
	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)
	term.SetCompleter(complete)

	if hist != "" {
		f, err := os.Open(hist)
		if err == nil {
			_, _ = term.ReadHistory(f)
			f.Close()
		}
		defer func() {
			f, err := os.Create(hist)
			if err != nil {
				log.Printf("could not save history: %+v", err)
				return
			}
			defer f.Close()
			_, err = term.WriteHistory(f)
			if err != nil {
				log.Printf("could not save history: %+v", err)
			}
		}()
	}

	for {
		line, err := term.Prompt("d7a> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(w)
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		term.AppendHistory(line)

		err = eval(w, line)
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			return nil
		default:
			fmt.Fprintf(w, "error: %+v\n", err)
		}
	}
}

type command struct {
	help string
	run  func(w io.Writer, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help": {
			help: "display this help message",
			run:  help,
		},
		"quit": {
			help: "exit the shell",
			run:  func(io.Writer, []string) error { return errQuit },
		},
		"exit": {
			help: "exit the shell",
			run:  func(io.Writer, []string) error { return errQuit },
		},
		"version": {
			help: "display the version of d7a",
			run:  version,
		},
		"ct-encode": {
			help: "ct-encode VALUE: compress VALUE into a compressed time",
			run:  ctEncode,
		},
		"channel-encode": {
			help: "channel-encode FFFRCIII: encode a channel id",
			run:  channelEncode,
		},
		"file": {
			help: "file ID HEX: decode HEX as the content of the system file ID",
			run:  file,
		},
	}
	for _, typ := range decode.Types() {
		typ := typ
		if _, dup := commands[typ]; dup {
			panic(fmt.Errorf("d7a-shell: duplicate command %q", typ))
		}
		commands[typ] = command{
			help: typ + " HEX: decode HEX as a " + typ + " record",
			run: func(w io.Writer, args []string) error {
				return value(w, typ, args)
			},
		}
	}
}

func eval(w io.Writer, line string) error {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return nil
	}
	cmd, ok := commands[toks[0]]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", toks[0])
	}
	return cmd.run(w, toks[1:])
}

func names() []string {
	keys := make([]string, 0, len(commands))
	for k := range commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func complete(line string) []string {
	var o []string
	for _, k := range names() {
		if strings.HasPrefix(k, line) {
			o = append(o, k+" ")
		}
	}
	return o
}

func help(w io.Writer, args []string) error {
	for _, k := range names() {
		fmt.Fprintf(w, "  %-15s %s\n", k, commands[k].help)
	}
	return nil
}

func version(w io.Writer, args []string) error {
	v, sum := d7a.Version()
	if v == "" {
		v = "(devel)"
	}
	fmt.Fprintf(w, "d7a %s %s\n", v, sum)
	return nil
}

func ctEncode(w io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("ct-encode: expected one value")
	}
	v, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return fmt.Errorf("ct-encode: invalid value %q: %w", args[0], err)
	}
	c := ct.Compress(uint32(v))
	fmt.Fprintf(w, "%v -> 0x%02x\n", c, c.Byte())
	return nil
}

func channelEncode(w io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("channel-encode: expected one channel id")
	}
	id, err := phy.ParseID(args[0])
	if err != nil {
		return fmt.Errorf("channel-encode: %w", err)
	}
	raw, err := id.MarshalBinary()
	if err != nil {
		return fmt.Errorf("channel-encode: %w", err)
	}
	fmt.Fprintf(w, "%v -> %x\n", id, raw)
	return nil
}

func file(w io.Writer, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("file: expected a file id and hex-encoded content")
	}
	raw, err := decode.Hex(strings.Join(args[1:], ""))
	if err != nil {
		return fmt.Errorf("file: %w", err)
	}
	f, err := decode.File(args[0], raw)
	if err != nil {
		return fmt.Errorf("file: %w", err)
	}
	fmt.Fprintf(w, "%v\n", f)
	return nil
}

func value(w io.Writer, typ string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s: missing hex-encoded input", typ)
	}
	raw, err := decode.Hex(strings.Join(args, ""))
	if err != nil {
		return fmt.Errorf("%s: %w", typ, err)
	}
	v, err := decode.Value(typ, raw)
	if err != nil {
		return fmt.Errorf("%s: %w", typ, err)
	}
	fmt.Fprintf(w, "%v\n", v)
	return nil
}
