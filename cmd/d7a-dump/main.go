// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// d7a-dump decodes and displays hex-encoded D7A records.
//
// Usage: d7a-dump [OPTIONS] HEX1 [HEX2 [HEX3 ...]]
//
// Example:
//
//	$> d7a-dump -t status 280010465050e06400141000
//	Status{channel=433NP016, rx=-70dBm, lb=80, target=-80dBm, nls=true, missed=true, retry=true, unicast=false, fifo=100, seq=0, to=20, Addressee{ac=0x00, NOID, nls=NONE}}
//
//	$> d7a-dump -t ct 0x30 0xd0
//	CT(exp=1, mant=16)=32
//	CT(exp=6, mant=16)=1024
//
//	$> d7a-dump -file 0x02 010100007468726f7567396161626661 61
//	FirmwareVersion{d7ap=v1.1, fs=v0.0, app="throug", sha1="9aabfaa"}
package main // import "github.com/go-lpc/d7a/cmd/d7a-dump"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/go-lpc/d7a/internal/decode"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetPrefix("d7a-dump: ")
	log.SetFlags(0)

	err := xmain(os.Stdout, os.Args[1:])
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func xmain(w io.Writer, args []string) error {
	fset := flag.NewFlagSet("d7a-dump", flag.ContinueOnError)

	var (
		typ  = fset.String("t", "status", "type of record to decode ("+strings.Join(decode.Types(), ", ")+")")
		file = fset.String("file", "", "decode the whole input as the content of this system file id")
	)

	fset.Usage = func() {
		fmt.Fprintf(fset.Output(), `d7a-dump decodes and displays hex-encoded D7A records.

Usage: d7a-dump [OPTIONS] HEX1 [HEX2 [HEX3 ...]]

Example:

 $> d7a-dump -t ct 0x30 0xd0
 CT(exp=1, mant=16)=32
 CT(exp=6, mant=16)=1024

Options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		return err
	}

	if fset.NArg() == 0 {
		fset.Usage()
		return fmt.Errorf("missing hex-encoded input")
	}

	if *file != "" {
		return processFile(w, *file, fset.Args())
	}
	return process(w, *typ, fset.Args())
}

// process decodes each input as a record of type typ.
func process(w io.Writer, typ string, inputs []string) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	var (
		grp  errgroup.Group
		outs = make([]interface{}, len(inputs))
	)
	for i := range inputs {
		i := i
		grp.Go(func() error {
			raw, err := decode.Hex(inputs[i])
			if err != nil {
				return fmt.Errorf("could not decode input #%d: %w", i, err)
			}
			v, err := decode.Value(typ, raw)
			if err != nil {
				return fmt.Errorf("could not decode %s record #%d: %w", typ, i, err)
			}
			outs[i] = v
			return nil
		})
	}

	err := grp.Wait()
	if err != nil {
		return err
	}

	for _, v := range outs {
		fmt.Fprintf(wbuf, "%v\n", v)
	}
	return nil
}

// processFile decodes the concatenation of all inputs as a system file.
func processFile(w io.Writer, id string, inputs []string) error {
	raw, err := decode.Hex(strings.Join(inputs, ""))
	if err != nil {
		return fmt.Errorf("could not decode input: %w", err)
	}

	f, err := decode.File(id, raw)
	if err != nil {
		return fmt.Errorf("could not decode file %s: %w", id, err)
	}

	_, err = fmt.Fprintf(w, "%v\n", f)
	return err
}
