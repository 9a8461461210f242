// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/dustin/go-humanize"

	"github.com/bitmark-inc/dbutils/storage"
	"github.com/bitmark-inc/dbutils/util"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

const defaultCount = 10

func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "count", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		exitwithstatus.Message("%s: version: %s", program, version)
	}

	if len(options["help"]) > 0 || len(arguments) < 1 || len(arguments) > 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [--help] [--version] [--count=N] data-file [table]\n", program)
		fmt.Fprintf(os.Stderr, " tables:\n")
		for _, p := range storage.KnownPools() {
			fmt.Fprintf(os.Stderr, "       %s\n", p)
		}
		exitwithstatus.Exit(1)
	}

	count := defaultCount
	if len(options["count"]) > 0 {
		count, err = strconv.Atoi(options["count"][0])
		if nil != err || count <= 0 {
			exitwithstatus.Message("%s: invalid count: %q", program, options["count"][0])
		}
	}

	database := arguments[0]
	if !util.EnsureFileExists(database) {
		exitwithstatus.Message("%s: missing file: %q", program, database)
	}

	h, err := storage.Open(database, storage.Options{
		ReadOnly: true,
		Timeout:  storage.DefaultLockTimeout,
	})
	if nil != err {
		exitwithstatus.Message("%s: open store: %q  error: %s", program, database, err)
	}
	defer h.Close()

	if 1 == len(arguments) {
		err = listTables(os.Stdout, h)
	} else {
		err = dumpTable(os.Stdout, h, arguments[1], count)
	}
	if nil != err {
		exitwithstatus.Message("%s: error: %s", program, err)
	}
}

// print every table with its record count
func listTables(w io.Writer, h *storage.Handle) error {
	return h.View(func(trx storage.Transaction) error {
		tables, err := trx.Tables()
		if nil != err {
			return err
		}
		fmt.Fprintf(w, "size: %s  used: %s\n", humanize.IBytes(uint64(h.Size())), humanize.IBytes(uint64(trx.Size())))
		for _, name := range tables {
			n, err := trx.Count(storage.NewPoolHandle(name))
			if nil != err {
				return err
			}
			fmt.Fprintf(w, "%-20s %d\n", name, n)
		}
		return nil
	})
}

// print the first records of a table as hex
func dumpTable(w io.Writer, h *storage.Handle, table string, count int) error {
	p, err := h.Table(table)
	if nil != err {
		return err
	}

	return h.View(func(trx storage.Transaction) error {
		cursor, err := trx.NewFetchCursor(p)
		if nil != err {
			return err
		}
		data, err := cursor.Fetch(count)
		if nil != err {
			return err
		}
		for i, e := range data {
			fmt.Fprintf(w, "%d: Key: %x\n", i, e.Key)
			fmt.Fprintf(w, "%d: Val: %x\n", i, e.Value)
		}
		return nil
	})
}
