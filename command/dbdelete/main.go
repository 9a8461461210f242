// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/bitmark-inc/dbutils/storage"
	"github.com/bitmark-inc/dbutils/util"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		exitwithstatus.Message("%s: version: %s", program, version)
	}

	if len(options["help"]) > 0 {
		exitwithstatus.Message("usage: %s [--help] [--version] data-file table hex-prefix", program)
	}

	if len(arguments) < 3 {
		exitwithstatus.Message("%s: 3 arguments are required", program)
	}

	database := arguments[0]
	table := arguments[1]

	if !util.EnsureFileExists(database) {
		exitwithstatus.Message("%s: missing file: %q", program, database)
	}

	prefix, err := hex.DecodeString(arguments[2])
	if nil != err {
		exitwithstatus.Message("%s: decode prefix error: %s", program, err)
	}

	h, err := storage.Open(database, storage.Options{
		Capacity: storage.DefaultCapacity,
		Timeout:  storage.DefaultLockTimeout,
	})
	if nil != err {
		exitwithstatus.Message("%s: open store: %q  error: %s", program, database, err)
	}
	defer h.Close()

	p, err := h.Table(table)
	if nil != err {
		exitwithstatus.Message("%s: table: %q  error: %s", program, table, err)
	}

	ttyFd, err := os.OpenFile("/dev/tty", os.O_RDWR, os.ModePerm)
	if nil != err {
		exitwithstatus.Message("%s: tty open error: %s", program, err)
	}
	defer ttyFd.Close()

	oldState, err := terminal.MakeRaw(int(ttyFd.Fd()))
	if nil != err {
		exitwithstatus.Message("%s: tty open error: %s", program, err)
	}
	defer terminal.Restore(int(ttyFd.Fd()), oldState)

	console := terminal.NewTerminal(ttyFd, "DB Delete: ")

	deleted := 0
	err = h.Update(func(trx storage.Transaction) error {
		cursor, err := trx.NewFetchCursor(p)
		if nil != err {
			return err
		}
		cursor.Seek(prefix)

		for {
			data, err := cursor.Fetch(1)
			if nil != err {
				return err
			}
			if 0 == len(data) || !bytes.HasPrefix(data[0].Key, prefix) {
				return nil
			}

			fmt.Printf("%x → %x\r\n", data[0].Key, data[0].Value)
			cmd, err := console.ReadLine()
			if nil != err {
				return err
			}
			switch strings.ToLower(cmd) {
			case "d", "y":
				if err := trx.Delete(p, data[0].Key); nil != err {
					return err
				}
				deleted += 1
			case "n", "":
			case "q":
				return nil
			default:
				fmt.Printf("invalid command\r\n")
			}
		}
	})
	if nil != err {
		exitwithstatus.Message("%s: error: %s", program, err)
	}
	fmt.Printf("deleted: %d records\r\n", deleted)
}
