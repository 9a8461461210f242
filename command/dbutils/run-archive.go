// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/dbutils/archive"
)

func runArchiveUnpack(c *cli.Context) error {
	m := getMetadata(c)

	output := c.String("output")
	if err := checkRequired("output", output); nil != err {
		return err
	}

	input := archive.Input{
		URL:  c.String("url"),
		File: c.String("file"),
	}

	// interrupt cancels a download
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := archive.Unpack(ctx, input, output)
	if nil != err {
		return err
	}
	return printJson(m.w, summary)
}

func runArchiveCreate(c *cli.Context) error {
	m := getMetadata(c)

	output := c.String("output")
	if err := checkRequired("output", output); nil != err {
		return err
	}

	directory := c.String("db-dir")
	if "" == directory {
		directory = filepath.Dir(m.config.DatabasePath())
	}

	summary, err := archive.Create(directory, output)
	if nil != err {
		return err
	}
	return printJson(m.w, summary)
}
