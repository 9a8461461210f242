// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	"github.com/bitmark-inc/dbutils/configuration"
	"github.com/bitmark-inc/dbutils/fault"
)

type metadata struct {
	config  *configuration.Configuration
	verbose bool
	w       io.Writer
	e       io.Writer
}

// load the configuration and start the logger
func setup(globals globalFlags, w io.Writer, e io.Writer) (*metadata, error) {

	var conf *configuration.Configuration
	if "" == globals.config {
		conf = configuration.Default()
		if err := conf.Validate(); nil != err {
			return nil, err
		}
	} else {
		c, err := configuration.GetConfiguration(globals.config)
		if nil != err {
			return nil, err
		}
		conf = c
	}

	if "" != globals.logging {
		file, err := filepath.Abs(globals.logging)
		if nil != err {
			return nil, err
		}
		conf.Logging.Directory, conf.Logging.File = filepath.Split(file)
	}
	if globals.verbose {
		conf.Logging.Console = true
	}

	if err := os.MkdirAll(conf.Logging.Directory, 0o700); nil != err {
		return nil, err
	}
	if err := logger.Initialise(conf.Logging); nil != err {
		return nil, err
	}

	if globals.verbose {
		fmt.Fprintf(e, "store: %s\n", conf.DatabasePath())
		fmt.Fprintf(e, "logging: %s\n", filepath.Join(conf.Logging.Directory, conf.Logging.File))
	}

	return &metadata{
		config:  conf,
		verbose: globals.verbose,
		w:       w,
		e:       e,
	}, nil
}

func getMetadata(c *cli.Context) *metadata {
	return c.App.Metadata["config"].(*metadata)
}

// the --db flag or the configured store
func databasePath(c *cli.Context, m *metadata) (string, error) {
	path := c.String("db")
	if "" == path {
		return m.config.DatabasePath(), nil
	}
	return filepath.Abs(path)
}

// the --capacity flag or the configured capacity
func capacity(c *cli.Context, m *metadata) (int64, error) {
	return parseCapacity(c.String("capacity"), m.config.Capacity)
}

// accepts plain byte counts and units: 512MB, 1TiB
func parseCapacity(s string, fallback int64) (int64, error) {
	if "" == s {
		return fallback, nil
	}
	n, err := humanize.ParseBytes(s)
	if nil != err {
		return 0, fmt.Errorf("%w: capacity: %q", fault.ErrInvalidCount, s)
	}
	if n == 0 || n > 1<<62 {
		return 0, fmt.Errorf("%w: capacity: %q", fault.ErrInvalidCount, s)
	}
	return int64(n), nil
}

func checkRequired(name string, value string) error {
	if "" == value {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}
