// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"
)

type globalFlags struct {
	verbose bool
	config  string
	logging string
}

func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	app := newApp()

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		exitwithstatus.Exit(1)
	}
}

func newApp() *cli.App {
	globals := globalFlags{}

	app := cli.NewApp()
	app.Name = "dbutils"
	app.Usage = "offline maintenance of a node store"
	app.Version = version
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:        "verbose, v",
			Usage:       " log to the console as well",
			Destination: &globals.verbose,
		},
		cli.StringFlag{
			Name:        "config, c",
			Value:       "",
			Usage:       " Lua configuration `FILE`",
			Destination: &globals.config,
		},
		cli.StringFlag{
			Name:        "logging, l",
			Value:       "",
			Usage:       " write log messages to `LOGFILE_PATH`",
			Destination: &globals.logging,
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "check",
			Usage:     "decode every record and report corrupt ones",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				dbFlag,
				cli.StringSliceFlag{
					Name:  "table, t",
					Usage: " only check table `NAME` (repeatable)",
				},
				cli.IntFlag{
					Name:  "workers, w",
					Value: 0,
					Usage: " number of decoders `COUNT` (default: number of CPUs)",
				},
			},
			Action: runCheck,
		},
		{
			Name:      "compact-trie",
			Usage:     "remove trie nodes that are not reachable from any block",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				dbFlag,
				capacityFlag,
			},
			Action: runCompactTrie,
		},
		{
			Name:      "unsparsify",
			Usage:     "rewrite the store to release unused space",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				dbFlag,
				capacityFlag,
			},
			Action: runUnsparsify,
		},
		{
			Name:      "remove-block",
			Usage:     "remove a block with its body and execution results",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				dbFlag,
				capacityFlag,
				cli.StringFlag{
					Name:  "block, b",
					Value: "",
					Usage: "*block hash `HEX`",
				},
			},
			Action: runRemoveBlock,
		},
		{
			Name:  "archive",
			Usage: "create or unpack a compressed store archive",
			Subcommands: []cli.Command{
				{
					Name:      "unpack",
					Usage:     "download or read an archive and unpack it",
					ArgsUsage: "\n   (* = required, + = select one)",
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "url, u",
							Value: "",
							Usage: "+archive `URL`",
						},
						cli.StringFlag{
							Name:  "file, f",
							Value: "",
							Usage: "+archive `FILE_PATH`",
						},
						cli.StringFlag{
							Name:  "output, o",
							Value: "",
							Usage: "*output `DIRECTORY`",
						},
					},
					Action: runArchiveUnpack,
				},
				{
					Name:      "create",
					Usage:     "archive a store directory as tar + zstd",
					ArgsUsage: "\n   (* = required)",
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "db-dir, d",
							Value: "",
							Usage: " store `DIRECTORY` (default: from configuration)",
						},
						cli.StringFlag{
							Name:  "output, o",
							Value: "",
							Usage: "*archive `FILE_PATH`, must not exist",
						},
					},
					Action: runArchiveCreate,
				},
			},
		},
		{
			Name:  "version",
			Usage: "display dbutils version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	// read the configuration and start logging
	app.Before = func(c *cli.Context) error {

		// to suppress reading config file if certain commands
		command := c.Args().Get(0)
		if "version" == command || "help" == command || "" == command {
			return nil
		}

		m, err := setup(globals, c.App.Writer, c.App.ErrWriter)
		if nil != err {
			return err
		}
		c.App.Metadata["config"] = m
		return nil
	}

	app.After = func(c *cli.Context) error {
		if _, ok := c.App.Metadata["config"].(*metadata); ok {
			logger.Finalise()
		}
		return nil
	}

	return app
}

var dbFlag = cli.StringFlag{
	Name:  "db, d",
	Value: "",
	Usage: " store data `FILE` (default: from configuration)",
}

var capacityFlag = cli.StringFlag{
	Name:  "capacity, m",
	Value: "",
	Usage: " maximum store size `BYTES`, e.g. 1TiB (default: from configuration)",
}
