// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/dbutils/integrity"
)

func runCheck(c *cli.Context) error {
	m := getMetadata(c)

	path, err := databasePath(c, m)
	if nil != err {
		return err
	}

	workers := c.Int("workers")
	if workers < 0 {
		return fmt.Errorf("invalid workers: %d", workers)
	}

	report, err := integrity.Check(path, c.StringSlice("table"), integrity.Options{
		Workers: workers,
		Timeout: m.config.Timeout(),
	})
	if nil != err {
		return err
	}

	if err := printJson(m.w, report); nil != err {
		return err
	}

	if !report.Clean() {
		return fmt.Errorf("%d corrupt records found", len(report.Corruptions))
	}
	return nil
}
