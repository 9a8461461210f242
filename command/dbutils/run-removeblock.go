// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/removeblock"
)

func runRemoveBlock(c *cli.Context) error {
	m := getMetadata(c)

	hex := c.String("block")
	if err := checkRequired("block", hex); nil != err {
		return err
	}
	blockHash, err := digest.FromHex(hex)
	if nil != err {
		return fmt.Errorf("%w: %q", fault.ErrInvalidBlockHash, hex)
	}

	path, err := databasePath(c, m)
	if nil != err {
		return err
	}

	size, err := capacity(c, m)
	if nil != err {
		return err
	}

	result, err := removeblock.RemoveBlock(path, blockHash, removeblock.Options{
		Capacity: size,
		Timeout:  m.config.Timeout(),
	})
	if nil != err {
		return err
	}
	return printJson(m.w, result)
}
