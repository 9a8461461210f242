// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/urfave/cli"

	"github.com/bitmark-inc/dbutils/triecompact"
	"github.com/bitmark-inc/dbutils/unsparsify"
)

func runCompactTrie(c *cli.Context) error {
	m := getMetadata(c)

	path, err := databasePath(c, m)
	if nil != err {
		return err
	}
	size, err := capacity(c, m)
	if nil != err {
		return err
	}

	result, err := triecompact.Compact(path, triecompact.Options{
		Capacity: size,
		Timeout:  m.config.Timeout(),
	})
	if nil != err {
		return err
	}
	return printJson(m.w, result)
}

func runUnsparsify(c *cli.Context) error {
	m := getMetadata(c)

	path, err := databasePath(c, m)
	if nil != err {
		return err
	}
	size, err := capacity(c, m)
	if nil != err {
		return err
	}

	result, err := unsparsify.Unsparsify(path, unsparsify.Options{
		Capacity: size,
		Timeout:  m.config.Timeout(),
	})
	if nil != err {
		return err
	}
	return printJson(m.w, result)
}
