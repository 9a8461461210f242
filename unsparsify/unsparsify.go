// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package unsparsify rewrites a store into a densely packed copy.
//
// Pages freed by deletions are never returned to the file system by
// the engine; copying every record in key order into a new file with
// full pages gives the smallest file holding the same data.
package unsparsify

import (
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/dustin/go-humanize"

	"github.com/bitmark-inc/dbutils/storage"
)

// Options - for unsparsify
type Options struct {
	Capacity int64
	Timeout  time.Duration
}

// Result - summary of a rewrite
type Result struct {
	Tables     []string `json:"tables"`
	Records    uint64   `json:"records"`
	SizeBefore int64    `json:"sizeBefore"`
	SizeAfter  int64    `json:"sizeAfter"`
}

// Unsparsify - copy every table verbatim into a new store and replace
// the original with it
func Unsparsify(path string, options Options) (*Result, error) {
	log := logger.New("unsparsify")

	rebuild, err := storage.RebuildAndReplace(path, storage.Options{
		Capacity: options.Capacity,
		Timeout:  options.Timeout,
	}, func(src storage.Transaction, dst *storage.Copier) error {
		tables, err := src.Tables()
		if nil != err {
			return err
		}
		for _, name := range tables {
			n, err := storage.CopyTable(src, dst, storage.NewPoolHandle(name), nil)
			if nil != err {
				return err
			}
			log.Infof("%s: records: %d", name, n)
		}
		return nil
	})
	if nil != err {
		return nil, err
	}

	log.Infof("size: %s -> %s", humanize.Bytes(uint64(rebuild.SizeBefore)), humanize.Bytes(uint64(rebuild.SizeAfter)))

	return &Result{
		Tables:     rebuild.Tables,
		Records:    rebuild.Records,
		SizeBefore: rebuild.SizeBefore,
		SizeAfter:  rebuild.SizeAfter,
	}, nil
}
