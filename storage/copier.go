// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// defaults for copying
const (
	DefaultBatchSize = 10000
	progressInterval = 5 * time.Second
	progressBurst    = 1
)

// Copier - write records to a destination store in batches
//
// each batch is committed separately so that the size of a single
// write transaction stays bounded
type Copier struct {
	dst       *Handle
	trx       Transaction
	batchSize int
	pending   int
	records   uint64
	bytes     uint64
	limiter   *rate.Limiter
	log       *logger.L
}

// NewCopier - create a copier writing to dst
func NewCopier(dst *Handle, batchSize int) *Copier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Copier{
		dst:       dst,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Every(progressInterval), progressBurst),
		log:       logger.New("copier"),
	}
}

func (c *Copier) transaction() (Transaction, error) {
	if nil != c.trx {
		return c.trx, nil
	}
	trx, err := c.dst.Begin(true)
	if nil != err {
		return nil, err
	}
	c.trx = trx
	return trx, nil
}

// CreateTable - make a table in the destination
func (c *Copier) CreateTable(pool *PoolHandle) error {
	trx, err := c.transaction()
	if nil != err {
		return err
	}
	return trx.CreateTable(pool)
}

// Put - write one record, committing when the batch is full
func (c *Copier) Put(pool *PoolHandle, key []byte, value []byte) error {
	trx, err := c.transaction()
	if nil != err {
		return err
	}
	err = trx.Put(pool, key, value)
	if nil != err {
		return err
	}

	c.pending += 1
	c.records += 1
	c.bytes += uint64(len(key) + len(value))

	if c.limiter.Allow() {
		c.log.Infof("%s: records: %d  data: %s", pool, c.records, humanize.Bytes(c.bytes))
	}

	if c.pending >= c.batchSize {
		return c.Flush()
	}
	return nil
}

// Flush - commit any pending writes
func (c *Copier) Flush() error {
	if nil == c.trx {
		return nil
	}
	trx := c.trx
	c.trx = nil
	c.pending = 0
	return trx.Commit()
}

// Abort - discard pending writes
func (c *Copier) Abort() {
	if nil == c.trx {
		return
	}
	c.trx.Abort()
	c.trx = nil
	c.pending = 0
}

// Records - number of records written
func (c *Copier) Records() uint64 {
	return c.records
}

// Bytes - total key and value bytes written
func (c *Copier) Bytes() uint64 {
	return c.bytes
}

// CopyTable - copy the records of one table that pass the filter
//
// a nil filter copies everything, returns the number of records copied
func CopyTable(src Transaction, dst *Copier, pool *PoolHandle, filter func(key []byte, value []byte) bool) (uint64, error) {
	err := dst.CreateTable(pool)
	if nil != err {
		return 0, err
	}

	cursor, err := src.NewFetchCursor(pool)
	if nil != err {
		return 0, err
	}

	n := uint64(0)
	err = cursor.Map(func(key []byte, value []byte) error {
		if nil != filter && !filter(key, value) {
			return nil
		}
		n += 1
		return dst.Put(pool, key, value)
	})
	if nil != err {
		return n, err
	}

	dst.log.Debugf("%s: copied: %d", pool, n)
	return n, nil
}
