// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"syscall"

	bolt "go.etcd.io/bbolt"

	"github.com/bitmark-inc/dbutils/fault"
)

// Transaction - a consistent view of the store
//
// a transaction must only be used from a single goroutine
type Transaction interface {
	Writable() bool
	Tables() ([]string, error)
	Get(*PoolHandle, []byte) ([]byte, error)
	Has(*PoolHandle, []byte) (bool, error)
	Put(*PoolHandle, []byte, []byte) error
	Delete(*PoolHandle, []byte) error
	Count(*PoolHandle) (int, error)
	CreateTable(*PoolHandle) error
	NewFetchCursor(*PoolHandle) (*FetchCursor, error)
	Size() int64
	WriteTo(io.Writer) (int64, error)
	Commit() error
	Abort()
}

// space for one element header in a leaf page
const elementOverhead = 16

type transaction struct {
	handle *Handle
	tx     *bolt.Tx
	closed bool
	growth int64 // upper estimate of bytes added by Put
}

// Begin - start a transaction
func (h *Handle) Begin(writable bool) (Transaction, error) {
	if writable && h.options.ReadOnly {
		return nil, fault.ErrWriteInReadOnlyDatabase
	}
	tx, err := h.db.Begin(writable)
	if nil != err {
		return nil, err
	}
	return &transaction{
		handle: h,
		tx:     tx,
	}, nil
}

// View - run a function in a read transaction
func (h *Handle) View(f func(Transaction) error) error {
	trx, err := h.Begin(false)
	if nil != err {
		return err
	}
	defer trx.Abort()
	return f(trx)
}

// Update - run a function in a write transaction, commit only if it succeeds
func (h *Handle) Update(f func(Transaction) error) error {
	trx, err := h.Begin(true)
	if nil != err {
		return err
	}
	err = f(trx)
	if nil != err {
		trx.Abort()
		return err
	}
	return trx.Commit()
}

func (t *transaction) Writable() bool {
	return t.tx.Writable()
}

func (t *transaction) bucket(pool *PoolHandle) (*bolt.Bucket, error) {
	if t.closed {
		return nil, fault.ErrTransactionClosed
	}
	b := t.tx.Bucket(pool.key)
	if nil == b {
		return nil, fmt.Errorf("%w: %q", fault.ErrTableMissing, pool.name)
	}
	if t.tx.Writable() {
		b.FillPercent = t.handle.options.FillPercent
	}
	return b, nil
}

// Tables - names of all tables in key order
func (t *transaction) Tables() ([]string, error) {
	if t.closed {
		return nil, fault.ErrTransactionClosed
	}
	names := []string{}
	err := t.tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
		names = append(names, string(name))
		return nil
	})
	return names, err
}

// Get - copy of the value for a key
//
// a missing key gives a NotFound class error
func (t *transaction) Get(pool *PoolHandle, key []byte) ([]byte, error) {
	b, err := t.bucket(pool)
	if nil != err {
		return nil, err
	}

	// a cursor distinguishes an empty value from a missing key
	k, v := b.Cursor().Seek(key)
	if nil == k || !bytes.Equal(k, key) {
		return nil, fmt.Errorf("%w: %s: %x", fault.ErrKeyNotFound, pool.name, key)
	}
	value := make([]byte, len(v))
	copy(value, v)
	return value, nil
}

// Has - check if a key exists
func (t *transaction) Has(pool *PoolHandle, key []byte) (bool, error) {
	b, err := t.bucket(pool)
	if nil != err {
		return false, err
	}
	k, _ := b.Cursor().Seek(key)
	return nil != k && bytes.Equal(k, key), nil
}

// Put - store a copy of a key/value pair
func (t *transaction) Put(pool *PoolHandle, key []byte, value []byte) error {
	if !t.closed && !t.tx.Writable() {
		return fault.ErrReadOnlyTransaction
	}
	b, err := t.bucket(pool)
	if nil != err {
		return err
	}
	// the engine keeps references to both slices until commit
	err = b.Put(append([]byte{}, key...), append([]byte{}, value...))
	if nil == err {
		t.growth += int64(len(key) + len(value) + elementOverhead)
	}
	return err
}

// Delete - remove a key, deleting a missing key is not an error
func (t *transaction) Delete(pool *PoolHandle, key []byte) error {
	if !t.closed && !t.tx.Writable() {
		return fault.ErrReadOnlyTransaction
	}
	b, err := t.bucket(pool)
	if nil != err {
		return err
	}
	return b.Delete(key)
}

// Count - number of keys in a table
func (t *transaction) Count(pool *PoolHandle) (int, error) {
	b, err := t.bucket(pool)
	if nil != err {
		return 0, err
	}
	return b.Stats().KeyN, nil
}

// CreateTable - make the table if it does not exist
func (t *transaction) CreateTable(pool *PoolHandle) error {
	if t.closed {
		return fault.ErrTransactionClosed
	}
	if !t.tx.Writable() {
		return fault.ErrReadOnlyTransaction
	}
	_, err := t.tx.CreateBucketIfNotExists(pool.key)
	return err
}

// Size - store size in bytes as seen by this transaction
func (t *transaction) Size() int64 {
	return t.tx.Size()
}

// WriteTo - write a consistent copy of the whole store, Size() bytes
func (t *transaction) WriteTo(w io.Writer) (int64, error) {
	if t.closed {
		return 0, fault.ErrTransactionClosed
	}
	return t.tx.WriteTo(w)
}

// Commit - make writes durable
//
// a read transaction is simply released
func (t *transaction) Commit() error {
	if t.closed {
		return fault.ErrTransactionClosed
	}
	t.closed = true

	if !t.tx.Writable() {
		return t.tx.Rollback()
	}

	// pages are only allocated during commit so the size after
	// commit is estimated from the data written
	capacity := t.handle.options.Capacity
	estimate := t.tx.Size() + t.growth
	if capacity > 0 && estimate > capacity {
		t.handle.log.Errorf("commit size: %d exceeds capacity: %d", estimate, capacity)
		_ = t.tx.Rollback()
		return fmt.Errorf("%w: size: %d  capacity: %d", fault.ErrCapacityExceeded, estimate, capacity)
	}

	err := t.tx.Commit()
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %v", fault.ErrDiskFull, err)
	}
	return err
}

// Abort - discard all writes, no effect after Commit
func (t *transaction) Abort() {
	if t.closed {
		return
	}
	t.closed = true
	_ = t.tx.Rollback()
}
