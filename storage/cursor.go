// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/bitmark-inc/dbutils/fault"
)

// FetchCursor - cursor structure
type FetchCursor struct {
	trx   *transaction
	pool  *PoolHandle
	start []byte
}

// NewFetchCursor - initialise a cursor to the start of a table
func (t *transaction) NewFetchCursor(pool *PoolHandle) (*FetchCursor, error) {
	if _, err := t.bucket(pool); nil != err {
		return nil, err
	}
	return &FetchCursor{
		trx:  t,
		pool: pool,
	}, nil
}

// Seek - move cursor to specific key position
func (cursor *FetchCursor) Seek(key []byte) *FetchCursor {
	cursor.start = append([]byte{}, key...)
	return cursor
}

// Fetch - return some elements starting from the cursor position
// and advance past them
func (cursor *FetchCursor) Fetch(count int) ([]Element, error) {
	if nil == cursor {
		return nil, fault.ErrInvalidCursor
	}
	if count <= 0 {
		return nil, fault.ErrInvalidCount
	}

	b, err := cursor.trx.bucket(cursor.pool)
	if nil != err {
		return nil, err
	}

	results := make([]Element, 0, count)
	c := b.Cursor()
	k, v := cursor.first(c.First, c.Seek)
	for ; nil != k && len(results) < count; k, v = c.Next() {
		results = append(results, Element{
			Key:   append([]byte{}, k...),
			Value: append([]byte{}, v...),
		})
	}

	if n := len(results); n > 0 {
		// the smallest key greater than the last one returned
		cursor.start = append(append([]byte{}, results[n-1].Key...), 0)
	}
	return results, nil
}

// Map - run a function on all elements from the cursor position
//
// the function gets copies of the data and must not write to the
// same table, iteration stops at the first error
func (cursor *FetchCursor) Map(f func(key []byte, value []byte) error) error {
	if nil == cursor {
		return fault.ErrInvalidCursor
	}

	b, err := cursor.trx.bucket(cursor.pool)
	if nil != err {
		return err
	}

	c := b.Cursor()
	for k, v := cursor.first(c.First, c.Seek); nil != k; k, v = c.Next() {
		err := f(append([]byte{}, k...), append([]byte{}, v...))
		if nil != err {
			return err
		}
	}
	return nil
}

func (cursor *FetchCursor) first(first func() ([]byte, []byte), seek func([]byte) ([]byte, []byte)) ([]byte, []byte) {
	if nil == cursor.start {
		return first()
	}
	return seek(cursor.start)
}
