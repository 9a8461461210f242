// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

// PoolHandle - a named table
type PoolHandle struct {
	name string
	key  []byte
}

// Element - a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

// NewPoolHandle - handle for any table, known or not
func NewPoolHandle(name string) *PoolHandle {
	return &PoolHandle{
		name: name,
		key:  []byte(name),
	}
}

// Name - the table name
func (p *PoolHandle) Name() string {
	return p.name
}

// String - for logging
func (p *PoolHandle) String() string {
	return p.name
}
