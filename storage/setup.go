// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/bitmark-inc/logger"
	bolt "go.etcd.io/bbolt"

	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/util"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	BlockHeader    *PoolHandle `table:"block_header"`
	BlockBody      *PoolHandle `table:"block_body"`
	DeployMetadata *PoolHandle `table:"deploy_metadata"`
	Trie           *PoolHandle `table:"trie"`
}

// Pool - the set of exported pools
var Pool pools

// known tables in declaration order
var knownPools []*PoolHandle

// DataFileName - default name of the data file inside a node's storage directory
const DataFileName = "storage.db"

// LockSuffix - appended to the data file name to give the lock file
const LockSuffix = "-lock"

// defaults
const (
	DefaultCapacity    = 1 << 40 // 1 TiB
	DefaultLockTimeout = 100 * time.Millisecond
)

// Options - how to open a store
type Options struct {
	ReadOnly bool          // no write transactions, no lock file
	Create   bool          // create the data file if missing (read-write only)
	Capacity int64         // maximum size in bytes, zero => unlimited
	Timeout  time.Duration // wait for the data file lock, zero => DefaultLockTimeout

	// page fill factor for writes, zero => engine default; use 1.0
	// when keys are written in ascending order
	FillPercent float64
}

// Handle - an open store
type Handle struct {
	db      *bolt.DB
	path    string
	options Options
	lock    *lockFile
	log     *logger.L
}

func init() {
	// this will be a struct type
	poolType := reflect.TypeOf(Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&Pool).Elem()

	// scan each field
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		tableTag := fieldInfo.Tag.Get("table")
		if "" == tableTag {
			panic(fmt.Sprintf("pool: %v has no table name", fieldInfo))
		}

		p := NewPoolHandle(tableTag)
		poolValue.Field(i).Set(reflect.ValueOf(p))
		knownPools = append(knownPools, p)
	}
}

// KnownPools - all tables written by the node in declaration order
func KnownPools() []*PoolHandle {
	return append([]*PoolHandle{}, knownPools...)
}

// PoolNamed - the known pool for a table name
func PoolNamed(name string) (*PoolHandle, error) {
	for _, p := range knownPools {
		if name == p.name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", fault.ErrUnknownTable, name)
}

// Open - open up a store
func Open(path string, options Options) (*Handle, error) {
	if 0 == options.Timeout {
		options.Timeout = DefaultLockTimeout
	}
	if options.FillPercent <= 0 || options.FillPercent > 1.0 {
		options.FillPercent = bolt.DefaultFillPercent
	}

	log := logger.New("storage")

	if !util.EnsureFileExists(path) && (options.ReadOnly || !options.Create) {
		return nil, fmt.Errorf("%w: %q", fault.ErrDatabaseMissing, path)
	}

	h := &Handle{
		path:    path,
		options: options,
		log:     log,
	}

	ok := false
	defer func() {
		if !ok {
			h.Close()
		}
	}()

	if !options.ReadOnly {
		lock, err := acquireLock(path + LockSuffix)
		if nil != err {
			return nil, err
		}
		h.lock = lock
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:  options.Timeout,
		ReadOnly: options.ReadOnly,
	})
	if nil != err {
		return nil, openError(path, err)
	}
	h.db = db

	// capacity is compared with the used size of the store, the file
	// itself may be larger as the engine grows it in steps
	if !options.ReadOnly && options.Capacity > 0 {
		size := h.DataSize()
		if size > options.Capacity {
			log.Errorf("store: %q size: %d exceeds capacity: %d", path, size, options.Capacity)
			return nil, fmt.Errorf("%w: size: %d  capacity: %d", fault.ErrCapacityTooSmall, size, options.Capacity)
		}
	}

	log.Debugf("opened: %q  read only: %t", path, options.ReadOnly)

	ok = true
	return h, nil
}

// convert engine open errors to the OpenError class
func openError(path string, err error) error {
	switch {
	case errors.Is(err, bolt.ErrTimeout):
		return fmt.Errorf("%w: %q", fault.ErrDatabaseLocked, path)
	case errors.Is(err, bolt.ErrInvalid), errors.Is(err, bolt.ErrVersionMismatch), errors.Is(err, bolt.ErrChecksum):
		return fmt.Errorf("%w: %q: %v", fault.ErrDatabaseNotStore, path, err)
	default:
		return fmt.Errorf("%w: %q: %v", fault.ErrOpenFailed, path, err)
	}
}

// Table - handle for a table that is present in the store
func (h *Handle) Table(name string) (*PoolHandle, error) {
	p := NewPoolHandle(name)
	err := h.db.View(func(tx *bolt.Tx) error {
		if nil == tx.Bucket(p.key) {
			return fmt.Errorf("%w: %q", fault.ErrTableMissing, name)
		}
		return nil
	})
	if nil != err {
		return nil, err
	}
	return p, nil
}

// Close - close the store and release the lock file
func (h *Handle) Close() error {
	var err error
	if nil != h.db {
		err = h.db.Close()
		h.db = nil
	}
	if nil != h.lock {
		h.lock.release()
		h.lock = nil
	}
	return err
}

// Path - data file name
func (h *Handle) Path() string {
	return h.path
}

// Size - current size of the data file in bytes
func (h *Handle) Size() int64 {
	return util.FileSize(h.path)
}

// DataSize - used size of the store in bytes
func (h *Handle) DataSize() int64 {
	size := int64(0)
	_ = h.db.View(func(tx *bolt.Tx) error {
		size = tx.Size()
		return nil
	})
	return size
}

// Tables - names of all tables present in the store, sorted
func (h *Handle) Tables() ([]string, error) {
	trx, err := h.Begin(false)
	if nil != err {
		return nil, err
	}
	defer trx.Abort()
	return trx.Tables()
}

// CreateTables - ensure the tables exist, used when building a new store
func (h *Handle) CreateTables(pools ...*PoolHandle) error {
	trx, err := h.Begin(true)
	if nil != err {
		return err
	}
	defer trx.Abort()

	for _, p := range pools {
		if err := trx.CreateTable(p); nil != err {
			return err
		}
	}
	return trx.Commit()
}

// Create - make a new empty store with the given tables
func Create(path string, options Options, pools ...*PoolHandle) (*Handle, error) {
	if util.EnsureFileExists(path) {
		return nil, fmt.Errorf("%w: %q", fault.ErrDatabaseExists, path)
	}
	options.ReadOnly = false
	options.Create = true
	h, err := Open(path, options)
	if nil != err {
		return nil, err
	}
	if err := h.CreateTables(pools...); nil != err {
		h.Close()
		return nil, err
	}
	return h, nil
}
