// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"
	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/disk"

	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/util"
)

// temporary stores are named <data file><rebuildSuffix><pid>
const rebuildSuffix = ".rebuild-"

// BuildFunc - fill a new store from a read transaction on the old one
//
// every table of the source already exists in the destination
type BuildFunc func(src Transaction, dst *Copier) error

// Rebuild - outcome of RebuildAndReplace
type Rebuild struct {
	Tables     []string `json:"tables"`
	Records    uint64   `json:"records"`
	SizeBefore int64    `json:"sizeBefore"`
	SizeAfter  int64    `json:"sizeAfter"`
}

// RebuildAndReplace - build a new store from an existing one and
// atomically rename it over the original
//
// the original holds the writer lock for the whole process so no other
// writer can change it; on any failure the temporary files are removed
// and the original is untouched
func RebuildAndReplace(path string, options Options, build BuildFunc) (*Rebuild, error) {
	log := logger.New("rebuild")

	options.ReadOnly = false
	options.Create = false
	src, err := Open(path, options)
	if nil != err {
		return nil, err
	}
	defer src.Close()

	removeStale(path, log)

	sizeBefore := src.Size()
	err = checkFreeSpace(path, sizeBefore, log)
	if nil != err {
		return nil, err
	}

	tables, err := src.Tables()
	if nil != err {
		return nil, err
	}

	tempPath := fmt.Sprintf("%s%s%d", path, rebuildSuffix, os.Getpid())
	dst, err := Open(tempPath, Options{
		Create:      true,
		Capacity:    options.Capacity,
		Timeout:     options.Timeout,
		FillPercent: 1.0,
	})
	if nil != err {
		return nil, err
	}

	ok := false
	defer func() {
		if !ok {
			dst.Close()
			removeTemporary(tempPath, log)
		}
	}()

	srcTrx, err := src.Begin(false)
	if nil != err {
		return nil, err
	}
	defer srcTrx.Abort()

	copier := NewCopier(dst, DefaultBatchSize)
	for _, name := range tables {
		err := copier.CreateTable(NewPoolHandle(name))
		if nil != err {
			copier.Abort()
			return nil, err
		}
	}

	log.Infof("rebuild: %q  tables: %v  size: %s", path, tables, humanize.Bytes(uint64(sizeBefore)))

	err = build(srcTrx, copier)
	if nil == err {
		err = copier.Flush()
	}
	if nil != err {
		copier.Abort()
		log.Errorf("rebuild: %q  error: %s", path, err)
		return nil, err
	}
	srcTrx.Abort()

	err = dst.db.Sync()
	if nil == err {
		err = dst.Close()
	}
	if nil != err {
		return nil, err
	}

	// the source engine must be closed before the rename, its lock
	// file stays held until after the new file is in place
	err = src.db.Close()
	src.db = nil
	if nil != err {
		return nil, err
	}

	err = os.Rename(tempPath, path)
	if nil != err {
		return nil, fmt.Errorf("%w: rename: %v", fault.ErrWriteBuildFailed, err)
	}
	ok = true
	_ = os.Remove(tempPath + LockSuffix)

	err = util.SyncDirectory(filepath.Dir(path))
	if nil != err {
		log.Warnf("sync directory: %q  error: %s", filepath.Dir(path), err)
	}

	result := &Rebuild{
		Tables:     tables,
		Records:    copier.Records(),
		SizeBefore: sizeBefore,
		SizeAfter:  util.FileSize(path),
	}
	log.Infof("replaced: %q  size: %s -> %s", path, humanize.Bytes(uint64(result.SizeBefore)), humanize.Bytes(uint64(result.SizeAfter)))

	return result, nil
}

// the filesystem must be able to hold a second copy of the store
func checkFreeSpace(path string, required int64, log *logger.L) error {
	usage, err := disk.Usage(filepath.Dir(path))
	if nil != err {
		log.Warnf("free space check: %q  error: %s", path, err)
		return nil
	}
	if usage.Free < uint64(required) {
		log.Errorf("free space: %s  required: %s", humanize.Bytes(usage.Free), humanize.Bytes(uint64(required)))
		return fmt.Errorf("%w: free: %d  required: %d", fault.ErrInsufficientDiskSpace, usage.Free, required)
	}
	return nil
}

// leftovers from an interrupted rebuild
func removeStale(path string, log *logger.L) {
	matches, err := filepath.Glob(path + rebuildSuffix + "*")
	if nil != err {
		return
	}
	for _, name := range matches {
		log.Warnf("remove stale rebuild file: %q", name)
		_ = os.Remove(name)
	}
}

func removeTemporary(tempPath string, log *logger.L) {
	for _, name := range []string{tempPath, tempPath + LockSuffix} {
		err := os.Remove(name)
		if nil != err && !os.IsNotExist(err) {
			log.Warnf("remove: %q  error: %s", name, err)
		}
	}
}
