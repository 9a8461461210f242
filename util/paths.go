// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"os"
	"path/filepath"
)

// EnsureAbsolute - ensure the path is absolute
// if not, prepend the directory to make absolute path
func EnsureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}

// EnsureFileExists - check if file exists
func EnsureFileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}

// FileSize - size of a file in bytes, zero if it does not exist
func FileSize(name string) int64 {
	info, err := os.Stat(name)
	if nil != err {
		return 0
	}
	return info.Size()
}

// SyncDirectory - flush a directory entry so that a rename is durable
func SyncDirectory(directory string) error {
	d, err := os.Open(directory)
	if nil != err {
		return err
	}
	defer d.Close()
	return d.Sync()
}
