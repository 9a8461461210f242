// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build windows

package storage

import (
	"fmt"
	"os"

	"github.com/bitmark-inc/dbutils/fault"
)

type lockFile struct {
	file *os.File
}

// the data file itself is locked by the engine on this platform
func acquireLock(name string) (*lockFile, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0600)
	if nil != err {
		return nil, fmt.Errorf("%w: lock file: %q: %v", fault.ErrOpenFailed, name, err)
	}
	return &lockFile{file: f}, nil
}

func (l *lockFile) release() {
	l.file.Close()
}
