// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build !windows

package storage

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/bitmark-inc/dbutils/fault"
)

type lockFile struct {
	file *os.File
}

// take an exclusive lock without waiting
func acquireLock(name string) (*lockFile, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0600)
	if nil != err {
		return nil, fmt.Errorf("%w: lock file: %q: %v", fault.ErrOpenFailed, name, err)
	}

	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if nil != err {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %q", fault.ErrDatabaseLocked, name)
		}
		return nil, fmt.Errorf("%w: lock file: %q: %v", fault.ErrOpenFailed, name, err)
	}
	return &lockFile{file: f}, nil
}

func (l *lockFile) release() {
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	l.file.Close()
}
