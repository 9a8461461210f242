// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared test setup: a throwaway logger and
// builders for small stores holding valid or deliberately broken
// records
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"
)

// LogCategory - log file name used by every package test
const LogCategory = "dbutils-test"

// log files live below the package directory of the running test
var logDirectory = filepath.Join("testing", "log")

// SetupTestLogger - start a logger that only records critical
// messages so tests exercise the logging calls without noise
func SetupTestLogger() {
	removeLogFiles()
	if err := os.MkdirAll(logDirectory, 0o700); nil != err {
		fmt.Printf("create log directory: %q  error: %s\n", logDirectory, err)
	}

	_ = logger.Initialise(logger.Configuration{
		Directory: logDirectory,
		File:      LogCategory + ".log",
		Size:      1 << 20,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
			"check":           "critical",
			"compact":         "critical",
			"remove":          "critical",
			"archive":         "critical",
		},
	})
}

// TeardownTestLogger - stop the logger and remove its files
func TeardownTestLogger() {
	logger.Finalise()
	removeLogFiles()
}

func removeLogFiles() {
	if err := os.RemoveAll(filepath.Dir(logDirectory)); nil != err {
		fmt.Printf("remove log directory: %q  error: %s\n", logDirectory, err)
	}
}
