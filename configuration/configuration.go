// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/storage"
	"github.com/bitmark-inc/dbutils/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "."
	defaultDatabaseDir   = "data"

	defaultLockTimeout = 100 // milliseconds

	defaultLogDirectory = "log"
	defaultLogFile      = "dbutils.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// DatabaseType - location of the store
type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
}

// Configuration - settings shared by all commands
type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory" json:"data_directory"`
	Database      DatabaseType         `gluamapper:"database" json:"database"`
	Capacity      int64                `gluamapper:"capacity" json:"capacity"`
	LockTimeout   int                  `gluamapper:"lock_timeout" json:"lock_timeout"`
	Logging       logger.Configuration `gluamapper:"logging" json:"logging"`
}

// Default - configuration used when no file is given, relative to
// the current directory
func Default() *Configuration {
	return &Configuration{
		DataDirectory: defaultDataDirectory,
		Database: DatabaseType{
			Directory: defaultDatabaseDir,
			Name:      storage.DataFileName,
		},
		Capacity:    storage.DefaultCapacity,
		LockTimeout: defaultLockTimeout,
		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Console:   false,
			Levels: map[string]string{
				logger.DefaultTag: "info",
			},
		},
	}
}

// GetConfiguration - read decode and verify the configuration
func GetConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := Default()

	if err := ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("%w: %q", fault.ErrInvalidDataDirectory, options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	return options, options.Validate()
}

// Validate - check values and make all paths absolute
func (options *Configuration) Validate() error {
	if !filepath.IsAbs(options.DataDirectory) {
		d, err := filepath.Abs(options.DataDirectory)
		if nil != err {
			return err
		}
		options.DataDirectory = d
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return err
	} else if !fileInfo.IsDir() {
		return fmt.Errorf("%w: %q", fault.ErrInvalidDataDirectory, options.DataDirectory)
	}

	if options.Capacity < 0 {
		return fmt.Errorf("%w: capacity: %d", fault.ErrInvalidCount, options.Capacity)
	}
	if options.LockTimeout <= 0 {
		options.LockTimeout = defaultLockTimeout
	}
	if "" == options.Database.Name {
		options.Database.Name = storage.DataFileName
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	options.Database.Directory = util.EnsureAbsolute(options.DataDirectory, options.Database.Directory)
	options.Logging.Directory = util.EnsureAbsolute(options.DataDirectory, options.Logging.Directory)

	return nil
}

// DatabasePath - full name of the data file
func (options *Configuration) DatabasePath() string {
	return filepath.Join(options.Database.Directory, options.Database.Name)
}

// Timeout - store lock timeout
func (options *Configuration) Timeout() time.Duration {
	return time.Duration(options.LockTimeout) * time.Millisecond
}
