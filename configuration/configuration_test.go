// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/dbutils/configuration"
	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/storage"
)

const testConfiguration = `
local M = {}

M.data_directory = "."

M.database = {
    directory = "node-data",
}

M.capacity = 4 * 1024 * 1024 * 1024
M.lock_timeout = 250

M.logging = {
    directory = "log",
    file = "maintenance.log",
    size = 65536,
    count = 3,
    console = false,
    levels = {
        DEFAULT = "warn",
        check = "debug",
    },
}

return M
`

func writeConfiguration(t *testing.T, text string) string {
	fileName := filepath.Join(t.TempDir(), "dbutils.conf")
	require.Nil(t, os.WriteFile(fileName, []byte(text), 0600), "write configuration")
	return fileName
}

func TestGetConfiguration(t *testing.T) {
	fileName := writeConfiguration(t, testConfiguration)
	directory := filepath.Dir(fileName)

	options, err := configuration.GetConfiguration(fileName)
	require.Nil(t, err, "get configuration")

	assert.Equal(t, directory, filepath.Clean(options.DataDirectory), "data directory")
	assert.Equal(t, filepath.Join(directory, "node-data"), options.Database.Directory, "database directory")
	assert.Equal(t, storage.DataFileName, options.Database.Name, "default database name")
	assert.Equal(t, filepath.Join(directory, "node-data", storage.DataFileName), options.DatabasePath(), "database path")
	assert.Equal(t, int64(4*1024*1024*1024), options.Capacity, "capacity")
	assert.Equal(t, 250*time.Millisecond, options.Timeout(), "lock timeout")

	assert.Equal(t, filepath.Join(directory, "log"), options.Logging.Directory, "log directory")
	assert.Equal(t, "maintenance.log", options.Logging.File, "log file")
	assert.Equal(t, 65536, options.Logging.Size, "log size")
	assert.Equal(t, 3, options.Logging.Count, "log count")
	assert.Equal(t, "warn", options.Logging.Levels["DEFAULT"], "default level")
	assert.Equal(t, "debug", options.Logging.Levels["check"], "check level")
}

func TestDefault(t *testing.T) {
	options := configuration.Default()
	require.Nil(t, options.Validate(), "validate")

	cwd, err := os.Getwd()
	require.Nil(t, err, "getwd")

	assert.Equal(t, cwd, options.DataDirectory, "data directory")
	assert.Equal(t, filepath.Join(cwd, "data", storage.DataFileName), options.DatabasePath(), "database path")
	assert.Equal(t, int64(storage.DefaultCapacity), options.Capacity, "capacity")
	assert.Equal(t, storage.DefaultLockTimeout, options.Timeout(), "lock timeout")
}

func TestConfigurationErrors(t *testing.T) {
	_, err := configuration.GetConfiguration(writeConfiguration(t, "return 42"))
	assert.Equal(t, fault.ErrConfigurationNotTable, err, "not a table")

	_, err = configuration.GetConfiguration(writeConfiguration(t, "return {"))
	assert.NotNil(t, err, "syntax error")

	_, err = configuration.GetConfiguration(writeConfiguration(t, `return { data_directory = "" }`))
	assert.True(t, fault.IsErrInvalid(err), "empty data directory: %v", err)

	_, err = configuration.GetConfiguration(writeConfiguration(t, `return { data_directory = "/no/such/directory" }`))
	assert.True(t, os.IsNotExist(err), "missing data directory: %v", err)

	_, err = configuration.GetConfiguration(writeConfiguration(t, `return { capacity = -1 }`))
	assert.True(t, fault.IsErrInvalid(err), "negative capacity: %v", err)

	var notStruct int
	err = configuration.ParseConfigurationFile(writeConfiguration(t, "return {}"), &notStruct)
	assert.Equal(t, fault.ErrInvalidStructPointer, err, "not a struct")
}
