// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package integrity

import (
	"fmt"

	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/record"
	"github.com/bitmark-inc/dbutils/storage"
	"github.com/bitmark-inc/dbutils/trie"
)

// decoder - validate one record of a table
type decoder func(key []byte, value []byte) error

// schema of every known table
var decoders = map[*storage.PoolHandle]decoder{
	storage.Pool.BlockHeader: func(key []byte, value []byte) error {
		_, err := record.UnpackHeader(value)
		return err
	},
	storage.Pool.BlockBody: func(key []byte, value []byte) error {
		_, err := record.UnpackBody(value)
		return err
	},
	storage.Pool.DeployMetadata: func(key []byte, value []byte) error {
		_, err := record.UnpackDeployMetadata(value)
		return err
	},
	storage.Pool.Trie: func(key []byte, value []byte) error {
		_, err := trie.UnpackVerified(key, value)
		return err
	},
}

// all keys are digests
func decode(d decoder, key []byte, value []byte) error {
	if digest.Length != len(key) {
		return fmt.Errorf("%w: key length: %d", fault.ErrInvalidDigestLength, len(key))
	}
	return d(key, value)
}
