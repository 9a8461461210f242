// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// maintain the on-disk node store
//
// The store is a single memory mapped bbolt file with a companion
// lock file (<data file>-lock).  Each table is a bucket whose name is
// obtained from the table tag in the struct defining the available
// tables.
//
// Notes:
// 1. digest       = BLAKE2b-256 (32 bytes)
// 2. block hash   = digest of the packed header
// 3. state root   = digest of the top trie node of one state version
// 4. *others*     = byte values of various length, see the record and
//                   trie packages
//
// Tables:
//
//   block_header    block hash          - packed block header
//   block_body      body hash           - ordered deploy hashes
//   deploy_metadata deploy hash         - execution results per block hash
//   trie            node digest         - packed trie node
//
// Concurrency:
//
// single writer, multiple readers.  A read-write open takes an
// exclusive lock on the lock file and fails at once if another writer
// holds it.  All access is through a Transaction; writes are only
// visible after Commit and are discarded by Abort.
//
// Capacity:
//
// every open declares the maximum size of the store; a read-write open
// of a larger store fails and a commit that would grow the store
// beyond it is rolled back.
package storage
