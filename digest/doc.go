// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package digest - fixed width content hash
//
// All hashes stored in the node database (block hashes, body hashes,
// deploy hashes, state roots and trie node keys) are 32 byte
// BLAKE2b-256 digests.  Unlike the block chain digests these are kept
// and printed in natural byte order.
package digest
