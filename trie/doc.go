// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package trie - content addressed global state trie nodes
//
// Every node is stored under the BLAKE2b-256 digest of its packed
// bytes, so identical sub-trees of different state versions share the
// same records.
//
//   Leaf       0x00 ++ key length(varint) ++ key ++ value length(varint) ++ value
//   Branch     0x01 ++ count(varint) ++ [ index(1) ++ child digest ]   (index ascending)
//   Extension  0x02 ++ affix length(varint) ++ affix ++ child digest
package trie
