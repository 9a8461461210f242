// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package triecompact removes trie nodes that no block refers to.
//
// The state roots of all block headers are the starting points of a
// traversal of the trie; every node reached is retained and all other
// nodes are dropped.  The result is written to a new store which then
// replaces the original, so an interrupted run leaves the original
// store unchanged.
package triecompact
