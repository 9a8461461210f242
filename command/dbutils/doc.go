// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// dbutils - offline maintenance of a node store
//
// The node must be stopped before running any command that writes to
// the store; the store lock makes such a command fail at once if the
// node is still running.
//
// Commands:
//
//   check          decode every record and report corruption
//   compact-trie   drop trie nodes that no block refers to
//   unsparsify     rewrite the store without free pages
//   remove-block   delete a block with its body and execution results
//   archive        create or unpack a compressed archive of a store
//   version        show the program version
//
// A non-zero exit status indicates corruption, a missing block or an
// error.
package main
