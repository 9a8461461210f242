// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package removeblock deletes one block and everything that only
// exists because of it.
//
// In one write transaction:
//
//   1. the header is read, a missing header aborts with nothing changed
//   2. for every deploy of the block body the block's execution result
//      is removed from the deploy metadata, a metadata record left
//      empty is deleted
//   3. the body is deleted unless another header refers to it
//   4. the header is deleted
//
// Either all of these changes are committed or none of them.
package removeblock
