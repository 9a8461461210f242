// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package integrity verifies that every record of a store decodes
// according to the schema of its table.
//
// The store is opened read-only and all tables are scanned inside a
// single read transaction.  Records are decoded by a pool of workers,
// failures are collected and the scan always runs to the end.
package integrity
