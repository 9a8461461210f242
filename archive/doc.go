// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package archive moves store directories in and out of compressed
// tar archives.
//
// Unpacking streams from a URL or a local file through the
// decompressor (zstd or xz, detected from the data) straight into the
// tar reader so the archive is never held in memory or written to
// disk.  Creating an archive writes tar + zstd, taking the data file
// from a read transaction so that a consistent copy is archived.
package archive
