// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package record - packed forms of the block tables
//
// Layouts (all integers little endian, varint = unsigned LEB128):
//
//   block_header     key: block hash
//                    data: version(2) ++ parent hash ++ state root hash ++ body hash
//                          ++ height(8) ++ era id(8) ++ timestamp ms(8)
//
//   block_body       key: body hash
//                    data: count(varint) ++ [ deploy hash ]
//
//   deploy_metadata  key: deploy hash
//                    data: count(varint) ++ [ block hash ++ length(varint) ++ execution result ]
//                    block hashes strictly ascending, count > 0
package record
