// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/util"
)

// Body - ordered deploys included in a block
type Body struct {
	DeployHashes []digest.Digest `json:"deployHashes"`
}

// UnpackBody - turn a byte slice into a body
//
// the whole buffer must be consumed
func UnpackBody(data []byte) (*Body, error) {
	count, n := util.FromVarint64(data)
	if 0 == n {
		return nil, fault.ErrVarintTruncated
	}
	data = data[n:]

	if uint64(len(data)) != count*digest.Length || uint64(len(data))/digest.Length != count {
		return nil, fault.ErrRecordLength
	}

	body := &Body{
		DeployHashes: make([]digest.Digest, count),
	}
	for i := range body.DeployHashes {
		copy(body.DeployHashes[i][:], data[i*digest.Length:])
	}
	return body, nil
}

// Pack - turn a body into an array of bytes
func (body *Body) Pack() []byte {
	buffer := util.ToVarint64(uint64(len(body.DeployHashes)))
	for _, d := range body.DeployHashes {
		buffer = append(buffer, d[:]...)
	}
	return buffer
}

// Digest - the body hash
func (body *Body) Digest() digest.Digest {
	return digest.NewDigest(body.Pack())
}
