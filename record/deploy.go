// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"sort"

	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/util"
)

// maximum bytes in one execution result
const maximumExecutionResultSize = 1 << 30

// DeployMetadata - execution results of one deploy keyed by the
// hash of each block that included it
type DeployMetadata struct {
	ExecutionResults map[digest.Digest][]byte `json:"executionResults"`
}

// UnpackDeployMetadata - turn a byte slice into deploy metadata
func UnpackDeployMetadata(data []byte) (*DeployMetadata, error) {
	count, n := util.FromVarint64(data)
	if 0 == n {
		return nil, fault.ErrVarintTruncated
	}
	if 0 == count {
		return nil, fault.ErrEmptyDeployMetadata
	}
	data = data[n:]

	// each entry is at least a hash and a one byte length
	if count > uint64(len(data))/(digest.Length+1) {
		return nil, fault.ErrRecordLength
	}

	metadata := &DeployMetadata{
		ExecutionResults: make(map[digest.Digest][]byte, count),
	}

	previous := digest.Digest{}
	for i := uint64(0); i < count; i += 1 {
		if len(data) < digest.Length {
			return nil, fault.ErrRecordLength
		}
		var blockHash digest.Digest
		copy(blockHash[:], data)
		data = data[digest.Length:]

		if i > 0 && previous.Compare(blockHash) >= 0 {
			return nil, fault.ErrRecordOrder
		}
		previous = blockHash

		length, n := util.FromVarint64(data)
		if 0 == n {
			return nil, fault.ErrVarintTruncated
		}
		data = data[n:]
		if length > maximumExecutionResultSize || uint64(len(data)) < length {
			return nil, fault.ErrRecordLength
		}

		result := make([]byte, length)
		copy(result, data)
		data = data[length:]

		metadata.ExecutionResults[blockHash] = result
	}

	if 0 != len(data) {
		return nil, fault.ErrRecordLength
	}
	return metadata, nil
}

// BlockHashes - the blocks with an execution result in ascending order
func (metadata *DeployMetadata) BlockHashes() []digest.Digest {
	hashes := make([]digest.Digest, 0, len(metadata.ExecutionResults))
	for h := range metadata.ExecutionResults {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i].Compare(hashes[j]) < 0
	})
	return hashes
}

// Remove - drop the execution result for one block
//
// returns false if there was no result for the block
func (metadata *DeployMetadata) Remove(blockHash digest.Digest) bool {
	if _, ok := metadata.ExecutionResults[blockHash]; !ok {
		return false
	}
	delete(metadata.ExecutionResults, blockHash)
	return true
}

// IsEmpty - an empty map must never be stored
func (metadata *DeployMetadata) IsEmpty() bool {
	return 0 == len(metadata.ExecutionResults)
}

// Pack - turn deploy metadata into an array of bytes
func (metadata *DeployMetadata) Pack() []byte {
	buffer := util.ToVarint64(uint64(len(metadata.ExecutionResults)))
	for _, h := range metadata.BlockHashes() {
		result := metadata.ExecutionResults[h]
		buffer = append(buffer, h[:]...)
		buffer = util.AppendVarint64(buffer, uint64(len(result)))
		buffer = append(buffer, result...)
	}
	return buffer
}
