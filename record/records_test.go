// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/record"
)

func testDigest(b byte) digest.Digest {
	return digest.NewDigest([]byte{b})
}

func TestHeaderPackUnpack(t *testing.T) {
	header := &record.Header{
		Version:       record.HeaderVersion,
		ParentHash:    testDigest(1),
		StateRootHash: testDigest(2),
		BodyHash:      testDigest(3),
		Height:        12345,
		EraID:         17,
		Timestamp:     1600000000000,
	}

	packed := header.Pack()
	assert.Equal(t, record.HeaderSize, len(packed), "packed size")

	unpacked, err := record.UnpackHeader(packed[:])
	require.Nil(t, err, "unpack")
	assert.Equal(t, header, unpacked, "round trip")
	assert.Equal(t, digest.NewDigest(packed[:]), packed.Digest(), "block hash")
}

func TestHeaderInvalid(t *testing.T) {
	header := &record.Header{Version: record.HeaderVersion}
	packed := header.Pack()

	_, err := record.UnpackHeader(packed[:record.HeaderSize-1])
	assert.Equal(t, fault.ErrRecordLength, err, "short header")

	_, err = record.UnpackHeader(append(packed[:], 0))
	assert.Equal(t, fault.ErrRecordLength, err, "long header")

	header.Version = 7
	packed = header.Pack()
	_, err = record.UnpackHeader(packed[:])
	assert.Equal(t, fault.ErrHeaderVersion, err, "bad version")
	assert.True(t, fault.IsErrCorruption(err), "corruption class")
}

func TestBodyHashOf(t *testing.T) {
	header := &record.Header{Version: 7, BodyHash: testDigest(3)}
	packed := header.Pack()

	// the version is not checked
	bodyHash, err := record.BodyHashOf(packed[:])
	require.Nil(t, err, "body hash")
	assert.Equal(t, testDigest(3), bodyHash, "body hash")

	_, err = record.BodyHashOf(packed[:3])
	assert.Equal(t, fault.ErrRecordLength, err, "short header")
}

func TestBody(t *testing.T) {
	body := &record.Body{
		DeployHashes: []digest.Digest{testDigest(5), testDigest(4), testDigest(6)},
	}
	packed := body.Pack()
	assert.Equal(t, 1+3*digest.Length, len(packed), "packed size")

	unpacked, err := record.UnpackBody(packed)
	require.Nil(t, err, "unpack")
	assert.Equal(t, body.DeployHashes, unpacked.DeployHashes, "order is preserved")

	empty, err := record.UnpackBody([]byte{0x00})
	require.Nil(t, err, "empty body")
	assert.Equal(t, 0, len(empty.DeployHashes), "no deploys")

	_, err = record.UnpackBody(packed[:len(packed)-1])
	assert.Equal(t, fault.ErrRecordLength, err, "truncated body")

	_, err = record.UnpackBody(nil)
	assert.Equal(t, fault.ErrVarintTruncated, err, "missing count")
}

func TestDeployMetadata(t *testing.T) {
	metadata := &record.DeployMetadata{
		ExecutionResults: map[digest.Digest][]byte{
			testDigest(1): []byte("result one"),
			testDigest(2): {},
			testDigest(3): []byte("result three"),
		},
	}
	packed := metadata.Pack()

	unpacked, err := record.UnpackDeployMetadata(packed)
	require.Nil(t, err, "unpack")
	assert.Equal(t, metadata, unpacked, "round trip")

	hashes := unpacked.BlockHashes()
	require.Equal(t, 3, len(hashes), "hash count")
	assert.True(t, hashes[0].Compare(hashes[1]) < 0, "ascending")
	assert.True(t, hashes[1].Compare(hashes[2]) < 0, "ascending")

	assert.True(t, unpacked.Remove(testDigest(2)), "remove present")
	assert.False(t, unpacked.Remove(testDigest(2)), "remove absent")
	assert.False(t, unpacked.IsEmpty(), "two left")

	again, err := record.UnpackDeployMetadata(unpacked.Pack())
	require.Nil(t, err, "unpack after remove")
	assert.Equal(t, 2, len(again.ExecutionResults), "entries after remove")
}

func TestDeployMetadataInvalid(t *testing.T) {
	_, err := record.UnpackDeployMetadata([]byte{0x00})
	assert.Equal(t, fault.ErrEmptyDeployMetadata, err, "empty map")

	one := &record.DeployMetadata{
		ExecutionResults: map[digest.Digest][]byte{
			testDigest(1): []byte("result"),
		},
	}
	packed := one.Pack()

	_, err = record.UnpackDeployMetadata(packed[:len(packed)-1])
	assert.Equal(t, fault.ErrRecordLength, err, "truncated result")

	_, err = record.UnpackDeployMetadata(append(packed, 0x00))
	assert.Equal(t, fault.ErrRecordLength, err, "trailing data")

	// same hash twice breaks the ordering rule
	h := testDigest(9)
	duplicate := []byte{0x02}
	for i := 0; i < 2; i += 1 {
		duplicate = append(duplicate, h[:]...)
		duplicate = append(duplicate, 0x01, 'x')
	}
	_, err = record.UnpackDeployMetadata(duplicate)
	assert.Equal(t, fault.ErrRecordOrder, err, "duplicate block hash")
}
