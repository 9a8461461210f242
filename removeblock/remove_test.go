// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package removeblock_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/fixtures"
	"github.com/bitmark-inc/dbutils/integrity"
	"github.com/bitmark-inc/dbutils/record"
	"github.com/bitmark-inc/dbutils/removeblock"
	"github.com/bitmark-inc/dbutils/storage"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

var (
	d0 = fixtures.DeployHash("d0")
	d1 = fixtures.DeployHash("d1")
	d2 = fixtures.DeployHash("d2")
)

type chain struct {
	path   string
	b0     digest.Digest
	b1     digest.Digest
	writer *fixtures.Writer
}

// B0 has deploys D0 and D1, B1 has deploys D1 and D2
func buildChain(t *testing.T) chain {
	path, w, err := fixtures.NewStore(t.TempDir())
	require.Nil(t, err, "new store")

	root := w.Leaf("account-a", "balance-1")
	b0 := w.Block(0, digest.Digest{}, root, d0, d1)
	b1 := w.Block(1, b0, root, d1, d2)

	return chain{path: path, b0: b0, b1: b1, writer: w}
}

func (c chain) close(t *testing.T) chain {
	require.Nil(t, c.writer.Close(), "close")
	return c
}

// block hashes with a result for a deploy, nil if the record is absent
func executionResults(t *testing.T, path string, deployHash digest.Digest) []digest.Digest {
	h, err := storage.Open(path, storage.Options{ReadOnly: true})
	require.Nil(t, err, "open")
	defer h.Close()

	var blocks []digest.Digest
	err = h.View(func(trx storage.Transaction) error {
		data, err := trx.Get(storage.Pool.DeployMetadata, deployHash[:])
		if fault.IsErrNotFound(err) {
			return nil
		}
		if nil != err {
			return err
		}
		metadata, err := record.UnpackDeployMetadata(data)
		if nil != err {
			return err
		}
		blocks = metadata.BlockHashes()
		return nil
	})
	require.Nil(t, err, "view")
	return blocks
}

func has(t *testing.T, path string, pool *storage.PoolHandle, key digest.Digest) bool {
	h, err := storage.Open(path, storage.Options{ReadOnly: true})
	require.Nil(t, err, "open")
	defer h.Close()

	found := false
	err = h.View(func(trx storage.Transaction) error {
		found, err = trx.Has(pool, key[:])
		return err
	})
	require.Nil(t, err, "view")
	return found
}

func bodyHash(t *testing.T, path string, blockHash digest.Digest) digest.Digest {
	h, err := storage.Open(path, storage.Options{ReadOnly: true})
	require.Nil(t, err, "open")
	defer h.Close()

	var header *record.Header
	err = h.View(func(trx storage.Transaction) error {
		data, err := trx.Get(storage.Pool.BlockHeader, blockHash[:])
		if nil != err {
			return err
		}
		header, err = record.UnpackHeader(data)
		return err
	})
	require.Nil(t, err, "view")
	return header.BodyHash
}

func TestRemoveBlockCascades(t *testing.T) {
	c := buildChain(t).close(t)
	body0 := bodyHash(t, c.path, c.b0)
	body1 := bodyHash(t, c.path, c.b1)

	result, err := removeblock.RemoveBlock(c.path, c.b0, removeblock.Options{})
	require.Nil(t, err, "remove B0")
	assert.Equal(t, c.b0, result.BlockHash, "block hash")
	assert.Equal(t, uint64(0), result.Height, "height")
	assert.False(t, result.MissingBody, "body present")
	assert.Equal(t, uint64(1), result.DeploysDeleted, "D0 deleted")
	assert.Equal(t, uint64(1), result.DeploysUpdated, "D1 updated")
	assert.Equal(t, 0, len(result.MissingDeploys), "no missing deploys")

	assert.False(t, has(t, c.path, storage.Pool.BlockHeader, c.b0), "B0 header")
	assert.False(t, has(t, c.path, storage.Pool.BlockBody, body0), "B0 body")
	assert.True(t, has(t, c.path, storage.Pool.BlockHeader, c.b1), "B1 header")
	assert.True(t, has(t, c.path, storage.Pool.BlockBody, body1), "B1 body")

	assert.Nil(t, executionResults(t, c.path, d0), "D0 record deleted")
	assert.Equal(t, []digest.Digest{c.b1}, executionResults(t, c.path, d1), "D1 keeps B1")
	assert.Equal(t, []digest.Digest{c.b1}, executionResults(t, c.path, d2), "D2 unchanged")

	report, err := integrity.Check(c.path, nil, integrity.Options{})
	require.Nil(t, err, "check")
	assert.True(t, report.Clean(), "store must stay valid: %v", report.Corruptions)

	result, err = removeblock.RemoveBlock(c.path, c.b1, removeblock.Options{})
	require.Nil(t, err, "remove B1")
	assert.Equal(t, uint64(2), result.DeploysDeleted, "D1 and D2 deleted")

	assert.Nil(t, executionResults(t, c.path, d1), "D1 record deleted")
	assert.Nil(t, executionResults(t, c.path, d2), "D2 record deleted")

	contents, err := fixtures.Contents(c.path)
	require.Nil(t, err, "contents")
	for _, table := range []string{"block_header", "block_body", "deploy_metadata"} {
		assert.Equal(t, 0, len(contents[table]), "table: %s empty", table)
	}
	assert.Equal(t, 1, len(contents["trie"]), "trie untouched")
}

func TestRemoveBlockNotFound(t *testing.T) {
	c := buildChain(t).close(t)

	original, err := os.ReadFile(c.path)
	require.Nil(t, err, "read store")
	before, err := fixtures.Contents(c.path)
	require.Nil(t, err, "contents")

	_, err = removeblock.RemoveBlock(c.path, digest.NewDigest([]byte("no such block")), removeblock.Options{})
	assert.True(t, fault.IsErrNotFound(err), "not found: %v", err)

	after, err := fixtures.Contents(c.path)
	require.Nil(t, err, "contents")
	assert.Equal(t, before, after, "store unchanged")

	data, err := os.ReadFile(c.path)
	require.Nil(t, err, "read store")
	assert.Equal(t, len(original), len(data), "file size unchanged")
}

func TestRemoveBlockMissingBody(t *testing.T) {
	c := buildChain(t)
	body0 := (&record.Body{DeployHashes: []digest.Digest{d0, d1}}).Digest()
	c.writer.Delete(storage.Pool.BlockBody, body0[:])
	c.close(t)

	result, err := removeblock.RemoveBlock(c.path, c.b0, removeblock.Options{})
	require.Nil(t, err, "remove")
	assert.True(t, result.MissingBody, "missing body reported")
	assert.False(t, has(t, c.path, storage.Pool.BlockHeader, c.b0), "header removed")

	// metadata cannot be found without the body
	assert.Equal(t, []digest.Digest{c.b0}, executionResults(t, c.path, d0), "D0 untouched")
}

func TestRemoveBlockMissingDeploy(t *testing.T) {
	c := buildChain(t)
	c.writer.Delete(storage.Pool.DeployMetadata, d0[:])
	c.close(t)

	result, err := removeblock.RemoveBlock(c.path, c.b0, removeblock.Options{})
	require.Nil(t, err, "remove")
	assert.Equal(t, []digest.Digest{d0}, result.MissingDeploys, "missing deploy reported")
	assert.Equal(t, uint64(1), result.DeploysUpdated, "D1 updated")
	assert.Equal(t, []digest.Digest{c.b1}, executionResults(t, c.path, d1), "D1 keeps B1")
}

func TestRemoveBlockSharedBody(t *testing.T) {
	c := buildChain(t)
	root := c.writer.Leaf("account-a", "balance-1")
	other := c.writer.Block(7, c.b1, root, d0, d1)
	c.close(t)

	result, err := removeblock.RemoveBlock(c.path, c.b0, removeblock.Options{})
	require.Nil(t, err, "remove")
	assert.True(t, result.BodyRetained, "body kept for the other block")
	assert.True(t, has(t, c.path, storage.Pool.BlockBody, bodyHash(t, c.path, other)), "shared body")
	assert.Equal(t, []digest.Digest{other}, executionResults(t, c.path, d0), "D0 keeps other block")
}

// a damaged header of another block does not prevent the removal
func TestRemoveBlockBesideCorruptHeader(t *testing.T) {
	c := buildChain(t)
	damaged := digest.NewDigest([]byte("damaged header"))
	c.writer.Raw(storage.Pool.BlockHeader, damaged[:], []byte{0x01, 0x02, 0x03})
	c.close(t)
	body0 := bodyHash(t, c.path, c.b0)

	result, err := removeblock.RemoveBlock(c.path, c.b0, removeblock.Options{})
	require.Nil(t, err, "remove")
	assert.False(t, result.BodyRetained, "body not shared")
	assert.False(t, has(t, c.path, storage.Pool.BlockHeader, c.b0), "B0 header")
	assert.False(t, has(t, c.path, storage.Pool.BlockBody, body0), "B0 body")
	assert.True(t, has(t, c.path, storage.Pool.BlockHeader, damaged), "damaged header untouched")
	assert.Equal(t, []digest.Digest{c.b1}, executionResults(t, c.path, d1), "D1 keeps B1")
}

func TestRemoveBlockCorruptMetadataChangesNothing(t *testing.T) {
	c := buildChain(t)
	c.writer.Raw(storage.Pool.DeployMetadata, d1[:], []byte{0x00})
	c.close(t)

	before, err := fixtures.Contents(c.path)
	require.Nil(t, err, "contents")

	_, err = removeblock.RemoveBlock(c.path, c.b0, removeblock.Options{})
	assert.True(t, fault.IsErrCorruption(err), "corrupt metadata: %v", err)

	after, err := fixtures.Contents(c.path)
	require.Nil(t, err, "contents")
	assert.Equal(t, before, after, "nothing committed")
}

func TestRemoveBlockLocked(t *testing.T) {
	c := buildChain(t).close(t)

	h, err := storage.Open(c.path, storage.Options{})
	require.Nil(t, err, "open")
	defer h.Close()

	_, err = removeblock.RemoveBlock(c.path, c.b0, removeblock.Options{})
	assert.True(t, fault.IsErrOpen(err), "locked: %v", err)
}
